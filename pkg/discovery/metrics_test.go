/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package discovery

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusMetrics(t *testing.T) {
	m := NewPrometheusMetrics()

	m.RecordCycle(ResultSuccess, 120*time.Millisecond)
	m.RecordCycle(ResultSuccess, 80*time.Millisecond)
	m.RecordCycle(ResultFetchError, time.Second)
	m.RecordPublishedTargets(12, time.Unix(1700000000, 0))
	m.RecordSkippedDevices(2)
	m.RecordSkippedDevices(1)
	m.RecordSkippedTrigger()
	m.RecordReauthentication()

	assert.InDelta(t, 2, testutil.ToFloat64(m.cycles.WithLabelValues(ResultSuccess)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.cycles.WithLabelValues(ResultFetchError)), 0)
	assert.InDelta(t, 12, testutil.ToFloat64(m.publishedTargets), 0)
	assert.InDelta(t, 1700000000, testutil.ToFloat64(m.lastSuccess), 0)
	assert.InDelta(t, 3, testutil.ToFloat64(m.skippedDevices), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.skippedTriggers), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.reauths), 0)
}

func TestPrometheusMetrics_Handler(t *testing.T) {
	m := NewPrometheusMetrics()
	m.RecordCycle(ResultNoTargets, time.Millisecond)

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `balena_sd_cycles_total{result="no_targets"} 1`)
	assert.Contains(t, string(body), "balena_sd_cycle_duration_seconds_bucket")
	assert.Contains(t, string(body), "go_goroutines")
}
