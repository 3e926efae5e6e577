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
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsNamespace = "balena_sd"

// Cycle results recorded by Metrics.RecordCycle.
const (
	ResultSuccess      = "success"
	ResultFetchError   = "fetch_error"
	ResultNotFound     = "not_found"
	ResultAuthFailure  = "auth_failure"
	ResultPublishError = "publish_error"
	ResultNoTargets    = "no_targets"
	ResultCancelled    = "cancelled"
)

// Metrics defines the interface for collecting discovery metrics
type Metrics interface {
	RecordCycle(result string, duration time.Duration)
	RecordPublishedTargets(count int, at time.Time)
	RecordSkippedDevices(count int)
	RecordSkippedTrigger()
	RecordReauthentication()
}

// NoOpMetrics provides a no-op implementation of the Metrics interface
type NoOpMetrics struct{}

func (*NoOpMetrics) RecordCycle(string, time.Duration) {}

func (*NoOpMetrics) RecordPublishedTargets(int, time.Time) {}

func (*NoOpMetrics) RecordSkippedDevices(int) {}

func (*NoOpMetrics) RecordSkippedTrigger() {}

func (*NoOpMetrics) RecordReauthentication() {}

// PrometheusMetrics exports discovery metrics through a Prometheus registry.
type PrometheusMetrics struct {
	registry *prometheus.Registry

	cycles           *prometheus.CounterVec
	cycleDuration    prometheus.Histogram
	publishedTargets prometheus.Gauge
	lastSuccess      prometheus.Gauge
	skippedDevices   prometheus.Counter
	skippedTriggers  prometheus.Counter
	reauths          prometheus.Counter
}

// NewPrometheusMetrics registers the discovery metrics, plus the Go runtime
// and process collectors, on a fresh registry.
func NewPrometheusMetrics() *PrometheusMetrics {
	m := &PrometheusMetrics{
		registry: prometheus.NewRegistry(),
		cycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "cycles_total",
			Help:      "Discovery cycles by result.",
		}, []string{"result"}),
		cycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "cycle_duration_seconds",
			Help:      "Wall time of discovery cycles.",
			Buckets:   prometheus.DefBuckets,
		}),
		publishedTargets: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "published_targets",
			Help:      "Targets in the most recently published file.",
		}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "last_publish_timestamp_seconds",
			Help:      "Unix time of the last successful publish.",
		}),
		skippedDevices: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "skipped_devices_total",
			Help:      "Device records dropped as malformed.",
		}),
		skippedTriggers: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "skipped_triggers_total",
			Help:      "Ticks dropped because a cycle was still running.",
		}),
		reauths: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "reauthentications_total",
			Help:      "Sessions re-established after the API rejected them.",
		}),
	}

	m.registry.MustRegister(
		m.cycles,
		m.cycleDuration,
		m.publishedTargets,
		m.lastSuccess,
		m.skippedDevices,
		m.skippedTriggers,
		m.reauths,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

func (m *PrometheusMetrics) RecordCycle(result string, duration time.Duration) {
	m.cycles.WithLabelValues(result).Inc()
	m.cycleDuration.Observe(duration.Seconds())
}

func (m *PrometheusMetrics) RecordPublishedTargets(count int, at time.Time) {
	m.publishedTargets.Set(float64(count))
	m.lastSuccess.Set(float64(at.Unix()))
}

func (m *PrometheusMetrics) RecordSkippedDevices(count int) {
	m.skippedDevices.Add(float64(count))
}

func (m *PrometheusMetrics) RecordSkippedTrigger() {
	m.skippedTriggers.Inc()
}

func (m *PrometheusMetrics) RecordReauthentication() {
	m.reauths.Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *PrometheusMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
