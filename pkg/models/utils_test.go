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

package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sourceSettings struct {
	Endpoint string `json:"endpoint"`
	Secret   string `json:"secret" sensitive:"true"`
}

type serviceSettings struct {
	Token    string            `json:"api_token" sensitive:"true"`
	AppName  string            `json:"app_name"`
	Interval Duration          `json:"poll_interval"`
	Labels   map[string]string `json:"labels,omitempty"`
	Sources  []sourceSettings  `json:"sources"`
	Ignored  string            `json:"-"`
	internal string
	NoTag    bool
}

func TestFilterSensitiveFields(t *testing.T) {
	input := &serviceSettings{
		Token:    "super-secret",
		AppName:  "myapp",
		Interval: Duration(10 * time.Second),
		Labels:   map[string]string{"env": "prod"},
		Sources:  []sourceSettings{{Endpoint: "https://api", Secret: "hidden"}},
		Ignored:  "skip me",
		internal: "private",
		NoTag:    true,
	}

	got, err := FilterSensitiveFields(input)
	require.NoError(t, err)

	assert.NotContains(t, got, "api_token")
	assert.NotContains(t, got, "Ignored")
	assert.NotContains(t, got, "internal")
	assert.Equal(t, "myapp", got["app_name"])
	assert.Equal(t, Duration(10*time.Second), got["poll_interval"])
	assert.Equal(t, map[string]interface{}{"env": "prod"}, got["labels"])
	assert.Equal(t, true, got["NoTag"])
	assert.Equal(t, []interface{}{map[string]interface{}{"endpoint": "https://api"}}, got["sources"])
}

func TestFilterSensitiveFields_NonStruct(t *testing.T) {
	got, err := FilterSensitiveFields(nil)
	require.NoError(t, err)
	assert.Empty(t, got)

	var nilPtr *serviceSettings

	got, err = FilterSensitiveFields(nilPtr)
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = FilterSensitiveFields("plain string")
	require.Error(t, err)
}
