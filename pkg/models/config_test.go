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
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestParseDuration(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    time.Duration
		wantErr bool
	}{
		{name: "bare seconds", input: "10", want: 10 * time.Second},
		{name: "bare seconds with spaces", input: " 30 ", want: 30 * time.Second},
		{name: "go duration", input: "1m30s", want: 90 * time.Second},
		{name: "milliseconds", input: "250ms", want: 250 * time.Millisecond},
		{name: "empty", input: "", wantErr: true},
		{name: "garbage", input: "soon", wantErr: true},
		{name: "largest whole seconds", input: "9223372036", want: 9223372036 * time.Second},
		{name: "seconds overflow", input: "9999999999999", wantErr: true},
		{name: "negative seconds overflow", input: "-9999999999999", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDuration(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, errInvalidDuration)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, time.Duration(got))
		})
	}
}

func TestDurationJSON(t *testing.T) {
	var cfg struct {
		A Duration `json:"a"`
		B Duration `json:"b"`
	}

	require.NoError(t, json.Unmarshal([]byte(`{"a": 15, "b": "2m"}`), &cfg))
	assert.Equal(t, 15*time.Second, time.Duration(cfg.A))
	assert.Equal(t, 2*time.Minute, time.Duration(cfg.B))

	out, err := json.Marshal(cfg.A)
	require.NoError(t, err)
	assert.JSONEq(t, `"15s"`, string(out))

	require.Error(t, json.Unmarshal([]byte(`{"a": true}`), &cfg))
	require.Error(t, json.Unmarshal([]byte(`{"a": "forever"}`), &cfg))
	require.ErrorIs(t, json.Unmarshal([]byte(`{"a": 9999999999999}`), &cfg), errInvalidDuration)
}

func TestDurationYAML(t *testing.T) {
	var cfg struct {
		A Duration `yaml:"a"`
		B Duration `yaml:"b"`
	}

	require.NoError(t, yaml.Unmarshal([]byte("a: 20\nb: 45s\n"), &cfg))
	assert.Equal(t, 20*time.Second, time.Duration(cfg.A))
	assert.Equal(t, 45*time.Second, time.Duration(cfg.B))

	out, err := yaml.Marshal(cfg)
	require.NoError(t, err)
	assert.Equal(t, "a: 20s\nb: 45s\n", string(out))

	require.Error(t, yaml.Unmarshal([]byte("a: [1, 2]\n"), &cfg))
}
