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
	"encoding/json"
	"net/http"
	"time"
)

type healthResponse struct {
	Status      string `json:"status"`
	State       string `json:"state"`
	LastPublish string `json:"last_publish,omitempty"`
}

// HealthHandler reports the scheduler state as JSON. It answers 503 once
// the discoverer has stopped.
func (d *Discoverer) HealthHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		state := d.State()

		resp := healthResponse{
			Status: "ok",
			State:  state.String(),
		}

		if last := d.LastPublish(); !last.IsZero() {
			resp.LastPublish = last.UTC().Format(time.RFC3339)
		}

		code := http.StatusOK
		if state == StateStopped {
			resp.Status = "stopped"
			code = http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)

		if err := json.NewEncoder(w).Encode(resp); err != nil {
			d.logger.Debug().Err(err).Msg("Failed to write health response")
		}
	})
}
