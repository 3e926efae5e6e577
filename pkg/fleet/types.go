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

package fleet

import "time"

// Session is an established identity against the fleet API. The token never
// leaves the process.
type Session struct {
	Token         string    `json:"-"`
	UserID        int64     `json:"user_id"`
	Username      string    `json:"username"`
	EstablishedAt time.Time `json:"established_at"`
}

// odataResponse is the envelope every v4 resource query returns.
type odataResponse[T any] struct {
	D []T `json:"d"`
}

type applicationRecord struct {
	ID      int64  `json:"id"`
	AppName string `json:"app_name"`
}

type deviceRecord struct {
	UUID        string              `json:"uuid"`
	Application []applicationRecord `json:"application"`
}

type whoamiResponse struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}
