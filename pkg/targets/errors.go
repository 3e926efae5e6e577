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

package targets

import "errors"

var (
	// ErrMalformedRecord marks a device record that cannot become a target.
	ErrMalformedRecord = errors.New("malformed device record")
	// ErrInvalidLabel marks a static label that Prometheus would reject.
	ErrInvalidLabel = errors.New("invalid static label")
)
