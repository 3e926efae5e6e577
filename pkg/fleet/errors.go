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

import "errors"

var (
	// ErrAuthFailure means the API token is absent, malformed, or rejected.
	// Callers treat it as fatal.
	ErrAuthFailure = errors.New("fleet authentication failed")
	// ErrTransientFetch covers network errors, timeouts, throttling, server
	// errors and undecodable responses. The next cycle may succeed.
	ErrTransientFetch = errors.New("transient fleet fetch failure")
	// ErrNotFound means the requested application does not exist.
	ErrNotFound = errors.New("application not found")

	errMissingToken         = errors.New("api token is empty")
	errMalformedToken       = errors.New("api token contains whitespace or control characters")
	errUnauthorized         = errors.New("request unauthorized")
	errUnexpectedStatusCode = errors.New("unexpected status code")
	errServerError          = errors.New("server error")
	errThrottled            = errors.New("rate limited")
	errInvalidEndpoint      = errors.New("invalid api endpoint")
	errAmbiguousApplication = errors.New("application name matched more than one application")
)
