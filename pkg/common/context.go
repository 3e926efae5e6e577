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

// Package common holds small helpers shared across packages.
package common

import (
	"context"
)

// contextKey is a private type for context keys used in this package
type contextKey string

const cycleIDKey contextKey = "cycle_id"

// WithCycleID returns a new context carrying the discovery cycle ID
func WithCycleID(ctx context.Context, cycleID string) context.Context {
	return context.WithValue(ctx, cycleIDKey, cycleID)
}

// GetCycleID retrieves the discovery cycle ID from the context.
// Returns the ID and a boolean indicating if it was found
func GetCycleID(ctx context.Context) (string, bool) {
	cycleID, ok := ctx.Value(cycleIDKey).(string)

	return cycleID, ok && cycleID != ""
}
