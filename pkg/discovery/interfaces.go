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

//go:generate mockgen -destination=mock_discovery.go -package=discovery github.com/carverauto/balena-sd/pkg/discovery Clock,Ticker,FleetClient,TargetPublisher

import (
	"context"
	"time"

	"github.com/carverauto/balena-sd/pkg/fleet"
	"github.com/carverauto/balena-sd/pkg/models"
)

// Clock abstracts time-related operations.
type Clock interface {
	Now() time.Time
	Ticker(d time.Duration) Ticker
}

// Ticker abstracts the ticker behavior.
type Ticker interface {
	Chan() <-chan time.Time
	Stop()
}

// FleetClient is the part of the fleet API a discovery cycle needs.
type FleetClient interface {
	Authenticate(ctx context.Context) (*fleet.Session, error)
	ListDevices(ctx context.Context, appName string) ([]models.Device, error)
}

// TargetPublisher commits a target list to its destination.
type TargetPublisher interface {
	Publish(ctx context.Context, path string, groups []models.TargetGroup) error
}
