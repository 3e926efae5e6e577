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

// Package targets turns fleet devices into Prometheus file_sd target groups.
package targets

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/prometheus/common/model"

	"github.com/carverauto/balena-sd/pkg/models"
)

const (
	// DeviceDomain is the public VPN hostname suffix every device answers on.
	DeviceDomain = ".resindevice.io"
	// DevicePort is the scrape port exposed through the device URL.
	DevicePort = 80

	LabelDeviceUUID = "device_uuid"
	LabelAppName    = "app_name"
)

// Formatter maps devices to target groups, attaching a fixed set of static
// labels to every group.
type Formatter struct {
	staticLabels map[string]string
}

// NewFormatter validates static and returns a Formatter that copies them
// onto every target group.
func NewFormatter(static map[string]string) (*Formatter, error) {
	if err := ValidateLabels(static); err != nil {
		return nil, err
	}

	labels := make(map[string]string, len(static))
	for k, v := range static {
		labels[k] = v
	}

	return &Formatter{staticLabels: labels}, nil
}

// ValidateLabels reports static labels that are not valid Prometheus label
// names or values, or that collide with the per-device labels.
func ValidateLabels(labels map[string]string) error {
	for name, value := range labels {
		if name == LabelDeviceUUID || name == LabelAppName {
			return fmt.Errorf("%w: %q is reserved", ErrInvalidLabel, name)
		}

		if !model.LabelName(name).IsValid() {
			return fmt.Errorf("%w: bad name %q", ErrInvalidLabel, name)
		}

		if !model.LabelValue(value).IsValid() {
			return fmt.Errorf("%w: bad value for %q", ErrInvalidLabel, name)
		}
	}

	return nil
}

// Endpoint returns the scrape address of the device with the given uuid.
func Endpoint(uuid string) string {
	return uuid + DeviceDomain + ":" + strconv.Itoa(DevicePort)
}

// Format builds the target group for a single device. It fails with
// ErrMalformedRecord when the uuid or application name is blank.
func (f *Formatter) Format(device models.Device) (models.TargetGroup, error) {
	if strings.TrimSpace(device.UUID) == "" {
		return models.TargetGroup{}, fmt.Errorf("%w: empty uuid", ErrMalformedRecord)
	}

	if strings.TrimSpace(device.ApplicationName) == "" {
		return models.TargetGroup{}, fmt.Errorf("%w: device %s has no application name", ErrMalformedRecord, device.UUID)
	}

	if !model.LabelValue(device.UUID).IsValid() || !model.LabelValue(device.ApplicationName).IsValid() {
		return models.TargetGroup{}, fmt.Errorf("%w: device %q is not valid UTF-8", ErrMalformedRecord, device.UUID)
	}

	labels := make(map[string]string, len(f.staticLabels)+2)
	for k, v := range f.staticLabels {
		labels[k] = v
	}

	labels[LabelDeviceUUID] = device.UUID
	labels[LabelAppName] = device.ApplicationName

	return models.TargetGroup{
		Targets: []string{Endpoint(device.UUID)},
		Labels:  labels,
	}, nil
}

// FormatAll formats devices in order, skipping malformed records. Each
// skipped record contributes one error to the second return value.
func (f *Formatter) FormatAll(devices []models.Device) ([]models.TargetGroup, []error) {
	groups := make([]models.TargetGroup, 0, len(devices))

	var errs []error

	for i, device := range devices {
		group, err := f.Format(device)
		if err != nil {
			errs = append(errs, fmt.Errorf("record %d: %w", i, err))

			continue
		}

		groups = append(groups, group)
	}

	return groups, errs
}

//nolint:gochecknoglobals // zero-label formatter behind the package helpers
var plain = &Formatter{}

// Format formats a device without static labels.
func Format(device models.Device) (models.TargetGroup, error) {
	return plain.Format(device)
}

// FormatAll formats devices without static labels.
func FormatAll(devices []models.Device) ([]models.TargetGroup, []error) {
	return plain.FormatAll(devices)
}
