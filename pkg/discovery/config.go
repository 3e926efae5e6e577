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
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/carverauto/balena-sd/pkg/fleet"
	"github.com/carverauto/balena-sd/pkg/models"
	"github.com/carverauto/balena-sd/pkg/publisher"
	"github.com/carverauto/balena-sd/pkg/targets"
)

const (
	// EnvPrefix prefixes every environment variable the service reads.
	EnvPrefix = "BALENA_"

	DefaultOutfile      = "./targets.json"
	DefaultPollInterval = 10 * time.Second

	// fetch timeout defaults to this share of the poll interval
	fetchTimeoutRatio = 0.8
)

// Config is the complete service configuration.
type Config struct {
	APIToken     string            `json:"api_token" yaml:"api_token" sensitive:"true"`
	AppName      string            `json:"app_name" yaml:"app_name"`
	Outfile      string            `json:"outfile" yaml:"outfile"`
	PollInterval models.Duration   `json:"poll_interval" yaml:"poll_interval" env:"DISCOVERY_INTERVAL"`
	FetchTimeout models.Duration   `json:"fetch_timeout" yaml:"fetch_timeout"`
	APIEndpoint  string            `json:"api_endpoint" yaml:"api_endpoint"`
	Labels       map[string]string `json:"labels" yaml:"labels"`
	Format       string            `json:"format" yaml:"format"`
	MetricsAddr  string            `json:"metrics_addr" yaml:"metrics_addr"`
	Verbose      bool              `json:"verbose" yaml:"verbose"`
}

// DefaultConfig returns the configuration used before any file, environment
// variable or flag is applied.
func DefaultConfig() *Config {
	return &Config{
		Outfile:      DefaultOutfile,
		PollInterval: models.Duration(DefaultPollInterval),
		APIEndpoint:  fleet.DefaultEndpoint,
		Format:       string(publisher.FormatAuto),
	}
}

// Validate checks the configuration and fills derived defaults.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.APIToken) == "" {
		return fmt.Errorf("%w: api_token is required", ErrConfig)
	}

	if strings.TrimSpace(c.AppName) == "" {
		return fmt.Errorf("%w: app_name is required", ErrConfig)
	}

	if c.Outfile == "" {
		c.Outfile = DefaultOutfile
	}

	if c.APIEndpoint == "" {
		c.APIEndpoint = fleet.DefaultEndpoint
	}

	if u, err := url.Parse(c.APIEndpoint); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: api_endpoint %q is not an http(s) URL", ErrConfig, c.APIEndpoint)
	}

	interval := time.Duration(c.PollInterval)
	if interval <= 0 {
		return fmt.Errorf("%w: poll_interval must be positive, got %s", ErrConfig, interval)
	}

	if c.FetchTimeout == 0 {
		c.FetchTimeout = models.Duration(time.Duration(float64(interval) * fetchTimeoutRatio))
	}

	if timeout := time.Duration(c.FetchTimeout); timeout <= 0 || timeout >= interval {
		return fmt.Errorf("%w: fetch_timeout %s must be positive and shorter than poll_interval %s",
			ErrConfig, timeout, interval)
	}

	if err := targets.ValidateLabels(c.Labels); err != nil {
		return fmt.Errorf("%w: %w", ErrConfig, err)
	}

	format, err := publisher.ParseFormat(c.Format)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrConfig, err)
	}

	c.Format = string(format)

	return nil
}
