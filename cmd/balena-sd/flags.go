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

package main

import (
	"fmt"
	"io"

	"github.com/spf13/pflag"

	"github.com/carverauto/balena-sd/pkg/discovery"
	"github.com/carverauto/balena-sd/pkg/models"
)

type options struct {
	flags *pflag.FlagSet

	configPath   string
	apiToken     string
	appName      string
	outfile      string
	interval     string
	fetchTimeout string
	apiEndpoint  string
	labels       map[string]string
	format       string
	metricsAddr  string
	verbose      bool
	once         bool
	showVersion  bool
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	opts := &options{}

	fs := pflag.NewFlagSet("balena-sd", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.SortFlags = false

	fs.StringVar(&opts.configPath, "config", "", "path to a JSON or YAML config file")
	fs.StringVar(&opts.apiToken, "api-token", "", "fleet API token (prefer "+discovery.EnvPrefix+"API_TOKEN)")
	fs.StringVar(&opts.appName, "app-name", "", "application whose devices become targets")
	fs.StringVarP(&opts.outfile, "outfile", "o", discovery.DefaultOutfile, "target file to publish")
	fs.StringVar(&opts.interval, "interval", discovery.DefaultPollInterval.String(),
		"time between discovery cycles (duration or seconds)")
	fs.StringVar(&opts.fetchTimeout, "fetch-timeout", "", "bound on each cycle's API calls (default 80% of interval)")
	fs.StringVar(&opts.apiEndpoint, "api-endpoint", "", "fleet API base URL")
	fs.StringToStringVar(&opts.labels, "label", nil, "static label added to every target, key=value (repeatable)")
	fs.StringVar(&opts.format, "format", "", "output format: auto, json or yaml")
	fs.StringVar(&opts.metricsAddr, "metrics-addr", "", "serve /metrics and /healthz on this address")
	fs.BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")
	fs.BoolVar(&opts.once, "once", false, "run a single cycle and exit")
	fs.BoolVar(&opts.showVersion, "version", false, "print the version and exit")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if fs.NArg() > 0 {
		return nil, fmt.Errorf("%w: unexpected arguments %v", discovery.ErrConfig, fs.Args())
	}

	opts.flags = fs

	return opts, nil
}

// apply overrides cfg with every flag the user set explicitly.
func (o *options) apply(cfg *discovery.Config) error {
	changed := o.flags.Changed

	if changed("api-token") {
		cfg.APIToken = o.apiToken
	}

	if changed("app-name") {
		cfg.AppName = o.appName
	}

	if changed("outfile") {
		cfg.Outfile = o.outfile
	}

	if changed("interval") {
		d, err := models.ParseDuration(o.interval)
		if err != nil {
			return fmt.Errorf("%w: --interval: %w", discovery.ErrConfig, err)
		}

		cfg.PollInterval = d
	}

	if changed("fetch-timeout") {
		d, err := models.ParseDuration(o.fetchTimeout)
		if err != nil {
			return fmt.Errorf("%w: --fetch-timeout: %w", discovery.ErrConfig, err)
		}

		cfg.FetchTimeout = d
	}

	if changed("api-endpoint") {
		cfg.APIEndpoint = o.apiEndpoint
	}

	if changed("label") {
		if cfg.Labels == nil {
			cfg.Labels = make(map[string]string, len(o.labels))
		}

		for k, v := range o.labels {
			cfg.Labels[k] = v
		}
	}

	if changed("format") {
		cfg.Format = o.format
	}

	if changed("metrics-addr") {
		cfg.MetricsAddr = o.metricsAddr
	}

	if changed("verbose") {
		cfg.Verbose = o.verbose
	}

	return nil
}
