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
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/carverauto/balena-sd/pkg/config"
	"github.com/carverauto/balena-sd/pkg/discovery"
	httpx "github.com/carverauto/balena-sd/pkg/http"
	"github.com/carverauto/balena-sd/pkg/lifecycle"
	"github.com/carverauto/balena-sd/pkg/logger"
	"github.com/carverauto/balena-sd/pkg/models"
	"github.com/carverauto/balena-sd/pkg/version"
)

const serviceName = "balena-sd"

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

// run returns the process exit code: 0 after a clean shutdown or a
// successful single cycle, 1 otherwise.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts, err := parseFlags(args, stderr)
	if errors.Is(err, pflag.ErrHelp) {
		return 0
	}

	if err != nil {
		_, _ = fmt.Fprintf(stderr, "%s: %v\n", serviceName, err)

		return 1
	}

	if opts.showVersion {
		_, _ = fmt.Fprintf(stdout, "%s %s\n", serviceName, version.GetFullVersion())

		return 0
	}

	logConfig := logger.DefaultConfig()
	if opts.verbose {
		logConfig.Debug = true
	}

	if err := lifecycle.InitializeLogger(logConfig); err != nil {
		_, _ = fmt.Fprintf(stderr, "%s: %v\n", serviceName, err)

		return 1
	}

	cfg, err := loadConfig(ctx, opts)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "%s: %v\n", serviceName, err)

		return 1
	}

	// verbose may also come from the config file or environment
	if cfg.Verbose && !logConfig.Debug {
		logConfig.Debug = true
		logger.SetDebug(true)
	}

	log, err := lifecycle.CreateComponentLogger(serviceName, logConfig)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "%s: %v\n", serviceName, err)

		return 1
	}

	if err := serve(ctx, cfg, opts.once, log); err != nil {
		log.Error().Err(err).Msg("Exiting")

		return 1
	}

	return 0
}

// loadConfig layers defaults, the config file, BALENA_* environment
// variables and explicit flags, then validates the result.
func loadConfig(ctx context.Context, opts *options) (*discovery.Config, error) {
	cfg := discovery.DefaultConfig()

	if err := config.NewConfig(nil, discovery.EnvPrefix).Load(ctx, opts.configPath, cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", discovery.ErrConfig, err)
	}

	if err := opts.apply(cfg); err != nil {
		return nil, err
	}

	if err := config.ValidateConfig(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func serve(ctx context.Context, cfg *discovery.Config, once bool, log logger.Logger) error {
	if filtered, err := models.FilterSensitiveFields(cfg); err == nil {
		log.Info().Interface("config", filtered).Str("version", version.GetVersion()).Msg("Starting " + serviceName)
	}

	var (
		metrics discovery.Metrics = &discovery.NoOpMetrics{}
		prom    *discovery.PrometheusMetrics
	)

	if cfg.MetricsAddr != "" {
		prom = discovery.NewPrometheusMetrics()
		metrics = prom
	}

	d, err := discovery.NewDefault(cfg, metrics, log)
	if err != nil {
		return err
	}

	if once {
		onceCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		return d.RunOnce(onceCtx)
	}

	opts := &lifecycle.ServiceOptions{
		ServiceName: serviceName,
		Service:     d,
		Logger:      log,
	}

	if prom != nil {
		opts.HTTPAddr = cfg.MetricsAddr
		opts.HTTPHandler = httpx.NewObservabilityMux(prom.Handler(), d.HealthHandler(), log)
	}

	return lifecycle.RunService(ctx, opts)
}
