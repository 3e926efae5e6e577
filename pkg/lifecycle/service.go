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

// Package lifecycle runs long-lived services until a signal or a fatal error.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/carverauto/balena-sd/pkg/logger"
)

const (
	defaultShutdownTimeout = 10 * time.Second
	readHeaderTimeout      = 5 * time.Second
)

var errNoService = errors.New("no service configured")

// Service is a component whose Start blocks until the context is cancelled,
// Stop is called, or it hits a fatal error.
type Service interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// ServiceOptions configures RunService.
type ServiceOptions struct {
	ServiceName     string
	Service         Service
	ShutdownTimeout time.Duration
	Logger          logger.Logger

	// HTTPAddr, when set, serves HTTPHandler alongside the service.
	HTTPAddr    string
	HTTPHandler http.Handler

	// Signals defaults to SIGINT and SIGTERM.
	Signals []os.Signal
}

// RunService starts opts.Service and blocks until a shutdown signal arrives
// or the service returns on its own. A signal-initiated shutdown returns nil.
func RunService(ctx context.Context, opts *ServiceOptions) error {
	if opts == nil || opts.Service == nil {
		return fmt.Errorf("lifecycle: %w", errNoService)
	}

	log := opts.Logger
	if log == nil {
		log = logger.Wrap(logger.WithComponent(opts.ServiceName))
	}

	signals := opts.Signals
	if len(signals) == 0 {
		signals = []os.Signal{syscall.SIGINT, syscall.SIGTERM}
	}

	sigCtx, stop := signal.NotifyContext(ctx, signals...)
	defer stop()

	runCtx, cancelRun := context.WithCancel(sigCtx)
	defer cancelRun()

	g, gctx := errgroup.WithContext(runCtx)

	g.Go(func() error {
		// the service returning on its own tears down the listener too
		defer cancelRun()

		err := opts.Service.Start(gctx)
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}

		return nil
	})

	if opts.HTTPAddr != "" && opts.HTTPHandler != nil {
		server := &http.Server{
			Addr:              opts.HTTPAddr,
			Handler:           opts.HTTPHandler,
			ReadHeaderTimeout: readHeaderTimeout,
		}

		g.Go(func() error {
			log.Info().Str("addr", opts.HTTPAddr).Msg("Starting HTTP listener")

			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("http listener: %w", err)
			}

			return nil
		})

		g.Go(func() error {
			<-gctx.Done()

			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout(opts))
			defer cancel()

			return server.Shutdown(shutdownCtx)
		})
	}

	g.Go(func() error {
		<-gctx.Done()

		if sigCtx.Err() != nil {
			log.Info().Str("service", opts.ServiceName).Msg("Shutdown signal received")
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout(opts))
		defer cancel()

		if err := opts.Service.Stop(shutdownCtx); err != nil {
			log.Error().Err(err).Str("service", opts.ServiceName).Msg("Failed to stop service cleanly")
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("%s: %w", opts.ServiceName, err)
	}

	log.Info().Str("service", opts.ServiceName).Msg("Service stopped")

	return nil
}

func shutdownTimeout(opts *ServiceOptions) time.Duration {
	if opts.ShutdownTimeout > 0 {
		return opts.ShutdownTimeout
	}

	return defaultShutdownTimeout
}
