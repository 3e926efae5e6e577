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

// Package discovery drives the fleet to target-file pipeline on a fixed
// interval.
package discovery

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"golang.org/x/sync/semaphore"

	"github.com/carverauto/balena-sd/pkg/common"
	"github.com/carverauto/balena-sd/pkg/fleet"
	"github.com/carverauto/balena-sd/pkg/logger"
	"github.com/carverauto/balena-sd/pkg/publisher"
	"github.com/carverauto/balena-sd/pkg/targets"
)

// State is the scheduler's position within a cycle.
type State int32

const (
	StateIdle State = iota
	StateFetching
	StateFormatting
	StatePublishing
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateFetching:
		return "fetching"
	case StateFormatting:
		return "formatting"
	case StatePublishing:
		return "publishing"
	case StateStopped:
		return "stopped"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Discoverer periodically lists the fleet's devices and publishes them as a
// Prometheus target file. At most one cycle runs at a time.
type Discoverer struct {
	config    *Config
	client    FleetClient
	publisher TargetPublisher
	formatter *targets.Formatter
	clock     Clock
	metrics   Metrics
	logger    logger.Logger

	guard *semaphore.Weighted
	state atomic.Int32

	lastPublish atomic.Int64

	started   atomic.Bool
	done      chan struct{}
	closeOnce sync.Once
	fatal     chan error
	running   sync.WaitGroup
	cycles    sync.WaitGroup
}

// New returns a Discoverer. cfg is validated, which also fills its derived
// defaults. A nil clock, metrics or logger gets a working default.
func New(
	cfg *Config,
	client FleetClient,
	pub TargetPublisher,
	clock Clock,
	metrics Metrics,
	log logger.Logger,
) (*Discoverer, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: nil config", ErrConfig)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	formatter, err := targets.NewFormatter(cfg.Labels)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfig, err)
	}

	if clock == nil {
		clock = realClock{}
	}

	if metrics == nil {
		metrics = &NoOpMetrics{}
	}

	if log == nil {
		log = logger.NewTestLogger()
	}

	return &Discoverer{
		config:    cfg,
		client:    client,
		publisher: pub,
		formatter: formatter,
		clock:     clock,
		metrics:   metrics,
		logger:    log,
		guard:     semaphore.NewWeighted(1),
		done:      make(chan struct{}),
		fatal:     make(chan error, 1),
	}, nil
}

// NewDefault wires a Discoverer to the fleet API and the local filesystem.
func NewDefault(cfg *Config, metrics Metrics, log logger.Logger) (*Discoverer, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: nil config", ErrConfig)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if metrics == nil {
		metrics = &NoOpMetrics{}
	}

	client, err := fleet.NewClient(fleet.Config{
		Endpoint:         cfg.APIEndpoint,
		Token:            cfg.APIToken,
		OnReauthenticate: metrics.RecordReauthentication,
	}, nil, log)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfig, err)
	}

	pub, err := publisher.New(afero.NewOsFs(), publisher.Format(cfg.Format), log)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfig, err)
	}

	return New(cfg, client, pub, nil, metrics, log)
}

// State reports what the scheduler is doing right now.
func (d *Discoverer) State() State {
	return State(d.state.Load())
}

// LastPublish returns the time of the last successful publish, or the zero
// time if nothing has been published yet.
func (d *Discoverer) LastPublish() time.Time {
	ns := d.lastPublish.Load()
	if ns == 0 {
		return time.Time{}
	}

	return time.Unix(0, ns)
}

// setState moves to s unless the discoverer has already stopped.
func (d *Discoverer) setState(s State) {
	for {
		cur := d.state.Load()
		if State(cur) == StateStopped {
			return
		}

		if d.state.CompareAndSwap(cur, int32(s)) {
			return
		}
	}
}

// Start authenticates, runs a cycle immediately and then one per poll
// interval until ctx is cancelled, Stop is called, or a cycle hits an
// authentication failure. It implements lifecycle.Service.
func (d *Discoverer) Start(ctx context.Context) error {
	if !d.started.CompareAndSwap(false, true) {
		return errAlreadyStarted
	}

	d.running.Add(1)
	defer d.running.Done()
	defer d.state.Store(int32(StateStopped))
	defer d.cycles.Wait()

	select {
	case <-d.done:
		return errStopped
	default:
	}

	interval := time.Duration(d.config.PollInterval)

	d.logger.Info().
		Str("app", d.config.AppName).
		Str("outfile", d.config.Outfile).
		Dur("interval", interval).
		Dur("fetch_timeout", time.Duration(d.config.FetchTimeout)).
		Msg("Starting discovery")

	if err := d.authenticate(ctx); err != nil {
		if errors.Is(err, fleet.ErrAuthFailure) {
			return err
		}

		if ctx.Err() != nil {
			return ctx.Err()
		}

		d.logger.Warn().Err(err).Msg("Initial authentication failed, the first cycle will retry")
	}

	ticker := d.clock.Ticker(interval)
	defer ticker.Stop()

	d.dispatch(ctx, "initial")

	for {
		select {
		case <-ctx.Done():
			d.logger.Info().Msg("Discovery cancelled")

			return ctx.Err()
		case <-d.done:
			d.logger.Info().Msg("Discovery stopped")

			return nil
		case err := <-d.fatal:
			d.logger.Error().Err(err).Msg("Stopping discovery after authentication failure")

			return err
		case <-ticker.Chan():
			// a queued auth failure outranks a tick that became ready alongside it
			select {
			case err := <-d.fatal:
				d.logger.Error().Err(err).Msg("Stopping discovery after authentication failure")

				return err
			default:
			}

			d.dispatch(ctx, "tick")
		}
	}
}

// Stop ends the loop started by Start and waits, bounded by ctx, for the
// in-flight cycle to finish.
func (d *Discoverer) Stop(ctx context.Context) error {
	d.closeOnce.Do(func() {
		close(d.done)
	})

	finished := make(chan struct{})

	go func() {
		d.running.Wait()
		d.cycles.Wait()
		close(finished)
	}()

	select {
	case <-finished:
		d.state.Store(int32(StateStopped))

		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for discovery to stop: %w", ctx.Err())
	}
}

// RunCycle runs a single cycle synchronously. It returns ErrCycleInProgress
// if another cycle holds the guard.
func (d *Discoverer) RunCycle(ctx context.Context) error {
	if d.State() == StateStopped {
		return errStopped
	}

	if !d.guard.TryAcquire(1) {
		return ErrCycleInProgress
	}
	defer d.guard.Release(1)

	return d.runCycle(ctx)
}

// RunOnce authenticates and runs exactly one cycle. Any failure, including
// an empty target list, is returned.
func (d *Discoverer) RunOnce(ctx context.Context) error {
	if err := d.authenticate(ctx); err != nil {
		return err
	}

	return d.RunCycle(ctx)
}

func (d *Discoverer) authenticate(ctx context.Context) error {
	authCtx, cancel := context.WithTimeout(ctx, time.Duration(d.config.FetchTimeout))
	defer cancel()

	session, err := d.client.Authenticate(authCtx)
	if err != nil {
		return fmt.Errorf("authenticating: %w", err)
	}

	if session != nil {
		d.logger.Info().
			Str("username", session.Username).
			Int64("user_id", session.UserID).
			Msg("Authenticated with fleet API")
	}

	return nil
}

// dispatch starts a cycle in the background unless one is already running.
func (d *Discoverer) dispatch(ctx context.Context, trigger string) {
	if !d.guard.TryAcquire(1) {
		d.metrics.RecordSkippedTrigger()
		d.logger.Debug().Str("trigger", trigger).Msg("Previous cycle still running, skipping trigger")

		return
	}

	d.cycles.Add(1)

	go func() {
		defer d.cycles.Done()
		defer d.guard.Release(1)

		if err := d.runCycle(ctx); errors.Is(err, fleet.ErrAuthFailure) {
			select {
			case d.fatal <- err:
			default:
			}
		}
	}()
}

func (d *Discoverer) runCycle(ctx context.Context) error {
	started := d.clock.Now()
	cycleID := uuid.NewString()
	ctx = common.WithCycleID(ctx, cycleID)

	log := d.logger.With().
		Str("cycle_id", cycleID).
		Str("app", d.config.AppName).
		Logger()

	defer d.setState(StateIdle)

	result, err := d.cycle(ctx, &log)

	elapsed := d.clock.Now().Sub(started)
	d.metrics.RecordCycle(result, elapsed)

	log.Debug().Str("result", result).Dur("elapsed", elapsed).Msg("Cycle finished")

	return err
}

func (d *Discoverer) cycle(ctx context.Context, log *zerolog.Logger) (string, error) {
	d.setState(StateFetching)

	fetchCtx, cancel := context.WithTimeout(ctx, time.Duration(d.config.FetchTimeout))
	devices, err := d.client.ListDevices(fetchCtx, d.config.AppName)

	cancel()

	if err != nil {
		return d.fetchFailed(ctx, log, err)
	}

	if len(devices) == 0 {
		log.Warn().Msg("No devices found")
	} else {
		log.Debug().Int("devices", len(devices)).Msg("Fetched devices")
	}

	d.setState(StateFormatting)

	groups, skipped := d.formatter.FormatAll(devices)
	for _, skipErr := range skipped {
		log.Warn().Err(skipErr).Msg("Skipping malformed device record")
	}

	if len(skipped) > 0 {
		d.metrics.RecordSkippedDevices(len(skipped))
	}

	d.setState(StatePublishing)

	err = d.publisher.Publish(ctx, d.config.Outfile, groups)

	switch {
	case err == nil:
	case errors.Is(err, publisher.ErrNoTargets):
		log.Warn().Str("path", d.config.Outfile).Msg("Nothing to publish, keeping previous target file")

		return ResultNoTargets, err
	case ctx.Err() != nil:
		log.Info().Err(err).Str("path", d.config.Outfile).Msg("Publish abandoned")

		return ResultCancelled, err
	default:
		log.Error().Err(err).Str("path", d.config.Outfile).Msg("Failed to publish targets")

		return ResultPublishError, err
	}

	now := d.clock.Now()
	d.lastPublish.Store(now.UnixNano())
	d.metrics.RecordPublishedTargets(len(groups), now)

	log.Info().
		Int("targets", len(groups)).
		Int("skipped", len(skipped)).
		Str("path", d.config.Outfile).
		Msg("Published targets")

	return ResultSuccess, nil
}

func (d *Discoverer) fetchFailed(ctx context.Context, log *zerolog.Logger, err error) (string, error) {
	switch {
	case ctx.Err() != nil:
		log.Info().Err(err).Msg("Fetch cancelled")

		return ResultCancelled, err
	case errors.Is(err, fleet.ErrAuthFailure):
		log.Error().Err(err).Msg("Fleet API rejected the token")

		return ResultAuthFailure, err
	case errors.Is(err, fleet.ErrNotFound):
		log.Warn().Err(err).Msg("Application not found, skipping cycle")

		return ResultNotFound, err
	}

	if !errors.Is(err, fleet.ErrTransientFetch) {
		err = fmt.Errorf("%w: %w", fleet.ErrTransientFetch, err)
	}

	log.Warn().Err(err).Msg("Fleet fetch failed, retrying next cycle")

	return ResultFetchError, err
}
