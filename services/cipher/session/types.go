// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package session owns the single live key search of a controlling layer.
//
// A Controller runs at most one annealer at a time on a dedicated goroutine.
// The caller starts a search and receives a Handle, then polls Snapshot,
// subscribes to rate-limited progress, stops the search, and reads the
// Result once it is terminal.
//
// # Concurrency
//
// The search state is owned by the worker goroutine. Progress is published
// into an atomic cell as immutable Snapshot values, so readers never race the
// worker. Stop cancels the worker's context and waits up to GracePeriod for
// it to exit; a worker still running after that is reported with
// ErrStopTimeout, which callers may treat as "best-effort stop".
//
// # Errors
//
//   - ErrSearchActive, ErrNoActiveSearch: concurrency violations, both
//     matching ErrConcurrency.
//   - ErrUnknownHandle: the handle does not name the current search.
//   - ErrSearchRunning: Result was called before the search finished.
//   - *key.ConstraintError: invalid fixed pairs, returned from Start.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/AleutianAI/monosub/services/cipher/anneal"
	"github.com/AleutianAI/monosub/services/cipher/key"
	"github.com/AleutianAI/monosub/services/cipher/telemetry"
)

// -----------------------------------------------------------------------------
// Errors
// -----------------------------------------------------------------------------

var (
	// ErrConcurrency is matched by every concurrency violation.
	ErrConcurrency = errors.New("session concurrency violation")

	// ErrSearchActive is returned by Start while a search is running.
	ErrSearchActive = fmt.Errorf("%w: a search is already active", ErrConcurrency)

	// ErrNoActiveSearch is returned by Stop when nothing is running.
	ErrNoActiveSearch = fmt.Errorf("%w: no active search", ErrConcurrency)

	// ErrStopTimeout is returned by Stop when the worker outlives the grace
	// period. The search has been cancelled and will finish on its own.
	ErrStopTimeout = errors.New("search did not stop within grace period")

	// ErrUnknownHandle is returned for a handle that is not the current search.
	ErrUnknownHandle = errors.New("unknown search handle")

	// ErrSearchRunning is returned by Result before the search is terminal.
	ErrSearchRunning = errors.New("search still running")

	// ErrClosed is returned after Close.
	ErrClosed = errors.New("session controller closed")
)

// -----------------------------------------------------------------------------
// Config
// -----------------------------------------------------------------------------

// Config controls a Controller.
type Config struct {
	// GracePeriod bounds how long Stop waits for the worker to exit.
	GracePeriod time.Duration `yaml:"grace_period" json:"grace_period" validate:"gt=0"`

	// SnapshotRate is the maximum snapshots per second sent to a subscriber.
	SnapshotRate float64 `yaml:"snapshot_rate" json:"snapshot_rate" validate:"gt=0"`

	// SnapshotBurst is the subscriber rate limiter burst.
	SnapshotBurst int `yaml:"snapshot_burst" json:"snapshot_burst" validate:"gt=0"`

	// Anneal is the schedule used for every search.
	Anneal anneal.Config `yaml:"anneal" json:"anneal"`
}

// DefaultConfig returns the reference configuration.
func DefaultConfig() Config {
	return Config{
		GracePeriod:   time.Second,
		SnapshotRate:  10,
		SnapshotBurst: 1,
		Anneal:        anneal.DefaultConfig(),
	}
}

// ApplyDefaults fills zero values from DefaultConfig.
func (c *Config) ApplyDefaults() {
	def := DefaultConfig()
	if c.GracePeriod == 0 {
		c.GracePeriod = def.GracePeriod
	}
	if c.SnapshotRate == 0 {
		c.SnapshotRate = def.SnapshotRate
	}
	if c.SnapshotBurst == 0 {
		c.SnapshotBurst = def.SnapshotBurst
	}
	if c.Anneal == (anneal.Config{}) {
		c.Anneal = def.Anneal
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.GracePeriod <= 0 {
		return fmt.Errorf("grace period must be positive, got %s", c.GracePeriod)
	}
	if c.SnapshotRate <= 0 || c.SnapshotBurst <= 0 {
		return fmt.Errorf("snapshot rate and burst must be positive")
	}
	return c.Anneal.Validate()
}

// -----------------------------------------------------------------------------
// Requests and results
// -----------------------------------------------------------------------------

// Handle identifies one search.
type Handle string

// StartRequest describes a search to start.
type StartRequest struct {
	// Ciphertext is the text to attack.
	Ciphertext string

	// Fixed pins plain->cipher pairs the search may not change.
	Fixed key.FixedPairs

	// MaxIterations overrides the configured budget when positive.
	MaxIterations int

	// Scorer names the fitness function. Empty selects the dictionary scorer.
	Scorer string

	// Seed overrides the configured seed when non-zero.
	Seed uint64
}

// Status is the observable state of a search.
type Status struct {
	Handle    Handle          `json:"handle"`
	Snapshot  anneal.Snapshot `json:"snapshot"`
	StartedAt time.Time       `json:"started_at"`
	Scorer    string          `json:"scorer"`

	// Ciphertext is kept out of JSON so status polling stays small.
	Ciphertext string `json:"-"`
}

// Summary describes a finished search for a ResultSink.
type Summary struct {
	Handle     Handle
	StartedAt  time.Time
	FinishedAt time.Time
	Ciphertext string
	Fixed      key.FixedPairs
	Result     anneal.Result
}

// ResultSink receives every finished search.
type ResultSink interface {
	RecordSearch(ctx context.Context, s Summary) error
}

// -----------------------------------------------------------------------------
// Options
// -----------------------------------------------------------------------------

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger. Nil keeps slog.Default.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMetrics sets the session instruments.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(c *Controller) { c.metrics = m }
}

// WithResultSink registers a sink for finished searches.
func WithResultSink(sink ResultSink) Option {
	return func(c *Controller) { c.sink = sink }
}
