// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/AleutianAI/monosub/services/cipher/advisor"
	"github.com/AleutianAI/monosub/services/cipher/anneal"
	"github.com/AleutianAI/monosub/services/cipher/key"
	"github.com/AleutianAI/monosub/services/cipher/score"
	"github.com/AleutianAI/monosub/services/cipher/telemetry"
)

const tracerName = "cipher.session"

// Controller runs at most one search at a time.
//
// Thread Safety: Safe for concurrent use.
type Controller struct {
	config  Config
	logger  *slog.Logger
	metrics *telemetry.Metrics
	sink    ResultSink

	dict atomic.Pointer[score.Dictionary]

	mu      sync.Mutex
	current *search
	closed  bool
}

// search is one started annealer run.
type search struct {
	handle     Handle
	scorer     string
	ciphertext string
	fixed      key.FixedPairs
	startedAt  time.Time
	cancel     context.CancelFunc
	done       chan struct{}

	snapshot atomic.Pointer[anneal.Snapshot]

	// Written by the worker before done is closed.
	result *anneal.Result
	err    error

	subsMu  sync.Mutex
	subs    map[uint64]*subscriber
	nextSub uint64
	final   bool
}

func (s *search) finished() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

// NewController creates a controller.
//
// Description:
//
//	Zero config values take defaults. The dictionary is used by the
//	dictionary scorer of every search started afterwards and may be replaced
//	with SetDictionary.
//
// Inputs:
//   - config: Controller configuration.
//   - dict: Initial dictionary. May be nil.
//   - opts: Logger, metrics and result sink options.
//
// Outputs:
//   - *Controller: Ready for Start.
//   - error: Non-nil if the configuration is invalid or metrics fail to register.
func NewController(config Config, dict *score.Dictionary, opts ...Option) (*Controller, error) {
	config.ApplyDefaults()
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid session configuration: %w", err)
	}

	c := &Controller{
		config: config,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With(slog.String("component", "session_controller"))
	if c.metrics == nil {
		m, err := telemetry.NewMetrics(nil)
		if err != nil {
			return nil, fmt.Errorf("create session metrics: %w", err)
		}
		c.metrics = m
	}
	c.dict.Store(dict)
	return c, nil
}

// Config returns the controller configuration.
func (c *Controller) Config() Config {
	return c.config
}

// SetDictionary replaces the dictionary used by subsequent searches.
func (c *Controller) SetDictionary(d *score.Dictionary) {
	c.dict.Store(d)
	c.logger.Info("dictionary replaced", slog.Int("words", d.Len()))
}

// Dictionary returns the current dictionary.
func (c *Controller) Dictionary() *score.Dictionary {
	return c.dict.Load()
}

// Start launches a search on a new worker goroutine.
//
// Description:
//
//	Validates the request, builds the annealer and starts the worker. The
//	worker's context is detached from ctx's cancellation so a request-scoped
//	ctx does not end the search; only Stop or Close do.
//
// Inputs:
//   - ctx: Trace and value context.
//   - req: Search parameters.
//
// Outputs:
//   - Handle: Identifies the search.
//   - error: ErrSearchActive when a search is running, *key.ConstraintError
//     for invalid fixed pairs, ErrClosed, or a scorer/config error.
func (c *Controller) Start(ctx context.Context, req StartRequest) (Handle, error) {
	ctx, span := telemetry.StartSpan(ctx, tracerName, "Controller.Start",
		trace.WithAttributes(
			attribute.Int("ciphertext_len", len(req.Ciphertext)),
			attribute.Int("fixed_pairs", len(req.Fixed)),
			attribute.String("scorer", req.Scorer),
		),
	)
	defer span.End()

	if err := req.Fixed.Validate(); err != nil {
		c.reject(ctx, "constraint")
		telemetry.RecordError(span, err)
		return "", err
	}

	cfg := c.config.Anneal
	if req.MaxIterations > 0 {
		cfg.MaxIterations = req.MaxIterations
	}
	if req.Seed != 0 {
		cfg.Seed = req.Seed
	}
	scorer, err := score.ByName(req.Scorer, c.dict.Load())
	if err != nil {
		c.reject(ctx, "scorer")
		telemetry.RecordError(span, err)
		return "", err
	}
	annealer, err := anneal.New(scorer, cfg, c.logger)
	if err != nil {
		c.reject(ctx, "config")
		telemetry.RecordError(span, err)
		return "", err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return "", ErrClosed
	}
	if c.current != nil && !c.current.finished() {
		c.reject(ctx, "active")
		telemetry.RecordError(span, ErrSearchActive)
		return "", ErrSearchActive
	}

	workerCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s := &search{
		handle:     Handle(uuid.NewString()),
		scorer:     scorer.Name(),
		ciphertext: req.Ciphertext,
		fixed:      req.Fixed,
		startedAt:  time.Now(),
		cancel:     cancel,
		done:       make(chan struct{}),
		subs:       make(map[uint64]*subscriber),
	}
	s.snapshot.Store(&anneal.Snapshot{State: anneal.StateRunning, Temperature: cfg.InitialTemperature})
	c.current = s

	c.metrics.SearchesStarted.Add(ctx, 1, metric.WithAttributes(attribute.String("scorer", s.scorer)))
	c.metrics.ActiveSearches.Add(ctx, 1)
	span.SetAttributes(attribute.String("handle", string(s.handle)))
	telemetry.SetSpanOK(span)

	c.logger.Info("search started",
		slog.String("handle", string(s.handle)),
		slog.String("scorer", s.scorer),
		slog.Int("max_iterations", cfg.MaxIterations),
		slog.Int("fixed_pairs", len(req.Fixed)),
	)

	go c.work(workerCtx, annealer, s)
	return s.handle, nil
}

// work runs on the search goroutine.
func (c *Controller) work(ctx context.Context, annealer *anneal.Annealer, s *search) {
	defer s.cancel()

	res, err := annealer.Run(ctx, anneal.Input{Ciphertext: s.ciphertext, Fixed: s.fixed}, func(snap anneal.Snapshot) {
		s.snapshot.Store(&snap)
		s.broadcast(snap, snap.State.IsTerminal())
	})
	finishedAt := time.Now()

	s.result, s.err = res, err
	if err != nil {
		// Run only fails before the first iteration; publish a terminal snapshot anyway.
		snap := *s.snapshot.Load()
		snap.State = anneal.StateCancelled
		s.snapshot.Store(&snap)
		s.broadcast(snap, true)
		c.logger.Error("search failed", slog.String("handle", string(s.handle)), slog.String("error", err.Error()))
	}
	s.closeSubscribers()

	bg := context.WithoutCancel(ctx)
	c.metrics.ActiveSearches.Add(bg, -1)
	if res != nil {
		c.metrics.SearchesFinished.Add(bg, 1, metric.WithAttributes(attribute.String("reason", res.Reason.String())))
		c.metrics.SearchDuration.Record(bg, res.Duration.Seconds())
	}

	if res != nil && c.sink != nil {
		summary := Summary{
			Handle:     s.handle,
			StartedAt:  s.startedAt,
			FinishedAt: finishedAt,
			Ciphertext: s.ciphertext,
			Fixed:      s.fixed,
			Result:     *res,
		}
		if err := c.sink.RecordSearch(bg, summary); err != nil {
			c.logger.Warn("failed to record search", slog.String("handle", string(s.handle)), slog.String("error", err.Error()))
		}
	}
	close(s.done)
}

// outcome returns a copy of the result of a finished search.
func (s *search) outcome() (*anneal.Result, error) {
	if s.err != nil {
		return nil, s.err
	}
	res := *s.result
	return &res, nil
}

// lookup returns the search named by handle.
func (c *Controller) lookup(handle Handle) (*search, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil || c.current.handle != handle {
		return nil, ErrUnknownHandle
	}
	return c.current, nil
}

// Active returns the handle of the running search, if any.
func (c *Controller) Active() (Handle, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil || c.current.finished() {
		return "", false
	}
	return c.current.handle, true
}

// Latest returns the handle of the most recent search, running or not.
func (c *Controller) Latest() (Handle, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return "", false
	}
	return c.current.handle, true
}

// Stop cancels the search and waits up to GracePeriod for it to exit.
//
// Outputs:
//   - error: nil once the worker exited, ErrStopTimeout if it is still
//     finishing, ErrNoActiveSearch if nothing is running, ErrUnknownHandle.
func (c *Controller) Stop(handle Handle) error {
	c.mu.Lock()
	cur := c.current
	c.mu.Unlock()
	if cur == nil || cur.finished() {
		return ErrNoActiveSearch
	}
	if cur.handle != handle {
		return ErrUnknownHandle
	}
	return c.stop(cur)
}

func (c *Controller) stop(s *search) error {
	s.cancel()
	timer := time.NewTimer(c.config.GracePeriod)
	defer timer.Stop()

	select {
	case <-s.done:
		c.logger.Info("search stopped", slog.String("handle", string(s.handle)))
		return nil
	case <-timer.C:
		c.metrics.StopTimeouts.Add(context.Background(), 1)
		c.logger.Warn("search did not stop within grace period",
			slog.String("handle", string(s.handle)),
			slog.Duration("grace_period", c.config.GracePeriod),
		)
		return ErrStopTimeout
	}
}

// Snapshot returns the latest progress copy of the search.
func (c *Controller) Snapshot(handle Handle) (anneal.Snapshot, error) {
	s, err := c.lookup(handle)
	if err != nil {
		return anneal.Snapshot{}, err
	}
	return *s.snapshot.Load(), nil
}

// Status returns the snapshot together with search metadata.
func (c *Controller) Status(handle Handle) (Status, error) {
	s, err := c.lookup(handle)
	if err != nil {
		return Status{}, err
	}
	return Status{
		Handle:    s.handle,
		Snapshot:  *s.snapshot.Load(),
		StartedAt: s.startedAt,
		Scorer:    s.scorer,

		Ciphertext: s.ciphertext,
	}, nil
}

// Result returns the outcome of a terminal search.
//
// Only the most recent search is retained. Once another search starts, the
// previous handle is forgotten and its result must be read from the
// ResultSink (history) instead.
//
// Outputs:
//   - *anneal.Result: Best key, score, iterations and termination reason.
//   - error: ErrSearchRunning until the search finishes, ErrUnknownHandle
//     when handle is not the most recent search, or the error the search
//     failed with.
func (c *Controller) Result(handle Handle) (*anneal.Result, error) {
	s, err := c.lookup(handle)
	if err != nil {
		return nil, err
	}
	if !s.finished() {
		return nil, ErrSearchRunning
	}
	return s.outcome()
}

// Wait blocks until the search finishes or ctx is done.
//
// A Wait that began while handle was current returns that search's result
// even if a new search starts before it wakes. A Wait begun after the
// handle was replaced returns ErrUnknownHandle.
func (c *Controller) Wait(ctx context.Context, handle Handle) (*anneal.Result, error) {
	s, err := c.lookup(handle)
	if err != nil {
		return nil, err
	}
	select {
	case <-s.done:
		return s.outcome()
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Advise decrypts ciphertext under k and runs the advisor over it.
func (c *Controller) Advise(ciphertext string, k key.Key) []string {
	_, active := c.Active()
	return advisor.ForKey(ciphertext, k, active)
}

// Close stops any running search and rejects further Starts.
func (c *Controller) Close() error {
	c.mu.Lock()
	c.closed = true
	cur := c.current
	c.mu.Unlock()

	if cur == nil || cur.finished() {
		return nil
	}
	if err := c.stop(cur); err != nil && !errors.Is(err, ErrStopTimeout) {
		return err
	}
	return nil
}

func (c *Controller) reject(ctx context.Context, reason string) {
	c.metrics.SearchesRejected.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}
