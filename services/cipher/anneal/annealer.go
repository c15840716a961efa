// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package anneal

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/AleutianAI/monosub/services/cipher/key"
	"github.com/AleutianAI/monosub/services/cipher/score"
	"github.com/AleutianAI/monosub/services/cipher/telemetry"
)

const tracerName = "monosub.anneal"

// ErrNilContext is returned when Run is called with a nil context.
var ErrNilContext = errors.New("context must not be nil")

// Annealer runs simulated-annealing searches with one scorer and schedule.
//
// Thread Safety: An Annealer holds no per-run state; concurrent Runs are
// safe, each owning its own SearchState.
type Annealer struct {
	scorer score.Scorer
	config Config
	logger *slog.Logger
}

// New creates an annealer.
//
// Description:
//
//	The scorer is a parameter so the dictionary scorer can be swapped for the
//	frequency scorer without touching the loop.
//
// Inputs:
//   - scorer: Fitness function. Must not be nil.
//   - config: Schedule. Validated here.
//   - logger: Logger. Nil uses slog.Default.
//
// Outputs:
//   - *Annealer: Ready to Run.
//   - error: ErrInvalidConfig on a bad schedule or nil scorer.
func New(scorer score.Scorer, config Config, logger *slog.Logger) (*Annealer, error) {
	if scorer == nil {
		return nil, errors.Join(ErrInvalidConfig, errors.New("scorer must not be nil"))
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Annealer{
		scorer: scorer,
		config: config,
		logger: logger.With(slog.String("component", "annealer")),
	}, nil
}

// Config returns the schedule the annealer was built with.
func (a *Annealer) Config() Config {
	return a.config
}

// searchState is owned by the goroutine executing Run.
type searchState struct {
	currentKey      key.Key
	currentScore    int
	bestKey         key.Key
	bestScore       int
	iterationCount  int
	temperature     float64
	stagnationCount int
	accepted        int
}

func (s *searchState) snapshot(state State, started time.Time) Snapshot {
	return Snapshot{
		Iterations:   s.iterationCount,
		BestScore:    s.bestScore,
		CurrentScore: s.currentScore,
		Temperature:  s.temperature,
		State:        state,
		BestKey:      s.bestKey,
		Elapsed:      time.Since(started),
	}
}

// Run executes one search to completion.
//
// Description:
//
//	Builds a random key honoring in.Fixed, then iterates until the
//	temperature floor, the iteration budget, stagnation, or cancellation.
//	ctx is polled once per iteration; the iteration in flight always
//	completes. publish, when non-nil, receives a snapshot on entry, every
//	ProgressEvery iterations and once on exit. It runs on the search
//	goroutine and must not block.
//
// Inputs:
//   - ctx: Cancellation. A cancelled context ends the run as Cancelled.
//   - in: Ciphertext and fixed pairs.
//   - publish: Optional progress sink.
//
// Outputs:
//   - *Result: Best key and score, iteration count and termination reason.
//     Nil only when err is non-nil.
//   - error: *key.ConstraintError for invalid fixed pairs, ErrNilContext.
//     Cancellation is not an error; it is reported in Result.Reason.
func (a *Annealer) Run(ctx context.Context, in Input, publish func(Snapshot)) (*Result, error) {
	if ctx == nil {
		return nil, ErrNilContext
	}

	seed := a.config.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	rng := rand.New(rand.NewPCG(seed, seed>>1|1))

	ctx, span := telemetry.StartSpan(ctx, tracerName, "anneal.Run",
		trace.WithAttributes(
			attribute.String("scorer", a.scorer.Name()),
			attribute.Int("ciphertext_len", len(in.Ciphertext)),
			attribute.Int("fixed_pairs", len(in.Fixed)),
			attribute.Int("max_iterations", a.config.MaxIterations),
			attribute.Int64("seed", int64(seed)),
		),
	)
	defer span.End()

	initial, err := key.BuildRandomKey(in.Fixed, rng)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	started := time.Now()
	mutator := key.NewMutator(in.Fixed)
	initialScore := a.scorer.Score(initial, in.Ciphertext)
	st := &searchState{
		currentKey:   initial,
		currentScore: initialScore,
		bestKey:      initial,
		bestScore:    initialScore,
		temperature:  a.config.InitialTemperature,
	}

	a.logger.Debug("search started",
		slog.String("scorer", a.scorer.Name()),
		slog.Int("initial_score", initialScore),
		slog.Int("free_letters", mutator.Free()),
		slog.Uint64("seed", seed),
	)
	if publish != nil {
		publish(st.snapshot(StateRunning, started))
	}

	reason := a.loop(ctx, in.Ciphertext, st, mutator, rng, started, publish)

	result := &Result{
		BestKey:    st.bestKey,
		BestScore:  st.bestScore,
		Iterations: st.iterationCount,
		Accepted:   st.accepted,
		Reason:     reason,
		Duration:   time.Since(started),
		Seed:       seed,
		Scorer:     a.scorer.Name(),
	}
	if publish != nil {
		publish(st.snapshot(reason, started))
	}

	recordRun(result)
	span.SetAttributes(
		attribute.String("reason", reason.String()),
		attribute.Int("iterations", result.Iterations),
		attribute.Int("best_score", result.BestScore),
		attribute.Int64("duration_ms", result.Duration.Milliseconds()),
	)
	telemetry.SetSpanOK(span)

	a.logger.Info("search finished",
		slog.String("reason", reason.String()),
		slog.Int("iterations", result.Iterations),
		slog.Int("accepted", result.Accepted),
		slog.Int("best_score", result.BestScore),
		slog.Duration("duration", result.Duration),
	)
	return result, nil
}

// loop runs iterations until a terminal state and returns it.
func (a *Annealer) loop(
	ctx context.Context,
	ciphertext string,
	st *searchState,
	mutator *key.Mutator,
	rng *rand.Rand,
	started time.Time,
	publish func(Snapshot),
) State {
	cfg := a.config
	span := trace.SpanFromContext(ctx)
	for {
		select {
		case <-ctx.Done():
			return StateCancelled
		default:
		}
		if st.temperature <= cfg.MinTemperature || st.iterationCount >= cfg.MaxIterations {
			return StateExhausted
		}

		candidate := mutator.Mutate(st.currentKey, rng)
		candidateScore := a.scorer.Score(candidate, ciphertext)

		if rng.Float64() < acceptance(st.currentScore, candidateScore, st.temperature) {
			st.currentKey = candidate
			st.currentScore = candidateScore
			st.accepted++
			if candidateScore > st.bestScore {
				st.bestKey = candidate
				st.bestScore = candidateScore
				st.stagnationCount = 0
			} else {
				st.stagnationCount++
			}
		} else {
			st.stagnationCount++
		}

		st.iterationCount++
		st.temperature *= cfg.CoolingRate

		if st.iterationCount%cfg.ProgressEvery == 0 {
			telemetry.AddSpanEvent(span, "progress",
				attribute.Int("iterations", st.iterationCount),
				attribute.Int("best_score", st.bestScore),
				attribute.Float64("temperature", st.temperature),
			)
			if publish != nil {
				publish(st.snapshot(StateRunning, started))
			}
		}
		if st.stagnationCount >= cfg.StagnationLimit {
			return StateConverged
		}
	}
}

// acceptance returns the probability of adopting a candidate.
//
// The loss is scaled linearly by the temperature rather than through the
// exponential Metropolis criterion.
func acceptance(current, candidate int, temperature float64) float64 {
	if candidate > current {
		return 1.0
	}
	p := 1.0 - float64(current-candidate)/temperature
	if p < 0 {
		return 0
	}
	return p
}
