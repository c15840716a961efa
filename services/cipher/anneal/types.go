// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package anneal implements the simulated-annealing key search.
//
// # Overview
//
// An Annealer starts from a random key that honors the fixed pairs, then
// repeatedly mutates the current key, scores the neighbor, and accepts it
// with a probability that decays linearly with the score loss relative to
// the temperature:
//
//	p = 1                                  if candidate > current
//	p = max(0, 1 - (current-candidate)/T)  otherwise
//
// The temperature cools geometrically each iteration. The run ends when the
// temperature reaches the floor or the iteration budget is spent (Exhausted),
// when no improving move has been accepted for StagnationLimit iterations
// (Converged), or when the context is cancelled (Cancelled).
//
// # Thread Safety
//
// The search state lives on the goroutine that calls Run and is never
// shared. Observers receive Snapshot values, which are copies.
package anneal

import (
	"errors"
	"fmt"
	"time"

	"github.com/AleutianAI/monosub/services/cipher/key"
)

// -----------------------------------------------------------------------------
// State
// -----------------------------------------------------------------------------

// State is the lifecycle position of a search.
type State int

const (
	// StateIdle means no search has started.
	StateIdle State = iota

	// StateRunning means the worker is iterating.
	StateRunning

	// StateConverged means the search stopped after StagnationLimit
	// iterations without an improving accepted move.
	StateConverged

	// StateCancelled means an external stop request was observed.
	StateCancelled

	// StateExhausted means the iteration budget or temperature floor was reached.
	StateExhausted
)

var stateNames = [...]string{
	StateIdle:      "idle",
	StateRunning:   "running",
	StateConverged: "converged",
	StateCancelled: "cancelled",
	StateExhausted: "exhausted",
}

// String returns the lowercase state name.
func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("state(%d)", int(s))
	}
	return stateNames[s]
}

// IsTerminal reports whether s is Converged, Cancelled or Exhausted.
func (s State) IsTerminal() bool {
	return s == StateConverged || s == StateCancelled || s == StateExhausted
}

// MarshalText encodes the state by name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a state name.
func (s *State) UnmarshalText(text []byte) error {
	for i, name := range stateNames {
		if name == string(text) {
			*s = State(i)
			return nil
		}
	}
	return fmt.Errorf("unknown search state %q", text)
}

// -----------------------------------------------------------------------------
// Config
// -----------------------------------------------------------------------------

// Config holds the cooling schedule and budget of a search.
type Config struct {
	// InitialTemperature is the starting temperature.
	InitialTemperature float64 `yaml:"initial_temperature" json:"initial_temperature"`

	// MinTemperature ends the search once the temperature is at or below it.
	MinTemperature float64 `yaml:"min_temperature" json:"min_temperature"`

	// CoolingRate multiplies the temperature after every iteration.
	CoolingRate float64 `yaml:"cooling_rate" json:"cooling_rate"`

	// StagnationLimit is the number of iterations without an improving
	// accepted move after which the search is Converged.
	StagnationLimit int `yaml:"stagnation_limit" json:"stagnation_limit"`

	// MaxIterations is the iteration budget.
	MaxIterations int `yaml:"max_iterations" json:"max_iterations"`

	// ProgressEvery is the number of iterations between snapshots.
	ProgressEvery int `yaml:"progress_every" json:"progress_every"`

	// Seed seeds the search. Zero picks a random seed, reported in Result.
	Seed uint64 `yaml:"seed" json:"seed"`
}

// DefaultConfig returns the reference schedule.
func DefaultConfig() Config {
	return Config{
		InitialTemperature: 100.0,
		MinTemperature:     0.1,
		CoolingRate:        0.999,
		StagnationLimit:    10000,
		MaxIterations:      1_000_000,
		ProgressEvery:      1000,
	}
}

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("invalid anneal config")

// Validate checks the schedule is well formed.
func (c Config) Validate() error {
	switch {
	case c.MinTemperature < 0:
		return fmt.Errorf("%w: min temperature %v must not be negative", ErrInvalidConfig, c.MinTemperature)
	case c.InitialTemperature <= c.MinTemperature:
		return fmt.Errorf("%w: initial temperature %v must exceed min temperature %v",
			ErrInvalidConfig, c.InitialTemperature, c.MinTemperature)
	case c.CoolingRate <= 0 || c.CoolingRate >= 1:
		return fmt.Errorf("%w: cooling rate %v must be in (0, 1)", ErrInvalidConfig, c.CoolingRate)
	case c.StagnationLimit <= 0:
		return fmt.Errorf("%w: stagnation limit must be positive", ErrInvalidConfig)
	case c.MaxIterations <= 0:
		return fmt.Errorf("%w: max iterations must be positive", ErrInvalidConfig)
	case c.ProgressEvery <= 0:
		return fmt.Errorf("%w: progress interval must be positive", ErrInvalidConfig)
	}
	return nil
}

// -----------------------------------------------------------------------------
// Input / Snapshot / Result
// -----------------------------------------------------------------------------

// Input is the immutable problem of one search.
type Input struct {
	Ciphertext string
	Fixed      key.FixedPairs
}

// Snapshot is a read-only copy of search progress.
type Snapshot struct {
	Iterations   int           `json:"iterations"`
	BestScore    int           `json:"best_score"`
	CurrentScore int           `json:"current_score"`
	Temperature  float64       `json:"temperature"`
	State        State         `json:"state"`
	BestKey      key.Key       `json:"best_key"`
	Elapsed      time.Duration `json:"elapsed_ns"`
}

// Result is the outcome of a finished search.
type Result struct {
	BestKey    key.Key       `json:"best_key"`
	BestScore  int           `json:"best_score"`
	Iterations int           `json:"iterations"`
	Accepted   int           `json:"accepted"`
	Reason     State         `json:"reason"`
	Duration   time.Duration `json:"duration_ns"`
	Seed       uint64        `json:"seed"`
	Scorer     string        `json:"scorer"`
}
