// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package api exposes the search session over HTTP.
//
// Routes live under /v1. A single search may run at a time; starting a
// second one returns 409. Progress can be polled via GET
// /v1/search/:id or streamed over a websocket at /v1/search/:id/stream.
package api

import (
	"time"

	"github.com/AleutianAI/monosub/services/cipher/anneal"
	"github.com/AleutianAI/monosub/services/cipher/key"
	"github.com/AleutianAI/monosub/services/cipher/session"
)

// StartSearchRequest is the body of POST /v1/search.
type StartSearchRequest struct {
	// Ciphertext is the text to attack.
	Ciphertext string `json:"ciphertext" binding:"required"`

	// Fixed pins plain->cipher pairs in "a-q, e-x" form.
	Fixed string `json:"fixed,omitempty"`

	// MaxIterations overrides the server budget.
	MaxIterations int `json:"max_iterations,omitempty" binding:"omitempty,gte=1000,lte=1000000"`

	// Scorer selects the fitness function.
	Scorer string `json:"scorer,omitempty" binding:"omitempty,oneof=dictionary frequency"`

	// Seed makes a run reproducible when non-zero.
	Seed uint64 `json:"seed,omitempty"`
}

// StartSearchResponse is returned with 201 Created.
type StartSearchResponse struct {
	Handle session.Handle `json:"handle"`
}

// SearchStatusResponse is returned by GET /v1/search/:id.
type SearchStatusResponse struct {
	Handle    session.Handle  `json:"handle"`
	Scorer    string          `json:"scorer"`
	StartedAt time.Time       `json:"started_at"`
	Snapshot  anneal.Snapshot `json:"snapshot"`
	Plaintext string          `json:"plaintext,omitempty"`
}

// SearchResultResponse is returned by GET /v1/search/:id/result.
type SearchResultResponse struct {
	Handle    session.Handle `json:"handle"`
	Result    anneal.Result  `json:"result"`
	Plaintext string         `json:"plaintext"`
}

// StopSearchResponse is returned by DELETE /v1/search/:id.
type StopSearchResponse struct {
	Handle  session.Handle `json:"handle"`
	Stopped bool           `json:"stopped"`
}

// AdviseRequest is the body of POST /v1/advise. Exactly one of Key or
// Pairs must be set.
type AdviseRequest struct {
	Ciphertext string   `json:"ciphertext" binding:"required"`
	Key        *key.Key `json:"key,omitempty"`
	Pairs      string   `json:"pairs,omitempty"`
}

// AdviseResponse carries the decrypted text and the advisor's notes.
type AdviseResponse struct {
	Plaintext string   `json:"plaintext"`
	Notes     []string `json:"notes"`
}

// AnalyzeRequest is the body of POST /v1/analyze.
type AnalyzeRequest struct {
	Text string `json:"text" binding:"required"`

	// Top sizes the most/least frequent lists. Zero means 10.
	Top int `json:"top,omitempty" binding:"omitempty,gte=1,lte=26"`
}

// LetterFrequency is one row of an analysis.
type LetterFrequency struct {
	Letter  string  `json:"letter"`
	Count   int     `json:"count"`
	Percent float64 `json:"percent"`
	English string  `json:"closest_english"`
}

// AnalyzeResponse is returned by POST /v1/analyze.
type AnalyzeResponse struct {
	Letters       int               `json:"letters"`
	Frequencies   []LetterFrequency `json:"frequencies"`
	MostFrequent  []LetterFrequency `json:"most_frequent"`
	LeastFrequent []LetterFrequency `json:"least_frequent"`
	WordsMatched  int               `json:"words_matched"`
	WordsTotal    int               `json:"words_total"`
	MatchRatio    float64           `json:"match_ratio"`
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status       string          `json:"status"`
	Dictionary   int             `json:"dictionary_words"`
	ActiveSearch *session.Handle `json:"active_search,omitempty"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	// Error is the error message.
	Error string `json:"error"`

	// Code is a stable machine-readable error code.
	Code string `json:"code,omitempty"`
}
