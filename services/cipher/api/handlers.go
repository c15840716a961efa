// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/AleutianAI/monosub/services/cipher/anneal"
	"github.com/AleutianAI/monosub/services/cipher/history"
	"github.com/AleutianAI/monosub/services/cipher/key"
	"github.com/AleutianAI/monosub/services/cipher/score"
	"github.com/AleutianAI/monosub/services/cipher/session"
	"github.com/AleutianAI/monosub/services/cipher/telemetry"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 500
	defaultFrequencyTop = 10
)

// Searcher is the part of *session.Controller the handlers use.
type Searcher interface {
	Start(ctx context.Context, req session.StartRequest) (session.Handle, error)
	Status(handle session.Handle) (session.Status, error)
	Result(handle session.Handle) (*anneal.Result, error)
	Stop(handle session.Handle) error
	Subscribe(handle session.Handle) (<-chan anneal.Snapshot, func(), error)
	Advise(ciphertext string, k key.Key) []string
	Active() (session.Handle, bool)
	Dictionary() *score.Dictionary
}

// HistoryStore lists finished searches.
type HistoryStore interface {
	List(limit int) ([]history.Record, error)
	Get(id string) (*history.Record, error)
}

// Handlers serves the HTTP routes.
//
// Thread Safety: Safe for concurrent use.
type Handlers struct {
	searcher Searcher
	history  HistoryStore
	logger   *slog.Logger
}

// NewHandlers creates handlers over searcher. hist may be nil, in which case
// the history routes answer 404.
func NewHandlers(searcher Searcher, hist HistoryStore, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{searcher: searcher, history: hist, logger: logger}
}

// HandleStartSearch handles POST /v1/search.
//
// Response:
//
//	201 Created: StartSearchResponse
//	400 Bad Request: invalid body or fixed pairs
//	409 Conflict: a search is already running
func (h *Handlers) HandleStartSearch(c *gin.Context) {
	logger := h.requestLogger(c, "HandleStartSearch")

	var req StartSearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.bindError(c, logger, err)
		return
	}

	var fixed key.FixedPairs
	if req.Fixed != "" {
		parsed, err := key.ParseFixed(req.Fixed)
		if err != nil {
			h.writeError(c, logger, err)
			return
		}
		fixed = parsed
	}

	handle, err := h.searcher.Start(c.Request.Context(), session.StartRequest{
		Ciphertext:    req.Ciphertext,
		Fixed:         fixed,
		MaxIterations: req.MaxIterations,
		Scorer:        req.Scorer,
		Seed:          req.Seed,
	})
	if err != nil {
		h.writeError(c, logger, err)
		return
	}

	logger.Info("Search started", "handle", handle)
	c.JSON(http.StatusCreated, StartSearchResponse{Handle: handle})
}

// HandleSearchStatus handles GET /v1/search/:id.
func (h *Handlers) HandleSearchStatus(c *gin.Context) {
	logger := h.requestLogger(c, "HandleSearchStatus")

	st, err := h.searcher.Status(session.Handle(c.Param("id")))
	if err != nil {
		h.writeError(c, logger, err)
		return
	}

	resp := SearchStatusResponse{
		Handle:    st.Handle,
		Scorer:    st.Scorer,
		StartedAt: st.StartedAt,
		Snapshot:  st.Snapshot,
	}
	if st.Snapshot.BestKey.Valid() {
		resp.Plaintext = st.Snapshot.BestKey.Decrypt(st.Ciphertext)
	}
	c.JSON(http.StatusOK, resp)
}

// HandleSearchResult handles GET /v1/search/:id/result.
//
// Response:
//
//	200 OK: SearchResultResponse
//	202 Accepted: the search is still running
//	404 Not Found: unknown handle
func (h *Handlers) HandleSearchResult(c *gin.Context) {
	logger := h.requestLogger(c, "HandleSearchResult")
	handle := session.Handle(c.Param("id"))

	res, err := h.searcher.Result(handle)
	if err != nil {
		h.writeError(c, logger, err)
		return
	}
	st, err := h.searcher.Status(handle)
	if err != nil {
		h.writeError(c, logger, err)
		return
	}

	c.JSON(http.StatusOK, SearchResultResponse{
		Handle:    handle,
		Result:    *res,
		Plaintext: res.BestKey.Decrypt(st.Ciphertext),
	})
}

// HandleStopSearch handles DELETE /v1/search/:id.
//
// A stop that outlives the grace period answers 202: the search was asked
// to stop and will do so at its next iteration.
func (h *Handlers) HandleStopSearch(c *gin.Context) {
	logger := h.requestLogger(c, "HandleStopSearch")
	handle := session.Handle(c.Param("id"))

	err := h.searcher.Stop(handle)
	switch {
	case err == nil:
		logger.Info("Search stopped", "handle", handle)
		c.JSON(http.StatusOK, StopSearchResponse{Handle: handle, Stopped: true})
	case errors.Is(err, session.ErrStopTimeout):
		logger.Warn("Search stop exceeded grace period", "handle", handle)
		c.JSON(http.StatusAccepted, StopSearchResponse{Handle: handle, Stopped: false})
	default:
		h.writeError(c, logger, err)
	}
}

// HandleAdvise handles POST /v1/advise.
func (h *Handlers) HandleAdvise(c *gin.Context) {
	logger := h.requestLogger(c, "HandleAdvise")

	var req AdviseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.bindError(c, logger, err)
		return
	}

	var k key.Key
	switch {
	case req.Key != nil && req.Pairs != "":
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "set either key or pairs, not both", Code: "INVALID_REQUEST"})
		return
	case req.Key != nil:
		k = *req.Key
	case req.Pairs != "":
		parsed, err := key.ParseKey(req.Pairs)
		if err != nil {
			h.writeError(c, logger, err)
			return
		}
		k = parsed
	}
	if !k.Valid() {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "a complete key is required", Code: "INVALID_REQUEST"})
		return
	}

	c.JSON(http.StatusOK, AdviseResponse{
		Plaintext: k.Decrypt(req.Ciphertext),
		Notes:     h.searcher.Advise(req.Ciphertext, k),
	})
}

// HandleAnalyze handles POST /v1/analyze.
func (h *Handlers) HandleAnalyze(c *gin.Context) {
	logger := h.requestLogger(c, "HandleAnalyze")

	var req AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.bindError(c, logger, err)
		return
	}

	top := req.Top
	if top == 0 {
		top = defaultFrequencyTop
	}
	stats := score.CountLetters(req.Text)
	match := score.Match(req.Text, h.searcher.Dictionary())

	c.JSON(http.StatusOK, AnalyzeResponse{
		Letters:       stats.Total,
		Frequencies:   letterFrequencies(stats.Ranked()),
		MostFrequent:  letterFrequencies(stats.MostFrequent(top)),
		LeastFrequent: letterFrequencies(stats.LeastFrequent(top)),
		WordsMatched:  match.Matched,
		WordsTotal:    match.Total,
		MatchRatio:    match.Ratio(),
	})
}

func letterFrequencies(letters []score.LetterCount) []LetterFrequency {
	out := make([]LetterFrequency, 0, len(letters))
	for _, lc := range letters {
		out = append(out, LetterFrequency{
			Letter:  string(lc.Letter),
			Count:   lc.Count,
			Percent: lc.Percent,
			English: string(score.ClosestEnglishLetter(lc.Percent)),
		})
	}
	return out
}

// HandleListHistory handles GET /v1/history?limit=N.
func (h *Handlers) HandleListHistory(c *gin.Context) {
	logger := h.requestLogger(c, "HandleListHistory")
	if h.history == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "history is disabled", Code: "HISTORY_DISABLED"})
		return
	}

	limit := defaultHistoryLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxHistoryLimit {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "limit must be between 1 and 500", Code: "INVALID_LIMIT"})
			return
		}
		limit = n
	}

	records, err := h.history.List(limit)
	if err != nil {
		h.writeError(c, logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"records": records, "count": len(records)})
}

// HandleGetHistory handles GET /v1/history/:id.
func (h *Handlers) HandleGetHistory(c *gin.Context) {
	logger := h.requestLogger(c, "HandleGetHistory")
	if h.history == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "history is disabled", Code: "HISTORY_DISABLED"})
		return
	}

	rec, err := h.history.Get(c.Param("id"))
	if err != nil {
		h.writeError(c, logger, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

// HandleHealth handles GET /health.
func (h *Handlers) HandleHealth(c *gin.Context) {
	h.requestLogger(c, "HandleHealth")

	resp := HealthResponse{
		Status:     "healthy",
		Dictionary: h.searcher.Dictionary().Len(),
	}
	if handle, ok := h.searcher.Active(); ok {
		resp.ActiveSearch = &handle
	}
	c.JSON(http.StatusOK, resp)
}

// writeError maps domain errors onto HTTP status codes.
func (h *Handlers) writeError(c *gin.Context, logger *slog.Logger, err error) {
	status := http.StatusInternalServerError
	code := "INTERNAL"

	var constraint *key.ConstraintError
	switch {
	case errors.As(err, &constraint):
		status = http.StatusBadRequest
		code = "CONSTRAINT_" + string(constraint.Kind)
	case errors.Is(err, session.ErrSearchActive):
		status = http.StatusConflict
		code = "SEARCH_ACTIVE"
	case errors.Is(err, session.ErrNoActiveSearch):
		status = http.StatusNotFound
		code = "NO_ACTIVE_SEARCH"
	case errors.Is(err, session.ErrUnknownHandle):
		status = http.StatusNotFound
		code = "UNKNOWN_HANDLE"
	case errors.Is(err, session.ErrSearchRunning):
		status = http.StatusAccepted
		code = "SEARCH_RUNNING"
	case errors.Is(err, session.ErrClosed):
		status = http.StatusServiceUnavailable
		code = "SHUTTING_DOWN"
	case errors.Is(err, history.ErrNotFound):
		status = http.StatusNotFound
		code = "NOT_FOUND"
	case errors.Is(err, anneal.ErrInvalidConfig):
		status = http.StatusBadRequest
		code = "INVALID_CONFIG"
	case errors.Is(err, score.ErrUnknownScorer):
		status = http.StatusBadRequest
		code = "UNKNOWN_SCORER"
	}

	if status >= http.StatusInternalServerError {
		logger.Error("Request failed", "error", err)
	} else {
		logger.Warn("Request rejected", "error", err, "status", status)
	}
	c.JSON(status, ErrorResponse{Error: err.Error(), Code: code})
}

// bindError answers 400 for a body that failed to decode or validate.
func (h *Handlers) bindError(c *gin.Context, logger *slog.Logger, err error) {
	var constraint *key.ConstraintError
	if errors.As(err, &constraint) {
		h.writeError(c, logger, err)
		return
	}
	logger.Warn("Invalid request body", "error", err)
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "INVALID_REQUEST"})
}

func (h *Handlers) requestLogger(c *gin.Context, handler string) *slog.Logger {
	requestID := c.GetHeader("X-Request-ID")
	if requestID == "" {
		requestID = uuid.NewString()
	}
	c.Header("X-Request-ID", requestID)

	ctx := c.Request.Context()
	if traceID := telemetry.TraceID(ctx); traceID != "" {
		c.Header("X-Trace-ID", traceID)
	}
	return telemetry.LoggerWithTrace(ctx, h.logger.With("request_id", requestID, "handler", handler))
}
