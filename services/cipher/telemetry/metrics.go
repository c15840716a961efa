// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package telemetry

import (
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// Metrics contains the session-level instruments.
//
// Description:
//
//	Per-iteration search counters live in the anneal package as Prometheus
//	collectors. These instruments describe the control surface: how often
//	searches start, are rejected, finish, and how stops behave.
//
// Thread Safety: Safe for concurrent use after creation.
type Metrics struct {
	// SearchesStarted counts accepted Start calls by scorer.
	SearchesStarted metric.Int64Counter

	// SearchesRejected counts Start calls refused by reason.
	SearchesRejected metric.Int64Counter

	// SearchesFinished counts terminated searches by termination reason.
	SearchesFinished metric.Int64Counter

	// SearchDuration records search wall time in seconds.
	SearchDuration metric.Float64Histogram

	// ActiveSearches tracks searches currently running.
	ActiveSearches metric.Int64UpDownCounter

	// StopTimeouts counts stops whose worker outlived the grace period.
	StopTimeouts metric.Int64Counter

	// Subscribers tracks open snapshot subscriptions.
	Subscribers metric.Int64UpDownCounter
}

// NewMetrics registers the instruments with meter.
//
// Inputs:
//   - meter: The OTel meter. Nil uses otel.Meter("monosub").
//
// Outputs:
//   - *Metrics: Instruments ready for use.
//   - error: Non-nil if an instrument cannot be created.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	if meter == nil {
		meter = otel.Meter("monosub")
	}
	m := &Metrics{}
	var err error

	m.SearchesStarted, err = meter.Int64Counter(
		"monosub_searches_started_total",
		metric.WithDescription("Total searches started"),
		metric.WithUnit("{search}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create searches_started_total: %w", err)
	}

	m.SearchesRejected, err = meter.Int64Counter(
		"monosub_searches_rejected_total",
		metric.WithDescription("Total search starts rejected"),
		metric.WithUnit("{search}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create searches_rejected_total: %w", err)
	}

	m.SearchesFinished, err = meter.Int64Counter(
		"monosub_searches_finished_total",
		metric.WithDescription("Total searches finished by termination reason"),
		metric.WithUnit("{search}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create searches_finished_total: %w", err)
	}

	m.SearchDuration, err = meter.Float64Histogram(
		"monosub_search_duration_seconds",
		metric.WithDescription("Search wall time in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120),
	)
	if err != nil {
		return nil, fmt.Errorf("create search_duration: %w", err)
	}

	m.ActiveSearches, err = meter.Int64UpDownCounter(
		"monosub_active_searches",
		metric.WithDescription("Searches currently running"),
		metric.WithUnit("{search}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create active_searches: %w", err)
	}

	m.StopTimeouts, err = meter.Int64Counter(
		"monosub_stop_timeouts_total",
		metric.WithDescription("Stops whose worker did not exit within the grace period"),
		metric.WithUnit("{stop}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create stop_timeouts_total: %w", err)
	}

	m.Subscribers, err = meter.Int64UpDownCounter(
		"monosub_snapshot_subscribers",
		metric.WithDescription("Open snapshot subscriptions"),
		metric.WithUnit("{subscriber}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create snapshot_subscribers: %w", err)
	}

	return m, nil
}
