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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// runsTotal counts finished searches.
	//
	// Labels:
	//   - scorer: "dictionary" or "frequency"
	//   - reason: "converged", "cancelled" or "exhausted"
	runsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "monosub",
			Subsystem: "anneal",
			Name:      "runs_total",
			Help:      "Total finished searches by scorer and termination reason",
		},
		[]string{"scorer", "reason"},
	)

	iterationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "monosub",
			Subsystem: "anneal",
			Name:      "iterations_total",
			Help:      "Total search iterations by scorer",
		},
		[]string{"scorer"},
	)

	acceptedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "monosub",
			Subsystem: "anneal",
			Name:      "accepted_moves_total",
			Help:      "Total accepted neighbor moves by scorer",
		},
		[]string{"scorer"},
	)

	runDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "monosub",
			Subsystem: "anneal",
			Name:      "run_duration_seconds",
			Help:      "Search wall time by scorer",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"scorer"},
	)

	bestScore = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "monosub",
			Subsystem: "anneal",
			Name:      "best_score",
			Help:      "Best score reached per search by scorer",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
		},
		[]string{"scorer"},
	)
)

// knownScorers bounds the scorer label cardinality.
var knownScorers = map[string]bool{
	"dictionary": true,
	"frequency":  true,
}

func scorerLabel(name string) string {
	if knownScorers[name] {
		return name
	}
	return "unknown"
}

// recordRun records the metrics of a finished search.
func recordRun(r *Result) {
	s := scorerLabel(r.Scorer)
	runsTotal.WithLabelValues(s, r.Reason.String()).Inc()
	iterationsTotal.WithLabelValues(s).Add(float64(r.Iterations))
	acceptedTotal.WithLabelValues(s).Add(float64(r.Accepted))
	runDuration.WithLabelValues(s).Observe(r.Duration.Seconds())
	bestScore.WithLabelValues(s).Observe(float64(r.BestScore))
}
