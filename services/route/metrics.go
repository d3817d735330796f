// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package route

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Solve metrics, served on /metrics next to the otel search instruments.
var (
	solveRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "crucible_solve_requests_total",
		Help: "Solve requests by outcome code",
	}, []string{"code"})

	solveDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "crucible_solve_duration_seconds",
		Help:    "End-to-end solve time including cache lookup",
		Buckets: []float64{0.0001, 0.001, 0.01, 0.1, 1, 10},
	}, []string{"cached"})

	cacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "crucible_cache_lookups_total",
		Help: "Result store lookups by result",
	}, []string{"result"})

	rateLimited = promauto.NewCounter(prometheus.CounterOpts{
		Name: "crucible_rate_limited_total",
		Help: "Requests rejected by the rate limiter",
	})
)
