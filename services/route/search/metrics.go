// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package search

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Package-level tracer and meter for search operations.
var (
	tracer = otel.Tracer("crucible.search")
	meter  = otel.Meter("crucible.search")
)

// Metrics for search operations.
var (
	searchLatency  metric.Float64Histogram
	searchTotal    metric.Int64Counter
	statesExpanded metric.Int64Histogram
	frontierPeak   metric.Int64Histogram

	metricsOnce sync.Once
	metricsErr  error
)

// initMetrics initializes the metrics. Safe to call multiple times.
func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		searchLatency, err = meter.Float64Histogram(
			"route_search_duration_seconds",
			metric.WithDescription("Duration of route searches"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		searchTotal, err = meter.Int64Counter(
			"route_search_total",
			metric.WithDescription("Total number of route searches by outcome"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		statesExpanded, err = meter.Int64Histogram(
			"route_search_states_expanded",
			metric.WithDescription("Number of states closed per search"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		frontierPeak, err = meter.Int64Histogram(
			"route_search_frontier_peak",
			metric.WithDescription("Largest open queue size per search"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

// outcome maps a search error to a low-cardinality label.
func outcome(err error) string {
	switch {
	case err == nil:
		return "found"
	case errors.Is(err, ErrNoPathFound):
		return "no_path"
	case errors.Is(err, ErrExpansionLimit):
		return "limit"
	case errors.Is(err, ErrSearchCancelled):
		return "cancelled"
	default:
		return "error"
	}
}

// recordSearchMetrics records metrics for a finished search.
func recordSearchMetrics(ctx context.Context, duration time.Duration, expanded, frontier int, err error) {
	if initMetrics() != nil {
		return
	}

	attrs := metric.WithAttributes(attribute.String("outcome", outcome(err)))

	searchLatency.Record(ctx, duration.Seconds(), attrs)
	searchTotal.Add(ctx, 1, attrs)
	statesExpanded.Record(ctx, int64(expanded))
	frontierPeak.Record(ctx, int64(frontier))
}

// startSearchSpan creates a span for a single search.
func startSearchSpan(ctx context.Context, width, height int) (context.Context, trace.Span) {
	return tracer.Start(ctx, "route.Search",
		trace.WithAttributes(
			attribute.Int("grid.width", width),
			attribute.Int("grid.height", height),
		),
	)
}

// setSearchSpanResult sets the result attributes on a search span.
func setSearchSpanResult(span trace.Span, cost uint64, expanded, pushed, frontier int) {
	span.SetAttributes(
		attribute.Int64("search.cost", int64(cost)),
		attribute.Int("search.expanded", expanded),
		attribute.Int("search.pushed", pushed),
		attribute.Int("search.frontier_peak", frontier),
	)
}
