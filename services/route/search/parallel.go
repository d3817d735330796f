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
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/AleutianAI/crucible/services/route/grid"
	"github.com/AleutianAI/crucible/services/route/policy"
)

// SearchFromStarts runs one search per start position and returns the
// cheapest result.
//
// Description:
//
//	Each start gets an independent Search with its own open queue and
//	closed set. Searches run concurrently on a bounded worker pool and
//	share g read-only. Starts that cannot reach the goal are skipped; ties
//	go to the start listed first.
//
// Inputs:
//   - ctx: Context for cancellation. Cancelling stops all searches.
//   - g: The cost grid. Must not be nil.
//   - starts: Candidate start cells. Must not be empty; each must lie in g.
//   - goal: Goal cell.
//   - p: Transition policy.
//   - opts: Options applied to every search. WithWorkers bounds concurrency.
//
// Outputs:
//   - *Result: The cheapest result across all starts.
//   - error: ErrNoPathFound if no start reaches the goal; the first other
//     error any search returned.
//
// Thread Safety: Safe for concurrent use.
func SearchFromStarts(ctx context.Context, g *grid.Grid, starts []grid.Position, goal grid.Position, p policy.Policy, opts ...Option) (*Result, error) {
	if g == nil {
		return nil, ErrNilGrid
	}
	if len(starts) == 0 {
		return nil, ErrNoStarts
	}

	options := applyOptions(g, opts)

	ctx, span := tracer.Start(ctx, "route.SearchFromStarts",
		trace.WithAttributes(
			attribute.Int("search.starts", len(starts)),
			attribute.Int("search.workers", options.Workers),
		),
	)
	defer span.End()

	results := make([]*Result, len(starts))

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(options.Workers)

	for i, start := range starts {
		eg.Go(func() error {
			res, err := Search(egCtx, g, start, goal, p, opts...)
			if errors.Is(err, ErrNoPathFound) {
				return nil
			}
			if err != nil {
				return fmt.Errorf("start %s: %w", start, err)
			}
			results[i] = res
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	var best *Result
	for _, res := range results {
		if res != nil && (best == nil || res.Cost < best.Cost) {
			best = res
		}
	}

	if best == nil {
		err := fmt.Errorf("%w: none of %d starts reach %s", ErrNoPathFound, len(starts), goal)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(
		attribute.Int64("search.cost", int64(best.Cost)),
		attribute.String("search.best_start", best.Start.String()),
	)
	span.SetStatus(codes.Ok, "")

	slog.Debug("multi-start route search completed",
		slog.Int("starts", len(starts)),
		slog.String("best_start", best.Start.String()),
		slog.Uint64("cost", best.Cost),
	)

	return best, nil
}
