// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package search implements the constrained best-first route search.
//
// The search finds the cheapest route across a cost grid when the legal
// moves depend on how the route got to a cell, not only on the cell itself.
// Its state is (position, heading, streak), and a policy.Policy decides
// which turns are legal at each streak and when a route may stop.
//
// # Algorithm
//
// Search is A*: a min-priority open queue ordered by cost plus heuristic,
// and a closed set of finalized states. Successors are pushed without
// consulting the closed set; a popped state that is already closed is
// discarded. With non-negative cell costs and an admissible heuristic the
// first terminal state popped carries the minimum cost.
//
// # Thread Safety
//
// Search is synchronous and owns its queue and closed set. Any number of
// searches may run concurrently over the same grid.
package search

import (
	"container/heap"
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/codes"

	"github.com/AleutianAI/crucible/services/route/grid"
	"github.com/AleutianAI/crucible/services/route/policy"
)

// Step is one cell of a reconstructed route.
type Step struct {
	State

	// Cost is the accumulated cost after entering this cell.
	Cost uint64 `json:"cost"`
}

// Result is the outcome of a successful search.
type Result struct {
	// Cost is the minimum accumulated cost. The start cell is not counted.
	Cost uint64 `json:"cost"`

	// Start and Goal echo the endpoints of the search.
	Start grid.Position `json:"start"`
	Goal  grid.Position `json:"goal"`

	// Final is the terminal state the route stopped in.
	Final State `json:"final"`

	// Path lists the route from the start state to Final. Empty when path
	// tracking is disabled.
	Path []Step `json:"path,omitempty"`

	// Expanded is the number of states closed.
	Expanded int `json:"expanded"`

	// Pushed is the number of nodes pushed onto the open queue.
	Pushed int `json:"pushed"`

	// MaxFrontier is the largest open queue size observed.
	MaxFrontier int `json:"max_frontier"`

	// Duration is the wall time of the search.
	Duration time.Duration `json:"duration"`
}

// trailEntry records a closed node for path reconstruction.
type trailEntry struct {
	state  State
	cost   uint64
	parent int32
}

// Search finds the minimum-cost route from start to goal under p.
//
// Description:
//
//	Seeds the open queue with (start, heading, streak 1, cost 0) for each
//	start heading (East unless WithStartHeadings says otherwise), then
//	repeatedly pops the cheapest node. A popped state that is already
//	closed is discarded; otherwise it is closed, checked for termination
//	(position == goal and p.CanTerminate(streak)), and expanded with every
//	action p allows. Entering a cell adds its cost; the start cell is free.
//
// Inputs:
//   - ctx: Context for cancellation. Checked before the first pop and
//     every 1024 pops after that.
//   - g: The cost grid. Must not be nil. Not modified.
//   - start: Start cell. Must lie inside g.
//   - goal: Goal cell. Must lie inside g.
//   - p: Transition policy. Must not be nil.
//   - opts: Optional settings (start headings, limits, heuristic, path).
//
// Outputs:
//   - *Result: Minimum cost, route, and statistics. Nil on error.
//   - error: ErrNoPathFound when no terminal state is reachable,
//     ErrInvalidEndpoint, ErrNilGrid, ErrNilPolicy, ErrExpansionLimit, or
//     ErrSearchCancelled (wrapping the context error).
//
// Performance:
//
//	O(S log S) where S = width * height * 4 * max streak.
//
// Thread Safety: Safe for concurrent use; g is only read.
func Search(ctx context.Context, g *grid.Grid, start, goal grid.Position, p policy.Policy, opts ...Option) (*Result, error) {
	if g == nil {
		return nil, ErrNilGrid
	}
	if p == nil {
		return nil, ErrNilPolicy
	}
	if !g.Contains(start) {
		return nil, fmt.Errorf("%w: start %s", ErrInvalidEndpoint, start)
	}
	if !g.Contains(goal) {
		return nil, fmt.Errorf("%w: goal %s", ErrInvalidEndpoint, goal)
	}

	options := applyOptions(g, opts)

	ctx, span := startSearchSpan(ctx, g.Width(), g.Height())
	defer span.End()

	began := time.Now()
	r := &runner{
		g:       g,
		p:       p,
		goal:    goal,
		opts:    options,
		closed:  make(map[State]struct{}, g.Width()*g.Height()*4),
		open:    make(openQueue, 0, 64),
		scratch: make([]successor, 0, 3),
	}

	result, err := r.run(ctx, start)
	duration := time.Since(began)

	recordSearchMetrics(ctx, duration, len(r.closed), r.maxFrontier, err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		slog.Debug("route search failed",
			slog.String("start", start.String()),
			slog.String("goal", goal.String()),
			slog.Int("expanded", len(r.closed)),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	result.Duration = duration
	setSearchSpanResult(span, result.Cost, result.Expanded, result.Pushed, result.MaxFrontier)
	span.SetStatus(codes.Ok, "")

	slog.Debug("route search completed",
		slog.String("start", start.String()),
		slog.String("goal", goal.String()),
		slog.Uint64("cost", result.Cost),
		slog.Int("expanded", result.Expanded),
		slog.Int("pushed", result.Pushed),
		slog.Duration("duration", duration),
	)

	return result, nil
}

// runner holds the mutable state of one search.
type runner struct {
	g    *grid.Grid
	p    policy.Policy
	goal grid.Position
	opts Options

	open    openQueue
	closed  map[State]struct{}
	trail   []trailEntry
	scratch []successor

	seq         uint64
	pushed      int
	maxFrontier int
}

func (r *runner) push(s State, cost uint64, parent int32) {
	heap.Push(&r.open, node{
		state:  s,
		cost:   cost,
		h:      r.opts.Heuristic(s.Position, r.goal),
		seq:    r.seq,
		parent: parent,
	})
	r.seq++
	r.pushed++
	if len(r.open) > r.maxFrontier {
		r.maxFrontier = len(r.open)
	}
}

func (r *runner) run(ctx context.Context, start grid.Position) (*Result, error) {
	for _, h := range r.opts.StartHeadings {
		r.push(State{Position: start, Heading: h, Streak: 1}, 0, -1)
	}

	pops := 0
	for len(r.open) > 0 {
		if pops%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, fmt.Errorf("%w: %w", ErrSearchCancelled, err)
			}
		}
		pops++

		current := heap.Pop(&r.open).(node)
		if _, done := r.closed[current.state]; done {
			continue
		}
		r.closed[current.state] = struct{}{}

		self := int32(-1)
		if r.opts.TrackPath {
			self = int32(len(r.trail))
			r.trail = append(r.trail, trailEntry{
				state:  current.state,
				cost:   current.cost,
				parent: current.parent,
			})
		}

		if current.state.Position == r.goal && r.p.CanTerminate(current.state.Streak) {
			return r.result(start, current, self), nil
		}

		if r.opts.MaxExpansions > 0 && len(r.closed) >= r.opts.MaxExpansions {
			return nil, fmt.Errorf("%w: %d states closed", ErrExpansionLimit, len(r.closed))
		}

		r.scratch = expand(r.g, r.p, current.state, current.cost, r.scratch[:0])
		for _, next := range r.scratch {
			r.push(next.state, next.cost, self)
		}
	}

	return nil, fmt.Errorf("%w: from %s to %s", ErrNoPathFound, start, r.goal)
}

func (r *runner) result(start grid.Position, final node, self int32) *Result {
	res := &Result{
		Cost:        final.cost,
		Start:       start,
		Goal:        r.goal,
		Final:       final.state,
		Expanded:    len(r.closed),
		Pushed:      r.pushed,
		MaxFrontier: r.maxFrontier,
	}

	if r.opts.TrackPath {
		var reversed []Step
		for i := self; i >= 0; i = r.trail[i].parent {
			e := r.trail[i]
			reversed = append(reversed, Step{State: e.state, Cost: e.cost})
		}
		res.Path = make([]Step, len(reversed))
		for i, s := range reversed {
			res.Path[len(reversed)-1-i] = s
		}
	}

	return res
}
