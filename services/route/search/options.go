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
	"runtime"

	"github.com/AleutianAI/crucible/services/route/grid"
)

const (
	// cancelCheckInterval is how many pops happen between context checks.
	cancelCheckInterval = 1024

	// maxParallelWorkers caps SearchFromStarts concurrency regardless of
	// CPU count.
	maxParallelWorkers = 8
)

// Heuristic estimates the remaining cost from a position to the goal.
//
// It must never exceed the true remaining cost for Search to return the
// optimum.
type Heuristic func(from, goal grid.Position) uint64

// Manhattan is the unit-cost heuristic: one per cell of L1 distance.
// Admissible only when every cell costs at least 1.
func Manhattan(from, goal grid.Position) uint64 {
	return uint64(from.Manhattan(goal))
}

// ScaledManhattan returns a Manhattan heuristic scaled by the grid's
// cheapest cell. It is admissible for any grid, and degrades to plain
// Dijkstra (h = 0) when the grid contains free cells.
func ScaledManhattan(g *grid.Grid) Heuristic {
	scale := uint64(g.MinCost())
	return func(from, goal grid.Position) uint64 {
		return scale * uint64(from.Manhattan(goal))
	}
}

// Options configures a search.
type Options struct {
	// StartHeadings seeds one start state per heading. Default: East.
	StartHeadings []grid.Heading

	// MaxExpansions bounds the number of closed states. 0 means unlimited.
	MaxExpansions int

	// Heuristic overrides the default ScaledManhattan heuristic.
	Heuristic Heuristic

	// TrackPath enables path reconstruction. Default: true.
	TrackPath bool

	// Workers bounds SearchFromStarts concurrency. Default:
	// min(GOMAXPROCS, 8).
	Workers int
}

// Option configures Options.
type Option func(*Options)

// WithStartHeadings seeds the search with one start state per heading.
func WithStartHeadings(headings ...grid.Heading) Option {
	return func(o *Options) {
		if len(headings) > 0 {
			o.StartHeadings = append([]grid.Heading(nil), headings...)
		}
	}
}

// WithMaxExpansions aborts the search with ErrExpansionLimit after n
// states have been closed. n <= 0 disables the limit.
func WithMaxExpansions(n int) Option {
	return func(o *Options) {
		if n < 0 {
			n = 0
		}
		o.MaxExpansions = n
	}
}

// WithHeuristic replaces the default heuristic.
func WithHeuristic(h Heuristic) Option {
	return func(o *Options) {
		o.Heuristic = h
	}
}

// WithPath enables or disables path reconstruction.
func WithPath(enabled bool) Option {
	return func(o *Options) {
		o.TrackPath = enabled
	}
}

// WithWorkers bounds the number of concurrent searches run by
// SearchFromStarts.
func WithWorkers(n int) Option {
	return func(o *Options) {
		if n > 0 {
			o.Workers = n
		}
	}
}

// defaultOptions returns the defaults for searches on g.
func defaultOptions(g *grid.Grid) Options {
	return Options{
		StartHeadings: []grid.Heading{grid.East},
		Heuristic:     ScaledManhattan(g),
		TrackPath:     true,
		Workers:       min(runtime.GOMAXPROCS(0), maxParallelWorkers),
	}
}

func applyOptions(g *grid.Grid, opts []Option) Options {
	o := defaultOptions(g)
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	if o.Heuristic == nil {
		o.Heuristic = ScaledManhattan(g)
	}
	return o
}
