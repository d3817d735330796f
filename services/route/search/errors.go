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

import "errors"

// Sentinel errors for route search.
var (
	// ErrNoPathFound is returned when the open queue empties before any
	// terminal state is reached. The grid is disconnected under the policy
	// or the policy is over-constrained. Retrying cannot help: the search
	// is deterministic.
	ErrNoPathFound = errors.New("no path found")

	// ErrInvalidEndpoint is returned when the start or goal lies outside
	// the grid.
	ErrInvalidEndpoint = errors.New("endpoint outside grid")

	// ErrNilGrid is returned when Search is called without a grid.
	ErrNilGrid = errors.New("grid must not be nil")

	// ErrNilPolicy is returned when Search is called without a policy.
	ErrNilPolicy = errors.New("policy must not be nil")

	// ErrNoStarts is returned by SearchFromStarts when starts is empty.
	ErrNoStarts = errors.New("at least one start position is required")

	// ErrExpansionLimit is returned when the search closes more states than
	// allowed by WithMaxExpansions.
	ErrExpansionLimit = errors.New("expansion limit reached")

	// ErrSearchCancelled is returned when the context is cancelled or its
	// deadline passes mid-search. It wraps the context error.
	ErrSearchCancelled = errors.New("search cancelled")
)
