// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package grid provides the cost grid and the coordinate model used by the
// route search.
//
// A Grid is a rectangular matrix of non-negative cell costs. Positions are
// grid-relative coordinates, and Headings are the four cardinal directions a
// route can travel in. Stepping a Position never produces a negative
// coordinate; whether the result lies inside a particular grid is answered by
// the grid itself.
//
// # Ownership Model
//
// A Grid is immutable once constructed. Search code borrows it for the
// duration of a query and never mutates it.
//
// # Thread Safety
//
// Grid, Position, Heading and Action are safe for concurrent use. A single
// Grid may be shared by any number of concurrent searches without locking.
package grid

import "errors"

// Sentinel errors for grid construction.
var (
	// ErrMalformedGrid is returned when the input is empty, not rectangular,
	// or contains characters that are not cell costs.
	ErrMalformedGrid = errors.New("malformed grid")

	// ErrUnknownHeading is returned by ParseHeading for unrecognized names.
	ErrUnknownHeading = errors.New("unknown heading")
)
