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
	"github.com/AleutianAI/crucible/services/route/grid"
	"github.com/AleutianAI/crucible/services/route/policy"
	"github.com/AleutianAI/crucible/services/route/search"
)

// SolveRequest is the body of POST /v1/route/solve and the input of
// Service.Solve.
type SolveRequest struct {
	// Grid is the cost grid as rows of decimal digits.
	Grid string `json:"grid" binding:"required"`

	// Policy names a preset ("crucible", "ultra"). Ignored when Spec is set.
	// Empty selects the service default.
	Policy string `json:"policy,omitempty"`

	// Spec describes a custom policy.
	Spec *policy.Spec `json:"spec,omitempty"`

	// Start defaults to the top-left cell.
	Start *grid.Position `json:"start,omitempty"`

	// Goal defaults to the bottom-right cell.
	Goal *grid.Position `json:"goal,omitempty"`

	// FromEdges searches from every border cell instead of Start and
	// returns the cheapest.
	FromEdges bool `json:"from_edges,omitempty"`

	// StartHeadings overrides the service's initial headings.
	StartHeadings []grid.Heading `json:"start_headings,omitempty"`

	// IncludePath returns the route cell by cell.
	IncludePath bool `json:"include_path,omitempty"`

	// Render returns the grid with the route drawn on it.
	Render bool `json:"render,omitempty"`
}

// SolveResponse is the outcome of a successful solve.
type SolveResponse struct {
	Cost       uint64        `json:"cost"`
	Policy     string        `json:"policy"`
	GridDigest string        `json:"grid_digest"`
	Start      grid.Position `json:"start"`
	Goal       grid.Position `json:"goal"`
	Final      search.State  `json:"final"`

	// Steps is the number of cells entered.
	Steps    int           `json:"steps"`
	Path     []search.Step `json:"path,omitempty"`
	Rendered string        `json:"rendered,omitempty"`

	Expanded    int `json:"expanded"`
	Pushed      int `json:"pushed"`
	MaxFrontier int `json:"max_frontier"`

	// Cached is true when the result came from the result store.
	Cached     bool    `json:"cached"`
	DurationMs float64 `json:"duration_ms"`
}

// PolicyInfo describes a preset policy.
type PolicyInfo struct {
	Name string      `json:"name"`
	Spec policy.Spec `json:"spec"`
}

// PoliciesResponse is the body of GET /v1/route/policies.
type PoliciesResponse struct {
	Default  string       `json:"default"`
	Policies []PolicyInfo `json:"policies"`
}

// HealthResponse is the body of GET /v1/route/health.
type HealthResponse struct {
	Status    string `json:"status"`
	Solves    int64  `json:"solves"`
	CacheHits int64  `json:"cache_hits"`
}

// ErrorResponse is returned for failed requests.
type ErrorResponse struct {
	// Error is the error message.
	Error string `json:"error"`

	// Code is a stable machine-readable error code.
	Code string `json:"code,omitempty"`

	// RequestID echoes X-Request-ID.
	RequestID string `json:"request_id,omitempty"`
}
