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
	"errors"
	"net/http"

	"github.com/AleutianAI/crucible/services/route/grid"
	"github.com/AleutianAI/crucible/services/route/policy"
	"github.com/AleutianAI/crucible/services/route/search"
)

// Sentinel errors for the route service.
var (
	// ErrUnknownPolicy indicates a preset name that is not registered.
	ErrUnknownPolicy = errors.New("unknown policy preset")

	// ErrGridTooLarge indicates a request grid above the configured size.
	ErrGridTooLarge = errors.New("grid exceeds size limit")
)

// errorStatus maps a Solve error to an HTTP status and error code.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, grid.ErrMalformedGrid):
		return http.StatusBadRequest, "MALFORMED_GRID"
	case errors.Is(err, ErrUnknownPolicy), errors.Is(err, policy.ErrInvalidPolicy):
		return http.StatusBadRequest, "INVALID_POLICY"
	case errors.Is(err, search.ErrInvalidEndpoint):
		return http.StatusBadRequest, "INVALID_ENDPOINT"
	case errors.Is(err, ErrGridTooLarge):
		return http.StatusRequestEntityTooLarge, "GRID_TOO_LARGE"
	case errors.Is(err, search.ErrNoPathFound):
		return http.StatusUnprocessableEntity, "NO_PATH"
	case errors.Is(err, search.ErrExpansionLimit):
		return http.StatusUnprocessableEntity, "EXPANSION_LIMIT"
	case errors.Is(err, search.ErrSearchCancelled):
		return http.StatusRequestTimeout, "CANCELLED"
	default:
		return http.StatusInternalServerError, "SOLVE_FAILED"
	}
}
