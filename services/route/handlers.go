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
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/AleutianAI/crucible/services/route/config"
	"github.com/AleutianAI/crucible/services/route/policy"
)

// Handlers serves the route HTTP API.
type Handlers struct {
	svc          *Service
	limiter      *rate.Limiter
	maxGridBytes int64
}

// NewHandlers creates handlers for svc.
//
// Inputs:
//
//	svc - The route service. Must not be nil.
//	limiter - Rate limiter for solve requests. Nil disables limiting.
//	maxGridBytes - Upper bound on the solve request body. <= 0 is unlimited.
func NewHandlers(svc *Service, limiter *rate.Limiter, maxGridBytes int64) *Handlers {
	return &Handlers{svc: svc, limiter: limiter, maxGridBytes: maxGridBytes}
}

// Reconfigure applies a reloaded config to the service and the rate limiter.
// A limiter that was disabled at startup stays disabled; a rate of 0 lifts
// the limit.
func (h *Handlers) Reconfigure(cfg *config.Config) {
	h.svc.Reconfigure(ServiceConfigFrom(*cfg))
	if h.limiter == nil {
		return
	}
	if cfg.Server.RateLimit <= 0 {
		h.limiter.SetLimit(rate.Inf)
		return
	}
	h.limiter.SetLimit(rate.Limit(cfg.Server.RateLimit))
	h.limiter.SetBurst(max(cfg.Server.Burst, 1))
}

// HandleSolve handles POST /v1/route/solve.
//
// Description:
//
//	Finds the cheapest route through the posted grid.
//
// Request Body:
//
//	SolveRequest
//
// Response:
//
//	200 OK: SolveResponse
//	400 Bad Request: Malformed grid, invalid policy or endpoint
//	408 Request Timeout: Search cancelled or timed out
//	413 Request Entity Too Large: Body above the size limit
//	422 Unprocessable Entity: No route satisfies the policy
//	429 Too Many Requests: Rate limited
//	500 Internal Server Error: Processing error
func (h *Handlers) HandleSolve(c *gin.Context) {
	reqID := requestID(c)
	logger := slog.With("request_id", reqID, "handler", "HandleSolve")

	if h.maxGridBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxGridBytes)
	}

	var req SolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.fail(c, reqID, ErrGridTooLarge)
			return
		}
		logger.Warn("Invalid request body", "error", err)
		solveRequests.WithLabelValues("INVALID_REQUEST").Inc()
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:     "Invalid request body",
			Code:      "INVALID_REQUEST",
			RequestID: reqID,
		})
		return
	}

	resp, err := h.svc.Solve(c.Request.Context(), req)
	if err != nil {
		logger.Info("Solve failed", "error", err)
		h.fail(c, reqID, err)
		return
	}

	solveRequests.WithLabelValues("OK").Inc()
	c.JSON(http.StatusOK, resp)
}

func (h *Handlers) fail(c *gin.Context, reqID string, err error) {
	status, code := errorStatus(err)
	solveRequests.WithLabelValues(code).Inc()
	c.JSON(status, ErrorResponse{
		Error:     err.Error(),
		Code:      code,
		RequestID: reqID,
	})
}

// HandlePolicies handles GET /v1/route/policies.
func (h *Handlers) HandlePolicies(c *gin.Context) {
	names := policy.Presets()
	resp := PoliciesResponse{
		Default:  h.svc.DefaultPolicy().Key(),
		Policies: make([]PolicyInfo, 0, len(names)),
	}
	for _, name := range names {
		spec, _ := policy.Lookup(name)
		resp.Policies = append(resp.Policies, PolicyInfo{Name: name, Spec: spec})
	}
	c.JSON(http.StatusOK, resp)
}

// HandleHealth handles GET /v1/route/health.
func (h *Handlers) HandleHealth(c *gin.Context) {
	solves, hits := h.svc.Stats()
	c.JSON(http.StatusOK, HealthResponse{
		Status:    "healthy",
		Solves:    solves,
		CacheHits: hits,
	})
}
