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
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/AleutianAI/crucible/services/route/telemetry"
)

// RegisterRoutes registers the route endpoints under rg.
//
// Endpoints:
//
//	POST /route/solve     - Solve a grid (rate limited)
//	GET  /route/policies  - List preset policies
//	GET  /route/health    - Health and counters
//	GET  /route/session   - Websocket solve session
//
// Example:
//
//	router := gin.Default()
//	v1 := router.Group("/v1")
//	route.RegisterRoutes(v1, handlers)
func RegisterRoutes(rg *gin.RouterGroup, handlers *Handlers) {
	r := rg.Group("/route")
	{
		r.POST("/solve", RateLimit(handlers.limiter), handlers.HandleSolve)
		r.GET("/policies", handlers.HandlePolicies)
		r.GET("/health", handlers.HandleHealth)
		r.GET("/session", handlers.HandleSession)
	}
}

// NewRouter builds the full HTTP router: recovery, otel tracing, request
// IDs, the /v1 API and /metrics.
func NewRouter(serviceName string, handlers *Handlers) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(serviceName))
	router.Use(RequestID())

	v1 := router.Group("/v1")
	RegisterRoutes(v1, handlers)

	router.GET("/metrics", gin.WrapH(metricsHandler()))
	return router
}

// metricsHandler prefers the otel Prometheus exporter's handler so otel
// instruments are included.
func metricsHandler() http.Handler {
	if h := telemetry.MetricsHandler(); h != nil {
		return h
	}
	return promhttp.Handler()
}
