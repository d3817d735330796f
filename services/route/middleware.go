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
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// RequestIDHeader carries the request ID in both directions.
const RequestIDHeader = "X-Request-ID"

const requestIDKey = "request_id"

// RequestID assigns every request an ID, reusing an incoming X-Request-ID
// and echoing it on the response.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// requestID returns the ID assigned by RequestID, or a fresh one when the
// middleware is not installed.
func requestID(c *gin.Context) string {
	if id := c.GetString(requestIDKey); id != "" {
		return id
	}
	id := uuid.NewString()
	c.Set(requestIDKey, id)
	c.Header(RequestIDHeader, id)
	return id
}

// RateLimit rejects requests with 429 once limiter is exhausted. A nil
// limiter admits everything.
func RateLimit(limiter *rate.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter != nil && !limiter.Allow() {
			rateLimited.Inc()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, ErrorResponse{
				Error:     "rate limit exceeded",
				Code:      "RATE_LIMITED",
				RequestID: requestID(c),
			})
			return
		}
		c.Next()
	}
}

// NewLimiter builds a token bucket limiter. perSecond <= 0 disables
// limiting and returns nil.
func NewLimiter(perSecond float64, burst int) *rate.Limiter {
	if perSecond <= 0 {
		return nil
	}
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(perSecond), burst)
}
