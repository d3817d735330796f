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
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Session message types.
const (
	MessageSession = "session"
	MessageResult  = "result"
	MessageError   = "error"
)

// SessionMessage is one server message on a solve session.
type SessionMessage struct {
	Type      string         `json:"type"`
	SessionID string         `json:"session_id,omitempty"`
	Seq       int            `json:"seq,omitempty"`
	Result    *SolveResponse `json:"result,omitempty"`
	Error     string         `json:"error,omitempty"`
	Code      string         `json:"code,omitempty"`
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:  64 * 1024,
	WriteBufferSize: 64 * 1024,
}

// HandleSession handles GET /v1/route/session.
//
// Description:
//
//	Upgrades to a websocket and solves each SolveRequest the client sends,
//	replying in order with a "result" or "error" message carrying the
//	request's 1-based sequence number. The first message is a "session"
//	message with the session ID. Requests above the grid size limit close
//	the connection. The solve rate limiter applies per request.
//
//	A hijacked request's context outlives the peer, so the session derives
//	its own context and cancels it when reading fails. A client that
//	disconnects mid-solve cancels that solve.
//
// Thread Safety: One goroutine reads frames, another solves and writes.
func (h *Handlers) HandleSession(c *gin.Context) {
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		slog.Warn("Failed to upgrade solve session", "error", err)
		return
	}
	defer ws.Close()

	sessionID := uuid.New().String()
	logger := slog.With("session_id", sessionID, "request_id", requestID(c))
	logger.Info("Solve session opened")

	if h.maxGridBytes > 0 {
		ws.SetReadLimit(h.maxGridBytes)
	}
	if err := ws.WriteJSON(SessionMessage{Type: MessageSession, SessionID: sessionID}); err != nil {
		return
	}

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	requests := make(chan SolveRequest)
	go func() {
		defer close(requests)
		defer cancel()
		for {
			var req SolveRequest
			if err := ws.ReadJSON(&req); err != nil {
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					logger.Info("Solve session ended", "error", err.Error())
				}
				return
			}
			select {
			case requests <- req:
			case <-ctx.Done():
				return
			}
		}
	}()

	seq := 0
	for req := range requests {
		seq++
		msg := h.solveMessage(ctx, seq, req)
		if ctx.Err() != nil {
			return
		}
		if err := ws.WriteJSON(msg); err != nil {
			logger.Warn("Failed to write session message", "error", err)
			return
		}
	}
}

func (h *Handlers) solveMessage(ctx context.Context, seq int, req SolveRequest) SessionMessage {
	if h.limiter != nil && !h.limiter.Allow() {
		rateLimited.Inc()
		return SessionMessage{Type: MessageError, Seq: seq, Error: "rate limit exceeded", Code: "RATE_LIMITED"}
	}
	if req.Grid == "" {
		solveRequests.WithLabelValues("INVALID_REQUEST").Inc()
		return SessionMessage{Type: MessageError, Seq: seq, Error: "grid is required", Code: "INVALID_REQUEST"}
	}

	resp, err := h.svc.Solve(ctx, req)
	if err != nil {
		_, code := errorStatus(err)
		solveRequests.WithLabelValues(code).Inc()
		return SessionMessage{Type: MessageError, Seq: seq, Error: err.Error(), Code: code}
	}
	solveRequests.WithLabelValues("OK").Inc()
	return SessionMessage{Type: MessageResult, Seq: seq, Result: resp}
}
