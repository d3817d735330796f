// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package route exposes the crucible route search as a service.
//
// Service.Solve parses a grid, resolves the transition policy, consults the
// result store and runs the search. Handlers and RegisterRoutes put the
// service behind a gin HTTP API.
package route

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"github.com/AleutianAI/crucible/services/route/config"
	"github.com/AleutianAI/crucible/services/route/grid"
	"github.com/AleutianAI/crucible/services/route/policy"
	"github.com/AleutianAI/crucible/services/route/search"
	"github.com/AleutianAI/crucible/services/route/store"
	"github.com/AleutianAI/crucible/services/route/telemetry"
)

const tracerName = "crucible.route"

// ServiceConfig configures a Service.
type ServiceConfig struct {
	// DefaultPolicy is used when a request names no policy.
	DefaultPolicy policy.Spec

	// StartHeadings is used when a request names none.
	StartHeadings []grid.Heading

	// MaxExpansions caps closed states per search. 0 is unlimited.
	MaxExpansions int

	// Workers bounds concurrency of multi-start solves.
	Workers int

	// Timeout bounds one solve. 0 is unlimited.
	Timeout time.Duration
}

// DefaultServiceConfig mirrors config.DefaultConfig.
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfigFrom(config.DefaultConfig())
}

// ServiceConfigFrom extracts the service settings from a loaded config.
func ServiceConfigFrom(cfg config.Config) ServiceConfig {
	return ServiceConfig{
		DefaultPolicy: cfg.Policy,
		StartHeadings: cfg.Search.StartHeadings,
		MaxExpansions: cfg.Search.MaxExpansions,
		Workers:       cfg.Search.Workers,
		Timeout:       cfg.Search.Timeout,
	}
}

// Service solves route requests.
//
// Thread Safety: Safe for concurrent use.
type Service struct {
	cfg    atomic.Pointer[ServiceConfig]
	store  store.Store
	logger *slog.Logger
	flight singleflight.Group

	solves    atomic.Int64
	cacheHits atomic.Int64
}

// NewService creates a Service. A nil store disables caching; a nil logger
// uses slog.Default.
func NewService(cfg ServiceConfig, st store.Store, logger *slog.Logger) *Service {
	if st == nil {
		st = store.NopStore{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{store: st, logger: logger}
	s.cfg.Store(&cfg)
	return s
}

// Reconfigure replaces the service settings. Solves already running keep
// the settings they started with.
func (s *Service) Reconfigure(cfg ServiceConfig) {
	s.cfg.Store(&cfg)
}

// Config returns the current service settings.
func (s *Service) Config() ServiceConfig {
	return *s.cfg.Load()
}

// Stats returns the number of solves and how many were served from the
// result store.
func (s *Service) Stats() (solves, cacheHits int64) {
	return s.solves.Load(), s.cacheHits.Load()
}

// DefaultPolicy returns the policy used when a request names none.
func (s *Service) DefaultPolicy() policy.Spec {
	return s.cfg.Load().DefaultPolicy
}

// Solve finds the cheapest route for req.
//
// Description:
//
//	Parses req.Grid, resolves the policy (Spec, then preset name, then the
//	service default), and looks the inputs up in the result store. On a
//	miss it runs search.Search from Start, or search.SearchFromStarts from
//	every border cell when FromEdges is set, and stores the outcome. Both
//	found routes and "no path" outcomes are cached; limit and cancellation
//	errors are not.
//
// Inputs:
//
//	ctx - Context for cancellation. The configured Timeout is applied on top.
//	req - The request. Only Grid is required.
//
// Outputs:
//
//	*SolveResponse - The route and search statistics.
//	error - grid.ErrMalformedGrid, ErrUnknownPolicy, policy.ErrInvalidPolicy,
//	  search.ErrInvalidEndpoint, search.ErrNoPathFound,
//	  search.ErrExpansionLimit, or search.ErrSearchCancelled.
//
// Thread Safety: Safe for concurrent use.
func (s *Service) Solve(ctx context.Context, req SolveRequest) (*SolveResponse, error) {
	began := time.Now()
	s.solves.Add(1)

	ctx, span := telemetry.StartSpan(ctx, tracerName, "route.Service.Solve",
		trace.WithAttributes(attribute.Bool("solve.from_edges", req.FromEdges)),
	)
	defer span.End()

	resp, err := s.solve(ctx, req)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	resp.DurationMs = float64(time.Since(began).Microseconds()) / 1000
	span.SetAttributes(
		attribute.Int64("solve.cost", int64(resp.Cost)),
		attribute.Bool("solve.cached", resp.Cached),
	)
	telemetry.SetSpanOK(span)
	solveDuration.WithLabelValues(strconv.FormatBool(resp.Cached)).Observe(time.Since(began).Seconds())

	return resp, nil
}

func (s *Service) solve(ctx context.Context, req SolveRequest) (*SolveResponse, error) {
	cfg := s.cfg.Load()

	g, err := grid.Parse(req.Grid)
	if err != nil {
		return nil, err
	}

	spec, err := resolvePolicy(req, cfg.DefaultPolicy)
	if err != nil {
		return nil, err
	}
	p, err := spec.Build()
	if err != nil {
		return nil, err
	}

	start, goal := g.TopLeft(), g.BottomRight()
	if req.Start != nil {
		start = *req.Start
	}
	if req.Goal != nil {
		goal = *req.Goal
	}
	starts := []grid.Position{start}
	if req.FromEdges {
		starts = g.EdgePositions()
	}
	headings := req.StartHeadings
	if len(headings) == 0 {
		headings = cfg.StartHeadings
	}

	logger := telemetry.LoggerWithTrace(ctx, s.logger).With(
		slog.String("policy", spec.Key()),
		slog.Int("width", g.Width()),
		slog.Int("height", g.Height()),
	)

	key := store.Key(store.KeyInput{
		GridDigest: g.Digest(),
		PolicyKey:  spec.Key(),
		Starts:     starts,
		Goal:       goal,
		Headings:   headings,
	})

	entry, hit, err := s.store.Get(ctx, key)
	if err != nil {
		logger.Warn("result store lookup failed", slog.String("error", err.Error()))
	}
	if hit {
		cacheLookups.WithLabelValues("hit").Inc()
		s.cacheHits.Add(1)
		if entry.NoPath {
			return nil, fmt.Errorf("%w (cached)", search.ErrNoPathFound)
		}
		logger.Debug("route served from store", slog.Uint64("cost", entry.Result.Cost))
		return s.respond(g, spec, entry.Result, req, true), nil
	}
	cacheLookups.WithLabelValues("miss").Inc()

	// Identical concurrent misses share one search. Followers get the
	// leader's outcome, including its cancellation.
	v, err, shared := s.flight.Do(key, func() (any, error) {
		sctx := ctx
		if cfg.Timeout > 0 {
			var cancel context.CancelFunc
			sctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
			defer cancel()
		}

		opts := []search.Option{
			search.WithStartHeadings(headings...),
			search.WithMaxExpansions(cfg.MaxExpansions),
			search.WithWorkers(cfg.Workers),
		}

		var res *search.Result
		var err error
		if req.FromEdges {
			res, err = search.SearchFromStarts(sctx, g, starts, goal, p, opts...)
		} else {
			res, err = search.Search(sctx, g, start, goal, p, opts...)
		}

		switch {
		case errors.Is(err, search.ErrNoPathFound):
			s.put(ctx, logger, key, &store.Entry{NoPath: true})
			logger.Info("no route found", slog.String("goal", goal.String()))
			return nil, err
		case err != nil:
			return nil, err
		}

		s.put(ctx, logger, key, &store.Entry{Result: res})
		logger.Info("route solved",
			slog.Uint64("cost", res.Cost),
			slog.Int("expanded", res.Expanded),
			slog.Duration("duration", res.Duration),
		)
		return res, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		logger.Debug("route shared with concurrent solve")
	}

	return s.respond(g, spec, v.(*search.Result), req, false), nil
}

func resolvePolicy(req SolveRequest, fallback policy.Spec) (policy.Spec, error) {
	if req.Spec != nil {
		return *req.Spec, nil
	}
	if req.Policy != "" {
		spec, ok := policy.Lookup(req.Policy)
		if !ok {
			return policy.Spec{}, fmt.Errorf("%w: %q", ErrUnknownPolicy, req.Policy)
		}
		return spec, nil
	}
	return fallback, nil
}

func (s *Service) put(ctx context.Context, logger *slog.Logger, key string, entry *store.Entry) {
	if err := s.store.Put(ctx, key, entry); err != nil {
		logger.Warn("result store write failed", slog.String("error", err.Error()))
	}
}

func (s *Service) respond(g *grid.Grid, spec policy.Spec, res *search.Result, req SolveRequest, cached bool) *SolveResponse {
	resp := &SolveResponse{
		Cost:        res.Cost,
		Policy:      spec.Key(),
		GridDigest:  g.Digest(),
		Start:       res.Start,
		Goal:        res.Goal,
		Final:       res.Final,
		Expanded:    res.Expanded,
		Pushed:      res.Pushed,
		MaxFrontier: res.MaxFrontier,
		Cached:      cached,
	}
	if n := len(res.Path); n > 0 {
		resp.Steps = n - 1
	}
	if req.IncludePath {
		resp.Path = res.Path
	}
	if req.Render {
		resp.Rendered = search.RenderPath(g, res.Path)
	}
	return resp
}
