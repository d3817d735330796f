// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/AleutianAI/crucible/services/route"
	"github.com/AleutianAI/crucible/services/route/config"
	"github.com/AleutianAI/crucible/services/route/telemetry"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(a *app) *cobra.Command {
	var addr string
	var debug bool
	var watch bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the route API over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr != "" {
				a.cfg.Server.Addr = addr
			}
			return a.runServe(cmd.Context(), debug, watch)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides config)")
	cmd.Flags().BoolVar(&debug, "debug", false, "Enable gin debug mode")
	cmd.Flags().BoolVar(&watch, "watch", false, "Reload policy, search and rate limit settings when the config file changes")
	return cmd
}

func (a *app) runServe(ctx context.Context, debug, watch bool) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	tcfg := telemetry.DefaultConfig()
	tcfg.ServiceName = a.cfg.Telemetry.ServiceName
	tcfg.TraceExporter = a.cfg.Telemetry.TraceExporter
	tcfg.MetricExporter = a.cfg.Telemetry.MetricExporter
	if a.cfg.Telemetry.OTLPEndpoint != "" {
		tcfg.OTLPEndpoint = a.cfg.Telemetry.OTLPEndpoint
	}
	shutdownTelemetry, err := telemetry.Init(ctx, tcfg)
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownTelemetry(sctx); err != nil {
			slog.Warn("Telemetry shutdown failed", slog.String("error", err.Error()))
		}
	}()

	st, err := a.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	handlers := route.NewHandlers(
		a.newService(st),
		route.NewLimiter(a.cfg.Server.RateLimit, a.cfg.Server.Burst),
		int64(a.cfg.Server.MaxGridBytes),
	)

	if watch {
		path := a.configPath
		if path == "" {
			path = os.Getenv(config.EnvConfigPath)
		}
		w, err := config.NewWatcher(path, handlers.Reconfigure, 0, a.logger.Slog())
		if err != nil {
			return fmt.Errorf("watch config: %w", err)
		}
		if err := w.Start(ctx); err != nil {
			return fmt.Errorf("watch config: %w", err)
		}
		defer w.Stop()
	}

	srv := &http.Server{
		Addr:              a.cfg.Server.Addr,
		Handler:           route.NewRouter(a.cfg.Telemetry.ServiceName, handlers),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Starting crucible server",
			slog.String("address", srv.Addr),
			slog.String("policy", a.cfg.Policy.Key()),
			slog.String("cache", a.cfg.Cache.Backend),
		)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	slog.Info("Shutting down crucible server")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(sctx)
}
