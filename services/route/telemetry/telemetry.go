// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package telemetry installs the OpenTelemetry providers for crucible.
//
// The search and service packages use otel.Tracer and otel.Meter directly.
// Until Init runs they talk to the global no-op providers, so libraries
// and tests need no setup.
//
// # Environment Variables
//
//   - CRUCIBLE_ENV: deployment environment (default: development)
//   - OTEL_TRACES_EXPORTER: otlp, stdout, or none (default: none)
//   - OTEL_METRICS_EXPORTER: prometheus, stdout, or none (default: prometheus)
//   - OTEL_EXPORTER_OTLP_ENDPOINT: OTLP endpoint (default: localhost:4317)
//
// # Thread Safety
//
// All exported functions are safe for concurrent use after Init returns.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"sync"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
)

var (
	// ErrNilContext is returned when Init is called with a nil context.
	ErrNilContext = errors.New("telemetry: nil context")

	// ErrUnknownExporter is returned for unrecognized exporter names.
	ErrUnknownExporter = errors.New("telemetry: unknown exporter")
)

// Config controls telemetry behavior.
type Config struct {
	// ServiceName identifies this service in traces and metrics.
	ServiceName string

	// ServiceVersion is the version string for this service.
	ServiceVersion string

	// Environment identifies the deployment environment.
	Environment string

	// TraceExporter selects the trace exporter: "otlp", "stdout", or "none".
	TraceExporter string

	// MetricExporter selects the metric exporter: "prometheus", "stdout", or "none".
	MetricExporter string

	// OTLPEndpoint is the OTLP receiver endpoint for traces.
	OTLPEndpoint string

	// OTLPInsecure disables TLS for OTLP connections.
	OTLPInsecure bool
}

// DefaultConfig returns defaults for local use, overridden by the
// environment variables listed in the package doc.
func DefaultConfig() Config {
	return Config{
		ServiceName:    "crucible",
		ServiceVersion: "1.0.0",
		Environment:    getEnvOr("CRUCIBLE_ENV", "development"),
		TraceExporter:  getEnvOr("OTEL_TRACES_EXPORTER", "none"),
		MetricExporter: getEnvOr("OTEL_METRICS_EXPORTER", "prometheus"),
		OTLPEndpoint:   getEnvOr("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		OTLPInsecure:   true,
	}
}

// Init installs the global TracerProvider and MeterProvider.
//
// Description:
//
//	Sets up providers based on cfg. After Init returns successfully,
//	otel.Tracer() and otel.Meter() export through the configured backends.
//	An exporter set to "none" leaves the corresponding global untouched.
//
// Outputs:
//
//	shutdown - Flushes and stops the providers. Must be called on exit.
//	error - ErrNilContext, ErrUnknownExporter, or an exporter error.
//
// Thread Safety: Call once at application startup.
func Init(ctx context.Context, cfg Config) (shutdown func(context.Context) error, err error) {
	if ctx == nil {
		return nil, ErrNilContext
	}

	var shutdownFuncs []func(context.Context) error
	shutdown = func(ctx context.Context) error {
		var errs []error
		for _, fn := range shutdownFuncs {
			if err := fn(ctx); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	}

	res := resource.NewWithAttributes(
		"",
		attribute.String("service.name", cfg.ServiceName),
		attribute.String("service.version", cfg.ServiceVersion),
		attribute.String("deployment.environment", cfg.Environment),
	)

	if cfg.TraceExporter != "none" && cfg.TraceExporter != "" {
		tp, err := initTracer(ctx, cfg, res)
		if err != nil {
			return nil, fmt.Errorf("init tracer: %w", err)
		}
		otel.SetTracerProvider(tp)
		shutdownFuncs = append(shutdownFuncs, tp.Shutdown)
	}

	if cfg.MetricExporter != "none" && cfg.MetricExporter != "" {
		mp, err := initMeter(cfg, res)
		if err != nil {
			_ = shutdown(ctx)
			return nil, fmt.Errorf("init meter: %w", err)
		}
		otel.SetMeterProvider(mp)
		shutdownFuncs = append(shutdownFuncs, mp.Shutdown)
	}

	return shutdown, nil
}

func initTracer(ctx context.Context, cfg Config, res *resource.Resource) (*trace.TracerProvider, error) {
	var exporter trace.SpanExporter
	var err error

	switch cfg.TraceExporter {
	case "otlp":
		opts := []otlptracegrpc.Option{
			otlptracegrpc.WithEndpoint(cfg.OTLPEndpoint),
		}
		if cfg.OTLPInsecure {
			opts = append(opts, otlptracegrpc.WithInsecure())
		}
		exporter, err = otlptracegrpc.New(ctx, opts...)

	case "stdout":
		exporter, err = stdouttrace.New(stdouttrace.WithPrettyPrint())

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownExporter, cfg.TraceExporter)
	}

	if err != nil {
		return nil, fmt.Errorf("create exporter: %w", err)
	}

	return trace.NewTracerProvider(
		trace.WithBatcher(exporter),
		trace.WithResource(res),
		trace.WithSampler(trace.AlwaysSample()),
	), nil
}

var (
	prometheusHandler   http.Handler
	prometheusHandlerMu sync.RWMutex
)

// MetricsHandler returns the /metrics handler, or nil when the Prometheus
// exporter is not in use.
func MetricsHandler() http.Handler {
	prometheusHandlerMu.RLock()
	defer prometheusHandlerMu.RUnlock()
	return prometheusHandler
}

func initMeter(cfg Config, res *resource.Resource) (*metric.MeterProvider, error) {
	switch cfg.MetricExporter {
	case "prometheus":
		// Registers with the default prometheus registry, so promhttp.Handler
		// serves both otel instruments and promauto metrics.
		exporter, err := promexporter.New()
		if err != nil {
			return nil, fmt.Errorf("create prometheus exporter: %w", err)
		}

		prometheusHandlerMu.Lock()
		prometheusHandler = promhttp.Handler()
		prometheusHandlerMu.Unlock()

		return metric.NewMeterProvider(
			metric.WithResource(res),
			metric.WithReader(exporter),
		), nil

	case "stdout":
		exporter, err := stdoutmetric.New(stdoutmetric.WithPrettyPrint())
		if err != nil {
			return nil, fmt.Errorf("create stdout metric exporter: %w", err)
		}

		return metric.NewMeterProvider(
			metric.WithResource(res),
			metric.WithReader(metric.NewPeriodicReader(exporter)),
		), nil

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownExporter, cfg.MetricExporter)
	}
}

func getEnvOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
