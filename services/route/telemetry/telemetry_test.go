// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package telemetry

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestDefaultConfig(t *testing.T) {
	t.Setenv("OTEL_TRACES_EXPORTER", "")
	t.Setenv("OTEL_METRICS_EXPORTER", "")

	cfg := DefaultConfig()
	assert.Equal(t, "crucible", cfg.ServiceName)
	assert.Equal(t, "none", cfg.TraceExporter)
	assert.Equal(t, "prometheus", cfg.MetricExporter)
	assert.Equal(t, "localhost:4317", cfg.OTLPEndpoint)
}

func TestDefaultConfig_Environment(t *testing.T) {
	t.Setenv("OTEL_TRACES_EXPORTER", "stdout")
	t.Setenv("CRUCIBLE_ENV", "production")

	cfg := DefaultConfig()
	assert.Equal(t, "stdout", cfg.TraceExporter)
	assert.Equal(t, "production", cfg.Environment)
}

func TestInit_NilContext(t *testing.T) {
	//nolint:staticcheck // nil context is the case under test
	_, err := Init(nil, Config{})
	assert.ErrorIs(t, err, ErrNilContext)
}

func TestInit_None(t *testing.T) {
	shutdown, err := Init(context.Background(), Config{TraceExporter: "none", MetricExporter: "none"})
	require.NoError(t, err)
	require.NotNil(t, shutdown)
	assert.NoError(t, shutdown(context.Background()))
}

func TestInit_Stdout(t *testing.T) {
	shutdown, err := Init(context.Background(), Config{
		ServiceName:    "crucible-test",
		TraceExporter:  "stdout",
		MetricExporter: "stdout",
	})
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}

func TestInit_Prometheus(t *testing.T) {
	shutdown, err := Init(context.Background(), Config{TraceExporter: "none", MetricExporter: "prometheus"})
	require.NoError(t, err)
	defer shutdown(context.Background())

	assert.NotNil(t, MetricsHandler())
}

func TestInit_UnknownExporter(t *testing.T) {
	_, err := Init(context.Background(), Config{TraceExporter: "zipkin", MetricExporter: "none"})
	assert.ErrorIs(t, err, ErrUnknownExporter)

	_, err = Init(context.Background(), Config{TraceExporter: "none", MetricExporter: "statsd"})
	assert.ErrorIs(t, err, ErrUnknownExporter)
}

func TestRecordError(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	_, span := tp.Tracer("test").Start(context.Background(), "op")
	RecordError(span, errors.New("boom"))
	span.End()

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Equal(t, "boom", spans[0].Status().Description)

	// nil inputs are no-ops
	RecordError(nil, errors.New("x"))
	RecordError(span, nil)
	SetSpanOK(nil)
}

func TestLoggerWithTrace(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	assert.Same(t, logger, LoggerWithTrace(context.Background(), logger))

	tp := sdktrace.NewTracerProvider()
	ctx, span := tp.Tracer("test").Start(context.Background(), "op")
	defer span.End()

	LoggerWithTrace(ctx, logger).Info("hello")
	assert.Contains(t, buf.String(), span.SpanContext().TraceID().String())
	assert.Contains(t, buf.String(), "span_id")
}
