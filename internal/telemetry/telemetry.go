// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package telemetry initializes OpenTelemetry tracing for the gardener
// service. Unlike a multi-tenant platform service, topic-gardener has no
// external collector to ship spans to by default, so the stdout exporter
// is the standing default; an operator who does want a collector swaps in
// their own exporter without touching the call sites this package wires
// into Gin and the refactor engine.
package telemetry

import (
	"context"
	"fmt"
	"io"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

// ServiceName is attached to every span's resource attributes.
const ServiceName = "topic-gardener"

// Exporter selects where spans go.
type Exporter string

const (
	ExporterStdout Exporter = "stdout"
	ExporterNone   Exporter = "none"
)

// Shutdown cleanly flushes and stops the tracer provider.
type Shutdown func(context.Context) error

// Init wires up the global TracerProvider per the configured exporter.
// ExporterNone installs a no-op provider: spans created downstream cost
// nothing and Shutdown is a no-op.
func Init(exporter Exporter, w io.Writer) (Shutdown, error) {
	if exporter == ExporterNone {
		otel.SetTracerProvider(trace.NewNoopTracerProvider())
		return func(context.Context) error { return nil }, nil
	}

	ctx := context.Background()

	traceExporter, err := stdouttrace.New(
		stdouttrace.WithWriter(w),
		stdouttrace.WithoutTimestamps(),
	)
	if err != nil {
		return nil, fmt.Errorf("telemetry: create stdout exporter: %w", err)
	}

	res, err := resource.New(ctx, resource.WithAttributes(semconv.ServiceNameKey.String(ServiceName)))
	if err != nil {
		return nil, fmt.Errorf("telemetry: build resource: %w", err)
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithResource(res),
		sdktrace.WithBatcher(traceExporter),
	)
	otel.SetTracerProvider(provider)

	return func(ctx context.Context) error {
		shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return provider.Shutdown(shutdownCtx)
	}, nil
}

// Tracer returns the package-level tracer for the gardener service.
func Tracer() trace.Tracer {
	return otel.Tracer(ServiceName)
}
