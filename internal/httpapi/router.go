// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package httpapi

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/topic-gardener/topic-gardener/internal/metrics"
	"github.com/topic-gardener/topic-gardener/internal/registry"
	"github.com/topic-gardener/topic-gardener/internal/telemetry"
	"github.com/topic-gardener/topic-gardener/pkg/logging"
)

// Deps bundles everything the router needs to build handlers. Registry,
// Metrics and Hub must be non-nil — the caller is expected to have built
// them together, and a nil one surfaces as a panic on the first request
// that reaches it. Log falls back to logging.Default() when nil.
type Deps struct {
	Registry           *registry.Registry
	Metrics            *metrics.Metrics
	Hub                *OperationsHub
	Log                *logging.Logger
	RateLimitPerSecond float64
}

// NewRouter builds the Gin engine serving the core four endpoints plus
// the health/metrics/live-operations expansion, grounded on the
// teacher's SetupRoutes route-group structure.
func NewRouter(deps Deps) *gin.Engine {
	if deps.Log == nil {
		deps.Log = logging.Default()
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(telemetry.ServiceName))
	router.Use(requestIDMiddleware())
	router.Use(loggingMiddleware(deps.Log))
	router.Use(metricsMiddleware(deps.Metrics))
	router.NoRoute(notFoundHandler)

	router.GET("/health", healthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/ws/operations", operationsStreamHandler(deps.Hub, deps.Log))

	router.POST("/classify", rateLimitMiddleware(deps.RateLimitPerSecond), classifyHandler(deps.Registry, deps.Metrics))
	router.POST("/refactor", refactorHandler(deps.Registry, deps.Metrics, deps.Hub))
	router.GET("/status", statusHandler(deps.Registry))
	router.GET("/operations", operationsHandler(deps.Registry))

	return router
}
