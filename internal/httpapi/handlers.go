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
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/topic-gardener/topic-gardener/internal/metrics"
	"github.com/topic-gardener/topic-gardener/internal/registry"
)

// healthCheck is a liveness probe, grounded on the teacher's trivial
// handlers.HealthCheck.
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// classifyHandler handles POST /classify.
func classifyHandler(reg *registry.Registry, m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ClassifyRequest
		if err := bindJSON(c, &req); err != nil {
			return
		}
		if err := req.validate(); err != nil {
			c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}

		start := time.Now()
		result := reg.Classify(req.Text, req.Anchors, req.Pinned)
		m.ClassifyDurationSeconds.Observe(time.Since(start).Seconds())
		m.ClassifyTotal.WithLabelValues(matchKind(result)).Inc()
		m.TopicCount.Set(float64(reg.TakeSnapshot().TopicCount))

		anchors := req.Anchors
		if len(anchors) == 0 {
			anchors = registry.DefaultAnchors()
		}
		pinned := req.Pinned
		if pinned == nil {
			pinned = []string{}
		}

		c.JSON(http.StatusOK, ClassifyResponse{
			Topic:    result.Topic,
			TopicKey: result.TopicKey,
			Provider: "topic-gardener",
			Anchors:  anchors,
			Pinned:   pinned,
			Count:    result.Count,
		})
	}
}

// matchKind is a coarse label for the classify_total counter: whether the
// call landed on a topic it had already classified at least once before,
// or a fresh one. The registry does not expose which classification branch fired, so
// this stays intentionally approximate rather than reaching into internals.
func matchKind(r registry.ClassifyResult) string {
	if r.Count <= 1 {
		return "new"
	}
	return "existing"
}

// refactorHandler handles POST /refactor: runs one refactor cycle
// synchronously and returns every operation it emitted.
func refactorHandler(reg *registry.Registry, m *metrics.Metrics, hub *OperationsHub) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		ops := reg.Refactor(c.Request.Context())
		m.ObserveRefactor(time.Since(start).Seconds(), countByType(ops))
		m.TopicCount.Set(float64(reg.TakeSnapshot().TopicCount))
		hub.Publish(ops)

		c.JSON(http.StatusOK, RefactorResponse{Operations: ops, Count: len(ops)})
	}
}

func countByType(ops []registry.Operation) map[string]int {
	counts := make(map[string]int, 5)
	for _, op := range ops {
		counts[op.Type]++
	}
	return counts
}

// statusHandler handles GET /status.
func statusHandler(reg *registry.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, reg.TakeSnapshot())
	}
}

// operationsHandler handles GET /operations.
func operationsHandler(reg *registry.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, OperationsResponse{Operations: reg.Operations()})
	}
}

// notFoundHandler answers unknown routes with a plain 404 body.
func notFoundHandler(c *gin.Context) {
	c.JSON(http.StatusNotFound, errorResponse{Error: "Not Found"})
}

// bindJSON decodes the request body into dst, answering 400 with an
// "Invalid JSON body" message on any decode failure. An empty body
// (io.EOF from ShouldBindJSON) is accepted and leaves dst at its zero
// value.
func bindJSON(c *gin.Context, dst any) error {
	if err := c.ShouldBindJSON(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		c.JSON(http.StatusBadRequest, errorResponse{Error: "Invalid JSON body"})
		return err
	}
	return nil
}
