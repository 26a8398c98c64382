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
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/topic-gardener/topic-gardener/internal/metrics"
	"github.com/topic-gardener/topic-gardener/pkg/logging"
)

// requestIDKey is the Gin context key a request's correlation ID is
// stored under, following the context-key pattern the teacher's auth
// middleware uses for request-scoped values.
const requestIDKey = "topicgardener.requestID"

// requestIDHeader is the header a correlation ID is read from and echoed
// on, so a caller can supply its own ID or pick up the one we generate.
const requestIDHeader = "X-Request-Id"

// requestID returns the correlation ID the requestIDMiddleware attached
// to c, or "" if the middleware was not installed.
func requestID(c *gin.Context) string {
	v, ok := c.Get(requestIDKey)
	if !ok {
		return ""
	}
	id, _ := v.(string)
	return id
}

// requestIDMiddleware assigns every request a correlation ID, reusing one
// supplied via X-Request-Id if present, and echoes it back on the
// response.
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

// loggingMiddleware emits one line per request (method, path, status,
// latency, request ID) at Info level, matching the teacher's Gin request
// logging idiom.
func loggingMiddleware(log *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		log.Info("http request",
			"method", c.Request.Method,
			"path", path,
			"status", c.Writer.Status(),
			"latencyMs", time.Since(start).Milliseconds(),
			"requestId", requestID(c),
		)
	}
}

// metricsMiddleware records every completed request against
// HTTPRequestsTotal, labeled by the route's registered pattern (not the
// raw path, to keep cardinality bounded) rather than the literal URL.
func metricsMiddleware(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.HTTPRequestsTotal.WithLabelValues(route, c.Request.Method, http.StatusText(c.Writer.Status())).Inc()
	}
}

// perAddressLimiter hands out a rate.Limiter per remote address, creating
// one lazily on first use. It is an ambient robustness guard against a
// single noisy caller hammering /classify, not an authentication layer.
type perAddressLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	perSec   float64
	burst    int
}

func newPerAddressLimiter(perSecond float64) *perAddressLimiter {
	burst := int(perSecond)
	if burst < 1 {
		burst = 1
	}
	return &perAddressLimiter{
		limiters: make(map[string]*rate.Limiter),
		perSec:   perSecond,
		burst:    burst,
	}
}

func (p *perAddressLimiter) allow(addr string) bool {
	p.mu.Lock()
	lim, ok := p.limiters[addr]
	if !ok {
		lim = rate.NewLimiter(rate.Limit(p.perSec), p.burst)
		p.limiters[addr] = lim
	}
	p.mu.Unlock()
	return lim.Allow()
}

// rateLimitMiddleware rejects requests past the configured per-remote-
// address rate with 429, once perSecond is positive. A non-positive
// value disables rate limiting entirely.
func rateLimitMiddleware(perSecond float64) gin.HandlerFunc {
	if perSecond <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	limiter := newPerAddressLimiter(perSecond)
	return func(c *gin.Context) {
		if !limiter.allow(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, errorResponse{Error: "rate limit exceeded"})
			return
		}
		c.Next()
	}
}
