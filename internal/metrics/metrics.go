// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package metrics exposes Prometheus instrumentation for the topic
// registry and its refactor cycles, served on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	namespace = "topic_gardener"
	subsystem = "registry"
)

// Metrics holds every Prometheus collector the service registers. Build
// one with New and pass it down to the HTTP and scheduler layers.
type Metrics struct {
	// ClassifyTotal counts classify calls by match_kind: "new" for a
	// topic seen for the first time, "existing" for one the registry had
	// already classified at least once before.
	ClassifyTotal *prometheus.CounterVec

	// ClassifyDurationSeconds measures how long a Classify call takes,
	// including the wait for the registry lock.
	ClassifyDurationSeconds prometheus.Histogram

	// TopicCount is a live gauge of the registry's current topic count,
	// refreshed after every classify and refactor cycle.
	TopicCount prometheus.Gauge

	// RefactorOperationsTotal counts operations emitted per refactor
	// pass type (merge, rename, split, anchor, prune).
	RefactorOperationsTotal *prometheus.CounterVec

	// RefactorCyclesTotal counts completed refactor cycles.
	RefactorCyclesTotal prometheus.Counter

	// RefactorDurationSeconds measures how long a full refactor cycle
	// takes, including the wait for the registry lock.
	RefactorDurationSeconds prometheus.Histogram

	// HTTPRequestsTotal counts HTTP requests by route, method and status.
	HTTPRequestsTotal *prometheus.CounterVec
}

// New constructs and registers all collectors against reg. Pass
// prometheus.DefaultRegisterer in production, or a fresh
// prometheus.NewRegistry() in tests that need isolation.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		ClassifyTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "classify_total",
				Help:      "Total classify calls, labelled new or existing by match_kind",
			},
			[]string{"match_kind"},
		),
		ClassifyDurationSeconds: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "classify_duration_seconds",
				Help:      "Time spent inside Classify, including lock wait",
				Buckets:   prometheus.DefBuckets,
			},
		),
		TopicCount: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "topic_count",
				Help:      "Current number of topics held by the registry",
			},
		),
		RefactorOperationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "refactor_operations_total",
				Help:      "Total operations emitted by the refactor engine, by pass type",
			},
			[]string{"type"},
		),
		RefactorCyclesTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "refactor_cycles_total",
				Help:      "Total completed refactor cycles",
			},
		),
		RefactorDurationSeconds: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "refactor_duration_seconds",
				Help:      "Time spent running one refactor cycle",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
			},
		),
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total HTTP requests by route, method and status",
			},
			[]string{"route", "method", "status"},
		),
	}
}

// ObserveRefactor records one completed refactor cycle's duration and
// per-pass-type operation counts.
func (m *Metrics) ObserveRefactor(durationSeconds float64, opCounts map[string]int) {
	m.RefactorCyclesTotal.Inc()
	m.RefactorDurationSeconds.Observe(durationSeconds)
	for opType, count := range opCounts {
		m.RefactorOperationsTotal.WithLabelValues(opType).Add(float64(count))
	}
}
