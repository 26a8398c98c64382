// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package gardener wires the registry, scheduler and HTTP surface into one
// runnable service, the topic-gardener analogue of services/orchestrator.
package gardener

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/topic-gardener/topic-gardener/internal/config"
	"github.com/topic-gardener/topic-gardener/internal/httpapi"
	"github.com/topic-gardener/topic-gardener/internal/metrics"
	"github.com/topic-gardener/topic-gardener/internal/registry"
	"github.com/topic-gardener/topic-gardener/internal/scheduler"
	"github.com/topic-gardener/topic-gardener/internal/telemetry"
	"github.com/topic-gardener/topic-gardener/pkg/logging"
)

// Service bundles the registry, scheduler and HTTP server that together
// make up the running topic-gardener process.
type Service struct {
	cfg       config.Config
	log       *logging.Logger
	registry  *registry.Registry
	scheduler *scheduler.Scheduler
	server    *http.Server
	shutdown  telemetry.Shutdown
}

// New builds a Service from cfg, wiring the registry's thresholds, the
// scheduler's interval, and the HTTP router's middleware from a single
// resolved configuration.
func New(cfg config.Config, log *logging.Logger) (*Service, error) {
	if log == nil {
		log = logging.Default()
	}

	shutdown, err := telemetry.Init(telemetry.Exporter(cfg.OTelExporter), os.Stdout)
	if err != nil {
		return nil, fmt.Errorf("gardener: init telemetry: %w", err)
	}

	reg := registry.New(registry.Config{
		SimilarityThreshold:   cfg.SimilarityThreshold,
		MergeThreshold:        cfg.MergeThreshold,
		MinRenameCount:        cfg.MinRenameCount,
		MinSplitCount:         cfg.MinSplitCount,
		MinAnchorPromoteCount: cfg.MinAnchorPromoteCount,
		MinAnchorArchiveCount: cfg.MinAnchorArchiveCount,
		StaleSeconds:          cfg.StaleDuration(),
	})
	log.Info("registry created", "staleSeconds", cfg.StaleSeconds)

	m := metrics.New(prometheus.DefaultRegisterer)
	hub := httpapi.NewOperationsHub()

	sched := scheduler.New(reg, cfg.RefactorInterval(), log.With("component", "scheduler"))
	sched.OnCycle = func(ops []registry.Operation, duration time.Duration) {
		m.ObserveRefactor(duration.Seconds(), opCountsByType(ops))
		m.TopicCount.Set(float64(reg.TakeSnapshot().TopicCount))
		hub.Publish(ops)
	}

	router := httpapi.NewRouter(httpapi.Deps{
		Registry:           reg,
		Metrics:            m,
		Hub:                hub,
		Log:                log.With("component", "http"),
		RateLimitPerSecond: cfg.RateLimitPerSecond,
	})

	return &Service{
		cfg:       cfg,
		log:       log,
		registry:  reg,
		scheduler: sched,
		shutdown:  shutdown,
		server: &http.Server{
			Addr:              net.JoinHostPort(cfg.Host, fmt.Sprintf("%d", cfg.Port)),
			Handler:           router,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}, nil
}

func opCountsByType(ops []registry.Operation) map[string]int {
	counts := make(map[string]int, 5)
	for _, op := range ops {
		counts[op.Type]++
	}
	return counts
}

// Run starts the scheduler and the HTTP server and blocks until ctx is
// cancelled or one of them fails, at which point both are torn down
// together. Mirrors the teacher's single blocking Run() method, but
// coordinates two goroutines instead of one via errgroup rather than a
// single router.Run() call.
func (s *Service) Run(ctx context.Context) error {
	group, groupCtx := errgroup.WithContext(ctx)

	if err := s.scheduler.Start(groupCtx); err != nil {
		return fmt.Errorf("gardener: start scheduler: %w", err)
	}

	group.Go(func() error {
		s.log.Info("http server starting", "addr", s.server.Addr)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("gardener: http server: %w", err)
		}
		return nil
	})

	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("gardener: http shutdown: %w", err)
		}
		return nil
	})

	err := group.Wait()

	s.scheduler.Stop()
	if shutdownErr := s.shutdown(context.Background()); shutdownErr != nil {
		s.log.Warn("telemetry shutdown failed", "error", shutdownErr.Error())
	}

	return err
}

// Registry exposes the underlying registry, for callers (tests, the
// empty-restart Non-goal's documentation) that need direct access.
func (s *Service) Registry() *registry.Registry {
	return s.registry
}
