// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package scheduler runs the registry's refactor cycle on a fixed
// interval, independent of any request-handling goroutine.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/topic-gardener/topic-gardener/internal/registry"
	"github.com/topic-gardener/topic-gardener/pkg/logging"
)

// Refactorer is the one registry method the scheduler depends on. It is
// an interface rather than a concrete *registry.Registry so tests can
// drive the scheduler with a fake.
type Refactorer interface {
	Refactor(ctx context.Context) []registry.Operation
}

// Scheduler wakes every Interval and calls the configured Refactorer. Any
// panic inside a refactor cycle is recovered and logged so a single bad
// cycle never takes the process down; the loop keeps running regardless.
type Scheduler struct {
	refactor Refactorer
	interval time.Duration
	log      *logging.Logger

	// OnCycle, if set, is called after every cycle (including ones that
	// emitted no operations) with the cycle's duration and operations.
	// It is used to feed internal/metrics without coupling this package
	// to Prometheus directly.
	OnCycle func(ops []registry.Operation, duration time.Duration)

	mu      sync.Mutex
	running bool
	done    chan struct{}
	wg      sync.WaitGroup
}

// New builds a Scheduler that will call refactor.Refactor(ctx) every
// interval once Start is called.
func New(refactor Refactorer, interval time.Duration, log *logging.Logger) *Scheduler {
	if log == nil {
		log = logging.Default()
	}
	return &Scheduler{
		refactor: refactor,
		interval: interval,
		log:      log,
	}
}

// Start launches the background ticker goroutine. It is safe to call Stop
// even if Start was never called.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("scheduler: already running")
	}
	s.running = true
	s.done = make(chan struct{})
	s.mu.Unlock()

	s.log.Info("refactor scheduler starting", "interval", s.interval.String())

	s.wg.Add(1)
	go s.runLoop(ctx)
	return nil
}

// Stop signals the background goroutine to exit and waits for it to do
// so. Safe to call multiple times.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.done)
	s.mu.Unlock()

	s.wg.Wait()
}

func (s *Scheduler) runLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("refactor scheduler stopped", "cause", "context cancelled")
			return
		case <-s.done:
			s.log.Info("refactor scheduler stopped", "cause", "stop requested")
			return
		case <-ticker.C:
			s.runCycle(ctx)
		}
	}
}

// runCycle executes exactly one refactor cycle, recovering from any
// panic so the scheduler survives a misbehaving pass. Transient
// refactor-cycle errors are swallowed and logged, never fatal to the
// process.
func (s *Scheduler) runCycle(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("refactor cycle panicked, recovering", "panic", fmt.Sprintf("%v", r))
		}
	}()

	start := time.Now()
	ops := s.refactor.Refactor(ctx)
	duration := time.Since(start)

	if s.OnCycle != nil {
		s.OnCycle(ops, duration)
	}

	if len(ops) == 0 {
		s.log.Debug("refactor cycle completed", "operations", 0)
		return
	}

	counts := make(map[string]int, 5)
	for _, op := range ops {
		counts[op.Type]++
	}
	s.log.Info("refactor cycle completed",
		"operations", len(ops),
		"merge", counts["merge"],
		"rename", counts["rename"],
		"split", counts["split"],
		"anchor", counts["anchor"],
		"prune", counts["prune"],
	)
}
