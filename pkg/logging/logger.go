// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package logging provides structured logging for the topic gardener service.
//
// It wraps the standard library's log/slog with a small Level type and a
// Config that picks text-vs-JSON output the way a daemon should: JSON when
// stdout isn't a terminal (containers, log collectors), human-readable text
// otherwise. There is no multi-destination or exporter machinery here — this
// service has one process, one log stream, no enterprise export hook.
package logging

import (
	"context"
	"log/slog"
	"os"
	"sync"

	"github.com/mattn/go-isatty"
)

// Level is the logging severity, ordered Debug < Info < Warn < Error.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// String returns the slog-style level name.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

func (l Level) toSlogLevel() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ParseLevel parses a level name, defaulting to LevelInfo for anything it
// doesn't recognize.
func ParseLevel(s string) Level {
	switch s {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// Config configures a Logger. The zero value is Debug level (LevelDebug is
// the zero Level), text format.
type Config struct {
	// Level is the minimum severity that is emitted.
	Level Level
	// Service is attached to every log line as the "service" attribute.
	Service string
	// JSON forces JSON output regardless of TTY detection.
	JSON bool
	// Quiet discards all output (used in tests).
	Quiet bool
}

// Logger is a thin, concurrency-safe wrapper around *slog.Logger.
type Logger struct {
	mu  sync.Mutex
	sl  *slog.Logger
	cfg Config
}

// New builds a Logger from an explicit Config.
func New(cfg Config) *Logger {
	handlerOpts := &slog.HandlerOptions{Level: cfg.Level.toSlogLevel()}

	var handler slog.Handler
	switch {
	case cfg.Quiet:
		handler = slog.NewTextHandler(discardWriter{}, handlerOpts)
	case cfg.JSON:
		handler = slog.NewJSONHandler(os.Stdout, handlerOpts)
	default:
		handler = slog.NewTextHandler(os.Stdout, handlerOpts)
	}

	sl := slog.New(handler)
	if cfg.Service != "" {
		sl = sl.With("service", cfg.Service)
	}
	return &Logger{sl: sl, cfg: cfg}
}

// Default returns a Logger for "topic-gardener" that emits JSON when stdout
// is not a terminal (the common case under a process supervisor) and plain
// text otherwise.
func Default() *Logger {
	return New(Config{
		Level:   LevelInfo,
		Service: "topic-gardener",
		JSON:    !isatty.IsTerminal(os.Stdout.Fd()),
	})
}

func (l *Logger) Debug(msg string, args ...any) { l.log(LevelDebug, msg, args...) }
func (l *Logger) Info(msg string, args ...any)  { l.log(LevelInfo, msg, args...) }
func (l *Logger) Warn(msg string, args ...any)  { l.log(LevelWarn, msg, args...) }
func (l *Logger) Error(msg string, args ...any) { l.log(LevelError, msg, args...) }

// With returns a derived Logger that always includes the given attributes.
func (l *Logger) With(args ...any) *Logger {
	l.mu.Lock()
	defer l.mu.Unlock()
	return &Logger{sl: l.sl.With(args...), cfg: l.cfg}
}

// Slog exposes the underlying *slog.Logger for libraries that want one
// directly (e.g. as a gin or otel bridge).
func (l *Logger) Slog() *slog.Logger {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.sl
}

func (l *Logger) log(level Level, msg string, args ...any) {
	l.mu.Lock()
	sl := l.sl
	l.mu.Unlock()
	sl.Log(context.Background(), level.toSlogLevel(), msg, args...)
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }
