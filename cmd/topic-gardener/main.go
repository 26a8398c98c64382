// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/topic-gardener/topic-gardener/internal/config"
	"github.com/topic-gardener/topic-gardener/pkg/logging"
	"github.com/topic-gardener/topic-gardener/services/gardener"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "topic-gardener",
	Short: "Runs the topic-gardener classify/refactor service",
	RunE:  runServe,
}

func main() {
	defaults := config.Default()

	flags := rootCmd.Flags()
	flags.String("host", defaults.Host, "Bind address")
	flags.Int("port", defaults.Port, "Bind port")
	flags.Int("refactor-seconds", defaults.RefactorSeconds, "Seconds between refactor cycles")
	flags.Float64("similarity-threshold", defaults.SimilarityThreshold, "Cosine similarity threshold for matching classify text against existing topics")
	flags.Float64("merge-threshold", defaults.MergeThreshold, "Cosine similarity threshold above which two topics are merged")
	flags.Int("min-rename-count", defaults.MinRenameCount, "Minimum classification count before a topic is eligible for rename")
	flags.Int("min-split-count", defaults.MinSplitCount, "Minimum classification count before a topic is eligible for split")
	flags.Int("min-anchor-promote-count", defaults.MinAnchorPromoteCount, "Minimum count before a non-anchor topic is flagged for promotion to anchor")
	flags.Int("min-anchor-archive-count", defaults.MinAnchorArchiveCount, "Maximum count for a stale anchor to be flagged for archive")
	flags.Int("stale-seconds", defaults.StaleSeconds, "Age after which an idle topic is eligible for pruning")
	flags.String("log-format", defaults.LogFormat, "Log output format: text|json")
	flags.String("log-level", defaults.LogLevel, "Log level: debug|info|warn|error")
	flags.Float64("rate-limit-per-second", defaults.RateLimitPerSecond, "Per-remote-address token bucket rate for /classify")
	flags.String("otel-exporter", defaults.OTelExporter, "OpenTelemetry trace exporter: stdout|none")
	flags.StringVar(&configPath, "config", "", "Optional YAML config file, overridden by flags and environment variables")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// runServe resolves the final configuration (YAML file, then environment,
// then explicit flags, each overriding the last) and runs the service
// until an OS signal arrives.
func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadYAMLFile(configPath, config.Default())
	if err != nil {
		return err
	}
	cfg, err = config.ApplyEnv(cfg)
	if err != nil {
		return err
	}
	cfg, err = applyFlags(cmd, cfg)
	if err != nil {
		return err
	}

	log := logging.New(logging.Config{
		Level:   logging.ParseLevel(cfg.LogLevel),
		Service: "topic-gardener",
		JSON:    cfg.LogFormat == "json",
	})

	svc, err := gardener.New(cfg, log)
	if err != nil {
		return fmt.Errorf("topic-gardener: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return svc.Run(ctx)
}

// applyFlags overrides cfg with every flag the caller explicitly set,
// leaving flags left at their defaults to whatever the YAML/env layers
// already resolved.
func applyFlags(cmd *cobra.Command, cfg config.Config) (config.Config, error) {
	flags := cmd.Flags()
	var errs []error

	setString := func(name string, dst *string) {
		if flags.Changed(name) {
			v, err := flags.GetString(name)
			if err != nil {
				errs = append(errs, err)
				return
			}
			*dst = v
		}
	}
	setInt := func(name string, dst *int) {
		if flags.Changed(name) {
			v, err := flags.GetInt(name)
			if err != nil {
				errs = append(errs, err)
				return
			}
			*dst = v
		}
	}
	setFloat := func(name string, dst *float64) {
		if flags.Changed(name) {
			v, err := flags.GetFloat64(name)
			if err != nil {
				errs = append(errs, err)
				return
			}
			*dst = v
		}
	}

	setString("host", &cfg.Host)
	setInt("port", &cfg.Port)
	setInt("refactor-seconds", &cfg.RefactorSeconds)
	setFloat("similarity-threshold", &cfg.SimilarityThreshold)
	setFloat("merge-threshold", &cfg.MergeThreshold)
	setInt("min-rename-count", &cfg.MinRenameCount)
	setInt("min-split-count", &cfg.MinSplitCount)
	setInt("min-anchor-promote-count", &cfg.MinAnchorPromoteCount)
	setInt("min-anchor-archive-count", &cfg.MinAnchorArchiveCount)
	setInt("stale-seconds", &cfg.StaleSeconds)
	setString("log-format", &cfg.LogFormat)
	setString("log-level", &cfg.LogLevel)
	setFloat("rate-limit-per-second", &cfg.RateLimitPerSecond)
	setString("otel-exporter", &cfg.OTelExporter)

	if len(errs) > 0 {
		return cfg, fmt.Errorf("topic-gardener: invalid flags: %v", errs)
	}
	return cfg, nil
}
