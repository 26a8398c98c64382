// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package config builds the service's typed Config by layering a YAML
// file, then environment variables, then explicit CLI flags, each
// overriding the one before it.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// envPrefix namespaces every environment variable this service reads.
const envPrefix = "TOPIC_GARDENER_"

// Config is the fully resolved set of knobs the gardener service runs
// with. Field names and defaults mirror the flag table §6.2 documents.
type Config struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`

	RefactorSeconds int `yaml:"refactor-seconds"`

	SimilarityThreshold   float64 `yaml:"similarity-threshold"`
	MergeThreshold        float64 `yaml:"merge-threshold"`
	MinRenameCount        int     `yaml:"min-rename-count"`
	MinSplitCount         int     `yaml:"min-split-count"`
	MinAnchorPromoteCount int     `yaml:"min-anchor-promote-count"`
	MinAnchorArchiveCount int     `yaml:"min-anchor-archive-count"`
	StaleSeconds          int     `yaml:"stale-seconds"`

	LogFormat string `yaml:"log-format"`
	LogLevel  string `yaml:"log-level"`

	RateLimitPerSecond float64 `yaml:"rate-limit-per-second"`
	OTelExporter       string  `yaml:"otel-exporter"`
}

// Default returns the configuration documented as the service's defaults.
func Default() Config {
	return Config{
		Host:                  "127.0.0.1",
		Port:                  8070,
		RefactorSeconds:       90,
		SimilarityThreshold:   0.35,
		MergeThreshold:        0.85,
		MinRenameCount:        6,
		MinSplitCount:         14,
		MinAnchorPromoteCount: 12,
		MinAnchorArchiveCount: 2,
		StaleSeconds:          604800,
		LogFormat:             "text",
		LogLevel:              "info",
		RateLimitPerSecond:    20,
		OTelExporter:          "stdout",
	}
}

// RefactorInterval is RefactorSeconds as a time.Duration.
func (c Config) RefactorInterval() time.Duration {
	return time.Duration(c.RefactorSeconds) * time.Second
}

// StaleDuration is StaleSeconds as a time.Duration.
func (c Config) StaleDuration() time.Duration {
	return time.Duration(c.StaleSeconds) * time.Second
}

// LoadYAMLFile reads a YAML config file and merges it onto base, with
// fields present in the file overriding base and absent fields left
// untouched. Passing an empty path returns base unchanged.
func LoadYAMLFile(path string, base Config) (Config, error) {
	if path == "" {
		return base, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return base, fmt.Errorf("config: read %s: %w", path, err)
	}
	cfg := base
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return base, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnv overrides cfg's fields with any TOPIC_GARDENER_* environment
// variables that are set, leaving unset fields untouched. Malformed
// numeric values are reported, not silently ignored.
func ApplyEnv(cfg Config) (Config, error) {
	var errs []error

	cfg.Host = envString("HOST", cfg.Host)
	cfg.Port = envInt("PORT", cfg.Port, &errs)
	cfg.RefactorSeconds = envInt("REFACTOR_SECONDS", cfg.RefactorSeconds, &errs)
	cfg.SimilarityThreshold = envFloat("SIMILARITY_THRESHOLD", cfg.SimilarityThreshold, &errs)
	cfg.MergeThreshold = envFloat("MERGE_THRESHOLD", cfg.MergeThreshold, &errs)
	cfg.MinRenameCount = envInt("MIN_RENAME_COUNT", cfg.MinRenameCount, &errs)
	cfg.MinSplitCount = envInt("MIN_SPLIT_COUNT", cfg.MinSplitCount, &errs)
	cfg.MinAnchorPromoteCount = envInt("MIN_ANCHOR_PROMOTE_COUNT", cfg.MinAnchorPromoteCount, &errs)
	cfg.MinAnchorArchiveCount = envInt("MIN_ANCHOR_ARCHIVE_COUNT", cfg.MinAnchorArchiveCount, &errs)
	cfg.StaleSeconds = envInt("STALE_SECONDS", cfg.StaleSeconds, &errs)
	cfg.LogFormat = envString("LOG_FORMAT", cfg.LogFormat)
	cfg.LogLevel = envString("LOG_LEVEL", cfg.LogLevel)
	cfg.RateLimitPerSecond = envFloat("RATE_LIMIT_PER_SECOND", cfg.RateLimitPerSecond, &errs)
	cfg.OTelExporter = envString("OTEL_EXPORTER", cfg.OTelExporter)

	if len(errs) > 0 {
		return cfg, fmt.Errorf("config: invalid environment values: %v", errs)
	}
	return cfg, nil
}

func envString(name, fallback string) string {
	if v := os.Getenv(envPrefix + name); v != "" {
		return v
	}
	return fallback
}

func envInt(name string, fallback int, errs *[]error) int {
	raw := os.Getenv(envPrefix + name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s%s: %w", envPrefix, name, err))
		return fallback
	}
	return v
}

func envFloat(name string, fallback float64, errs *[]error) float64 {
	raw := os.Getenv(envPrefix + name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s%s: %w", envPrefix, name, err))
		return fallback
	}
	return v
}
