// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultMatchesDocumentedDefaults(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "127.0.0.1", cfg.Host)
	assert.Equal(t, 8070, cfg.Port)
	assert.Equal(t, 90, cfg.RefactorSeconds)
	assert.Equal(t, 0.35, cfg.SimilarityThreshold)
	assert.Equal(t, 0.85, cfg.MergeThreshold)
	assert.Equal(t, 604800, cfg.StaleSeconds)
}

func TestApplyEnvOverridesSetValues(t *testing.T) {
	t.Setenv("TOPIC_GARDENER_PORT", "9000")
	t.Setenv("TOPIC_GARDENER_LOG_LEVEL", "debug")

	cfg, err := ApplyEnv(Default())
	require.NoError(t, err)
	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "127.0.0.1", cfg.Host)
}

func TestApplyEnvRejectsMalformedInt(t *testing.T) {
	t.Setenv("TOPIC_GARDENER_PORT", "not-a-number")
	_, err := ApplyEnv(Default())
	assert.Error(t, err)
}

func TestLoadYAMLFileMergesOntoBase(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: 9100\nlog-level: warn\n"), 0o600))

	cfg, err := LoadYAMLFile(path, Default())
	require.NoError(t, err)
	assert.Equal(t, 9100, cfg.Port)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, "127.0.0.1", cfg.Host)
}

func TestLoadYAMLFileEmptyPathReturnsBase(t *testing.T) {
	cfg, err := LoadYAMLFile("", Default())
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestDurationHelpers(t *testing.T) {
	cfg := Default()
	assert.Equal(t, int64(90), cfg.RefactorInterval().Nanoseconds()/1e9)
	assert.Equal(t, int64(604800), cfg.StaleDuration().Nanoseconds()/1e9)
}
