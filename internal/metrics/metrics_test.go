// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistersAllCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	require.NotNil(t, m)

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestObserveRefactorUpdatesCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveRefactor(0.01, map[string]int{"merge": 2, "prune": 1})

	var metric dto.Metric
	require.NoError(t, m.RefactorOperationsTotal.WithLabelValues("merge").Write(&metric))
	assert.Equal(t, float64(2), metric.GetCounter().GetValue())

	var cycles dto.Metric
	require.NoError(t, m.RefactorCyclesTotal.Write(&cycles))
	assert.Equal(t, float64(1), cycles.GetCounter().GetValue())
}
