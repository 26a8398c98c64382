// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package similarity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCosineIdenticalVectors(t *testing.T) {
	a := map[string]int{"vote": 5, "ballot": 4}
	assert.InDelta(t, 1.0, Cosine(a, a), 1e-9)
}

func TestCosineOrthogonalVectors(t *testing.T) {
	a := map[string]int{"climate": 3}
	b := map[string]int{"budget": 3}
	assert.Equal(t, 0.0, Cosine(a, b))
}

func TestCosineEmptyMaps(t *testing.T) {
	assert.Equal(t, 0.0, Cosine(nil, map[string]int{"x": 1}))
	assert.Equal(t, 0.0, Cosine(map[string]int{"x": 1}, nil))
	assert.Equal(t, 0.0, Cosine(nil, nil))
}

func TestCosineSymmetric(t *testing.T) {
	a := map[string]int{"vote": 5, "ballot": 4, "poll": 1}
	b := map[string]int{"vote": 2, "ballot": 6}
	assert.Equal(t, Cosine(a, b), Cosine(b, a))
}

func TestCosinePartialOverlap(t *testing.T) {
	a := map[string]int{"vote": 3, "poll": 1}
	b := map[string]int{"vote": 3}
	got := Cosine(a, b)
	assert.True(t, got > 0 && got < 1, "expected partial overlap in (0,1), got %v", got)
}
