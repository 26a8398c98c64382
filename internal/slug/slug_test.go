// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package slug

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Climate Policy":    "climate-policy",
		"  trim me  ":       "trim-me",
		"UPPER___case":      "upper-case",
		"a---b--c":          "a-b-c",
		"-leading-trailing-": "leading-trailing",
		"":                  "general",
		"!!!":               "general",
		"already-slug":      "already-slug",
		"123 Numbers":       "123-numbers",
	}
	for in, want := range cases {
		assert.Equal(t, want, Slugify(in), "Slugify(%q)", in)
	}
}

func TestSlugifyIdempotent(t *testing.T) {
	inputs := []string{"Climate Policy", "already-slug", "!!!", "  Mixed_Case-123  "}
	for _, in := range inputs {
		once := Slugify(in)
		twice := Slugify(once)
		assert.Equal(t, once, twice, "Slugify not idempotent for %q", in)
	}
}
