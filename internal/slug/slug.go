// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package slug canonicalizes human-readable topic labels into the registry's
// primary key form.
package slug

import "strings"

// defaultSlug is returned when a label collapses to nothing usable — every
// record the registry holds must have a non-empty key.
const defaultSlug = "general"

// Slugify lowercases label, replaces every run of non-alphanumeric
// characters with a single hyphen, and trims leading/trailing hyphens. An
// empty result becomes "general" so every topic label maps to a usable key.
//
// Slugify is idempotent: Slugify(Slugify(x)) == Slugify(x).
func Slugify(label string) string {
	trimmed := strings.TrimSpace(label)
	lower := strings.ToLower(trimmed)

	var b strings.Builder
	b.Grow(len(lower))
	prevHyphen := false
	for _, r := range lower {
		if isAlphanumeric(r) {
			b.WriteRune(r)
			prevHyphen = false
			continue
		}
		if !prevHyphen {
			b.WriteByte('-')
			prevHyphen = true
		}
	}

	result := strings.Trim(b.String(), "-")
	if result == "" {
		return defaultSlug
	}
	return result
}

func isAlphanumeric(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
}
