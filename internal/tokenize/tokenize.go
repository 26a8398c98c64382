// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package tokenize extracts normalized, stopword-filtered tokens from free
// text for the topic registry's bag-of-words model.
package tokenize

import (
	"regexp"
	"strings"
)

// tokenPattern matches a maximal run of one alphanumeric character followed
// by two or more characters drawn from {alphanumeric, underscore, hyphen} —
// i.e. a minimum token length of three.
var tokenPattern = regexp.MustCompile(`[a-z0-9][a-z0-9_-]{2,}`)

// stopwords is the fixed English stopword set filtered out of every token
// stream. It is deliberately small and hand-picked for short policy/news
// fragments rather than drawn from a general-purpose NLP stopword list.
var stopwords = map[string]struct{}{
	"and": {}, "the": {}, "with": {}, "for": {}, "from": {}, "that": {},
	"this": {}, "their": {}, "about": {}, "into": {}, "your": {}, "you": {},
	"are": {}, "was": {}, "were": {}, "will": {}, "would": {}, "should": {},
	"could": {}, "have": {}, "has": {}, "had": {}, "our": {}, "they": {},
	"them": {}, "who": {}, "what": {}, "when": {}, "where": {}, "why": {},
	"how": {}, "also": {}, "more": {}, "than": {}, "then": {}, "there": {},
	"here": {}, "over": {}, "under": {}, "out": {}, "per": {}, "via": {},
	"new": {}, "old": {}, "plan": {}, "policy": {}, "proposal": {}, "draft": {},
	"vote": {}, "votes": {}, "voting": {},
}

// Tokens returns the lowercased, stopword-filtered tokens of text, in the
// order they occur. Duplicates are preserved: downstream callers build
// frequency histograms from the result and rely on repetition.
func Tokens(text string) []string {
	lower := strings.ToLower(text)
	matches := tokenPattern.FindAllString(lower, -1)
	tokens := make([]string, 0, len(matches))
	for _, tok := range matches {
		if _, stop := stopwords[tok]; stop {
			continue
		}
		tokens = append(tokens, tok)
	}
	return tokens
}

// Counts tokenizes text and folds the result into a token→count histogram.
func Counts(text string) map[string]int {
	toks := Tokens(text)
	counts := make(map[string]int, len(toks))
	for _, t := range toks {
		counts[t]++
	}
	return counts
}

// IsStopword reports whether tok is in the fixed stopword set.
func IsStopword(tok string) bool {
	_, ok := stopwords[tok]
	return ok
}
