// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package registry

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/topic-gardener/topic-gardener/internal/similarity"
	"github.com/topic-gardener/topic-gardener/internal/slug"
	"github.com/topic-gardener/topic-gardener/internal/tokenize"
)

// Registry is the process-wide, lock-guarded topic store. Classify,
// Refactor, TakeSnapshot and Operations all acquire the same mutex for
// their entire duration; there is deliberately no finer-grained locking.
// Contention is expected to stay low (short text, small token sets), and
// coarse locking renders every refactor pass atomic with respect to
// classification, which is the property the six-pass engine depends on.
type Registry struct {
	mu sync.Mutex

	cfg Config

	topics map[string]*TopicRecord
	// order tracks topic key insertion order so refactor passes iterate
	// deterministically rather than over Go's randomized map order.
	order []string

	operations     []Operation
	lastRefactorAt time.Time

	now func() time.Time
}

// New constructs an empty Registry with the given thresholds.
func New(cfg Config) *Registry {
	return &Registry{
		cfg:    cfg,
		topics: make(map[string]*TopicRecord),
		now:    time.Now,
	}
}

// Classify tokenizes text, reconciles every record's anchor/pinned flags
// against the call's anchor/pinned sets, chooses a topic label for the
// text, and attributes one classification to that topic's record.
//
// anchors defaults to {"general","governance","economy","society",
// "technology"} when empty; pinned defaults to an empty list.
func (r *Registry) Classify(text string, anchors, pinned []string) ClassifyResult {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(anchors) == 0 {
		anchors = defaultAnchors
	}

	tokens := tokenize.Tokens(text)

	anchorKeys := slugSet(anchors)
	pinnedKeys := slugSet(pinned)

	// Rebinding rule: anchor/pinned flags track only the most recent
	// call's sets, registry-wide.
	for _, key := range r.order {
		rec := r.topics[key]
		_, rec.Anchor = anchorKeys[key]
		_, rec.Pinned = pinnedKeys[key]
	}

	for _, label := range anchors {
		r.ensureTopic(label, true, false)
	}
	for _, label := range pinned {
		r.ensureTopic(label, false, true)
	}

	label := r.chooseLabel(text, tokens, anchors, pinned)

	rec := r.ensureTopic(label, false, false)
	rec.Count++
	rec.LastSeen = r.now()
	rec.addTokens(tokens)

	return ClassifyResult{Topic: rec.Label, TopicKey: rec.Key, Count: rec.Count}
}

// ensureTopic returns the record for label's slug, creating it if absent.
// If the record already exists under a different original label, label is
// recorded as an alias. Must be called with r.mu held.
func (r *Registry) ensureTopic(label string, anchor, pinned bool) *TopicRecord {
	key := slug.Slugify(label)
	rec, ok := r.topics[key]
	if !ok {
		rec = newTopicRecord(key, label)
		r.topics[key] = rec
		r.order = append(r.order, key)
	} else {
		rec.addAlias(label)
	}
	if anchor {
		rec.Anchor = true
	}
	if pinned {
		rec.Pinned = true
	}
	return rec
}

// chooseLabel implements §4.4 step 4: keyword match against the
// pinned-then-anchor candidate list, then best cosine match, then most
// frequent token, then the first anchor (or "general").
func (r *Registry) chooseLabel(text string, tokens []string, anchors, pinned []string) string {
	candidates := dedupPreserveOrder(append(append([]string{}, pinned...), anchors...))

	lowerText := strings.ToLower(text)
	if keyword := chooseLabelKeywordOnly(lowerText, tokens, candidates); keyword != "" {
		return keyword
	}

	if len(tokens) > 0 && len(r.topics) > 0 {
		if label, ok := r.bestSimilarityMatch(tokens); ok {
			return label
		}
	}

	if len(tokens) > 0 {
		if tok, _, ok := mostFrequentInSlice(tokens); ok {
			return tok
		}
	}

	// detect_topic(text) or (anchors[0] if anchors else "general"): by
	// this point every other detection path has already failed, so fall
	// through to the first anchor, explicit about the intended operator
	// precedence the original's expression left ambiguous.
	if len(anchors) > 0 {
		return anchors[0]
	}
	return "general"
}

// chooseLabelKeywordOnly is a pure function with no registry side effects:
// it returns the first candidate whose slug is either one of the text's
// tokens or a literal substring of the lowercased raw text, or "" if none
// match. It mirrors the stateless stub fallback's reconciliation rule,
// kept here as the keyword-match step of the full engine's label choice.
func chooseLabelKeywordOnly(lowerText string, tokens []string, candidates []string) string {
	tokenSet := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		tokenSet[t] = struct{}{}
	}
	for _, cand := range candidates {
		key := slug.Slugify(cand)
		if _, ok := tokenSet[key]; ok {
			return cand
		}
		if key != "" && strings.Contains(lowerText, key) {
			return cand
		}
	}
	return ""
}

// bestSimilarityMatch finds the registry record with the highest cosine
// similarity to tokens, restricted to records with Count >= 2, returning
// its label if the best score clears the configured threshold.
func (r *Registry) bestSimilarityMatch(tokens []string) (string, bool) {
	candidate := tokenize.Counts(strings.Join(tokens, " "))

	bestLabel := ""
	bestScore := 0.0
	found := false
	for _, key := range r.order {
		rec := r.topics[key]
		if rec.Count < 2 {
			continue
		}
		score := similarity.Cosine(candidate, rec.Tokens)
		if !found || score > bestScore {
			bestLabel, bestScore, found = rec.Label, score, true
		}
	}
	if !found || bestScore < r.cfg.SimilarityThreshold {
		return "", false
	}
	return bestLabel, true
}

// TakeSnapshot returns a point-in-time, read-only view of the registry.
func (r *Registry) TakeSnapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	summaries := make([]TopicSummary, 0, len(r.order))
	for _, key := range r.order {
		rec := r.topics[key]
		summaries = append(summaries, TopicSummary{
			Key:       rec.Key,
			Label:     rec.Label,
			Count:     rec.Count,
			Anchor:    rec.Anchor,
			Pinned:    rec.Pinned,
			Aliases:   lastN(rec.Aliases, 3),
			LastSeen:  unixSeconds(rec.LastSeen),
			TopTokens: rec.topNTokens(5),
		})
	}
	sort.SliceStable(summaries, func(i, j int) bool {
		if summaries[i].Count != summaries[j].Count {
			return summaries[i].Count > summaries[j].Count
		}
		return summaries[i].Key < summaries[j].Key
	})

	return Snapshot{
		TopicCount:     len(r.topics),
		Topics:         summaries,
		Operations:     len(r.operations),
		LastRefactorAt: unixSeconds(r.lastRefactorAt),
	}
}

// Operations returns a copy of the full operation log in insertion order.
func (r *Registry) Operations() []Operation {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Operation, len(r.operations))
	copy(out, r.operations)
	return out
}

func slugSet(labels []string) map[string]struct{} {
	set := make(map[string]struct{}, len(labels))
	for _, l := range labels {
		set[slug.Slugify(l)] = struct{}{}
	}
	return set
}

func dedupPreserveOrder(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, v := range in {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func mostFrequentInSlice(tokens []string) (string, int, bool) {
	counts := make(map[string]int, len(tokens))
	order := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if _, seen := counts[t]; !seen {
			order = append(order, t)
		}
		counts[t]++
	}
	best, bestCount := "", 0
	found := false
	for _, t := range order {
		if c := counts[t]; !found || c > bestCount {
			best, bestCount, found = t, c, true
		}
	}
	return best, bestCount, found
}

func lastN(s []string, n int) []string {
	if len(s) <= n {
		return append([]string(nil), s...)
	}
	return append([]string(nil), s[len(s)-n:]...)
}
