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
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRegistry() *Registry {
	return New(DefaultConfig())
}

func TestClassifyFreshKeywordFallsThroughToTopToken(t *testing.T) {
	r := newTestRegistry()
	result := r.Classify("new climate plan", nil, nil)
	assert.Equal(t, "climate", result.TopicKey)
	assert.Equal(t, 1, result.Count)
}

func TestClassifySameTextTwiceIncrementsCountByTwo(t *testing.T) {
	r := newTestRegistry()
	first := r.Classify("budget update for Q3", []string{"general", "economy"}, nil)
	second := r.Classify("budget update for Q3", []string{"general", "economy"}, nil)
	assert.Equal(t, first.TopicKey, second.TopicKey)
	assert.Equal(t, 2, second.Count)
}

func TestClassifyAnchorAlignmentReassignsFlags(t *testing.T) {
	r := newTestRegistry()
	r.Classify("anything", []string{"general"}, nil)
	snap := r.TakeSnapshot()
	general := findTopic(snap, "general")
	require.NotNil(t, general)
	assert.True(t, general.Anchor)

	r.Classify("anything", []string{"society"}, nil)
	snap = r.TakeSnapshot()
	general = findTopic(snap, "general")
	require.NotNil(t, general)
	assert.False(t, general.Anchor)
	society := findTopic(snap, "society")
	require.NotNil(t, society)
	assert.True(t, society.Anchor)
}

func TestClassifyKeywordMatchAgainstAnchor(t *testing.T) {
	r := newTestRegistry()
	result := r.Classify("we debate climate policy today", []string{"climate", "economy"}, nil)
	assert.Equal(t, "climate", result.TopicKey)
}

func TestClassifyEmptyTextFallsBackToFirstAnchor(t *testing.T) {
	r := newTestRegistry()
	result := r.Classify("", []string{"society", "economy"}, nil)
	assert.Equal(t, "society", result.TopicKey)
}

func TestRefactorMergeMatchesOverlappingTopics(t *testing.T) {
	r := newTestRegistry()
	seedTopic(r, "election", map[string]int{"vote": 5, "ballot": 4}, 10, time.Now())
	seedTopic(r, "elections", map[string]int{"vote": 5, "ballot": 4}, 8, time.Now())

	ops := r.Refactor(context.Background())
	mergeOps := opsOfType(ops, "merge")
	require.Len(t, mergeOps, 1)

	snap := r.TakeSnapshot()
	assert.Equal(t, 1, snap.TopicCount)
	survivor := snap.Topics[0]
	assert.Equal(t, 18, survivor.Count)
}

func TestRefactorRenameUsesTopToken(t *testing.T) {
	r := newTestRegistry()
	seedTopic(r, "misc", map[string]int{"climate": 10, "budget": 1}, 6, time.Now())

	ops := r.Refactor(context.Background())
	renameOps := opsOfType(ops, "rename")
	require.Len(t, renameOps, 1)
	assert.Equal(t, "climate", renameOps[0].To)

	snap := r.TakeSnapshot()
	climate := findTopic(snap, "climate")
	require.NotNil(t, climate)
	assert.Contains(t, climate.Aliases, "misc")
}

func TestRefactorPrunesStaleLowCountTopic(t *testing.T) {
	r := newTestRegistry()
	seedTopic(r, "stale-topic", map[string]int{"x": 1}, 1, time.Now().Add(-8*24*time.Hour))

	ops := r.Refactor(context.Background())
	pruneOps := opsOfType(ops, "prune")
	require.Len(t, pruneOps, 1)

	snap := r.TakeSnapshot()
	assert.Nil(t, findTopic(snap, "stale-topic"))
}

func TestRefactorNeverPrunesAnchorOrPinned(t *testing.T) {
	r := newTestRegistry()
	r.Classify("anything", []string{"general"}, []string{"watchlist"})
	for _, key := range []string{"general", "watchlist"} {
		rec := r.topics[key]
		rec.LastSeen = time.Now().Add(-8 * 24 * time.Hour)
		rec.Count = 1
	}

	r.Refactor(context.Background())
	assert.NotNil(t, r.topics["general"])
	assert.NotNil(t, r.topics["watchlist"])
}

func TestRefactorAnchorArchiveNeverRemovesGeneral(t *testing.T) {
	r := newTestRegistry()
	r.Classify("anything", []string{"general"}, nil)
	rec := r.topics["general"]
	rec.LastSeen = time.Now().Add(-8 * 24 * time.Hour)
	rec.Count = 1

	ops := r.Refactor(context.Background())
	for _, op := range ops {
		assert.False(t, op.Type == "anchor" && op.Action == "archive" && op.From == "general")
	}
	assert.NotNil(t, r.topics["general"])
}

func TestRefactorIdleRegistryEmitsNoMutatingOps(t *testing.T) {
	r := newTestRegistry()
	r.Classify("climate change policy debate", []string{"general", "climate"}, nil)
	r.Refactor(context.Background())

	ops := r.Refactor(context.Background())
	for _, op := range ops {
		assert.NotEqual(t, "merge", op.Type)
		assert.NotEqual(t, "rename", op.Type)
		assert.NotEqual(t, "prune", op.Type)
	}
}

func TestOperationLogCapsAtMaxOperations(t *testing.T) {
	r := newTestRegistry()
	for i := 0; i < MaxOperations; i++ {
		r.operations = append(r.operations, Operation{Type: "prune", From: "x", At: float64(i)})
	}
	seedTopic(r, "stale-topic", map[string]int{"x": 1}, 1, time.Now().Add(-8*24*time.Hour))

	ops := r.Refactor(context.Background())
	require.NotEmpty(t, ops)
	assert.LessOrEqual(t, len(r.Operations()), MaxOperations)
}

func seedTopic(r *Registry, key string, tokens map[string]int, count int, lastSeen time.Time) {
	rec := newTopicRecord(key, key)
	for tok, c := range tokens {
		for i := 0; i < c; i++ {
			rec.addTokens([]string{tok})
		}
	}
	rec.Count = count
	rec.LastSeen = lastSeen
	r.topics[key] = rec
	r.order = append(r.order, key)
}

func findTopic(snap Snapshot, key string) *TopicSummary {
	for i := range snap.Topics {
		if snap.Topics[i].Key == key {
			return &snap.Topics[i]
		}
	}
	return nil
}

func opsOfType(ops []Operation, t string) []Operation {
	var out []Operation
	for _, op := range ops {
		if op.Type == t {
			out = append(out, op)
		}
	}
	return out
}
