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
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/topic-gardener/topic-gardener/internal/similarity"
	"github.com/topic-gardener/topic-gardener/internal/slug"
	"github.com/topic-gardener/topic-gardener/internal/telemetry"
)

// Refactor runs the six reshaping passes, in order, under the registry
// lock: merge, rename, split, anchor-promote, anchor-archive, prune. All
// operations emitted in one cycle share a single "now" captured at entry.
// The implementations must snapshot keys/records at pass entry, since
// merge, rename and prune mutate the registry map while iterating it.
// The whole cycle, and each pass within it, is wrapped in its own span so
// a slow or unusually busy refactor cycle is visible in a trace.
func (r *Registry) Refactor(ctx context.Context) []Operation {
	ctx, span := telemetry.Tracer().Start(ctx, "registry.Refactor")
	defer span.End()

	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()

	var ops []Operation
	ops = append(ops, r.mergePass(ctx, now)...)
	ops = append(ops, r.renamePass(ctx, now)...)
	ops = append(ops, r.splitPass(ctx, now)...)
	ops = append(ops, r.anchorPromotePass(ctx, now)...)
	ops = append(ops, r.anchorArchivePass(ctx, now)...)
	ops = append(ops, r.prunePass(ctx, now)...)

	if len(ops) > 0 {
		r.operations = append(r.operations, ops...)
		if len(r.operations) > MaxOperations {
			r.operations = r.operations[len(r.operations)-MaxOperations:]
		}
	}
	r.lastRefactorAt = now

	span.SetAttributes(attribute.Int("refactor.operations", len(ops)))
	return ops
}

// mergePass folds near-duplicate topics together. It walks a snapshot of
// the registry's records in iteration order; a left/right pair merges when
// left is not both anchor and pinned, not both are anchors, and their
// token cosine similarity clears merge_threshold. Only left is checked for
// the anchor-and-pinned guard.
func (r *Registry) mergePass(ctx context.Context, now time.Time) []Operation {
	_, span := telemetry.Tracer().Start(ctx, "registry.mergePass")
	defer span.End()

	snapshot := r.recordSnapshot()
	used := make(map[string]bool, len(snapshot))
	var ops []Operation

	for i, left := range snapshot {
		if used[left.Key] || (left.Anchor && left.Pinned) {
			continue
		}
		for j := i + 1; j < len(snapshot); j++ {
			right := snapshot[j]
			if used[right.Key] {
				continue
			}
			if left.Anchor && right.Anchor {
				continue
			}
			score := similarity.Cosine(left.Tokens, right.Tokens)
			if score < r.cfg.MergeThreshold {
				continue
			}

			keep, drop := left, right
			if right.Anchor || right.Count > left.Count {
				keep, drop = right, left
			}

			keep.mergeTokens(drop)
			keep.Count += drop.Count
			if drop.LastSeen.After(keep.LastSeen) {
				keep.LastSeen = drop.LastSeen
			}
			keep.addAlias(drop.Label)

			used[drop.Key] = true
			delete(r.topics, drop.Key)
			r.removeFromOrder(drop.Key)

			ops = append(ops, Operation{
				Type:   "merge",
				From:   drop.Key,
				To:     keep.Key,
				At:     unixSeconds(now),
				Reason: fmt.Sprintf("similarity %.2f", score),
			})
		}
	}
	span.SetAttributes(attribute.Int("refactor.merge.count", len(ops)))
	return ops
}

// renamePass retargets a topic's key/label to its most frequent token,
// once it has accumulated enough classifications to trust that token as
// the better name.
func (r *Registry) renamePass(ctx context.Context, now time.Time) []Operation {
	_, span := telemetry.Tracer().Start(ctx, "registry.renamePass")
	defer span.End()

	var ops []Operation
	for _, rec := range r.recordSnapshot() {
		if rec.Anchor || rec.Pinned {
			continue
		}
		if rec.Count < r.cfg.MinRenameCount {
			continue
		}
		topToken, _, ok := rec.topFrequentToken()
		if !ok {
			continue
		}
		if containsLower(rec.Label, topToken) {
			continue
		}
		newKey := slug.Slugify(topToken)
		if newKey == rec.Key {
			continue
		}
		if _, exists := r.topics[newKey]; exists {
			continue
		}

		oldKey, oldLabel := rec.Key, rec.Label
		delete(r.topics, oldKey)
		r.removeFromOrder(oldKey)

		rec.Key = newKey
		rec.Label = topToken
		rec.addAlias(oldLabel)

		r.topics[newKey] = rec
		r.order = append(r.order, newKey)

		ops = append(ops, Operation{
			Type:   "rename",
			From:   oldKey,
			To:     newKey,
			At:     unixSeconds(now),
			Reason: fmt.Sprintf("top keyword %s", topToken),
		})
	}
	span.SetAttributes(attribute.Int("refactor.rename.count", len(ops)))
	return ops
}

// splitPass is advisory: it flags topics whose token histogram is diverse
// enough that they might really be two topics, without mutating anything.
func (r *Registry) splitPass(ctx context.Context, now time.Time) []Operation {
	_, span := telemetry.Tracer().Start(ctx, "registry.splitPass")
	defer span.End()

	var ops []Operation
	for _, rec := range r.recordSnapshot() {
		if rec.Anchor || rec.Pinned {
			continue
		}
		if rec.Count < r.cfg.MinSplitCount {
			continue
		}
		total := rec.tokenTotal()
		if total < 4 {
			continue
		}
		top := rec.topNTokens(3)
		if len(top) < 2 {
			continue
		}
		primaryShare := float64(rec.Tokens[top[0]]) / float64(total)
		if primaryShare > 0.45 {
			continue
		}
		ops = append(ops, Operation{
			Type:      "split",
			From:      rec.Key,
			Suggested: []string{top[0], top[1]},
			At:        unixSeconds(now),
			Reason:    "diverse keyword mix",
		})
	}
	span.SetAttributes(attribute.Int("refactor.split.count", len(ops)))
	return ops
}

// anchorPromotePass is advisory: it flags topics that have become frequent
// and recent enough that a caller might want to promote them to an anchor.
func (r *Registry) anchorPromotePass(ctx context.Context, now time.Time) []Operation {
	_, span := telemetry.Tracer().Start(ctx, "registry.anchorPromotePass")
	defer span.End()

	var ops []Operation
	for _, rec := range r.recordSnapshot() {
		if rec.Anchor || rec.Pinned {
			continue
		}
		if rec.Count < r.cfg.MinAnchorPromoteCount {
			continue
		}
		if rec.LastSeen.IsZero() || now.Sub(rec.LastSeen) > r.cfg.StaleSeconds {
			continue
		}
		if r.hasRecentAnchorOp("promote", rec.Key) {
			continue
		}
		ops = append(ops, Operation{
			Type:   "anchor",
			Action: "promote",
			From:   rec.Key,
			Label:  rec.Label,
			Count:  rec.Count,
			At:     unixSeconds(now),
			Reason: fmt.Sprintf("count %d", rec.Count),
		})
	}
	span.SetAttributes(attribute.Int("refactor.anchor_promote.count", len(ops)))
	return ops
}

// anchorArchivePass is advisory: it flags anchors that have gone stale and
// low-count, but never removes them — callers act on the advisory
// externally, same as the pass it is grounded on.
func (r *Registry) anchorArchivePass(ctx context.Context, now time.Time) []Operation {
	_, span := telemetry.Tracer().Start(ctx, "registry.anchorArchivePass")
	defer span.End()

	var ops []Operation
	for _, rec := range r.recordSnapshot() {
		if !rec.Anchor || rec.Pinned || rec.Key == "general" {
			continue
		}
		if rec.Count > r.cfg.MinAnchorArchiveCount {
			continue
		}
		if rec.LastSeen.IsZero() || now.Sub(rec.LastSeen) < r.cfg.StaleSeconds {
			continue
		}
		if r.hasRecentAnchorOp("archive", rec.Key) {
			continue
		}
		ops = append(ops, Operation{
			Type:     "anchor",
			Action:   "archive",
			From:     rec.Key,
			Label:    rec.Label,
			Count:    rec.Count,
			LastSeen: unixSeconds(rec.LastSeen),
			At:       unixSeconds(now),
			Reason:   "stale anchor",
		})
	}
	span.SetAttributes(attribute.Int("refactor.anchor_archive.count", len(ops)))
	return ops
}

// prunePass removes non-anchor, non-pinned topics that have gone stale and
// have accumulated almost no classifications.
func (r *Registry) prunePass(ctx context.Context, now time.Time) []Operation {
	_, span := telemetry.Tracer().Start(ctx, "registry.prunePass")
	defer span.End()

	var ops []Operation
	for _, rec := range r.recordSnapshot() {
		if rec.Anchor || rec.Pinned {
			continue
		}
		if rec.LastSeen.IsZero() {
			continue
		}
		if now.Sub(rec.LastSeen) > r.cfg.StaleSeconds && rec.Count <= 2 {
			delete(r.topics, rec.Key)
			r.removeFromOrder(rec.Key)
			ops = append(ops, Operation{
				Type:   "prune",
				From:   rec.Key,
				At:     unixSeconds(now),
				Reason: "stale topic",
			})
		}
	}
	span.SetAttributes(attribute.Int("refactor.prune.count", len(ops)))
	return ops
}

// hasRecentAnchorOp reports whether the current operation log (prior to
// this refactor cycle's own emissions) already holds an anchor operation
// of the given action against key.
func (r *Registry) hasRecentAnchorOp(action, key string) bool {
	for i := len(r.operations) - 1; i >= 0; i-- {
		op := r.operations[i]
		if op.Type != "anchor" || op.Action != action || op.From != key {
			continue
		}
		return true
	}
	return false
}

// recordSnapshot returns the registry's records in key-insertion order, a
// stable base for passes that mutate the map while iterating.
func (r *Registry) recordSnapshot() []*TopicRecord {
	out := make([]*TopicRecord, 0, len(r.order))
	for _, key := range r.order {
		out = append(out, r.topics[key])
	}
	return out
}

func (r *Registry) removeFromOrder(key string) {
	for i, k := range r.order {
		if k == key {
			r.order = append(r.order[:i], r.order[i+1:]...)
			return
		}
	}
}

func containsLower(label, token string) bool {
	return strings.Contains(strings.ToLower(label), token)
}
