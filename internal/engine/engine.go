// Package engine orchestrates hashtag extraction, the tag vocabulary
// store, and reconciliation. Write-side bookkeeping (RecordUsage,
// Reconcile, DeleteUserTags) never returns an error: a note save or item
// deletion must never fail because tag bookkeeping did. Read-side queries
// (Suggest, ListAll, SearchItemsByTags) propagate store errors so callers
// can surface a retryable failure instead of a misleading empty result.
package engine

import (
	"context"
	"log"
	"time"

	"github.com/marginhq/margin/internal/hashtag"
	"github.com/marginhq/margin/internal/store"
)

// inactivityWindow is how long a tag can go unused before the statistics
// view flags it inactive. Derived at read time, never stored.
const inactivityWindow = 30 * 24 * time.Hour

// Engine is the per-user hashtag engine.
type Engine struct {
	db *store.DB
}

// New creates an Engine over the given store.
func New(db *store.DB) *Engine {
	return &Engine{db: db}
}

// Suggestion is one autocomplete candidate.
type Suggestion struct {
	Tag        string `json:"tag"`
	UsageCount int64  `json:"usage_count"`
	LastUsed   int64  `json:"last_used"`
}

// TagStat is one row of the statistics view.
type TagStat struct {
	Tag        string `json:"tag"`
	UsageCount int64  `json:"usage_count"`
	FirstUsed  int64  `json:"first_used"`
	LastUsed   int64  `json:"last_used"`
	IsInactive bool   `json:"is_inactive"`
}

// RecordUsage extracts hashtags from noteText and records one usage event
// per distinct tag for the user. Each tag's upsert is its own failure
// domain: a failed tag is logged and skipped without affecting the rest.
// Returns the tags actually recorded; on total failure that is empty,
// never an error.
func (e *Engine) RecordUsage(ctx context.Context, userID, noteText string) []string {
	var recorded []string
	for _, tag := range hashtag.Extract(noteText) {
		if err := e.db.RecordTagUsage(ctx, userID, tag); err != nil {
			log.Printf("tags: record usage for user %s: %v", userID, err)
			continue
		}
		recorded = append(recorded, tag)
	}
	return recorded
}

// Suggest returns ranked autocomplete candidates for the user. A non-empty
// prefix is normalized and matched against the canonical tag form; an
// empty prefix returns the whole vocabulary, newest first, up to limit.
func (e *Engine) Suggest(ctx context.Context, userID, prefix string, limit int) ([]Suggestion, error) {
	records, err := e.db.SuggestTags(ctx, userID, hashtag.Normalize(prefix), limit)
	if err != nil {
		return nil, err
	}

	suggestions := make([]Suggestion, len(records))
	for i, r := range records {
		suggestions[i] = Suggestion{Tag: r.Tag, UsageCount: r.UsageCount, LastUsed: r.LastUsed}
	}
	return suggestions, nil
}

// ListAll returns the user's vocabulary with usage statistics, sorted by
// sortBy (store.SortUsage, store.SortAlphabetical, store.SortRecent).
func (e *Engine) ListAll(ctx context.Context, userID, sortBy string) ([]TagStat, error) {
	records, err := e.db.ListTags(ctx, userID, sortBy)
	if err != nil {
		return nil, err
	}

	cutoff := time.Now().Add(-inactivityWindow).UnixMilli()
	stats := make([]TagStat, len(records))
	for i, r := range records {
		stats[i] = TagStat{
			Tag:        r.Tag,
			UsageCount: r.UsageCount,
			FirstUsed:  r.FirstUsed,
			LastUsed:   r.LastUsed,
			IsInactive: r.LastUsed < cutoff,
		}
	}
	return stats, nil
}

// SearchItemsByTags returns the user's items whose note contains any of
// the given tags (OR-matched). Inputs are normalized; the LIKE prefilter
// from the store is re-verified with the extractor so "#adam" never
// matches an item that only contains "#adam-smith".
func (e *Engine) SearchItemsByTags(ctx context.Context, userID string, tags []string) ([]store.Item, error) {
	wanted := make(map[string]bool)
	var needles []string
	for _, raw := range tags {
		tag := hashtag.Normalize(raw)
		if tag == "" || !hashtag.IsValid(hashtag.Format(tag)) {
			continue
		}
		if !wanted[tag] {
			wanted[tag] = true
			needles = append(needles, hashtag.Format(tag))
		}
	}
	if len(needles) == 0 {
		return nil, nil
	}

	candidates, err := e.db.SearchItemsByNote(ctx, userID, needles)
	if err != nil {
		return nil, err
	}

	var items []store.Item
	for _, it := range candidates {
		for _, tag := range hashtag.Extract(it.Note) {
			if wanted[tag] {
				items = append(items, it)
				break
			}
		}
	}
	return items, nil
}

// DeleteUserTags removes the user's whole vocabulary, as part of the
// externally-owned user deletion cascade. Failure is logged and swallowed.
func (e *Engine) DeleteUserTags(ctx context.Context, userID string) {
	if err := e.db.DeleteUserTags(ctx, userID); err != nil {
		log.Printf("tags: delete vocabulary for user %s: %v", userID, err)
	}
}
