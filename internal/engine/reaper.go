package engine

import (
	"context"
	"log"

	"github.com/marginhq/margin/internal/hashtag"
)

// Reconcile garbage-collects orphaned tags for a user: any vocabulary
// record no longer backed by a surviving note is deleted. Runs after an
// item deletion, not on every edit, so the full rescan stays cheap for
// the small per-user vocabularies it sees.
//
// Returns the removed tags. Never returns an error: a failed reap is
// logged and retried implicitly on the next deletion, and must not block
// the deletion that triggered it.
func (e *Engine) Reconcile(ctx context.Context, userID string) []string {
	tags, err := e.db.ListTagNames(ctx, userID)
	if err != nil {
		log.Printf("tags: reconcile list for user %s: %v", userID, err)
		return nil
	}
	if len(tags) == 0 {
		return nil
	}

	notes, err := e.db.ListNotes(ctx, userID)
	if err != nil {
		log.Printf("tags: reconcile notes for user %s: %v", userID, err)
		return nil
	}

	// Re-extract with the same matcher that populated the vocabulary, so
	// "#adam-smith" in a note never keeps a bare "adam" alive.
	live := make(map[string]bool)
	for _, note := range notes {
		for _, tag := range hashtag.Extract(note) {
			live[tag] = true
		}
	}

	var removed []string
	for _, tag := range tags {
		if live[tag] {
			continue
		}
		if err := e.db.DeleteTag(ctx, userID, tag); err != nil {
			log.Printf("tags: reconcile delete %q for user %s: %v", tag, userID, err)
			continue
		}
		removed = append(removed, tag)
	}
	return removed
}
