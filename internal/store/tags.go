package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// DefaultSuggestLimit caps suggestion results when the caller does not ask
// for a specific limit.
const DefaultSuggestLimit = 10

// TagRecord is one row of a user's hashtag vocabulary. Timestamps are unix
// millis. UsageCount counts extraction events, not item membership: saving
// the same note twice with the same tag counts twice.
type TagRecord struct {
	ID         int64
	UserID     string
	Tag        string
	FirstUsed  int64
	LastUsed   int64
	UsageCount int64
}

// Sort orders for ListTags.
const (
	SortUsage        = "usage"
	SortAlphabetical = "alphabetical"
	SortRecent       = "recent"
)

// RecordTagUsage records one usage event for a canonical tag. A single
// upsert statement keeps the counter linearizable per (user_id, tag):
// concurrent calls never lose an increment, and last_used never moves
// backwards.
func (db *DB) RecordTagUsage(ctx context.Context, userID, tag string) error {
	now := time.Now().UnixMilli()
	_, err := db.ExecContext(ctx, `
		INSERT INTO tags (user_id, tag, first_used, last_used, usage_count)
		VALUES (?, ?, ?, ?, 1)
		ON CONFLICT(user_id, tag) DO UPDATE SET
			usage_count = usage_count + 1,
			last_used   = MAX(last_used, excluded.last_used)
	`, userID, tag, now, now)
	if err != nil {
		return fmt.Errorf("record tag usage %q: %w", tag, err)
	}
	return nil
}

// GetTag returns the record for (userID, tag), or nil if none exists.
func (db *DB) GetTag(ctx context.Context, userID, tag string) (*TagRecord, error) {
	row := db.QueryRowContext(ctx, `
		SELECT id, user_id, tag, first_used, last_used, usage_count
		FROM tags WHERE user_id = ? AND tag = ?
	`, userID, tag)

	var t TagRecord
	err := row.Scan(&t.ID, &t.UserID, &t.Tag, &t.FirstUsed, &t.LastUsed, &t.UsageCount)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get tag: %w", err)
	}
	return &t, nil
}

// SuggestTags returns up to limit tags for the user whose canonical form
// starts with prefix (already normalized; empty matches everything),
// ordered by last_used descending with the tag string as tiebreaker so
// results are stable.
func (db *DB) SuggestTags(ctx context.Context, userID, prefix string, limit int) ([]TagRecord, error) {
	if limit <= 0 {
		limit = DefaultSuggestLimit
	}

	rows, err := db.QueryContext(ctx, `
		SELECT id, user_id, tag, first_used, last_used, usage_count
		FROM tags
		WHERE user_id = ? AND tag LIKE ? ESCAPE '\'
		ORDER BY last_used DESC, tag ASC
		LIMIT ?
	`, userID, escapeLike(prefix)+"%", limit)
	if err != nil {
		return nil, fmt.Errorf("suggest tags: %w", err)
	}
	defer rows.Close()

	return scanTags(rows)
}

// ListTags returns the user's whole vocabulary in the given sort order.
// Unknown sort orders fall back to recency.
func (db *DB) ListTags(ctx context.Context, userID, sortBy string) ([]TagRecord, error) {
	var order string
	switch sortBy {
	case SortUsage:
		order = "usage_count DESC, tag ASC"
	case SortAlphabetical:
		order = "tag ASC"
	default:
		order = "last_used DESC, tag ASC"
	}

	rows, err := db.QueryContext(ctx, `
		SELECT id, user_id, tag, first_used, last_used, usage_count
		FROM tags WHERE user_id = ? ORDER BY `+order,
		userID)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	defer rows.Close()

	return scanTags(rows)
}

// ListTagNames returns the canonical tag strings for a user, for
// reconciliation.
func (db *DB) ListTagNames(ctx context.Context, userID string) ([]string, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT tag FROM tags WHERE user_id = ? ORDER BY tag
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list tag names: %w", err)
	}
	defer rows.Close()

	var tags []string
	for rows.Next() {
		var tag string
		if err := rows.Scan(&tag); err != nil {
			return nil, fmt.Errorf("scan tag name: %w", err)
		}
		tags = append(tags, tag)
	}
	return tags, rows.Err()
}

// DeleteTag removes one (userID, tag) record.
func (db *DB) DeleteTag(ctx context.Context, userID, tag string) error {
	if _, err := db.ExecContext(ctx,
		"DELETE FROM tags WHERE user_id = ? AND tag = ?", userID, tag); err != nil {
		return fmt.Errorf("delete tag %q: %w", tag, err)
	}
	return nil
}

// DeleteUserTags removes a user's entire vocabulary. Triggered externally
// when the owning user is deleted.
func (db *DB) DeleteUserTags(ctx context.Context, userID string) error {
	if _, err := db.ExecContext(ctx,
		"DELETE FROM tags WHERE user_id = ?", userID); err != nil {
		return fmt.Errorf("delete user tags: %w", err)
	}
	return nil
}

// CountUserTags returns the vocabulary size for a user.
func (db *DB) CountUserTags(ctx context.Context, userID string) (int, error) {
	var count int
	err := db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM tags WHERE user_id = ?", userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count tags: %w", err)
	}
	return count, nil
}

func scanTags(rows *sql.Rows) ([]TagRecord, error) {
	var tags []TagRecord
	for rows.Next() {
		var t TagRecord
		if err := rows.Scan(&t.ID, &t.UserID, &t.Tag, &t.FirstUsed, &t.LastUsed, &t.UsageCount); err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

// escapeLike escapes LIKE metacharacters so a prefix containing '_' (legal
// in tags) matches literally.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}
