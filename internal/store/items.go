package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Item is a stored object with a free-text note attached. The binary
// payload lives elsewhere; margin only cares about the note text.
type Item struct {
	ID        string
	UserID    string
	Name      string
	Note      string
	CreatedAt int64
	UpdatedAt int64
}

// ErrItemNotFound is returned when an item does not exist for the user.
// A wrong-tenant lookup is indistinguishable from a missing item.
var ErrItemNotFound = errors.New("item not found")

// CreateItem stores a new item with its note text.
func (db *DB) CreateItem(ctx context.Context, userID, name, note string) (*Item, error) {
	now := time.Now().UnixMilli()
	item := &Item{
		ID:        uuid.NewString(),
		UserID:    userID,
		Name:      name,
		Note:      note,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err := db.ExecContext(ctx, `
		INSERT INTO items (id, user_id, name, note, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, item.ID, item.UserID, item.Name, item.Note, item.CreatedAt, item.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("create item: %w", err)
	}
	return item, nil
}

// UpdateItemNote replaces the note text of an existing item.
func (db *DB) UpdateItemNote(ctx context.Context, userID, itemID, note string) error {
	res, err := db.ExecContext(ctx, `
		UPDATE items SET note = ?, updated_at = ?
		WHERE id = ? AND user_id = ?
	`, note, time.Now().UnixMilli(), itemID, userID)
	if err != nil {
		return fmt.Errorf("update item note: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update item note: %w", err)
	}
	if n == 0 {
		return ErrItemNotFound
	}
	return nil
}

// GetItem returns one item scoped to the user.
func (db *DB) GetItem(ctx context.Context, userID, itemID string) (*Item, error) {
	row := db.QueryRowContext(ctx, `
		SELECT id, user_id, name, note, created_at, updated_at
		FROM items WHERE id = ? AND user_id = ?
	`, itemID, userID)

	var it Item
	err := row.Scan(&it.ID, &it.UserID, &it.Name, &it.Note, &it.CreatedAt, &it.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("get item: %w", err)
	}
	return &it, nil
}

// ListItems returns all items for a user, most recently updated first.
func (db *DB) ListItems(ctx context.Context, userID string) ([]Item, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, user_id, name, note, created_at, updated_at
		FROM items WHERE user_id = ? ORDER BY updated_at DESC, id ASC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	return scanItems(rows)
}

// DeleteItem removes an item scoped to the user.
func (db *DB) DeleteItem(ctx context.Context, userID, itemID string) error {
	res, err := db.ExecContext(ctx,
		"DELETE FROM items WHERE id = ? AND user_id = ?", itemID, userID)
	if err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	if n == 0 {
		return ErrItemNotFound
	}
	return nil
}

// ListNotes returns the surviving note texts for a user. Reconciliation
// re-extracts tags from these.
func (db *DB) ListNotes(ctx context.Context, userID string) ([]string, error) {
	rows, err := db.QueryContext(ctx,
		"SELECT note FROM items WHERE user_id = ?", userID)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	defer rows.Close()

	var notes []string
	for rows.Next() {
		var note string
		if err := rows.Scan(&note); err != nil {
			return nil, fmt.Errorf("scan note: %w", err)
		}
		notes = append(notes, note)
	}
	return notes, rows.Err()
}

// SearchItemsByNote returns the user's items whose note contains any of
// the given needles, case-insensitively. This is a cheap LIKE prefilter;
// callers that need hashtag boundary semantics re-verify the candidates.
func (db *DB) SearchItemsByNote(ctx context.Context, userID string, needles []string) ([]Item, error) {
	if len(needles) == 0 {
		return nil, nil
	}

	var b strings.Builder
	args := []any{userID}
	b.WriteString(`
		SELECT id, user_id, name, note, created_at, updated_at
		FROM items WHERE user_id = ? AND (`)
	for i, needle := range needles {
		if i > 0 {
			b.WriteString(" OR ")
		}
		b.WriteString(`note LIKE ? ESCAPE '\'`)
		args = append(args, "%"+escapeLike(needle)+"%")
	}
	b.WriteString(") ORDER BY updated_at DESC, id ASC")

	rows, err := db.QueryContext(ctx, b.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("search items: %w", err)
	}
	defer rows.Close()

	return scanItems(rows)
}

func scanItems(rows *sql.Rows) ([]Item, error) {
	var items []Item
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.UserID, &it.Name, &it.Note, &it.CreatedAt, &it.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}
