package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// SlotRepo stores named JSON blobs. Three slots exist in practice:
// aggregate stats, the per-module progress map, and the session cursor.
type SlotRepo struct {
	db *sql.DB
}

// Read returns the blob stored under name, or nil if the slot has
// never been written.
func (r *SlotRepo) Read(ctx context.Context, name string) ([]byte, error) {
	var data []byte
	err := r.db.QueryRowContext(ctx,
		`SELECT data FROM slots WHERE name = ?`, name,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read slot %q: %w", name, err)
	}
	return data, nil
}

// Write upserts the blob stored under name.
func (r *SlotRepo) Write(ctx context.Context, name string, data []byte) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO slots (name, data, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		name, data, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("write slot %q: %w", name, err)
	}
	return nil
}

// Delete removes a slot. Deleting a missing slot is not an error.
func (r *SlotRepo) Delete(ctx context.Context, name string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM slots WHERE name = ?`, name); err != nil {
		return fmt.Errorf("delete slot %q: %w", name, err)
	}
	return nil
}
