package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/datalens-ai/lens/internal/repository"
)

// StateRepository implements repository.StateRepository for SQLite
type StateRepository struct {
	db *DB
}

// NewStateRepository creates a new StateRepository
func NewStateRepository(db *DB) *StateRepository {
	return &StateRepository{db: db}
}

// Get retrieves a slot value by key
func (r *StateRepository) Get(ctx context.Context, key string) (string, error) {
	query := `SELECT value FROM state_slots WHERE key = ?`

	var value string
	err := r.db.QueryRowContext(ctx, query, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", repository.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to get state slot: %w", err)
	}

	return value, nil
}

// Put stores a slot value, replacing any previous value
func (r *StateRepository) Put(ctx context.Context, key, value string) error {
	query := `
		INSERT INTO state_slots (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`

	_, err := r.db.ExecContext(ctx, query, key, value, time.Now())
	if err != nil {
		return fmt.Errorf("failed to put state slot: %w", err)
	}

	return nil
}

// Delete removes a slot. Deleting a missing slot is not an error.
func (r *StateRepository) Delete(ctx context.Context, key string) error {
	query := `DELETE FROM state_slots WHERE key = ?`

	_, err := r.db.ExecContext(ctx, query, key)
	if err != nil {
		return fmt.Errorf("failed to delete state slot: %w", err)
	}

	return nil
}
