package sqlite

import (
	"context"
	"fmt"

	"github.com/datalens-ai/lens/internal/domain/activity"
)

// ActivityRepository implements repository.ActivityRepository for SQLite
type ActivityRepository struct {
	db *DB
}

// NewActivityRepository creates a new ActivityRepository
func NewActivityRepository(db *DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

// Append stores a new activity entry
func (r *ActivityRepository) Append(ctx context.Context, entry *activity.Entry) error {
	query := `
		INSERT INTO activity_log (activity_type, summary, created_at)
		VALUES (?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		entry.Type,
		entry.Summary,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to append activity: %w", err)
	}

	if id, err := result.LastInsertId(); err == nil {
		entry.ID = id
	}

	return nil
}

// Recent returns the newest entries, most recent first
func (r *ActivityRepository) Recent(ctx context.Context, limit int) ([]activity.Entry, error) {
	query := `
		SELECT id, activity_type, summary, created_at
		FROM activity_log
		ORDER BY id DESC
		LIMIT ?
	`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list activity: %w", err)
	}
	defer rows.Close()

	var entries []activity.Entry
	for rows.Next() {
		var entry activity.Entry
		if err := rows.Scan(&entry.ID, &entry.Type, &entry.Summary, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan activity entry: %w", err)
		}
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}
