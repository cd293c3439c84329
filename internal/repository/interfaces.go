package repository

import (
	"context"

	"github.com/datalens-ai/lens/internal/domain/activity"
)

// StateRepository persists named state slots across restarts. Each value a
// store chooses to persist (tokens, user profile, current project selection)
// lives under its own key; everything else is rebuilt by re-fetching.
type StateRepository interface {
	Get(ctx context.Context, key string) (string, error)
	Put(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// ActivityRepository manages the local activity log.
type ActivityRepository interface {
	Append(ctx context.Context, entry *activity.Entry) error
	Recent(ctx context.Context, limit int) ([]activity.Entry, error)
}
