package activity

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

const defaultRecentLimit = 20

// Service handles activity log operations.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

// NewService creates a new activity service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, logger: logger}
}

// Record appends an event to the activity log. Failures are logged and
// swallowed; the log is a convenience feed and must never fail the
// operation that produced the event.
func (s *Service) Record(ctx context.Context, typ Type, summary string) {
	entry := &Entry{
		Type:      typ,
		Summary:   summary,
		CreatedAt: time.Now(),
	}
	if err := s.repo.Append(ctx, entry); err != nil {
		s.logger.Warn("failed to record activity", "type", typ, "error", err)
	}
}

// Append stores an entry, filling in the timestamp if missing.
func (s *Service) Append(ctx context.Context, entry *Entry) error {
	if entry == nil || entry.Type == "" {
		return ErrInvalidInput
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	if err := s.repo.Append(ctx, entry); err != nil {
		return fmt.Errorf("appending activity: %w", err)
	}
	return nil
}

// Recent lists the newest entries, most recent first.
func (s *Service) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = defaultRecentLimit
	}
	return s.repo.Recent(ctx, limit)
}
