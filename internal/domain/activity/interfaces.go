package activity

import "context"

// Repository provides persistence for activity entries.
type Repository interface {
	Append(ctx context.Context, entry *Entry) error
	Recent(ctx context.Context, limit int) ([]Entry, error)
}

// Recorder is the write-side interface stores use to report events.
type Recorder interface {
	Record(ctx context.Context, typ Type, summary string)
}
