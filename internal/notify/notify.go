// Package notify carries one-shot user-facing notifications out of the
// stores, the dashboard's equivalent of transient toasts.
package notify

import (
	"errors"
	"log/slog"
	"sync"
)

// Notifier receives user-facing messages. Stores emit at most one
// notification per operation.
type Notifier interface {
	Success(msg string)
	Error(msg string)
}

// UserMessager is implemented by errors that carry a message safe to show
// to the user (typically decoded from a backend error body).
type UserMessager interface {
	UserMessage() string
}

// Message extracts a user-facing message from err, falling back to the
// given generic one for network failures and undecodable responses.
func Message(err error, fallback string) string {
	var m UserMessager
	if errors.As(err, &m) {
		if msg := m.UserMessage(); msg != "" {
			return msg
		}
	}
	return fallback
}

// LogNotifier writes notifications to a structured logger.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a logger-backed notifier.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Success(msg string) {
	n.logger.Info("notification", "kind", "success", "message", msg)
}

func (n *LogNotifier) Error(msg string) {
	n.logger.Warn("notification", "kind", "error", "message", msg)
}

// Recorder collects notifications in memory for assertions in tests.
type Recorder struct {
	mu        sync.Mutex
	successes []string
	errors    []string
}

func (r *Recorder) Success(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.successes = append(r.successes, msg)
}

func (r *Recorder) Error(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errors = append(r.errors, msg)
}

// Successes returns a copy of recorded success messages.
func (r *Recorder) Successes() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.successes...)
}

// Errors returns a copy of recorded error messages.
func (r *Recorder) Errors() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.errors...)
}
