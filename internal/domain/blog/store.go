package blog

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/datalens-ai/lens/internal/domain/activity"
	"github.com/datalens-ai/lens/internal/notify"
)

// Store maintains the author's own posts and, for admins, the moderation
// queue. Mutations round-trip the backend before the cache changes.
type Store struct {
	api      API
	events   activity.Recorder
	notifier notify.Notifier
	logger   *slog.Logger

	mu      sync.RWMutex
	posts   []Post
	pending []Post
	lastErr string
}

// NewStore creates a blog store.
func NewStore(api API, events activity.Recorder, notifier notify.Notifier, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		api:      api,
		events:   events,
		notifier: notifier,
		logger:   logger,
	}
}

// Posts returns a copy of the author's cached posts.
func (s *Store) Posts() []Post {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Post(nil), s.posts...)
}

// Pending returns a copy of the cached moderation queue.
func (s *Store) Pending() []Post {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Post(nil), s.pending...)
}

// Err returns the transient error message from the last failed operation.
func (s *Store) Err() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

// ClearError clears the transient error field.
func (s *Store) ClearError() {
	s.mu.Lock()
	s.lastErr = ""
	s.mu.Unlock()
}

// FetchMine replaces the cache with the author's posts.
func (s *Store) FetchMine(ctx context.Context) ([]Post, error) {
	posts, err := s.api.MyPosts(ctx)
	if err != nil {
		return nil, s.fail(err, "Failed to fetch your blog posts")
	}

	s.mu.Lock()
	s.posts = posts
	s.lastErr = ""
	s.mu.Unlock()
	return append([]Post(nil), posts...), nil
}

// FetchPublished lists published posts. Read-only; the author cache is
// untouched.
func (s *Store) FetchPublished(ctx context.Context) ([]Post, error) {
	posts, err := s.api.PublishedPosts(ctx)
	if err != nil {
		return nil, s.fail(err, "Failed to fetch blog posts")
	}
	return posts, nil
}

// Create drafts a new post and inserts the confirmed record at the head of
// the author's cache.
func (s *Store) Create(ctx context.Context, req Request) (*Post, error) {
	if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.Content) == "" {
		return nil, ErrInvalidInput
	}

	created, err := s.api.CreatePost(ctx, req)
	if err != nil {
		return nil, s.fail(err, "Failed to create blog post")
	}

	s.mu.Lock()
	s.posts = append([]Post{*created}, s.posts...)
	s.lastErr = ""
	s.mu.Unlock()

	s.record(ctx, activity.TypePostCreated, "drafted post "+created.Title)
	s.notifier.Success("Blog post created successfully")
	return created, nil
}

// Submit sends a draft for review and applies the confirmed status in
// place.
func (s *Store) Submit(ctx context.Context, id string) (*Post, error) {
	submitted, err := s.api.SubmitPost(ctx, id)
	if err != nil {
		return nil, s.fail(err, "Failed to submit blog post")
	}

	s.mu.Lock()
	s.posts = replacePost(s.posts, *submitted)
	s.lastErr = ""
	s.mu.Unlock()

	s.record(ctx, activity.TypePostSubmitted, "submitted post "+submitted.Title)
	s.notifier.Success("Blog post submitted for review")
	return submitted, nil
}

// Delete removes a post after the backend confirms.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := s.api.DeletePost(ctx, id); err != nil {
		return s.fail(err, "Failed to delete blog post")
	}

	s.mu.Lock()
	s.posts = removePost(s.posts, id)
	s.lastErr = ""
	s.mu.Unlock()

	s.record(ctx, activity.TypePostDeleted, "deleted post "+id)
	s.notifier.Success("Blog post deleted successfully")
	return nil
}

// FetchPending replaces the moderation queue cache. Admin only; the backend
// enforces the role.
func (s *Store) FetchPending(ctx context.Context) ([]Post, error) {
	pending, err := s.api.PendingPosts(ctx)
	if err != nil {
		return nil, s.fail(err, "Failed to fetch pending posts")
	}

	s.mu.Lock()
	s.pending = pending
	s.lastErr = ""
	s.mu.Unlock()
	return append([]Post(nil), pending...), nil
}

// Approve publishes a pending post and drops it from the queue.
func (s *Store) Approve(ctx context.Context, id string) (*Post, error) {
	approved, err := s.api.ApprovePost(ctx, id)
	if err != nil {
		return nil, s.fail(err, "Failed to approve blog post")
	}

	s.mu.Lock()
	s.pending = removePost(s.pending, id)
	s.lastErr = ""
	s.mu.Unlock()

	s.notifier.Success("Blog post published")
	return approved, nil
}

// Reject declines a pending post and drops it from the queue.
func (s *Store) Reject(ctx context.Context, id, reason string) (*Post, error) {
	rejected, err := s.api.RejectPost(ctx, id, reason)
	if err != nil {
		return nil, s.fail(err, "Failed to reject blog post")
	}

	s.mu.Lock()
	s.pending = removePost(s.pending, id)
	s.lastErr = ""
	s.mu.Unlock()

	s.notifier.Success("Blog post rejected")
	return rejected, nil
}

func replacePost(posts []Post, updated Post) []Post {
	out := make([]Post, 0, len(posts))
	for _, p := range posts {
		if p.ID == updated.ID {
			out = append(out, updated)
			continue
		}
		out = append(out, p)
	}
	return out
}

func removePost(posts []Post, id string) []Post {
	out := make([]Post, 0, len(posts))
	for _, p := range posts {
		if p.ID != id {
			out = append(out, p)
		}
	}
	return out
}

func (s *Store) fail(err error, fallback string) error {
	msg := notify.Message(err, fallback)
	s.mu.Lock()
	s.lastErr = msg
	s.mu.Unlock()
	s.notifier.Error(msg)
	return err
}

func (s *Store) record(ctx context.Context, typ activity.Type, summary string) {
	if s.events != nil {
		s.events.Record(ctx, typ, summary)
	}
}
