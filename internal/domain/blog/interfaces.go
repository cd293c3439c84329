package blog

import "context"

// API is the slice of the backend surface the blog store depends on.
type API interface {
	MyPosts(ctx context.Context) ([]Post, error)
	PublishedPosts(ctx context.Context) ([]Post, error)
	CreatePost(ctx context.Context, req Request) (*Post, error)
	SubmitPost(ctx context.Context, id string) (*Post, error)
	DeletePost(ctx context.Context, id string) error
	PendingPosts(ctx context.Context) ([]Post, error)
	ApprovePost(ctx context.Context, id string) (*Post, error)
	RejectPost(ctx context.Context, id, reason string) (*Post, error)
}
