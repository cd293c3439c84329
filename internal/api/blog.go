package api

import (
	"context"

	"github.com/datalens-ai/lens/internal/domain/blog"
)

// MyPosts lists the signed-in author's posts in every status.
func (c *Client) MyPosts(ctx context.Context) ([]blog.Post, error) {
	var posts []blog.Post
	if err := c.get(ctx, "/blog/my-posts", nil, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// PublishedPosts lists publicly visible posts.
func (c *Client) PublishedPosts(ctx context.Context) ([]blog.Post, error) {
	var posts []blog.Post
	if err := c.get(ctx, "/blog/posts", nil, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// CreatePost drafts a new post.
func (c *Client) CreatePost(ctx context.Context, req blog.Request) (*blog.Post, error) {
	var created blog.Post
	if err := c.post(ctx, "/blog/posts", nil, req, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// SubmitPost sends a draft for review.
func (c *Client) SubmitPost(ctx context.Context, id string) (*blog.Post, error) {
	var submitted blog.Post
	if err := c.post(ctx, "/blog/posts/"+id+"/submit", nil, nil, &submitted); err != nil {
		return nil, err
	}
	return &submitted, nil
}

// DeletePost removes a post.
func (c *Client) DeletePost(ctx context.Context, id string) error {
	return c.del(ctx, "/blog/posts/"+id)
}

// PendingPosts lists the moderation queue. Admin only.
func (c *Client) PendingPosts(ctx context.Context) ([]blog.Post, error) {
	var posts []blog.Post
	if err := c.get(ctx, "/blog/admin/pending-posts", nil, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// ApprovePost publishes a pending post. Admin only.
func (c *Client) ApprovePost(ctx context.Context, id string) (*blog.Post, error) {
	var approved blog.Post
	if err := c.post(ctx, "/blog/admin/posts/"+id+"/approve", nil, nil, &approved); err != nil {
		return nil, err
	}
	return &approved, nil
}

type rejectRequest struct {
	Reason string `json:"reason,omitempty"`
}

// RejectPost declines a pending post. Admin only.
func (c *Client) RejectPost(ctx context.Context, id, reason string) (*blog.Post, error) {
	var rejected blog.Post
	if err := c.post(ctx, "/blog/admin/posts/"+id+"/reject", nil, rejectRequest{Reason: reason}, &rejected); err != nil {
		return nil, err
	}
	return &rejected, nil
}
