package blog

import "time"

// Status represents the moderation state of a blog post
type Status string

const (
	StatusDraft         Status = "DRAFT"
	StatusPendingReview Status = "PENDING_REVIEW"
	StatusPublished     Status = "PUBLISHED"
	StatusRejected      Status = "REJECTED"
	StatusArchived      Status = "ARCHIVED"
)

// Post represents a blog post as returned by the backend. Authors draft and
// submit posts; admins approve or reject them.
type Post struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Slug        string     `json:"slug"`
	Excerpt     string     `json:"excerpt,omitempty"`
	Content     string     `json:"content,omitempty"`
	Status      Status     `json:"status"`
	AuthorID    string     `json:"authorId,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	PublishedAt *time.Time `json:"publishedAt,omitempty"`
}

// Request carries the author-editable fields of a post mutation.
type Request struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}
