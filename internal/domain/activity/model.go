package activity

import "time"

// Type represents the kind of dashboard event being recorded
type Type string

const (
	TypeLogin           Type = "login"
	TypeLogout          Type = "logout"
	TypeSessionExpired  Type = "session_expired"
	TypeProjectCreated  Type = "project_created"
	TypeProjectUpdated  Type = "project_updated"
	TypeProjectArchived Type = "project_archived"
	TypeProjectRestored Type = "project_restored"
	TypeProjectDeleted  Type = "project_deleted"
	TypePostCreated     Type = "post_created"
	TypePostSubmitted   Type = "post_submitted"
	TypePostDeleted     Type = "post_deleted"
)

// Entry represents an event in the local activity log. The log never leaves
// the dashboard process; it only feeds the activity panel.
type Entry struct {
	ID        int64     `json:"id"`
	Type      Type      `json:"type"`
	Summary   string    `json:"summary"`
	CreatedAt time.Time `json:"created_at"`
}
