package project

import "time"

// Project represents a Data Lens project as returned by the backend.
// Timestamps and audit fields are server-maintained and read-only here.
type Project struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	IsActive    bool      `json:"is_active"`
	UserID      string    `json:"user_id"`
	UserEmail   string    `json:"user_email"`
	UpdateBy    string    `json:"update_by"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// IsOwner reports whether the given user owns the project. Only owners may
// archive or delete.
func (p Project) IsOwner(userID string) bool {
	return p.UserID != "" && p.UserID == userID
}

// Request carries the user-editable fields of a project mutation.
type Request struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	IsActive    bool   `json:"isActive"`
}

// Stats summarizes the user's project collection for the dashboard.
type Stats struct {
	TotalProjects      int `json:"totalProjects"`
	ActiveProjects     int `json:"activeProjects"`
	InProgressProjects int `json:"inProgressProjects"`
	CompletedProjects  int `json:"completedProjects"`
}

// SnowflakeStage is the metadata of one Snowflake stage attached to a
// project. The listing is served from the backend's own records; refreshing
// re-reads it from Snowflake.
type SnowflakeStage struct {
	StageName     string `json:"stage_name"`
	StageSchema   string `json:"stage_schema"`
	StageDatabase string `json:"stage_database"`
	StageType     string `json:"stage_type"`
	StageLocation string `json:"stage_location"`
	FileFormat    string `json:"file_format,omitempty"`
	CopyOptions   string `json:"copy_options,omitempty"`
	Comment       string `json:"comment,omitempty"`
	Owner         string `json:"owner"`
	Created       string `json:"created"`
}

// View scopes the cached listing to a subset of the collection.
type View string

const (
	ViewActive View = "active"
	ViewAll    View = "all"
)

// Matches reports whether a project belongs in this view.
func (v View) Matches(p Project) bool {
	return v != ViewActive || p.IsActive
}

// Persisted slot for the current project selection.
const slotCurrentProject = "current_project"
