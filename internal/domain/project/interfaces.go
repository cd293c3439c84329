package project

import "context"

// API is the slice of the backend surface the project store depends on.
// Every mutation round-trips the backend before the cache changes.
type API interface {
	ActiveProjects(ctx context.Context) ([]Project, error)
	AllProjects(ctx context.Context) ([]Project, error)
	CreateProject(ctx context.Context, req Request) (*Project, error)
	UpdateProject(ctx context.Context, id string, req Request) (*Project, error)
	DeleteProject(ctx context.Context, id string) error
	ArchiveProject(ctx context.Context, id string) (*Project, error)
	RestoreProject(ctx context.Context, id string) (*Project, error)
	SearchProjects(ctx context.Context, query string) ([]Project, error)
	ProjectStats(ctx context.Context) (*Stats, error)
	ActiveProjectCount(ctx context.Context) (int, error)
	ProjectStages(ctx context.Context, id string) ([]SnowflakeStage, error)
	RefreshProjectStages(ctx context.Context, id string) ([]SnowflakeStage, error)
}
