package api

import (
	"context"
	"net/url"

	"github.com/datalens-ai/lens/internal/domain/project"
)

// ActiveProjects lists the user's active projects.
func (c *Client) ActiveProjects(ctx context.Context) ([]project.Project, error) {
	var projects []project.Project
	if err := c.get(ctx, "/projects/active", nil, &projects); err != nil {
		return nil, err
	}
	return projects, nil
}

// AllProjects lists every project regardless of status.
func (c *Client) AllProjects(ctx context.Context) ([]project.Project, error) {
	var projects []project.Project
	if err := c.get(ctx, "/projects", nil, &projects); err != nil {
		return nil, err
	}
	return projects, nil
}

// CreateProject creates a project.
func (c *Client) CreateProject(ctx context.Context, req project.Request) (*project.Project, error) {
	var created project.Project
	if err := c.post(ctx, "/projects", nil, req, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdateProject updates a project's editable fields.
func (c *Client) UpdateProject(ctx context.Context, id string, req project.Request) (*project.Project, error) {
	var updated project.Project
	if err := c.put(ctx, "/projects/"+id, req, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteProject deletes a project.
func (c *Client) DeleteProject(ctx context.Context, id string) error {
	return c.del(ctx, "/projects/"+id)
}

// ArchiveProject flips a project out of the active set.
func (c *Client) ArchiveProject(ctx context.Context, id string) (*project.Project, error) {
	var archived project.Project
	if err := c.patch(ctx, "/projects/"+id+"/archive", &archived); err != nil {
		return nil, err
	}
	return &archived, nil
}

// RestoreProject flips a project back into the active set.
func (c *Client) RestoreProject(ctx context.Context, id string) (*project.Project, error) {
	var restored project.Project
	if err := c.patch(ctx, "/projects/"+id+"/restore", &restored); err != nil {
		return nil, err
	}
	return &restored, nil
}

// SearchProjects queries projects by name.
func (c *Client) SearchProjects(ctx context.Context, query string) ([]project.Project, error) {
	var projects []project.Project
	params := url.Values{"q": {query}}
	if err := c.get(ctx, "/projects/search", params, &projects); err != nil {
		return nil, err
	}
	return projects, nil
}

// ProjectStats summarizes the user's collection.
func (c *Client) ProjectStats(ctx context.Context) (*project.Stats, error) {
	var stats project.Stats
	if err := c.get(ctx, "/projects/stats", nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// ProjectStages lists the Snowflake stages attached to a project.
func (c *Client) ProjectStages(ctx context.Context, id string) ([]project.SnowflakeStage, error) {
	var stages []project.SnowflakeStage
	if err := c.get(ctx, "/projects/"+id+"/stages", nil, &stages); err != nil {
		return nil, err
	}
	return stages, nil
}

// RefreshProjectStages re-reads a project's stage metadata from Snowflake
// and returns the updated listing.
func (c *Client) RefreshProjectStages(ctx context.Context, id string) ([]project.SnowflakeStage, error) {
	var stages []project.SnowflakeStage
	if err := c.post(ctx, "/projects/"+id+"/stages/refresh", nil, nil, &stages); err != nil {
		return nil, err
	}
	return stages, nil
}

// ActiveProjectCount returns the number of active projects.
func (c *Client) ActiveProjectCount(ctx context.Context) (int, error) {
	var out struct {
		Count int `json:"count"`
	}
	if err := c.get(ctx, "/projects/count", nil, &out); err != nil {
		return 0, err
	}
	return out.Count, nil
}
