package project

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/datalens-ai/lens/internal/domain/activity"
	"github.com/datalens-ai/lens/internal/notify"
	"github.com/datalens-ai/lens/internal/repository"
)

// Store maintains the client-side cache of the project collection, scoped
// to a view filter, and keeps it consistent with confirmed mutations. The
// server's responses are authoritative; the store never invents records and
// never retries on its own.
type Store struct {
	api      API
	state    repository.StateRepository
	events   activity.Recorder
	notifier notify.Notifier
	logger   *slog.Logger

	mu       sync.RWMutex
	view     View
	projects []Project
	current  *Project
	stats    *Stats
	lastErr  string
}

// NewStore creates a project store scoped to the active view.
func NewStore(
	api API,
	state repository.StateRepository,
	events activity.Recorder,
	notifier notify.Notifier,
	logger *slog.Logger,
) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		api:      api,
		state:    state,
		events:   events,
		notifier: notifier,
		logger:   logger,
		view:     ViewActive,
	}
}

// Load hydrates the persisted current-project selection. The listing itself
// is not persisted; it is rebuilt by fetching.
func (s *Store) Load(ctx context.Context) error {
	raw, err := s.state.Get(ctx, slotCurrentProject)
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("loading current project: %w", err)
	}

	var p Project
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		s.logger.Warn("persisted current project unreadable, discarding")
		return s.state.Delete(ctx, slotCurrentProject)
	}

	s.mu.Lock()
	s.current = &p
	s.mu.Unlock()
	return nil
}

// Projects returns a copy of the cached listing.
func (s *Store) Projects() []Project {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Project(nil), s.projects...)
}

// Current returns a copy of the selected project, or nil.
func (s *Store) Current() *Project {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return nil
	}
	p := *s.current
	return &p
}

// View returns the view the cache is currently scoped to.
func (s *Store) View() View {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.view
}

// Stats returns the last fetched collection stats, or nil.
func (s *Store) Stats() *Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.stats == nil {
		return nil
	}
	st := *s.stats
	return &st
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

// FetchActive replaces the cache with the server's active-project listing.
// Last writer wins; there is no merge with in-flight local edits.
func (s *Store) FetchActive(ctx context.Context) ([]Project, error) {
	return s.fetch(ctx, ViewActive)
}

// FetchAll replaces the cache with the server's full listing.
func (s *Store) FetchAll(ctx context.Context) ([]Project, error) {
	return s.fetch(ctx, ViewAll)
}

func (s *Store) fetch(ctx context.Context, view View) ([]Project, error) {
	var (
		projects []Project
		err      error
	)
	if view == ViewActive {
		projects, err = s.api.ActiveProjects(ctx)
	} else {
		projects, err = s.api.AllProjects(ctx)
	}
	if err != nil {
		return nil, s.fail(err, "Failed to fetch projects")
	}

	s.mu.Lock()
	s.view = view
	s.projects = projects
	s.lastErr = ""
	s.mu.Unlock()

	return append([]Project(nil), projects...), nil
}

// Create asks the backend to create a project. On success the returned
// record is inserted at the head of the cache only if it matches the
// current view; on failure the cache is untouched.
func (s *Store) Create(ctx context.Context, req Request) (*Project, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, ErrInvalidInput
	}

	created, err := s.api.CreateProject(ctx, req)
	if err != nil {
		return nil, s.fail(err, "Failed to create project")
	}

	s.mu.Lock()
	if s.view.Matches(*created) {
		s.projects = append([]Project{*created}, s.projects...)
	}
	s.lastErr = ""
	s.mu.Unlock()

	s.record(ctx, activity.TypeProjectCreated, "created project "+created.Name)
	s.notifier.Success("Project created successfully")
	s.refreshStats(ctx)
	return created, nil
}

// Update asks the backend to update a project and reconciles the cache with
// the confirmed result: moved into or out of the view atomically with the
// mutation's success. The current selection follows the same rule.
func (s *Store) Update(ctx context.Context, id string, req Request) (*Project, error) {
	updated, err := s.api.UpdateProject(ctx, id, req)
	if err != nil {
		return nil, s.fail(err, "Failed to update project")
	}

	if err := s.reconcile(ctx, *updated); err != nil {
		return nil, err
	}

	s.record(ctx, activity.TypeProjectUpdated, "updated project "+updated.Name)
	s.notifier.Success("Project updated successfully")
	s.refreshStats(ctx)
	return updated, nil
}

// Delete asks the backend to delete a project, then removes it from the
// cache and clears the current selection if it pointed at it.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := s.api.DeleteProject(ctx, id); err != nil {
		return s.fail(err, "Failed to delete project")
	}

	s.mu.Lock()
	s.projects = Remove(s.projects, id)
	clearCurrent := s.current != nil && s.current.ID == id
	if clearCurrent {
		s.current = nil
	}
	s.lastErr = ""
	s.mu.Unlock()

	if clearCurrent {
		if err := s.state.Delete(ctx, slotCurrentProject); err != nil {
			s.logger.Error("failed to clear current project", "error", err)
		}
	}

	s.record(ctx, activity.TypeProjectDeleted, "deleted project "+id)
	s.notifier.Success("Project deleted successfully")
	s.refreshStats(ctx)
	return nil
}

// Archive flips a project out of the active set. The confirmed record's
// status is applied in place rather than refetching the listing.
func (s *Store) Archive(ctx context.Context, id string) (*Project, error) {
	archived, err := s.api.ArchiveProject(ctx, id)
	if err != nil {
		return nil, s.fail(err, "Failed to archive project")
	}

	if err := s.reconcile(ctx, *archived); err != nil {
		return nil, err
	}

	s.record(ctx, activity.TypeProjectArchived, "archived project "+archived.Name)
	s.notifier.Success("Project archived successfully")
	s.refreshStats(ctx)
	return archived, nil
}

// Restore flips a project back into the active set.
func (s *Store) Restore(ctx context.Context, id string) (*Project, error) {
	restored, err := s.api.RestoreProject(ctx, id)
	if err != nil {
		return nil, s.fail(err, "Failed to restore project")
	}

	if err := s.reconcile(ctx, *restored); err != nil {
		return nil, err
	}

	s.record(ctx, activity.TypeProjectRestored, "restored project "+restored.Name)
	s.notifier.Success("Project restored successfully")
	s.refreshStats(ctx)
	return restored, nil
}

// Search queries the backend directly. Read-only; the cache is untouched.
func (s *Store) Search(ctx context.Context, query string) ([]Project, error) {
	results, err := s.api.SearchProjects(ctx, query)
	if err != nil {
		return nil, s.fail(err, "Failed to search projects")
	}
	return results, nil
}

// FetchStats refreshes the collection stats.
func (s *Store) FetchStats(ctx context.Context) (*Stats, error) {
	stats, err := s.api.ProjectStats(ctx)
	if err != nil {
		return nil, s.fail(err, "Failed to fetch project statistics")
	}

	s.mu.Lock()
	s.stats = stats
	s.mu.Unlock()
	return stats, nil
}

// Stages lists a project's Snowflake stage metadata. Read-only; stage
// listings are never cached, the backend's records are always consulted.
func (s *Store) Stages(ctx context.Context, id string) ([]SnowflakeStage, error) {
	stages, err := s.api.ProjectStages(ctx, id)
	if err != nil {
		return nil, s.fail(err, "Failed to fetch project stages")
	}
	return stages, nil
}

// RefreshStages asks the backend to re-read the project's stages from
// Snowflake and returns the updated listing.
func (s *Store) RefreshStages(ctx context.Context, id string) ([]SnowflakeStage, error) {
	stages, err := s.api.RefreshProjectStages(ctx, id)
	if err != nil {
		return nil, s.fail(err, "Failed to refresh stages from Snowflake")
	}
	return stages, nil
}

// ActiveCount returns the number of active projects. Read-only.
func (s *Store) ActiveCount(ctx context.Context) (int, error) {
	count, err := s.api.ActiveProjectCount(ctx)
	if err != nil {
		return 0, s.fail(err, "Failed to count projects")
	}
	return count, nil
}

// SetCurrent selects a project locally. No network call; the selection is
// persisted so it survives restarts.
func (s *Store) SetCurrent(ctx context.Context, p *Project) error {
	s.mu.Lock()
	if p == nil {
		s.current = nil
	} else {
		cp := *p
		s.current = &cp
	}
	s.mu.Unlock()

	if p == nil {
		return s.state.Delete(ctx, slotCurrentProject)
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encoding current project: %w", err)
	}
	return s.state.Put(ctx, slotCurrentProject, string(raw))
}

// reconcile applies a confirmed mutation result to the cache and the
// current selection.
func (s *Store) reconcile(ctx context.Context, updated Project) error {
	s.mu.Lock()
	s.projects = Apply(s.projects, s.view, updated)
	inView := s.view.Matches(updated)
	var persistCurrent, clearCurrent bool
	if s.current != nil && s.current.ID == updated.ID {
		if inView {
			cp := updated
			s.current = &cp
			persistCurrent = true
		} else {
			s.current = nil
			clearCurrent = true
		}
	}
	s.lastErr = ""
	s.mu.Unlock()

	if clearCurrent {
		if err := s.state.Delete(ctx, slotCurrentProject); err != nil {
			s.logger.Error("failed to clear current project", "error", err)
		}
	}
	if persistCurrent {
		raw, err := json.Marshal(updated)
		if err != nil {
			return fmt.Errorf("encoding current project: %w", err)
		}
		if err := s.state.Put(ctx, slotCurrentProject, string(raw)); err != nil {
			s.logger.Error("failed to persist current project", "error", err)
		}
	}
	return nil
}

// refreshStats updates the stats panel after a mutation. Best effort: a
// stats failure must not fail the mutation that succeeded.
func (s *Store) refreshStats(ctx context.Context) {
	stats, err := s.api.ProjectStats(ctx)
	if err != nil {
		s.logger.Warn("failed to refresh project stats", "error", err)
		return
	}
	s.mu.Lock()
	s.stats = stats
	s.mu.Unlock()
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
