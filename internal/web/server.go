// Package web serves the dashboard's local HTTP surface over the domain
// stores. It is a thin layer: handlers decode input, call a store, and
// encode the result; all caching and reconciliation lives in the stores.
package web

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/datalens-ai/lens/internal/domain/activity"
	"github.com/datalens-ai/lens/internal/domain/blog"
	"github.com/datalens-ai/lens/internal/domain/project"
	"github.com/datalens-ai/lens/internal/domain/session"
)

// Server wires HTTP handlers over the stores.
type Server struct {
	sessions *session.Service
	projects *project.Store
	posts    *blog.Store
	activity *activity.Service
	logger   *slog.Logger
}

// NewServer creates the dashboard server.
func NewServer(
	sessions *session.Service,
	projects *project.Store,
	posts *blog.Store,
	activitySvc *activity.Service,
	logger *slog.Logger,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		sessions: sessions,
		projects: projects,
		posts:    posts,
		activity: activitySvc,
		logger:   logger,
	}
}

// Router builds the chi router with middleware.
func (s *Server) Router() *chi.Mux {
	r := chi.NewRouter()

	r.Use(RequestID)
	r.Use(Logging(s.logger))
	r.Use(Recoverer(s.logger))

	r.Get("/health", s.handleHealth)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", s.handleLogin)
		r.Post("/register", s.handleRegister)
		r.Post("/logout", s.handleLogout)
		r.Get("/session", s.handleSession)
		r.Post("/verify-email", s.handleVerifyEmail)
		r.Post("/password-reset/request", s.handlePasswordResetRequest)
		r.Post("/password-reset/confirm", s.handlePasswordResetConfirm)
	})

	r.Group(func(r chi.Router) {
		r.Use(s.requireSession)

		r.Route("/projects", func(r chi.Router) {
			r.Get("/", s.handleListProjects)
			r.Post("/", s.handleCreateProject)
			r.Get("/search", s.handleSearchProjects)
			r.Get("/stats", s.handleProjectStats)
			r.Get("/count", s.handleProjectCount)
			r.Get("/current", s.handleGetCurrentProject)
			r.Put("/current", s.handleSetCurrentProject)
			r.Delete("/current", s.handleClearCurrentProject)
			r.Put("/{id}", s.handleUpdateProject)
			r.Delete("/{id}", s.handleDeleteProject)
			r.Patch("/{id}/archive", s.handleArchiveProject)
			r.Patch("/{id}/restore", s.handleRestoreProject)
			r.Get("/{id}/stages", s.handleProjectStages)
			r.Post("/{id}/stages/refresh", s.handleRefreshProjectStages)
		})

		r.Route("/blog", func(r chi.Router) {
			r.Get("/posts", s.handlePublishedPosts)
			r.Post("/posts", s.handleCreatePost)
			r.Get("/my-posts", s.handleMyPosts)
			r.Post("/posts/{id}/submit", s.handleSubmitPost)
			r.Delete("/posts/{id}", s.handleDeletePost)
			r.Get("/admin/pending-posts", s.handlePendingPosts)
			r.Post("/admin/posts/{id}/approve", s.handleApprovePost)
			r.Post("/admin/posts/{id}/reject", s.handleRejectPost)
		})

		r.Get("/activity", s.handleActivity)
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
