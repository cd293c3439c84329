package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/datalens-ai/lens/internal/domain/project"
)

func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	var (
		projects []project.Project
		err      error
	)
	if r.URL.Query().Get("view") == string(project.ViewAll) {
		projects, err = s.projects.FetchAll(r.Context())
	} else {
		projects, err = s.projects.FetchActive(r.Context())
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, projects)
}

func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	var req project.Request
	if err := decodeBody(r, &req); err != nil {
		writeErrorCode(w, r, http.StatusBadRequest, "invalid_input", "Malformed request body")
		return
	}

	created, err := s.projects.Create(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateProject(w http.ResponseWriter, r *http.Request) {
	var req project.Request
	if err := decodeBody(r, &req); err != nil {
		writeErrorCode(w, r, http.StatusBadRequest, "invalid_input", "Malformed request body")
		return
	}

	updated, err := s.projects.Update(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteProject(w http.ResponseWriter, r *http.Request) {
	if err := s.projects.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleArchiveProject(w http.ResponseWriter, r *http.Request) {
	archived, err := s.projects.Archive(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, archived)
}

func (s *Server) handleRestoreProject(w http.ResponseWriter, r *http.Request) {
	restored, err := s.projects.Restore(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, restored)
}

func (s *Server) handleProjectStages(w http.ResponseWriter, r *http.Request) {
	stages, err := s.projects.Stages(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stages)
}

func (s *Server) handleRefreshProjectStages(w http.ResponseWriter, r *http.Request) {
	stages, err := s.projects.RefreshStages(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stages)
}

func (s *Server) handleSearchProjects(w http.ResponseWriter, r *http.Request) {
	results, err := s.projects.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

func (s *Server) handleProjectStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.projects.FetchStats(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleProjectCount(w http.ResponseWriter, r *http.Request) {
	count, err := s.projects.ActiveCount(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"count": count})
}

func (s *Server) handleGetCurrentProject(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]*project.Project{"current": s.projects.Current()})
}

func (s *Server) handleSetCurrentProject(w http.ResponseWriter, r *http.Request) {
	var p project.Project
	if err := decodeBody(r, &p); err != nil || p.ID == "" {
		writeErrorCode(w, r, http.StatusBadRequest, "invalid_input", "Missing project")
		return
	}
	if err := s.projects.SetCurrent(r.Context(), &p); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleClearCurrentProject(w http.ResponseWriter, r *http.Request) {
	if err := s.projects.SetCurrent(r.Context(), nil); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
