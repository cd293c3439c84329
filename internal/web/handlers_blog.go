package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/datalens-ai/lens/internal/domain/blog"
)

func (s *Server) handlePublishedPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := s.posts.FetchPublished(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, posts)
}

func (s *Server) handleMyPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := s.posts.FetchMine(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, posts)
}

func (s *Server) handleCreatePost(w http.ResponseWriter, r *http.Request) {
	var req blog.Request
	if err := decodeBody(r, &req); err != nil {
		writeErrorCode(w, r, http.StatusBadRequest, "invalid_input", "Malformed request body")
		return
	}

	created, err := s.posts.Create(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleSubmitPost(w http.ResponseWriter, r *http.Request) {
	submitted, err := s.posts.Submit(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, submitted)
}

func (s *Server) handleDeletePost(w http.ResponseWriter, r *http.Request) {
	if err := s.posts.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handlePendingPosts(w http.ResponseWriter, r *http.Request) {
	pending, err := s.posts.FetchPending(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pending)
}

func (s *Server) handleApprovePost(w http.ResponseWriter, r *http.Request) {
	approved, err := s.posts.Approve(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, approved)
}

func (s *Server) handleRejectPost(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Reason string `json:"reason"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeErrorCode(w, r, http.StatusBadRequest, "invalid_input", "Malformed request body")
		return
	}

	rejected, err := s.posts.Reject(r.Context(), chi.URLParam(r, "id"), req.Reason)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rejected)
}
