package web

import (
	"net/http"

	"github.com/datalens-ai/lens/internal/domain/session"
)

type sessionResponse struct {
	State         session.State `json:"state"`
	Authenticated bool          `json:"authenticated"`
	User          *session.User `json:"user,omitempty"`
}

func (s *Server) sessionPayload() sessionResponse {
	return sessionResponse{
		State:         s.sessions.Status(),
		Authenticated: s.sessions.IsAuthenticated(),
		User:          s.sessions.CurrentUser(),
	}
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeErrorCode(w, r, http.StatusBadRequest, "invalid_input", "Malformed request body")
		return
	}

	if err := s.sessions.Login(r.Context(), req.Email, req.Password); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.sessionPayload())
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Locale   string `json:"locale"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeErrorCode(w, r, http.StatusBadRequest, "invalid_input", "Malformed request body")
		return
	}

	if err := s.sessions.Register(r.Context(), req.Email, req.Password, req.Locale); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Logout(r.Context()); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.sessionPayload())
}

func (s *Server) handleVerifyEmail(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		writeErrorCode(w, r, http.StatusBadRequest, "invalid_input", "Missing verification token")
		return
	}
	if err := s.sessions.VerifyEmail(r.Context(), token); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handlePasswordResetRequest(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := decodeBody(r, &req); err != nil || req.Email == "" {
		writeErrorCode(w, r, http.StatusBadRequest, "invalid_input", "Missing email")
		return
	}
	if err := s.sessions.RequestPasswordReset(r.Context(), req.Email); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handlePasswordResetConfirm(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token       string `json:"token"`
		NewPassword string `json:"new_password"`
	}
	if err := decodeBody(r, &req); err != nil || req.Token == "" || req.NewPassword == "" {
		writeErrorCode(w, r, http.StatusBadRequest, "invalid_input", "Missing token or password")
		return
	}
	if err := s.sessions.ResetPassword(r.Context(), req.Token, req.NewPassword); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
