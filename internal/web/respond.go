package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/datalens-ai/lens/internal/api"
	"github.com/datalens-ai/lens/internal/domain/blog"
	"github.com/datalens-ai/lens/internal/domain/project"
	"github.com/datalens-ai/lens/internal/domain/session"
)

type errorEnvelope struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func writeErrorCode(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	writeJSON(w, status, errorEnvelope{Error: errorDetail{
		Code:      code,
		Message:   message,
		RequestID: RequestIDFromContext(r.Context()),
	}})
}

// writeError maps a store error onto the error envelope.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, session.ErrInvalidInput),
		errors.Is(err, project.ErrInvalidInput),
		errors.Is(err, blog.ErrInvalidInput):
		writeErrorCode(w, r, http.StatusBadRequest, "invalid_input", err.Error())
	case errors.Is(err, api.ErrSessionExpired):
		writeErrorCode(w, r, http.StatusUnauthorized, "session_expired", "Your session has expired. Please sign in again.")
	case errors.Is(err, api.ErrUnauthorized):
		writeErrorCode(w, r, http.StatusUnauthorized, "unauthorized", "Not authorized")
	default:
		var apiErr *api.Error
		if errors.As(err, &apiErr) {
			writeErrorCode(w, r, apiErr.Status, codeForStatus(apiErr.Status), apiErr.UserMessage())
			return
		}
		writeErrorCode(w, r, http.StatusInternalServerError, "internal", "An unexpected error occurred")
	}
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "invalid_input"
	case http.StatusUnauthorized:
		return "unauthorized"
	case http.StatusForbidden:
		return "forbidden"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusConflict:
		return "conflict"
	default:
		return "upstream_error"
	}
}

func decodeBody(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}
