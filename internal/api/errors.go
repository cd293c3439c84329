package api

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrSessionExpired indicates the token refresh protocol failed
	// terminally. The stored pair has been cleared; the session is over.
	ErrSessionExpired = errors.New("session expired")
	// ErrUnauthorized indicates the backend rejected a request even after
	// a successful refresh and retry.
	ErrUnauthorized = errors.New("unauthorized")
)

const fallbackMessage = "An error occurred"

// Error is a typed failure decoded from a backend error response.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("api: %s (status %d)", e.Message, e.Status)
}

// UserMessage returns the backend-provided message, safe to show to the
// user.
func (e *Error) UserMessage() string {
	return e.Message
}

// errorBody covers the error envelopes the backend emits across endpoints.
type errorBody struct {
	Detail  string `json:"detail"`
	Err     string `json:"error"`
	Message string `json:"message"`
}

func decodeError(status int, body []byte) *Error {
	msg := fallbackMessage
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil {
		switch {
		case eb.Detail != "":
			msg = eb.Detail
		case eb.Err != "":
			msg = eb.Err
		case eb.Message != "":
			msg = eb.Message
		}
	}
	return &Error{Status: status, Message: msg}
}
