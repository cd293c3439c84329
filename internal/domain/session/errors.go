package session

import "errors"

var (
	// ErrNotAuthenticated indicates an operation that requires a signed-in
	// session was attempted without one.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrInvalidInput indicates invalid credentials input.
	ErrInvalidInput = errors.New("invalid session input")
)
