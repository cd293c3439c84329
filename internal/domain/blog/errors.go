package blog

import "errors"

var (
	// ErrInvalidInput indicates invalid post input.
	ErrInvalidInput = errors.New("invalid post input")
)
