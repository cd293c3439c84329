package activity

import "errors"

var (
	// ErrInvalidInput indicates an invalid activity entry.
	ErrInvalidInput = errors.New("invalid activity entry")
)
