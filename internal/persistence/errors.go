package persistence

import "errors"

// Sentinel errors returned by every Store implementation.
var (
	ErrNotFound  = errors.New("persistence: record not found")
	ErrDuplicate = errors.New("persistence: record already exists")
)
