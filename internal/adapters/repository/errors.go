package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrNotFound       = errors.New("not found")
	ErrDuplicateEvent = errors.New("duplicate event")
	ErrClosed         = errors.New("store closed")
)
