package queue

import "errors"

// Sentinel errors for submitters that need more than Enqueue's bool.
var (
	ErrFull   = errors.New("queue full")
	ErrClosed = errors.New("queue closed")
)
