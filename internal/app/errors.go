package service

import "errors"

var (
	// ErrBackpressure means the job queue could not take a whole fan-out.
	ErrBackpressure = errors.New("backpressure")
	// ErrNotStarted is returned by operations that need the worker pool before Start.
	ErrNotStarted = errors.New("service not started")
)
