package model

import "errors"

var (
	ErrUnknownEventType = errors.New("unknown event type")
	ErrMissingField     = errors.New("missing required field")
)
