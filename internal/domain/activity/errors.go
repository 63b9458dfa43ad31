package activity

import "errors"

// ErrInvalidRange is returned when a period ends before it starts.
var ErrInvalidRange = errors.New("invalid range")
