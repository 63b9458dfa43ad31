package operations

import "errors"

// ErrInvalidScope is returned when a Scope cannot be turned into a time window.
var ErrInvalidScope = errors.New("invalid scope")
