package calendar

import "errors"

var (
	ErrInvalidPeriod = errors.New("invalid period")
	ErrInvalidDay    = errors.New("invalid day")
	ErrInvalidClock  = errors.New("invalid clock time")
)
