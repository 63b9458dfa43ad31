package attendance

import (
	"errors"

	"github.com/youss97/transportBackend/internal/domain/calendar"
)

var (
	// ErrConfigurationMissing means the company has no schedule, so lateness cannot be computed.
	ErrConfigurationMissing = errors.New("configuration missing")
	// ErrInvalidSchedule means the company schedule has an unparsable HH:mm value.
	ErrInvalidSchedule = errors.New("invalid schedule")
	// ErrInvalidPeriod is returned for out-of-range years, months or day keys.
	ErrInvalidPeriod = calendar.ErrInvalidPeriod
)
