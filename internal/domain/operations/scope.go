package operations

import (
	"fmt"
	"time"

	"github.com/youss97/transportBackend/internal/domain/calendar"
)

// Scope selects the operational records of one company over a month, or over
// a single day when Day is set. SiteID optionally narrows to one site.
type Scope struct {
	CompanyID string
	Year      int
	Month     int
	SiteID    string
	Day       string // YYYY-MM-DD, overrides Year and Month
}

// Window resolves the scope's inclusive time range in loc.
func (s Scope) Window(loc *time.Location) (calendar.Window, error) {
	if s.CompanyID == "" {
		return calendar.Window{}, fmt.Errorf("%w: company is required", ErrInvalidScope)
	}
	if s.Day != "" {
		d, err := calendar.ParseDay(s.Day, loc)
		if err != nil {
			return calendar.Window{}, fmt.Errorf("%w: %w", ErrInvalidScope, err)
		}
		return calendar.Day(d, loc), nil
	}
	w, err := calendar.Month(s.Year, s.Month, loc)
	if err != nil {
		return calendar.Window{}, fmt.Errorf("%w: %w", ErrInvalidScope, err)
	}
	return w, nil
}

// Key is a stable string for the scope, used for cache keys and logs.
func (s Scope) Key() string {
	if s.Day != "" {
		return fmt.Sprintf("%s/day=%s/site=%s", s.CompanyID, s.Day, s.SiteID)
	}
	return fmt.Sprintf("%s/%04d-%02d/site=%s", s.CompanyID, s.Year, s.Month, s.SiteID)
}
