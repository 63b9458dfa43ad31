// Package seed generates a reproducible fleet, loads it into a store or a
// running service, and checks the service's ranking against the generated data.
package seed

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidConfig is returned by Config.Validate.
var ErrInvalidConfig = errors.New("invalid seed config")

// ErrRankingMismatch is returned when the served ranking differs from the
// ranking computed from the generated events.
var ErrRankingMismatch = errors.New("ranking mismatch")

// Defaults used by the seed-events command.
const (
	DefaultCompanyID = "demo-company"
	DefaultDrivers   = 12
	DefaultSites     = 3
	DefaultDays      = 20
	DefaultTimeout   = 10 * time.Second
)

// Config controls generation and submission.
type Config struct {
	BaseURL   string        // service to post events to; empty loads the store directly
	CompanyID string        // company all generated records belong to
	Drivers   int           // number of drivers, each with one vehicle
	Sites     int           // number of priced loading sites
	Year      int           // generated month
	Month     int           // generated month
	Days      int           // working days generated from the 2nd of the month
	Seed      uint64        // same seed, same fleet
	Workers   int           // concurrent HTTP submitters
	Timeout   time.Duration // per-request HTTP timeout
}

// Validate checks the generation bounds. Days start on the 2nd so that every
// generated instant stays inside the month in any time zone.
func (c Config) Validate() error {
	switch {
	case c.CompanyID == "":
		return fmt.Errorf("%w: company is required", ErrInvalidConfig)
	case c.Drivers <= 0:
		return fmt.Errorf("%w: drivers must be positive", ErrInvalidConfig)
	case c.Sites <= 0:
		return fmt.Errorf("%w: sites must be positive", ErrInvalidConfig)
	case c.Month < 1 || c.Month > 12:
		return fmt.Errorf("%w: month %d", ErrInvalidConfig, c.Month)
	case c.Year < 1970:
		return fmt.Errorf("%w: year %d", ErrInvalidConfig, c.Year)
	case c.Days <= 0 || c.Days > 26:
		return fmt.Errorf("%w: days must be within 1..26", ErrInvalidConfig)
	}
	return nil
}
