// Package repository provides the event and reference stores the reports read from.
package repository

import (
	"context"
	"slices"
	"time"

	"github.com/youss97/transportBackend/internal/domain/model"
)

// EventFilter selects events for one company. Zero-valued fields do not filter.
// From and To are inclusive.
type EventFilter struct {
	CompanyID string
	DriverID  string
	VehicleID string
	SiteID    string
	Types     []model.EventType
	From      time.Time
	To        time.Time
}

// Match reports whether e satisfies f.
func (f EventFilter) Match(e model.Event) bool {
	switch {
	case e.CompanyID != f.CompanyID:
		return false
	case f.DriverID != "" && e.DriverID != f.DriverID:
		return false
	case f.VehicleID != "" && e.VehicleID != f.VehicleID:
		return false
	case f.SiteID != "" && e.SiteID != f.SiteID:
		return false
	case len(f.Types) > 0 && !slices.Contains(f.Types, e.Type):
		return false
	case !f.From.IsZero() && e.At().Before(f.From):
		return false
	case !f.To.IsZero() && e.At().After(f.To):
		return false
	}
	return true
}

// EventStore is the append-only event log.
type EventStore interface {
	// AppendEvent stores e. Returns ErrDuplicateEvent if e.ID exists.
	AppendEvent(ctx context.Context, e model.Event) error

	// ListEvents returns every matching event ordered by timestamp, then ID.
	// There is no pagination: reconciliation needs the complete set.
	ListEvents(ctx context.Context, f EventFilter) ([]model.Event, error)
}

// ReferenceStore serves company configuration and identities.
type ReferenceStore interface {
	// GetSchedule returns ErrNotFound when the company has no schedule.
	GetSchedule(ctx context.Context, companyID string) (model.CompanySchedule, error)
	ListSites(ctx context.Context, companyID string) ([]model.Site, error)
	ListDrivers(ctx context.Context, companyID string) ([]model.Driver, error)
	ListVehicles(ctx context.Context, companyID string) ([]model.Vehicle, error)
}

// Seeder writes reference data. Used by the seed tool and tests.
type Seeder interface {
	PutSchedule(ctx context.Context, s model.CompanySchedule) error
	PutSite(ctx context.Context, s model.Site) error
	PutDriver(ctx context.Context, d model.Driver) error
	PutVehicle(ctx context.Context, v model.Vehicle) error
}

// Stats is a point-in-time summary of a store.
type Stats struct {
	Events    int64 `json:"events"`
	Companies int64 `json:"companies"`
	Sites     int64 `json:"sites"`
	Drivers   int64 `json:"drivers"`
}

// Store is everything the service needs from persistence.
type Store interface {
	EventStore
	ReferenceStore
	Seeder

	Stats(ctx context.Context) (Stats, error)
	Close() error
}

func sortEvents(events []model.Event) {
	slices.SortStableFunc(events, func(a, b model.Event) int {
		if c := a.Timestamp.Compare(b.Timestamp); c != 0 {
			return c
		}
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})
}

func since(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000
}
