// Package model contains domain models passed between layers.
package model

import (
	"fmt"
	"strings"
	"time"
)

// EventType is the closed set of operational event kinds.
type EventType string

// Event types recorded by drivers and vehicles.
const (
	ClockIn      EventType = "CLOCK_IN"
	ClockOut     EventType = "CLOCK_OUT"
	BreakStart   EventType = "BREAK_START"
	BreakEnd     EventType = "BREAK_END"
	Loading      EventType = "LOADING"
	Unloading    EventType = "UNLOADING"
	Fuel         EventType = "FUEL"
	Incident     EventType = "INCIDENT"
	VehicleCheck EventType = "VEHICLE_CHECK"
)

var eventTypes = map[EventType]struct{}{ //nolint:gochecknoglobals // closed enumeration
	ClockIn: {}, ClockOut: {}, BreakStart: {}, BreakEnd: {},
	Loading: {}, Unloading: {}, Fuel: {}, Incident: {}, VehicleCheck: {},
}

// ParseEventType accepts one of the known event types, case-insensitively.
func ParseEventType(s string) (EventType, error) {
	t := EventType(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := eventTypes[t]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownEventType, s)
	}
	return t, nil
}

// AttendanceTypes are the events paired by the reconciler.
func AttendanceTypes() []EventType {
	return []EventType{ClockIn, ClockOut, BreakStart, BreakEnd}
}

// OperationalTypes are the events that carry tonnage.
func OperationalTypes() []EventType {
	return []EventType{Loading, Unloading}
}

// IsAttendance reports whether t is paired by the reconciler.
func (t EventType) IsAttendance() bool {
	switch t {
	case ClockIn, ClockOut, BreakStart, BreakEnd:
		return true
	default:
		return false
	}
}

// IsOperational reports whether t is a loading or unloading record.
func (t EventType) IsOperational() bool {
	return t == Loading || t == Unloading
}

// Event is one immutable timestamped driver or vehicle action.
type Event struct {
	ID        string    `json:"id"`
	CompanyID string    `json:"company_id"`
	DriverID  string    `json:"driver_id"`
	VehicleID string    `json:"vehicle_id,omitempty"`
	SiteID    string    `json:"site_id,omitempty"`
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`

	Kilometers   *float64 `json:"kilometers,omitempty"`
	Weight       *float64 `json:"weight,omitempty"` // tons
	FuelQuantity *float64 `json:"fuel_quantity,omitempty"`
	FuelPrice    *float64 `json:"fuel_price,omitempty"` // per liter
	FuelStation  string   `json:"fuel_station,omitempty"`
	Notes        string   `json:"notes,omitempty"`
}

// TimeResolution is the precision events are stored and compared at.
const TimeResolution = time.Millisecond

// At returns the timestamp truncated to TimeResolution.
func (e Event) At() time.Time {
	return e.Timestamp.Truncate(TimeResolution)
}

// Tons returns the recorded weight, or zero.
func (e Event) Tons() float64 {
	if e.Weight == nil {
		return 0
	}
	return *e.Weight
}

// Validate checks the fields every stored event must carry.
func (e Event) Validate() error {
	switch {
	case e.ID == "":
		return fmt.Errorf("%w: id", ErrMissingField)
	case e.CompanyID == "":
		return fmt.Errorf("%w: company_id", ErrMissingField)
	case e.DriverID == "":
		return fmt.Errorf("%w: driver_id", ErrMissingField)
	case e.Timestamp.IsZero():
		return fmt.Errorf("%w: timestamp", ErrMissingField)
	}
	if _, ok := eventTypes[e.Type]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownEventType, e.Type)
	}
	return nil
}

// Float returns a pointer to v, for optional numeric fields.
func Float(v float64) *float64 {
	return &v
}
