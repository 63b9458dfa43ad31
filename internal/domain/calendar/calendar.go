// Package calendar computes day and month windows in a given location.
//
// A window is inclusive on both ends: [start, start+1 period - 1ms]. Event
// timestamps are truncated to the millisecond before they are compared, so
// every instant of a day falls in exactly one window.
package calendar

import (
	"fmt"
	"time"
)

// DayLayout is the calendar-day key used in report rows and query parameters.
const DayLayout = "2006-01-02"

// Window is an inclusive time range.
type Window struct {
	From time.Time
	To   time.Time
}

// Contains reports whether t falls inside w, bounds included.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.From) && !t.After(w.To)
}

// Month returns the window covering year/month in loc.
func Month(year, month int, loc *time.Location) (Window, error) {
	if err := checkPeriod(year, month); err != nil {
		return Window{}, err
	}
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, loc)
	return Window{From: start, To: start.AddDate(0, 1, 0).Add(-time.Millisecond)}, nil
}

// Day returns the window of the calendar day containing t in loc.
func Day(t time.Time, loc *time.Location) Window {
	start := StartOfDay(t, loc)
	return Window{From: start, To: start.AddDate(0, 0, 1).Add(-time.Millisecond)}
}

// StartOfDay returns midnight of the day containing t in loc.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// ParseDay parses a YYYY-MM-DD key as midnight in loc.
func ParseDay(s string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(DayLayout, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDay, s)
	}
	return t, nil
}

// DayKey formats the calendar day of t in loc.
func DayKey(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(DayLayout)
}

// DaysInMonth returns the number of days of year/month.
func DaysInMonth(year, month int) int {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// Days returns midnight of every day of year/month in loc, in order.
func Days(year, month int, loc *time.Location) ([]time.Time, error) {
	if err := checkPeriod(year, month); err != nil {
		return nil, err
	}
	n := DaysInMonth(year, month)
	days := make([]time.Time, n)
	for i := range days {
		days[i] = time.Date(year, time.Month(month), i+1, 0, 0, 0, 0, loc)
	}
	return days, nil
}

// ClockOn applies an "HH:mm" wall-clock time to the calendar date of day.
func ClockOn(day time.Time, hhmm string, loc *time.Location) (time.Time, error) {
	clock, err := time.Parse("15:04", hhmm)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidClock, hhmm)
	}
	d := day.In(loc)
	return time.Date(d.Year(), d.Month(), d.Day(), clock.Hour(), clock.Minute(), 0, 0, loc), nil
}

func checkPeriod(year, month int) error {
	if month < 1 || month > 12 {
		return fmt.Errorf("%w: month %d", ErrInvalidPeriod, month)
	}
	if year < 1 || year > 9999 {
		return fmt.Errorf("%w: year %d", ErrInvalidPeriod, year)
	}
	return nil
}
