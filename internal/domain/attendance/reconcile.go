// Package attendance derives worked and break hours from clock and break events.
package attendance

import (
	"slices"
	"time"

	"github.com/youss97/transportBackend/internal/domain/calendar"
	"github.com/youss97/transportBackend/internal/domain/model"
	"github.com/youss97/transportBackend/internal/domain/rounding"
	"github.com/youss97/transportBackend/internal/domain/types"
)

// Reason explains why an attendance event did not close an interval.
type Reason string

const (
	ReasonOrphanClockOut        Reason = "orphan_clock_out"
	ReasonOrphanBreakEnd        Reason = "orphan_break_end"
	ReasonOverwrittenClockIn    Reason = "overwritten_clock_in"
	ReasonOverwrittenBreakStart Reason = "overwritten_break_start"
	ReasonDanglingClockIn       Reason = "dangling_clock_in"
	ReasonDanglingBreakStart    Reason = "dangling_break_start"
)

// Outcome tags one attendance event of the day as paired or unmatched.
type Outcome struct {
	Event  model.Event
	Paired bool
	Reason Reason // empty when Paired
}

// DayResult is the exact, unrounded reconciliation of one driver-day.
type DayResult struct {
	Day      time.Time // midnight in the reconciliation location
	Total    time.Duration
	Break    time.Duration
	Breaks   []types.Break
	Outcomes []Outcome

	// FirstClockIn is the earliest CLOCK_IN of the day, zero if none.
	FirstClockIn time.Time
}

// Worked is Total minus Break. It is negative when breaks were recorded
// outside any clocked interval.
func (r DayResult) Worked() time.Duration {
	return r.Total - r.Break
}

// HasEvents reports whether any attendance event fell on the day.
func (r DayResult) HasEvents() bool {
	return len(r.Outcomes) > 0
}

// Unmatched returns the outcomes that did not contribute to an interval.
func (r DayResult) Unmatched() []Outcome {
	var out []Outcome
	for _, o := range r.Outcomes {
		if !o.Paired {
			out = append(out, o)
		}
	}
	return out
}

// Row converts r into a rounded report row. Absence and lateness are left
// for the caller to decide.
func (r DayResult) Row(driverID string, loc *time.Location) types.DailyAttendance {
	breaks := r.Breaks
	if breaks == nil {
		breaks = []types.Break{}
	}
	return types.DailyAttendance{
		DriverID:    driverID,
		Date:        calendar.DayKey(r.Day, loc),
		TotalHours:  rounding.Hours(r.Total),
		BreakHours:  rounding.Hours(r.Break),
		WorkedHours: rounding.Hours(r.Worked()),
		Breaks:      breaks,
	}
}

// cursor is an open interval start, set by CLOCK_IN or BREAK_START.
type cursor struct {
	at  int // index into outcomes
	set bool
}

// ReconcileDay pairs the attendance events of one driver on the calendar day
// containing day, in loc. The input may be unsorted and may contain other
// event types or other days; those are ignored. The input slice is not modified.
//
// A CLOCK_IN opens the clock interval and a CLOCK_OUT closes it; BREAK_START
// and BREAK_END do the same for breaks. A second opener before the closer
// replaces the first one. Closers without an opener and openers still open at
// the end of the day are reported as unmatched and contribute nothing.
func ReconcileDay(events []model.Event, day time.Time, loc *time.Location) DayResult {
	window := calendar.Day(day, loc)
	res := DayResult{Day: window.From}

	sorted := make([]model.Event, 0, len(events))
	for _, e := range events {
		e.Timestamp = e.At()
		if e.Type.IsAttendance() && window.Contains(e.Timestamp) {
			sorted = append(sorted, e)
		}
	}
	slices.SortStableFunc(sorted, func(a, b model.Event) int { return a.Timestamp.Compare(b.Timestamp) })

	res.Outcomes = make([]Outcome, len(sorted))
	var clock, brk cursor

	open := func(c *cursor, i int, overwritten Reason) {
		if c.set {
			res.Outcomes[c.at].Reason = overwritten
		}
		*c = cursor{at: i, set: true}
	}

	for i, e := range sorted {
		res.Outcomes[i] = Outcome{Event: e}
		switch e.Type {
		case model.ClockIn:
			if res.FirstClockIn.IsZero() {
				res.FirstClockIn = e.Timestamp
			}
			open(&clock, i, ReasonOverwrittenClockIn)
		case model.ClockOut:
			if !clock.set {
				res.Outcomes[i].Reason = ReasonOrphanClockOut
				continue
			}
			res.Total += e.Timestamp.Sub(sorted[clock.at].Timestamp)
			res.Outcomes[clock.at].Paired = true
			res.Outcomes[i].Paired = true
			clock = cursor{}
		case model.BreakStart:
			open(&brk, i, ReasonOverwrittenBreakStart)
		case model.BreakEnd:
			if !brk.set {
				res.Outcomes[i].Reason = ReasonOrphanBreakEnd
				continue
			}
			start := sorted[brk.at].Timestamp
			res.Break += e.Timestamp.Sub(start)
			res.Breaks = append(res.Breaks, types.Break{Start: start, End: e.Timestamp})
			res.Outcomes[brk.at].Paired = true
			res.Outcomes[i].Paired = true
			brk = cursor{}
		}
	}

	if clock.set {
		res.Outcomes[clock.at].Reason = ReasonDanglingClockIn
	}
	if brk.set {
		res.Outcomes[brk.at].Reason = ReasonDanglingBreakStart
	}
	return res
}
