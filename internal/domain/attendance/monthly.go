package attendance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/youss97/transportBackend/internal/adapters/repository"
	"github.com/youss97/transportBackend/internal/domain/calendar"
	"github.com/youss97/transportBackend/internal/domain/model"
	"github.com/youss97/transportBackend/internal/domain/types"
	"github.com/youss97/transportBackend/pkg/logger"
	"github.com/youss97/transportBackend/pkg/metrics"
)

// Store is the subset of the event and reference stores the reporter reads.
type Store interface {
	ListEvents(ctx context.Context, f repository.EventFilter) ([]model.Event, error)
	GetSchedule(ctx context.Context, companyID string) (model.CompanySchedule, error)
}

// UnmatchedHook receives the unmatched outcomes of one driver-day.
// It is called only when there is at least one.
type UnmatchedHook func(ctx context.Context, driverID string, day time.Time, unmatched []Outcome)

// Option applies a configuration option to the Reporter.
type Option func(*Reporter)

// WithLocation sets the time zone used for day boundaries and schedule times.
func WithLocation(loc *time.Location) Option {
	return func(r *Reporter) {
		if loc != nil {
			r.loc = loc
		}
	}
}

// WithUnmatchedHook replaces the default hook, which logs at debug level and
// counts each unmatched event by reason.
func WithUnmatchedHook(h UnmatchedHook) Option {
	return func(r *Reporter) {
		if h != nil {
			r.onUnmatched = h
		}
	}
}

// Reporter builds daily and monthly attendance rows for a driver.
type Reporter struct {
	store       Store
	loc         *time.Location
	onUnmatched UnmatchedHook
}

// NewReporter creates a Reporter reading from store.
func NewReporter(store Store, opts ...Option) *Reporter {
	r := &Reporter{
		store:       store,
		loc:         time.UTC,
		onUnmatched: logUnmatched,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Location returns the reporter's time zone.
func (r *Reporter) Location() *time.Location {
	return r.loc
}

// MonthlyReport returns one row per calendar day of year/month, ascending.
// When siteID is set only events recorded at that site are considered.
// Returns ErrConfigurationMissing if the company has no schedule.
func (r *Reporter) MonthlyReport(ctx context.Context, driverID, companyID string, year, month int, siteID string) ([]types.DailyAttendance, error) {
	days, err := calendar.Days(year, month, r.loc)
	if err != nil {
		return nil, err
	}

	schedule, err := r.store.GetSchedule(ctx, companyID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("%w: no schedule for company %s", ErrConfigurationMissing, companyID)
	}
	if err != nil {
		return nil, err
	}
	if _, err := calendar.ClockOn(days[0], schedule.WorkStartHour, r.loc); err != nil {
		return nil, fmt.Errorf("%w: company %s: %w", ErrInvalidSchedule, companyID, err)
	}

	window, err := calendar.Month(year, month, r.loc)
	if err != nil {
		return nil, err
	}
	events, err := r.store.ListEvents(ctx, repository.EventFilter{
		CompanyID: companyID,
		DriverID:  driverID,
		SiteID:    siteID,
		Types:     model.AttendanceTypes(),
		From:      window.From,
		To:        window.To,
	})
	if err != nil {
		return nil, err
	}

	byDay := make(map[string][]model.Event, len(days))
	for _, e := range events {
		key := calendar.DayKey(e.Timestamp, r.loc)
		byDay[key] = append(byDay[key], e)
	}

	rows := make([]types.DailyAttendance, len(days))
	for i, day := range days {
		res := ReconcileDay(byDay[calendar.DayKey(day, r.loc)], day, r.loc)
		r.report(ctx, driverID, res)
		rows[i] = r.scheduledRow(driverID, res, schedule)
	}
	return rows, nil
}

// DailyReport reconciles a single day without consulting the schedule.
// Late is always false.
func (r *Reporter) DailyReport(ctx context.Context, driverID, companyID string, day time.Time) (types.DailyAttendance, error) {
	window := calendar.Day(day, r.loc)
	events, err := r.store.ListEvents(ctx, repository.EventFilter{
		CompanyID: companyID,
		DriverID:  driverID,
		Types:     model.AttendanceTypes(),
		From:      window.From,
		To:        window.To,
	})
	if err != nil {
		return types.DailyAttendance{}, err
	}
	res := ReconcileDay(events, day, r.loc)
	r.report(ctx, driverID, res)

	row := res.Row(driverID, r.loc)
	row.Absence = !res.HasEvents()
	return row, nil
}

func (r *Reporter) scheduledRow(driverID string, res DayResult, schedule model.CompanySchedule) types.DailyAttendance {
	if !res.HasEvents() {
		row := DayResult{Day: res.Day}.Row(driverID, r.loc)
		row.Absence = true
		return row
	}

	// The allowance stands in for breaks nobody recorded. It never exceeds the
	// clocked time so worked hours stay non-negative.
	if len(res.Breaks) == 0 && res.Total > 0 && schedule.TotalBreakHours != nil && *schedule.TotalBreakHours > 0 {
		allowance := time.Duration(*schedule.TotalBreakHours * float64(time.Hour))
		res.Break = min(allowance, res.Total)
	}

	row := res.Row(driverID, r.loc)
	if !res.FirstClockIn.IsZero() {
		// Already validated against the first day of the month.
		start, _ := calendar.ClockOn(res.Day, schedule.WorkStartHour, r.loc)
		row.Late = res.FirstClockIn.After(start)
	}
	return row
}

func (r *Reporter) report(ctx context.Context, driverID string, res DayResult) {
	if unmatched := res.Unmatched(); len(unmatched) > 0 {
		r.onUnmatched(ctx, driverID, res.Day, unmatched)
	}
}

func logUnmatched(ctx context.Context, driverID string, day time.Time, unmatched []Outcome) {
	log := logger.Named("attendance")
	for _, o := range unmatched {
		metrics.RecordUnmatchedEvent(string(o.Reason))
		log.Debug(ctx, "unmatched attendance event",
			logger.String("driver_id", driverID),
			logger.Time("day", day),
			logger.String("event_id", o.Event.ID),
			logger.String("reason", string(o.Reason)),
		)
	}
}
