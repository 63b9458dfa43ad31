package service

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/youss97/transportBackend/internal/adapters/cache"
	eventqueue "github.com/youss97/transportBackend/internal/adapters/mq/queue"
	workerpool "github.com/youss97/transportBackend/internal/adapters/mq/worker"
	"github.com/youss97/transportBackend/internal/domain/model"
	"github.com/youss97/transportBackend/internal/domain/operations"
	"github.com/youss97/transportBackend/internal/domain/types"
	"github.com/youss97/transportBackend/pkg/logger"
	"github.com/youss97/transportBackend/pkg/metrics"
)

// observe records latency, outcome and size of one report call.
func observe[T any](ctx context.Context, log logger.Logger, report string, start time.Time, v T, rows int, err error) (T, error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
		log.Debug(ctx, "report failed", logger.String("report", report), logger.Error(err))
	}
	metrics.RecordReport(report, outcome, float64(time.Since(start).Milliseconds()), rows)
	return v, err
}

// DailyAttendance reconciles one driver's day.
func (s *Service) DailyAttendance(ctx context.Context, driverID, companyID string, day time.Time) (types.DailyAttendance, error) {
	start := time.Now()
	row, err := s.attendance.DailyReport(ctx, driverID, companyID, day)
	return observe(ctx, s.logger, "attendance_daily", start, row, 1, err)
}

// MonthlyAttendance returns one row per day of the month for a driver.
func (s *Service) MonthlyAttendance(ctx context.Context, driverID, companyID string, year, month int, siteID string) ([]types.DailyAttendance, error) {
	start := time.Now()
	key := fmt.Sprintf("attendance_monthly/%s/%s/%04d-%02d/site=%s", companyID, driverID, year, month, siteID)
	rows, err := cache.Fetch(ctx, s.cache, "attendance_monthly", key, func() ([]types.DailyAttendance, error) {
		return s.attendance.MonthlyReport(ctx, driverID, companyID, year, month, siteID)
	})
	return observe(ctx, s.logger, "attendance_monthly", start, rows, len(rows), err)
}

// CompanyAttendance builds the monthly report of every company driver on the
// worker pool. Rows are ordered by driver id. Submission waits for queue room;
// if a driver cannot be queued within the enqueue timeout the call fails with
// ErrBackpressure and jobs already queued still run.
func (s *Service) CompanyAttendance(ctx context.Context, companyID string, year, month int, siteID string) ([]types.DriverAttendance, error) {
	start := time.Now()
	rows, err := s.companyAttendance(ctx, companyID, year, month, siteID)
	return observe(ctx, s.logger, "attendance_company", start, rows, len(rows), err)
}

func (s *Service) companyAttendance(ctx context.Context, companyID string, year, month int, siteID string) ([]types.DriverAttendance, error) {
	s.mu.RLock()
	pool, started := s.workerPool, s.started
	s.mu.RUnlock()
	if !started {
		return nil, ErrNotStarted
	}

	drivers, err := s.store.ListDrivers(ctx, companyID)
	if err != nil {
		return nil, err
	}
	slices.SortFunc(drivers, func(a, b model.Driver) int { return cmp.Compare(a.ID, b.ID) })

	batch := uuid.NewString()
	reply := make(chan eventqueue.Result, len(drivers))
	index := make(map[string]int, len(drivers))
	for i, d := range drivers {
		jobID := batch + "/" + d.ID
		index[jobID] = i
		driverID := d.ID
		// The request context governs the report, not the worker's.
		job := eventqueue.Job{ID: jobID, Reply: reply, Run: func(context.Context) (any, error) {
			return s.MonthlyAttendance(ctx, driverID, companyID, year, month, siteID)
		}}
		if err := s.submit(ctx, pool, job); err != nil {
			if errors.Is(err, ErrBackpressure) {
				return nil, fmt.Errorf("%w: %d of %d drivers queued", err, i, len(drivers))
			}
			return nil, err
		}
	}

	days := make([][]types.DailyAttendance, len(drivers))
	errs := make([]error, len(drivers))
	for range drivers {
		select {
		case res := <-reply:
			i := index[res.JobID]
			errs[i] = res.Err
			if res.Err == nil {
				days[i], _ = res.Value.([]types.DailyAttendance)
			}
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	out := make([]types.DriverAttendance, len(drivers))
	for i, d := range drivers {
		out[i] = summarize(d.ID, d.FullName(), days[i])
	}
	return out, nil
}

// submit waits up to the enqueue timeout for room in the queue, so a company
// larger than the queue still goes through while workers keep up.
func (s *Service) submit(ctx context.Context, pool *workerpool.Pool, job eventqueue.Job) error {
	waitCtx, cancel := context.WithTimeout(ctx, s.enqueueTimeout)
	defer cancel()

	err := pool.SubmitWait(waitCtx, job)
	switch {
	case err == nil:
		return nil
	case ctx.Err() != nil:
		return ctx.Err()
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %w", ErrBackpressure, eventqueue.ErrFull)
	case errors.Is(err, eventqueue.ErrClosed):
		return fmt.Errorf("%w: %w", ErrBackpressure, err)
	default:
		return err
	}
}

func summarize(driverID, name string, days []types.DailyAttendance) types.DriverAttendance {
	row := types.DriverAttendance{DriverID: driverID, Name: name, Days: days}
	worked := decimal.Zero
	for _, d := range days {
		worked = worked.Add(decimal.NewFromFloat(d.WorkedHours))
		if d.Absence {
			row.AbsentDays++
		}
		if d.Late {
			row.LateDays++
		}
	}
	row.WorkedHours = worked.Round(2).InexactFloat64()
	if row.Days == nil {
		row.Days = []types.DailyAttendance{}
	}
	return row
}

// Revenue aggregates priced operations per site and day.
func (s *Service) Revenue(ctx context.Context, scope operations.Scope) ([]types.RevenueRow, error) {
	start := time.Now()
	rows, err := cache.Fetch(ctx, s.cache, "revenue", "revenue/"+scope.Key(), func() ([]types.RevenueRow, error) {
		return s.operations.Revenue(ctx, scope)
	})
	return observe(ctx, s.logger, "revenue", start, rows, len(rows), err)
}

// Production aggregates tonnage per site and day.
func (s *Service) Production(ctx context.Context, scope operations.Scope) ([]types.ProductionRow, error) {
	start := time.Now()
	rows, err := cache.Fetch(ctx, s.cache, "production", "production/"+scope.Key(), func() ([]types.ProductionRow, error) {
		return s.operations.Production(ctx, scope)
	})
	return observe(ctx, s.logger, "production", start, rows, len(rows), err)
}

// DriverSummary aggregates operations per driver.
func (s *Service) DriverSummary(ctx context.Context, scope operations.Scope) ([]types.DriverSummary, error) {
	start := time.Now()
	rows, err := cache.Fetch(ctx, s.cache, "driver_summary", "drivers/"+scope.Key(), func() ([]types.DriverSummary, error) {
		return s.operations.DriverSummary(ctx, scope)
	})
	return observe(ctx, s.logger, "driver_summary", start, rows, len(rows), err)
}

// Ranking orders drivers by revenue. A positive limit keeps the top rows.
func (s *Service) Ranking(ctx context.Context, scope operations.Scope, limit int) ([]types.DriverRanking, error) {
	start := time.Now()
	rows, err := cache.Fetch(ctx, s.cache, "ranking", "ranking/"+scope.Key(), func() ([]types.DriverRanking, error) {
		return s.ranking.Rank(ctx, scope)
	})
	if err == nil && limit > 0 && limit < len(rows) {
		rows = rows[:limit]
	}
	return observe(ctx, s.logger, "ranking", start, rows, len(rows), err)
}

// Performance summarizes one driver's activity over [from, to].
func (s *Service) Performance(ctx context.Context, companyID, driverID string, from, to time.Time) (types.DriverPerformance, error) {
	start := time.Now()
	p, err := s.activity.Performance(ctx, companyID, driverID, from, to)
	return observe(ctx, s.logger, "performance", start, p, 1, err)
}

// FuelReport lists fuel fills over [from, to].
func (s *Service) FuelReport(ctx context.Context, companyID string, from, to time.Time) (types.FuelReport, error) {
	start := time.Now()
	r, err := s.activity.FuelReport(ctx, companyID, from, to)
	return observe(ctx, s.logger, "fuel", start, r, len(r.Lines), err)
}

// VehicleUtilization reports every company vehicle over [from, to].
func (s *Service) VehicleUtilization(ctx context.Context, companyID string, from, to time.Time) ([]types.VehicleUtilization, error) {
	start := time.Now()
	rows, err := s.activity.VehicleUtilization(ctx, companyID, from, to)
	return observe(ctx, s.logger, "utilization", start, rows, len(rows), err)
}
