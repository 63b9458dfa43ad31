// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/youss97/transportBackend/internal/domain/activity"
	"github.com/youss97/transportBackend/internal/domain/attendance"
	"github.com/youss97/transportBackend/internal/domain/calendar"
	"github.com/youss97/transportBackend/internal/domain/model"
	"github.com/youss97/transportBackend/internal/domain/operations"
	"github.com/youss97/transportBackend/internal/domain/types"
)

const defaultMaxRankingLimit = 1000

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	EventDependencies
	AttendanceDependencies
	OperationsDependencies
	ActivityDependencies
}

// AttendanceDependencies backs the /attendance routes.
type AttendanceDependencies interface {
	DailyAttendance(ctx context.Context, driverID, companyID string, day time.Time) (types.DailyAttendance, error)
	MonthlyAttendance(ctx context.Context, driverID, companyID string, year, month int, siteID string) ([]types.DailyAttendance, error)
	CompanyAttendance(ctx context.Context, companyID string, year, month int, siteID string) ([]types.DriverAttendance, error)
}

// OperationsDependencies backs the /operations and /ranking routes.
type OperationsDependencies interface {
	Revenue(ctx context.Context, scope operations.Scope) ([]types.RevenueRow, error)
	Production(ctx context.Context, scope operations.Scope) ([]types.ProductionRow, error)
	DriverSummary(ctx context.Context, scope operations.Scope) ([]types.DriverSummary, error)
	Ranking(ctx context.Context, scope operations.Scope, limit int) ([]types.DriverRanking, error)
}

// ActivityDependencies backs the /activity routes.
type ActivityDependencies interface {
	Performance(ctx context.Context, companyID, driverID string, from, to time.Time) (types.DriverPerformance, error)
	FuelReport(ctx context.Context, companyID string, from, to time.Time) (types.FuelReport, error)
	VehicleUtilization(ctx context.Context, companyID string, from, to time.Time) ([]types.VehicleUtilization, error)
}

// Option configures the Server.
type Option func(*Server)

// WithLocation sets the time zone query dates are read in.
func WithLocation(loc *time.Location) Option {
	return func(s *Server) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithMaxRankingLimit caps the limit accepted by /ranking.
func WithMaxRankingLimit(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxRankingLimit = n
		}
	}
}

// Server wires HTTP routes for the reporting API.
type Server struct {
	loc             *time.Location
	maxRankingLimit int

	healthHandler     *HealthHandler
	statsHandler      *StatsHandler
	eventsHandler     *EventsHandler
	attendanceHandler *AttendanceHandler
	operationsHandler *OperationsHandler
	activityHandler   *ActivityHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	s := &Server{loc: time.UTC, maxRankingLimit: defaultMaxRankingLimit}
	for _, opt := range opts {
		opt(s)
	}
	s.healthHandler = NewHealthHandler()
	s.statsHandler = NewStatsHandler(statsProvider)
	s.eventsHandler = NewEventsHandler(deps)
	s.attendanceHandler = NewAttendanceHandler(deps, s.loc)
	s.operationsHandler = NewOperationsHandler(deps, s.maxRankingLimit)
	s.activityHandler = NewActivityHandler(deps, s.loc)
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/events", MetricsMiddleware(s.eventsHandler.HandlePostEvent, "events"))

	mux.HandleFunc("/attendance/daily", MetricsMiddleware(s.attendanceHandler.HandleDaily, "attendance_daily"))
	mux.HandleFunc("/attendance/monthly", MetricsMiddleware(s.attendanceHandler.HandleMonthly, "attendance_monthly"))
	mux.HandleFunc("/attendance/company", MetricsMiddleware(s.attendanceHandler.HandleCompany, "attendance_company"))

	mux.HandleFunc("/operations/revenue", MetricsMiddleware(s.operationsHandler.HandleRevenue, "revenue"))
	mux.HandleFunc("/operations/production", MetricsMiddleware(s.operationsHandler.HandleProduction, "production"))
	mux.HandleFunc("/operations/drivers", MetricsMiddleware(s.operationsHandler.HandleDriverSummary, "driver_summary"))
	mux.HandleFunc("/ranking", MetricsMiddleware(s.operationsHandler.HandleRanking, "ranking"))

	mux.HandleFunc("/activity/performance", MetricsMiddleware(s.activityHandler.HandlePerformance, "performance"))
	mux.HandleFunc("/activity/fuel", MetricsMiddleware(s.activityHandler.HandleFuel, "fuel"))
	mux.HandleFunc("/activity/utilization", MetricsMiddleware(s.activityHandler.HandleUtilization, "utilization"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeFailure maps a report error onto a status and error code.
func writeFailure(w http.ResponseWriter, op string, err error) {
	var verr validator.ValidationErrors
	switch {
	case errors.As(err, &verr),
		errors.Is(err, ErrBadRequest),
		errors.Is(err, operations.ErrInvalidScope),
		errors.Is(err, attendance.ErrInvalidPeriod),
		errors.Is(err, calendar.ErrInvalidDay),
		errors.Is(err, activity.ErrInvalidRange),
		errors.Is(err, model.ErrMissingField),
		errors.Is(err, model.ErrUnknownEventType):
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
	case errors.Is(err, attendance.ErrConfigurationMissing):
		writeError(w, http.StatusUnprocessableEntity, "configuration_missing", Wrap(op, err))
	case errors.Is(err, attendance.ErrInvalidSchedule):
		writeError(w, http.StatusUnprocessableEntity, "invalid_schedule", Wrap(op, err))
	case errors.Is(err, ErrBackpressure):
		writeError(w, http.StatusTooManyRequests, "backpressure", Wrap(op, err))
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
	}
}
