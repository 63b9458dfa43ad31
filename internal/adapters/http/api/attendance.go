package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/youss97/transportBackend/internal/domain/calendar"
)

// AttendanceHandler serves daily, monthly and company attendance.
type AttendanceHandler struct {
	deps AttendanceDependencies
	loc  *time.Location
}

// NewAttendanceHandler creates a new attendance handler.
func NewAttendanceHandler(deps AttendanceDependencies, loc *time.Location) *AttendanceHandler {
	return &AttendanceHandler{deps: deps, loc: loc}
}

// HandleDaily handles GET /attendance/daily?company_id=&driver_id=&date=YYYY-MM-DD.
func (h *AttendanceHandler) HandleDaily(w http.ResponseWriter, r *http.Request) {
	const op = "api.attendance_daily"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	q, err := parseDayQuery(r.URL.Query())
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	day, err := calendar.ParseDay(q.Date, h.loc)
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	row, err := h.deps.DailyAttendance(r.Context(), q.DriverID, q.CompanyID, day)
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, row)
}

// HandleMonthly handles GET /attendance/monthly?company_id=&driver_id=&year=&month=[&site_id=].
func (h *AttendanceHandler) HandleMonthly(w http.ResponseWriter, r *http.Request) {
	const op = "api.attendance_monthly"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	q, err := parseMonthQuery(r.URL.Query())
	if err == nil && q.DriverID == "" {
		err = fmt.Errorf("driver_id is required: %w", ErrBadRequest)
	}
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	rows, err := h.deps.MonthlyAttendance(r.Context(), q.DriverID, q.CompanyID, q.Year, q.Month, q.SiteID)
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// HandleCompany handles GET /attendance/company?company_id=&year=&month=[&site_id=].
func (h *AttendanceHandler) HandleCompany(w http.ResponseWriter, r *http.Request) {
	const op = "api.attendance_company"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	q, err := parseMonthQuery(r.URL.Query())
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	rows, err := h.deps.CompanyAttendance(r.Context(), q.CompanyID, q.Year, q.Month, q.SiteID)
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}
