package api

import (
	"fmt"
	"net/http"
	"time"
)

// ActivityHandler serves driver performance, fuel and utilization reports.
type ActivityHandler struct {
	deps ActivityDependencies
	loc  *time.Location
}

// NewActivityHandler creates a new activity handler.
func NewActivityHandler(deps ActivityDependencies, loc *time.Location) *ActivityHandler {
	return &ActivityHandler{deps: deps, loc: loc}
}

func (h *ActivityHandler) parse(w http.ResponseWriter, r *http.Request, op string) (rangeQuery, time.Time, time.Time, bool) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return rangeQuery{}, time.Time{}, time.Time{}, false
	}
	q, err := parseRangeQuery(r.URL.Query())
	if err != nil {
		writeFailure(w, op, err)
		return q, time.Time{}, time.Time{}, false
	}
	from, to, err := q.window(h.loc)
	if err != nil {
		writeFailure(w, op, err)
		return q, time.Time{}, time.Time{}, false
	}
	return q, from, to, true
}

// HandlePerformance handles GET /activity/performance?company_id=&driver_id=&from=&to=.
func (h *ActivityHandler) HandlePerformance(w http.ResponseWriter, r *http.Request) {
	const op = "api.performance"
	q, from, to, ok := h.parse(w, r, op)
	if !ok {
		return
	}
	if q.DriverID == "" {
		writeFailure(w, op, fmt.Errorf("driver_id is required: %w", ErrBadRequest))
		return
	}
	p, err := h.deps.Performance(r.Context(), q.CompanyID, q.DriverID, from, to)
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// HandleFuel handles GET /activity/fuel?company_id=&from=&to=.
func (h *ActivityHandler) HandleFuel(w http.ResponseWriter, r *http.Request) {
	const op = "api.fuel"
	q, from, to, ok := h.parse(w, r, op)
	if !ok {
		return
	}
	rep, err := h.deps.FuelReport(r.Context(), q.CompanyID, from, to)
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

// HandleUtilization handles GET /activity/utilization?company_id=&from=&to=.
func (h *ActivityHandler) HandleUtilization(w http.ResponseWriter, r *http.Request) {
	const op = "api.utilization"
	q, from, to, ok := h.parse(w, r, op)
	if !ok {
		return
	}
	rows, err := h.deps.VehicleUtilization(r.Context(), q.CompanyID, from, to)
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}
