package api

import (
	"fmt"
	"net/http"
)

// OperationsHandler serves revenue, production, driver summary and ranking.
type OperationsHandler struct {
	deps     OperationsDependencies
	maxLimit int
}

// NewOperationsHandler creates a new operations handler.
func NewOperationsHandler(deps OperationsDependencies, maxLimit int) *OperationsHandler {
	return &OperationsHandler{deps: deps, maxLimit: maxLimit}
}

// HandleRevenue handles GET /operations/revenue.
func (h *OperationsHandler) HandleRevenue(w http.ResponseWriter, r *http.Request) {
	const op = "api.revenue"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	q, err := parseScopeQuery(r.URL.Query())
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	rows, err := h.deps.Revenue(r.Context(), q.scope())
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// HandleProduction handles GET /operations/production.
func (h *OperationsHandler) HandleProduction(w http.ResponseWriter, r *http.Request) {
	const op = "api.production"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	q, err := parseScopeQuery(r.URL.Query())
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	rows, err := h.deps.Production(r.Context(), q.scope())
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// HandleDriverSummary handles GET /operations/drivers.
func (h *OperationsHandler) HandleDriverSummary(w http.ResponseWriter, r *http.Request) {
	const op = "api.driver_summary"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	q, err := parseScopeQuery(r.URL.Query())
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	rows, err := h.deps.DriverSummary(r.Context(), q.scope())
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// HandleRanking handles GET /ranking[?limit=N]. Without a limit every driver is ranked.
func (h *OperationsHandler) HandleRanking(w http.ResponseWriter, r *http.Request) {
	const op = "api.ranking"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	q, err := parseScopeQuery(r.URL.Query())
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	if q.Limit > h.maxLimit {
		writeError(w, http.StatusBadRequest, "limit_exceeded",
			WrapKind(op, ErrBadRequest, fmt.Errorf("limit above %d", h.maxLimit)))
		return
	}
	rows, err := h.deps.Ranking(r.Context(), q.scope(), q.Limit)
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}
