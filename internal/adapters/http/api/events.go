package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/youss97/transportBackend/internal/adapters/repository"
	"github.com/youss97/transportBackend/internal/domain/model"
)

// EventDependencies defines the interface for event intake.
type EventDependencies interface {
	// AppendEvent stores e; repository.ErrDuplicateEvent marks a replay.
	AppendEvent(ctx context.Context, e model.Event) error
}

// EventsHandler handles event requests.
type EventsHandler struct {
	deps EventDependencies
}

// NewEventsHandler creates a new events handler.
func NewEventsHandler(deps EventDependencies) *EventsHandler {
	return &EventsHandler{deps: deps}
}

// eventRequest mirrors the OpenAPI schema for POST /events.
type eventRequest struct {
	ID           string   `json:"id"`
	CompanyID    string   `json:"company_id" validate:"required"`
	DriverID     string   `json:"driver_id" validate:"required"`
	VehicleID    string   `json:"vehicle_id"`
	SiteID       string   `json:"site_id"`
	Type         string   `json:"type" validate:"required"`
	Timestamp    string   `json:"timestamp" validate:"required"`
	Kilometers   *float64 `json:"kilometers" validate:"omitempty,gte=0"`
	Weight       *float64 `json:"weight" validate:"omitempty,gte=0"`
	FuelQuantity *float64 `json:"fuel_quantity" validate:"omitempty,gte=0"`
	FuelPrice    *float64 `json:"fuel_price" validate:"omitempty,gte=0"`
	FuelStation  string   `json:"fuel_station"`
	Notes        string   `json:"notes"`
}

func (e eventRequest) toModel() (model.Event, error) {
	if err := validate.Struct(e); err != nil {
		return model.Event{}, err
	}
	typ, err := model.ParseEventType(e.Type)
	if err != nil {
		return model.Event{}, err
	}
	ts, err := time.Parse(time.RFC3339, e.Timestamp)
	if err != nil {
		return model.Event{}, fmt.Errorf("invalid timestamp; must be RFC3339: %w", ErrBadRequest)
	}
	id := e.ID
	if id == "" {
		id = uuid.NewString()
	}
	return model.Event{
		ID:           id,
		CompanyID:    e.CompanyID,
		DriverID:     e.DriverID,
		VehicleID:    e.VehicleID,
		SiteID:       e.SiteID,
		Type:         typ,
		Timestamp:    ts,
		Kilometers:   e.Kilometers,
		Weight:       e.Weight,
		FuelQuantity: e.FuelQuantity,
		FuelPrice:    e.FuelPrice,
		FuelStation:  e.FuelStation,
		Notes:        e.Notes,
	}, nil
}

type ackResponse struct {
	Status    string `json:"status"`
	ID        string `json:"id"`
	Duplicate bool   `json:"duplicate"`
}

// HandlePostEvent handles POST /events requests.
func (h *EventsHandler) HandlePostEvent(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_event"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req eventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	e, err := req.toModel()
	if err != nil {
		writeFailure(w, op, err)
		return
	}

	if err := h.deps.AppendEvent(r.Context(), e); err != nil {
		if errors.Is(err, repository.ErrDuplicateEvent) {
			writeJSON(w, http.StatusOK, ackResponse{Status: "duplicate", ID: e.ID, Duplicate: true})
			return
		}
		writeFailure(w, op, err)
		return
	}
	writeJSON(w, http.StatusCreated, ackResponse{Status: "created", ID: e.ID})
}
