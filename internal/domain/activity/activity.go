// Package activity builds driver performance, fuel and vehicle utilization
// reports over an arbitrary period.
package activity

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/youss97/transportBackend/internal/adapters/repository"
	"github.com/youss97/transportBackend/internal/domain/model"
	"github.com/youss97/transportBackend/internal/domain/rounding"
	"github.com/youss97/transportBackend/internal/domain/types"
)

const day = 24 * time.Hour

// Store is the subset of the stores the activity reports read.
type Store interface {
	ListEvents(ctx context.Context, f repository.EventFilter) ([]model.Event, error)
	ListDrivers(ctx context.Context, companyID string) ([]model.Driver, error)
	ListVehicles(ctx context.Context, companyID string) ([]model.Vehicle, error)
}

// Reports computes activity reports for one company at a time.
type Reports struct {
	store Store
}

// NewReports creates Reports reading from store.
func NewReports(store Store) *Reports {
	return &Reports{store: store}
}

func checkRange(from, to time.Time) error {
	if from.IsZero() || to.IsZero() || to.Before(from) {
		return fmt.Errorf("%w: %s..%s", ErrInvalidRange, from.Format(time.RFC3339), to.Format(time.RFC3339))
	}
	return nil
}

// Performance summarizes every event of one driver in [from, to].
func (r *Reports) Performance(ctx context.Context, companyID, driverID string, from, to time.Time) (types.DriverPerformance, error) {
	if err := checkRange(from, to); err != nil {
		return types.DriverPerformance{}, err
	}
	events, err := r.store.ListEvents(ctx, repository.EventFilter{
		CompanyID: companyID, DriverID: driverID, From: from, To: to,
	})
	if err != nil {
		return types.DriverPerformance{}, err
	}

	var fuel, distance decimal.Decimal
	incidents := 0
	for _, e := range events {
		if e.FuelQuantity != nil {
			fuel = fuel.Add(decimal.NewFromFloat(*e.FuelQuantity))
		}
		if e.Kilometers != nil {
			distance = distance.Add(decimal.NewFromFloat(*e.Kilometers))
		}
		if e.Type == model.Incident {
			incidents++
		}
	}
	return types.DriverPerformance{
		DriverID:        driverID,
		From:            from,
		To:              to,
		TotalActivities: len(events),
		FuelConsumption: rounding.Amount(fuel),
		TotalDistance:   rounding.Amount(distance),
		Incidents:       incidents,
	}, nil
}

// FuelReport lists the FUEL events of a company in [from, to] with their totals.
// A fill without a price costs nothing; the average price is zero when no
// fuel was recorded.
func (r *Reports) FuelReport(ctx context.Context, companyID string, from, to time.Time) (types.FuelReport, error) {
	if err := checkRange(from, to); err != nil {
		return types.FuelReport{}, err
	}
	events, err := r.store.ListEvents(ctx, repository.EventFilter{
		CompanyID: companyID, Types: []model.EventType{model.Fuel}, From: from, To: to,
	})
	if err != nil {
		return types.FuelReport{}, err
	}
	names, plates, err := r.identities(ctx, companyID, len(events) > 0)
	if err != nil {
		return types.FuelReport{}, err
	}

	var totalQty, totalCost decimal.Decimal
	lines := make([]types.FuelLine, len(events))
	for i, e := range events {
		qty := optional(e.FuelQuantity)
		price := optional(e.FuelPrice)
		cost := qty.Mul(price)
		totalQty = totalQty.Add(qty)
		totalCost = totalCost.Add(cost)
		lines[i] = types.FuelLine{
			EventID:       e.ID,
			Timestamp:     e.Timestamp,
			DriverID:      e.DriverID,
			DriverName:    names[e.DriverID],
			VehicleID:     e.VehicleID,
			LicensePlate:  plates[e.VehicleID],
			Quantity:      rounding.Amount(qty),
			PricePerLiter: rounding.Amount(price),
			Cost:          rounding.Amount(cost),
			Station:       e.FuelStation,
		}
	}

	report := types.FuelReport{
		From:             from,
		To:               to,
		TotalConsumption: rounding.Amount(totalQty),
		TotalCost:        rounding.Amount(totalCost),
		Lines:            lines,
	}
	if totalQty.IsPositive() {
		report.AveragePricePerLiter = rounding.Amount(totalCost.Div(totalQty))
	}
	return report, nil
}

// VehicleUtilization reports every company vehicle over [from, to]. Working
// days are estimated as half the number of clock events recorded with the
// vehicle; the period length is rounded up to whole days.
func (r *Reports) VehicleUtilization(ctx context.Context, companyID string, from, to time.Time) ([]types.VehicleUtilization, error) {
	if err := checkRange(from, to); err != nil {
		return nil, err
	}
	vehicles, err := r.store.ListVehicles(ctx, companyID)
	if err != nil {
		return nil, err
	}
	events, err := r.store.ListEvents(ctx, repository.EventFilter{CompanyID: companyID, From: from, To: to})
	if err != nil {
		return nil, err
	}

	type tally struct{ clock, all int }
	byVehicle := make(map[string]*tally, len(vehicles))
	for _, v := range vehicles {
		byVehicle[v.ID] = &tally{}
	}
	for _, e := range events {
		t, ok := byVehicle[e.VehicleID]
		if !ok {
			continue
		}
		t.all++
		if e.Type == model.ClockIn || e.Type == model.ClockOut {
			t.clock++
		}
	}

	totalDays := max(1, int(math.Ceil(float64(to.Sub(from))/float64(day))))
	out := make([]types.VehicleUtilization, len(vehicles))
	for i, v := range vehicles {
		t := byVehicle[v.ID]
		working := float64(t.clock) / 2
		out[i] = types.VehicleUtilization{
			VehicleID:       v.ID,
			LicensePlate:    v.LicensePlate,
			Brand:           v.Brand,
			Model:           v.Model,
			WorkingDays:     working,
			TotalDays:       totalDays,
			UtilizationRate: int(math.Round(working / float64(totalDays) * 100)),
			TotalActivities: t.all,
		}
	}
	return out, nil
}

func (r *Reports) identities(ctx context.Context, companyID string, needed bool) (map[string]string, map[string]string, error) {
	names := map[string]string{}
	plates := map[string]string{}
	if !needed {
		return names, plates, nil
	}
	drivers, err := r.store.ListDrivers(ctx, companyID)
	if err != nil {
		return nil, nil, err
	}
	for _, d := range drivers {
		names[d.ID] = d.FullName()
	}
	vehicles, err := r.store.ListVehicles(ctx, companyID)
	if err != nil {
		return nil, nil, err
	}
	for _, v := range vehicles {
		plates[v.ID] = v.LicensePlate
	}
	return names, plates, nil
}

func optional(v *float64) decimal.Decimal {
	if v == nil {
		return decimal.Zero
	}
	return decimal.NewFromFloat(*v)
}
