// Package operations aggregates loading and unloading records into revenue,
// production and per-driver totals.
package operations

import (
	"cmp"
	"context"
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"github.com/youss97/transportBackend/internal/adapters/repository"
	"github.com/youss97/transportBackend/internal/domain/calendar"
	"github.com/youss97/transportBackend/internal/domain/model"
	"github.com/youss97/transportBackend/internal/domain/pricing"
	"github.com/youss97/transportBackend/internal/domain/rounding"
	"github.com/youss97/transportBackend/internal/domain/types"
	"github.com/youss97/transportBackend/pkg/logger"
	"github.com/youss97/transportBackend/pkg/metrics"
)

const defaultAssumedWorkingDays = 22

// Store is the subset of the stores the aggregator reads.
type Store interface {
	ListEvents(ctx context.Context, f repository.EventFilter) ([]model.Event, error)
	ListSites(ctx context.Context, companyID string) ([]model.Site, error)
	ListDrivers(ctx context.Context, companyID string) ([]model.Driver, error)
}

// UnpricedHook receives operational records whose site is missing or unknown.
type UnpricedHook func(ctx context.Context, e model.Event)

// Option applies a configuration option to the Aggregator.
type Option func(*Aggregator)

// WithLocation sets the time zone used for day and month boundaries.
func WithLocation(loc *time.Location) Option {
	return func(a *Aggregator) {
		if loc != nil {
			a.loc = loc
		}
	}
}

// WithAssumedWorkingDays sets the month length used by the absence approximation.
func WithAssumedWorkingDays(n int) Option {
	return func(a *Aggregator) {
		if n > 0 {
			a.assumedWorkingDays = n
		}
	}
}

// WithUnpricedHook replaces the default hook, which logs at debug level and
// increments the unpriced records counter.
func WithUnpricedHook(h UnpricedHook) Option {
	return func(a *Aggregator) {
		if h != nil {
			a.onUnpriced = h
		}
	}
}

// Aggregator groups operational records of a Scope.
type Aggregator struct {
	store              Store
	loc                *time.Location
	assumedWorkingDays int
	onUnpriced         UnpricedHook
}

// NewAggregator creates an Aggregator reading from store.
func NewAggregator(store Store, opts ...Option) *Aggregator {
	a := &Aggregator{
		store:              store,
		loc:                time.UTC,
		assumedWorkingDays: defaultAssumedWorkingDays,
		onUnpriced:         logUnpriced,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// AssumedWorkingDays returns the configured month length.
func (a *Aggregator) AssumedWorkingDays() int {
	return a.assumedWorkingDays
}

// record is one priced operational event.
type record struct {
	event model.Event
	quote pricing.Quote
	day   string
}

// records loads the scope's loading and unloading events and joins each one
// with its own site. Records without a priced site are passed to the hook.
func (a *Aggregator) records(ctx context.Context, s Scope) ([]record, error) {
	window, err := s.Window(a.loc)
	if err != nil {
		return nil, err
	}
	sites, err := a.store.ListSites(ctx, s.CompanyID)
	if err != nil {
		return nil, err
	}
	events, err := a.store.ListEvents(ctx, repository.EventFilter{
		CompanyID: s.CompanyID,
		Types:     model.OperationalTypes(),
		From:      window.From,
		To:        window.To,
	})
	if err != nil {
		return nil, err
	}

	table := pricing.NewTable(sites)
	out := make([]record, 0, len(events))
	for _, e := range events {
		q, ok := table.Quote(e)
		if !ok {
			a.onUnpriced(ctx, e)
			continue
		}
		if s.SiteID != "" && q.SiteID != s.SiteID {
			continue
		}
		out = append(out, record{event: e, quote: q, day: calendar.DayKey(e.Timestamp, a.loc)})
	}
	return out, nil
}

type siteDay struct {
	siteID string
	day    string
}

type siteDayTotal struct {
	siteName string
	tons     decimal.Decimal
	revenue  decimal.Decimal
	count    int
}

func (a *Aggregator) bySiteDay(ctx context.Context, s Scope) ([]siteDay, map[siteDay]*siteDayTotal, error) {
	recs, err := a.records(ctx, s)
	if err != nil {
		return nil, nil, err
	}
	totals := make(map[siteDay]*siteDayTotal)
	keys := make([]siteDay, 0)
	for _, r := range recs {
		k := siteDay{siteID: r.quote.SiteID, day: r.day}
		t, ok := totals[k]
		if !ok {
			t = &siteDayTotal{siteName: r.quote.SiteName}
			totals[k] = t
			keys = append(keys, k)
		}
		t.tons = t.tons.Add(r.quote.Tons)
		t.revenue = t.revenue.Add(r.quote.Revenue)
		t.count++
	}
	slices.SortFunc(keys, func(x, y siteDay) int {
		return cmp.Or(cmp.Compare(x.siteID, y.siteID), cmp.Compare(x.day, y.day))
	})
	return keys, totals, nil
}

// Revenue returns tonnage, revenue and operation count per (site, day),
// ordered by site then day.
func (a *Aggregator) Revenue(ctx context.Context, s Scope) ([]types.RevenueRow, error) {
	keys, totals, err := a.bySiteDay(ctx, s)
	if err != nil {
		return nil, err
	}
	rows := make([]types.RevenueRow, len(keys))
	for i, k := range keys {
		t := totals[k]
		rows[i] = types.RevenueRow{
			SiteID:         k.siteID,
			SiteName:       t.siteName,
			Date:           k.day,
			TotalTonnage:   rounding.Amount(t.tons),
			TotalRevenue:   rounding.Amount(t.revenue),
			OperationCount: t.count,
		}
	}
	return rows, nil
}

// Production returns tonnage and operation count per (site, day),
// ordered by site then day.
func (a *Aggregator) Production(ctx context.Context, s Scope) ([]types.ProductionRow, error) {
	keys, totals, err := a.bySiteDay(ctx, s)
	if err != nil {
		return nil, err
	}
	rows := make([]types.ProductionRow, len(keys))
	for i, k := range keys {
		t := totals[k]
		rows[i] = types.ProductionRow{
			SiteID:         k.siteID,
			SiteName:       t.siteName,
			Date:           k.day,
			TotalTonnage:   rounding.Amount(t.tons),
			OperationCount: t.count,
		}
	}
	return rows, nil
}

type driverTotal struct {
	tons    decimal.Decimal
	revenue decimal.Decimal
	count   int
	days    map[string]struct{}
}

// DriverTotal is a driver summary with its exact, unrounded revenue.
type DriverTotal struct {
	types.DriverSummary
	Revenue decimal.Decimal
}

// DriverTotals groups the scope by driver. Rows are ordered by driver ID and
// carry the driver's display name, empty when the driver is unknown.
func (a *Aggregator) DriverTotals(ctx context.Context, s Scope) ([]DriverTotal, error) {
	recs, err := a.records(ctx, s)
	if err != nil {
		return nil, err
	}
	totals := make(map[string]*driverTotal)
	for _, r := range recs {
		t, ok := totals[r.event.DriverID]
		if !ok {
			t = &driverTotal{days: make(map[string]struct{})}
			totals[r.event.DriverID] = t
		}
		t.tons = t.tons.Add(r.quote.Tons)
		t.revenue = t.revenue.Add(r.quote.Revenue)
		t.count++
		t.days[r.day] = struct{}{}
	}

	names, err := a.driverNames(ctx, s.CompanyID, len(totals))
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(totals))
	for id := range totals {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	out := make([]DriverTotal, len(ids))
	for i, id := range ids {
		t := totals[id]
		out[i] = DriverTotal{
			DriverSummary: types.DriverSummary{
				DriverID:        id,
				Name:            names[id],
				TotalTonnage:    rounding.Amount(t.tons),
				TotalOperations: t.count,
				TotalRevenue:    rounding.Amount(t.revenue),
				WorkingDays:     len(t.days),
				AbsenceApprox:   a.assumedWorkingDays - len(t.days),
			},
			Revenue: t.revenue,
		}
	}
	return out, nil
}

// DriverSummary returns per-driver totals ordered by name, then driver ID.
func (a *Aggregator) DriverSummary(ctx context.Context, s Scope) ([]types.DriverSummary, error) {
	totals, err := a.DriverTotals(ctx, s)
	if err != nil {
		return nil, err
	}
	rows := make([]types.DriverSummary, len(totals))
	for i, t := range totals {
		rows[i] = t.DriverSummary
	}
	slices.SortStableFunc(rows, func(x, y types.DriverSummary) int {
		return cmp.Or(cmp.Compare(x.Name, y.Name), cmp.Compare(x.DriverID, y.DriverID))
	})
	return rows, nil
}

func (a *Aggregator) driverNames(ctx context.Context, companyID string, n int) (map[string]string, error) {
	names := make(map[string]string, n)
	if n == 0 {
		return names, nil
	}
	drivers, err := a.store.ListDrivers(ctx, companyID)
	if err != nil {
		return nil, err
	}
	for _, d := range drivers {
		names[d.ID] = d.FullName()
	}
	return names, nil
}

func logUnpriced(ctx context.Context, e model.Event) {
	metrics.RecordUnpricedRecord()
	logger.Named("operations").Debug(ctx, "operational record without priced site",
		logger.String("event_id", e.ID),
		logger.String("site_id", e.SiteID),
	)
}
