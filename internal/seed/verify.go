package seed

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/shopspring/decimal"

	"github.com/youss97/transportBackend/internal/domain/operations"
	"github.com/youss97/transportBackend/internal/domain/rounding"
	"github.com/youss97/transportBackend/internal/domain/types"
)

// Ranker serves a driver ranking for a scope.
type Ranker interface {
	Ranking(ctx context.Context, s operations.Scope, limit int) ([]types.DriverRanking, error)
}

type expectedRow struct {
	driverID   string
	revenue    decimal.Decimal
	operations int
}

// expectedRanking recomputes the month ranking from the generated events:
// priced operational records only, revenue descending, driver ID ascending.
func expectedRanking(f Fleet) []expectedRow {
	prices := make(map[string]decimal.Decimal, len(f.Sites))
	for _, s := range f.Sites {
		prices[s.ID] = decimal.NewFromFloat(s.PricePerTon)
	}
	byDriver := make(map[string]*expectedRow)
	for _, e := range f.Events {
		if !e.Type.IsOperational() {
			continue
		}
		price, ok := prices[e.SiteID]
		if !ok {
			continue
		}
		row, ok := byDriver[e.DriverID]
		if !ok {
			row = &expectedRow{driverID: e.DriverID}
			byDriver[e.DriverID] = row
		}
		row.revenue = row.revenue.Add(decimal.NewFromFloat(e.Tons()).Mul(price))
		row.operations++
	}

	rows := make([]expectedRow, 0, len(byDriver))
	for _, r := range byDriver {
		rows = append(rows, *r)
	}
	slices.SortFunc(rows, func(a, b expectedRow) int {
		return cmp.Or(b.revenue.Cmp(a.revenue), cmp.Compare(a.driverID, b.driverID))
	})
	return rows
}

// Verify fetches the month ranking from r and compares it row by row with the
// ranking computed from f.
func Verify(ctx context.Context, r Ranker, cfg Config, f Fleet) error {
	got, err := r.Ranking(ctx, operations.Scope{CompanyID: cfg.CompanyID, Year: cfg.Year, Month: cfg.Month}, 0)
	if err != nil {
		return fmt.Errorf("fetch ranking: %w", err)
	}
	want := expectedRanking(f)
	if len(got) != len(want) {
		return fmt.Errorf("%w: %d rows, want %d", ErrRankingMismatch, len(got), len(want))
	}
	for i, w := range want {
		g := got[i]
		switch {
		case g.Rank != i+1:
			return fmt.Errorf("%w: row %d has rank %d", ErrRankingMismatch, i, g.Rank)
		case g.DriverID != w.driverID:
			return fmt.Errorf("%w: rank %d is %s, want %s", ErrRankingMismatch, i+1, g.DriverID, w.driverID)
		case g.TotalOperations != w.operations:
			return fmt.Errorf("%w: %s has %d operations, want %d", ErrRankingMismatch, w.driverID, g.TotalOperations, w.operations)
		case g.TotalRevenue != rounding.Amount(w.revenue):
			return fmt.Errorf("%w: %s has revenue %.2f, want %.2f", ErrRankingMismatch, w.driverID, g.TotalRevenue, rounding.Amount(w.revenue))
		}
	}
	return nil
}
