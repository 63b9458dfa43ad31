// Package ranking orders drivers by revenue contribution.
package ranking

import (
	"cmp"
	"context"
	"slices"

	"github.com/youss97/transportBackend/internal/domain/operations"
	"github.com/youss97/transportBackend/internal/domain/types"
)

// Source provides per-driver totals for a scope.
type Source interface {
	DriverTotals(ctx context.Context, s operations.Scope) ([]operations.DriverTotal, error)
}

// Engine ranks drivers within a scope.
type Engine struct {
	src Source
}

// NewEngine creates an Engine over src.
func NewEngine(src Source) *Engine {
	return &Engine{src: src}
}

// Rank returns drivers ordered by exact total revenue descending, ties broken
// by driver ID ascending. Rank is the 1-based position in that order.
func (e *Engine) Rank(ctx context.Context, s operations.Scope) ([]types.DriverRanking, error) {
	totals, err := e.src.DriverTotals(ctx, s)
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(totals, func(a, b operations.DriverTotal) int {
		return cmp.Or(b.Revenue.Cmp(a.Revenue), cmp.Compare(a.DriverID, b.DriverID))
	})
	out := make([]types.DriverRanking, len(totals))
	for i, t := range totals {
		out[i] = types.DriverRanking{Rank: i + 1, DriverSummary: t.DriverSummary}
	}
	return out, nil
}
