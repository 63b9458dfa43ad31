// Package pricing turns tonnage into revenue using per-site prices.
package pricing

import (
	"github.com/shopspring/decimal"
	"github.com/youss97/transportBackend/internal/domain/model"
)

// Quote is the priced result for one operational record.
type Quote struct {
	SiteID   string
	SiteName string
	Tons     decimal.Decimal
	Revenue  decimal.Decimal
}

// Table resolves a record's own site against a company's site prices.
// It is read-only after construction and safe for concurrent use.
type Table struct {
	sites map[string]model.Site
}

// NewTable indexes sites by ID. Later duplicates replace earlier ones.
func NewTable(sites []model.Site) *Table {
	t := &Table{sites: make(map[string]model.Site, len(sites))}
	for _, s := range sites {
		t.sites[s.ID] = s
	}
	return t
}

// Quote prices an operational event. ok is false when the event has no site
// or its site is not one of the table's sites.
func (t *Table) Quote(e model.Event) (Quote, bool) {
	if e.SiteID == "" {
		return Quote{}, false
	}
	s, ok := t.sites[e.SiteID]
	if !ok {
		return Quote{}, false
	}
	tons := decimal.NewFromFloat(e.Tons())
	return Quote{
		SiteID:   s.ID,
		SiteName: s.Name,
		Tons:     tons,
		Revenue:  tons.Mul(decimal.NewFromFloat(s.PricePerTon)),
	}, true
}
