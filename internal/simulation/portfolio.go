package simulation

import (
	"time"

	"github.com/MADMAX-9999/reb20app/internal/market"
)

// Portfolio is the number of grams held per metal.
type Portfolio map[market.Metal]float64

// Clone returns an independent copy of p.
func (p Portfolio) Clone() Portfolio {
	c := make(Portfolio, len(p))
	for m, g := range p {
		c[m] = g
	}
	return c
}

// SpotValue is Σ spot×grams on the given row.
func (p Portfolio) SpotValue(row market.PriceRow) float64 {
	total := 0.0
	for m, g := range p {
		total += row.Prices[m] * g
	}
	return total
}

// SellValue is Σ spot×(1+discount/100)×grams, the liquidation value of p.
func (p Portfolio) SellValue(row market.PriceRow, pricing Pricing) float64 {
	total := 0.0
	for m, g := range p {
		total += pricing.SellPrice(m, row.Prices[m]) * g
	}
	return total
}

// sell removes up to grams of m and returns the grams actually removed.
func (p Portfolio) sell(m market.Metal, grams float64) float64 {
	if grams <= 0 {
		return 0
	}
	held := p[m]
	if grams > held {
		grams = held
	}
	p[m] = held - grams
	return grams
}

// HistoryRecord is one entry of the sparse simulation log.
type HistoryRecord struct {
	Date            time.Time
	InvestedCapital float64
	Holdings        Portfolio
	Actions         []Action
}

// Label joins the display labels of all actions of the record.
func (r HistoryRecord) Label() string {
	return joinLabels(r.Actions)
}

// Result is the outcome of one simulation run.
type Result struct {
	History         []HistoryRecord
	Portfolio       Portfolio
	InvestedCapital float64
}
