package simulation

import (
	"testing"
	"time"

	"github.com/MADMAX-9999/reb20app/internal/market"
	"github.com/stretchr/testify/require"
)

func day(s string) time.Time {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		panic(err)
	}
	return t
}

type priceFunc func(d time.Time) map[market.Metal]float64

func flat(prices map[market.Metal]float64) priceFunc {
	return func(time.Time) map[market.Metal]float64 { return prices }
}

// buildSeries creates a series with one row per date in [from, to], skipping
// weekends when weekdaysOnly is set.
func buildSeries(t *testing.T, from, to string, weekdaysOnly bool, price priceFunc) *market.Series {
	t.Helper()
	var rows []market.PriceRow
	var metals []market.Metal
	for d := day(from); !d.After(day(to)); d = d.AddDate(0, 0, 1) {
		if weekdaysOnly && (d.Weekday() == time.Saturday || d.Weekday() == time.Sunday) {
			continue
		}
		p := price(d)
		if metals == nil {
			for _, m := range market.Metals {
				if _, ok := p[m]; ok {
					metals = append(metals, m)
				}
			}
		}
		rows = append(rows, market.PriceRow{Date: d, Prices: p})
	}
	s, err := market.NewSeries("EUR", metals, rows)
	require.NoError(t, err)
	return s
}

func row(date string, prices map[market.Metal]float64) market.PriceRow {
	return market.PriceRow{Date: day(date), Prices: prices}
}

func dates(ss ...string) []time.Time {
	out := make([]time.Time, len(ss))
	for i, s := range ss {
		out[i] = day(s)
	}
	return out
}
