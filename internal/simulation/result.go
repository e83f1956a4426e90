package simulation

import (
	"fmt"
	"time"

	"github.com/MADMAX-9999/reb20app/internal/market"
)

// ValuedRecord is a history record with its display values.
type ValuedRecord struct {
	HistoryRecord
	// MarketValue is the liquidation value of the holdings on the record date.
	MarketValue float64
	// RealValue is MarketValue deflated by cumulative inflation since the first record's year.
	RealValue float64
}

// Summary aggregates a valued history.
type Summary struct {
	InvestedCapital   float64
	MarketValue       float64
	RealValue         float64
	Purchases         int
	Rebalances        int
	SkippedRebalances int
	FeesRequested     float64
	FeesCollected     float64
}

// Valuate prices every record of the result at sell-side prices and deflates
// it with the inflation table, starting from the year of the first record.
func Valuate(result *Result, series *market.Series, pricing Pricing, inflation market.Inflation) ([]ValuedRecord, error) {
	if len(result.History) == 0 {
		return nil, nil
	}
	startYear := result.History[0].Date.Year()

	valued := make([]ValuedRecord, 0, len(result.History))
	for _, rec := range result.History {
		i, ok := series.IndexOf(rec.Date)
		if !ok {
			return nil, fmt.Errorf("valuating history: %w", &market.DataGapError{Date: rec.Date, MissingDate: true})
		}
		row := series.Row(i)
		for m, g := range rec.Holdings {
			if _, ok := row.Prices[m]; !ok && g != 0 {
				return nil, fmt.Errorf("valuating history: %w", &market.DataGapError{Date: rec.Date, Metal: m})
			}
		}
		nominal := rec.Holdings.SellValue(row, pricing)
		deflator, err := inflation.Deflator(startYear, rec.Date.Year())
		if err != nil {
			return nil, fmt.Errorf("valuating %s: %w", rec.Date.Format(time.DateOnly), err)
		}
		valued = append(valued, ValuedRecord{
			HistoryRecord: rec,
			MarketValue:   nominal,
			RealValue:     nominal / deflator,
		})
	}
	return valued, nil
}

// Summarize totals the actions of a valued history. The value fields come
// from the last record.
func Summarize(valued []ValuedRecord) Summary {
	var s Summary
	for _, rec := range valued {
		for _, a := range rec.Actions {
			switch a.Kind {
			case ActionInitial, ActionRecurring:
				s.Purchases++
			case ActionRebalance:
				s.Rebalances++
			case ActionRebalanceSkipped:
				s.SkippedRebalances++
			case ActionStorageFee:
				s.FeesRequested += a.Fee.Requested
				s.FeesCollected += a.Fee.Collected
			}
		}
	}
	if n := len(valued); n > 0 {
		last := valued[n-1]
		s.InvestedCapital = last.InvestedCapital
		s.MarketValue = last.MarketValue
		s.RealValue = last.RealValue
	}
	return s
}
