package simulation

import (
	"context"
	"fmt"
	"time"

	"github.com/MADMAX-9999/reb20app/internal/market"
	"go.uber.org/zap"
)

// Engine runs simulations. It holds no per-run state, so a single Engine may
// run any number of simulations, concurrently or not.
type Engine struct {
	logger *zap.Logger
}

// NewEngine creates a new simulation engine.
func NewEngine(logger *zap.Logger) *Engine {
	return &Engine{logger: logger}
}

// run is the private mutable state of one simulation.
type run struct {
	series      *market.Series
	policy      PolicyConfig
	metals      []market.Metal
	holdings    Portfolio
	invested    float64
	history     []HistoryRecord
	rebalancers []*Rebalancer
	storage     *StorageEngine
	logger      *zap.Logger
}

// Run simulates policy over series. The context is checked between simulated
// days; a cancelled run returns the context error and no result.
func (e *Engine) Run(ctx context.Context, series *market.Series, policy PolicyConfig) (*Result, error) {
	if err := policy.Validate(series); err != nil {
		return nil, err
	}

	initialIdx, _ := series.Nearest(policy.Start)
	startIdx, endIdx := loopBounds(series, market.Day(policy.Start), market.Day(policy.End))

	r := &run{
		series:   series,
		policy:   policy,
		metals:   series.Metals(),
		holdings: make(Portfolio, len(series.Metals())),
		logger:   e.logger,
	}
	for _, m := range r.metals {
		r.holdings[m] = 0
	}
	for i, rule := range policy.Rebalance {
		if rule.Enabled {
			r.rebalancers = append(r.rebalancers, newRebalancer(i+1, rule, policy, r.metals, e.logger))
		}
	}
	r.storage = newStorageEngine(policy, r.metals, e.logger)

	l := e.logger.With(
		zap.Time("start", policy.Start),
		zap.Time("end", policy.End),
	)
	l.Info("Starting simulation run",
		zap.Float64("initial_amount", policy.InitialAmount),
		zap.Stringer("purchase_frequency", policy.Purchase.Frequency),
		zap.Int("rebalance_slots", len(r.rebalancers)))

	initialRow := series.Row(initialIdx)
	r.record(initialRow.Date, r.purchase(ActionInitial, initialRow, policy.InitialAmount))

	purchaseDays := make(map[time.Time]struct{})
	for _, d := range PurchaseDates(series, policy.Start, policy.Purchase.Frequency, policy.Purchase.Day, policy.End) {
		purchaseDays[d] = struct{}{}
	}

	periodStart := startIdx
	for i := startIdx; i <= endIdx; i++ {
		if err := ctx.Err(); err != nil {
			l.Warn("Simulation cancelled", zap.Time("date", series.Row(i).Date))
			return nil, fmt.Errorf("simulation cancelled: %w", err)
		}
		row := series.Row(i)

		var prev time.Time
		if i > startIdx {
			prev = series.Row(i - 1).Date
		}

		// The fee belongs to the period that ended on the previous trading
		// date, so it is charged on the holdings as they stood then.
		if r.storage.Enabled() && r.storage.Boundary(prev, row.Date) {
			last := series.Row(i - 1)
			fee := r.storage.Charge(last, series.Row(periodStart), r.holdings, r.invested)
			r.record(last.Date, fee)
			periodStart = i
		}

		var actions []Action
		if _, ok := purchaseDays[row.Date]; ok && policy.Purchase.Amount > 0 {
			actions = append(actions, r.purchase(ActionRecurring, row, policy.Purchase.Amount))
		}

		for _, rb := range r.rebalancers {
			if rb.Due(row.Date, prev) {
				actions = append(actions, rb.Apply(row, r.holdings))
			}
		}

		if len(actions) > 0 {
			r.record(row.Date, actions...)
		}
	}

	l.Info("Simulation run finished",
		zap.Int("records", len(r.history)),
		zap.Float64("invested_capital", r.invested))

	return &Result{
		History:         r.history,
		Portfolio:       r.holdings.Clone(),
		InvestedCapital: r.invested,
	}, nil
}

// purchase spends amount across all metals by target allocation at the
// margin-adjusted price and adds it to the invested capital.
func (r *run) purchase(kind ActionKind, row market.PriceRow, amount float64) Action {
	a := Action{Kind: kind, Amount: amount}
	for _, m := range r.metals {
		share := r.policy.Allocation[m]
		if share <= 0 || amount <= 0 {
			continue
		}
		price := r.policy.Pricing.BuyPrice(m, row.Prices[m])
		spend := amount * share
		grams := spend / price
		r.holdings[m] += grams
		a.Trades = append(a.Trades, Trade{Metal: m, Grams: grams, Price: price, Amount: spend})
	}
	r.invested += amount
	r.logger.Debug("Purchase executed",
		zap.Time("date", row.Date),
		zap.String("kind", a.Label()),
		zap.Float64("amount", amount))
	return a
}

// loopBounds returns the index range of trading dates within [start, end].
// The range is empty (startIdx > endIdx) when no trading date falls inside.
func loopBounds(series *market.Series, start, end time.Time) (startIdx, endIdx int) {
	startIdx = series.Len()
	endIdx = -1
	for i := 0; i < series.Len(); i++ {
		d := series.Row(i).Date
		if d.Before(start) {
			continue
		}
		if d.After(end) {
			break
		}
		if startIdx == series.Len() {
			startIdx = i
		}
		endIdx = i
	}
	return startIdx, endIdx
}

func (r *run) record(date time.Time, actions ...Action) {
	r.history = append(r.history, HistoryRecord{
		Date:            date,
		InvestedCapital: r.invested,
		Holdings:        r.holdings.Clone(),
		Actions:         actions,
	})
}
