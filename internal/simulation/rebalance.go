package simulation

import (
	"math"
	"time"

	"github.com/MADMAX-9999/reb20app/internal/market"
	"go.uber.org/zap"
)

// Rebalancer executes one rebalance slot. It owns the slot's cooldown state
// and must not be shared between runs.
type Rebalancer struct {
	slot        int
	rule        RebalanceRule
	allocation  Allocation
	pricing     Pricing
	metals      []market.Metal
	lastApplied time.Time
	applied     bool
	logger      *zap.Logger
}

func newRebalancer(slot int, rule RebalanceRule, policy PolicyConfig, metals []market.Metal, logger *zap.Logger) *Rebalancer {
	rule.Start = market.Day(rule.Start)
	return &Rebalancer{
		slot:       slot,
		rule:       rule,
		allocation: policy.Allocation,
		pricing:    policy.Pricing,
		metals:     metals,
		logger:     logger.With(zap.Int("slot", slot)),
	}
}

// Due reports whether today is the slot's anniversary on or after its start
// date. prev is the previous trading date and is only consulted when the rule
// rolls anniversaries forward to the next trading date.
func (r *Rebalancer) Due(today, prev time.Time) bool {
	if !r.rule.Enabled || today.Before(r.rule.Start) {
		return false
	}
	start := r.rule.Start
	if today.Month() == start.Month() && today.Day() == start.Day() {
		return true
	}
	if !r.rule.RollForward || prev.IsZero() {
		return false
	}
	// A late-December anniversary may roll into the next year.
	for _, year := range []int{today.Year(), today.Year() - 1} {
		anniversary := anniversaryIn(year, start)
		if prev.Before(anniversary) && !today.Before(anniversary) && !anniversary.Before(start) {
			return true
		}
	}
	return false
}

// anniversaryIn returns the month/day of start in the given year.
func anniversaryIn(year int, start time.Time) time.Time {
	anniversary := time.Date(year, start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	if anniversary.Month() != start.Month() {
		// Feb 29 in a non-leap year normalises into March; use Feb 28 instead.
		anniversary = time.Date(year, start.Month()+1, 0, 0, 0, 0, 0, time.UTC)
	}
	return anniversary
}

// Apply runs the slot against the portfolio on the given trading day and
// returns the resulting action, which is either a rebalance or a skip.
func (r *Rebalancer) Apply(row market.PriceRow, holdings Portfolio) Action {
	today := row.Date
	if r.applied && today.Sub(r.lastApplied) < time.Duration(r.rule.cooldown())*24*time.Hour {
		r.logger.Debug("Rebalance skipped, cooldown active",
			zap.Time("date", today), zap.Time("last_applied", r.lastApplied))
		return r.skip(SkipTooSoon)
	}

	total := holdings.SpotValue(row)
	if total <= 0 {
		r.logger.Debug("Rebalance skipped, portfolio has no value", zap.Time("date", today))
		return r.skip(SkipNoValue)
	}

	if r.rule.Conditional && !r.deviates(row, holdings, total) {
		r.logger.Debug("Rebalance skipped, no metal beyond threshold",
			zap.Time("date", today), zap.Float64("threshold", r.rule.Threshold))
		return r.skip(SkipNoDeviation)
	}

	current := make(map[market.Metal]float64, len(r.metals))
	target := make(map[market.Metal]float64, len(r.metals))
	for _, m := range r.metals {
		current[m] = row.Prices[m] * holdings[m]
		target[m] = total * r.allocation[m]
	}

	var trades []Trade
	cash := 0.0

	// Pass A: sell every overweight metal into the shared cash pool.
	for _, m := range r.metals {
		if current[m] <= target[m] {
			continue
		}
		spot := row.Prices[m]
		grams := holdings.sell(m, (current[m]-target[m])/spot)
		if grams == 0 {
			continue
		}
		price := r.pricing.SellPrice(m, spot)
		proceeds := grams * price
		cash += proceeds
		trades = append(trades, Trade{Metal: m, Grams: -grams, Price: price, Amount: proceeds})
	}

	// Pass B: buy underweight metals until the pool runs dry.
	for _, m := range r.metals {
		if cash <= 0 {
			break
		}
		if current[m] >= target[m] {
			continue
		}
		spend := math.Min(cash, target[m]-current[m])
		price := r.pricing.RebalanceBuyPrice(m, row.Prices[m])
		grams := spend / price
		holdings[m] += grams
		cash -= spend
		trades = append(trades, Trade{Metal: m, Grams: grams, Price: price, Amount: spend})
	}

	r.lastApplied = today
	r.applied = true
	r.logger.Debug("Rebalance executed",
		zap.Time("date", today),
		zap.Float64("value_before", total),
		zap.Int("trades", len(trades)),
		zap.Float64("residual_cash", cash))

	return Action{Kind: ActionRebalance, Slot: r.slot, Trades: trades, Residual: cash}
}

func (r *Rebalancer) deviates(row market.PriceRow, holdings Portfolio, total float64) bool {
	for _, m := range r.metals {
		share := row.Prices[m] * holdings[m] / total
		deviation := math.Abs(share - r.allocation[m])
		if r.rule.Unit == DeviationPoints {
			deviation *= 100
		}
		if deviation >= r.rule.Threshold {
			return true
		}
	}
	return false
}

func (r *Rebalancer) skip(reason SkipReason) Action {
	return Action{Kind: ActionRebalanceSkipped, Slot: r.slot, Skip: reason}
}
