package simulation

import (
	"fmt"
	"time"

	"github.com/MADMAX-9999/reb20app/internal/config"
	"github.com/MADMAX-9999/reb20app/internal/market"
)

// defaultPurchaseDay is the day of month of monthly and quarterly plans
// that leave the day unset.
const defaultPurchaseDay = 15

// defaultAllocation is used when the configuration names no allocation, in percent.
var defaultAllocation = map[market.Metal]float64{
	market.Gold:      40,
	market.Silver:    20,
	market.Platinum:  20,
	market.Palladium: 20,
}

// PolicyFromConfig converts the configured simulation block into a
// PolicyConfig. Empty start and end dates default to the bounds of series.
// The returned policy is not yet validated against the series.
func PolicyFromConfig(cfg config.Simulation, series *market.Series) (PolicyConfig, error) {
	var p PolicyConfig
	var err error

	p.InitialAmount = cfg.InitialAmount
	if p.Start, err = parseDate("start date", cfg.StartDate); err != nil {
		return p, err
	}
	if p.End, err = parseDate("end date", cfg.EndDate); err != nil {
		return p, err
	}
	if series.Len() > 0 {
		if p.Start.IsZero() {
			p.Start = series.First()
		}
		if p.End.IsZero() {
			p.End = series.Last()
		}
	}

	percents, err := metalPercents("allocation", cfg.Allocation)
	if err != nil {
		return p, err
	}
	if len(percents) == 0 {
		percents = defaultAllocation
	}
	p.Allocation = make(Allocation, len(percents))
	for m, v := range percents {
		p.Allocation[m] = v / 100
	}

	if p.Purchase.Frequency, err = ParseFrequency(orDefault(cfg.Purchase.Frequency, "none")); err != nil {
		return p, err
	}
	p.Purchase.Day = cfg.Purchase.Day
	if p.Purchase.Day == 0 && p.Purchase.Frequency != FrequencyWeekly {
		p.Purchase.Day = defaultPurchaseDay
	}
	p.Purchase.Amount = cfg.Purchase.Amount

	if len(cfg.Rebalance) > len(p.Rebalance) {
		return p, configErr("rebalance", "at most %d slots, got %d", len(p.Rebalance), len(cfg.Rebalance))
	}
	for i, rc := range cfg.Rebalance {
		rule := RebalanceRule{
			Enabled:      rc.Enabled,
			Conditional:  rc.Conditional,
			Threshold:    rc.Threshold,
			CooldownDays: rc.CooldownDays,
			RollForward:  rc.RollForward,
		}
		param := fmt.Sprintf("rebalance %d", i+1)
		if rule.Unit, err = ParseDeviationUnit(rc.Unit); err != nil {
			return p, err
		}
		if rule.Start, err = parseDate(param+" start date", rc.StartDate); err != nil {
			return p, err
		}
		if rule.Enabled && rule.Start.IsZero() {
			return p, configErr(param+" start date", "required when the slot is enabled")
		}
		p.Rebalance[i] = rule
	}

	s := cfg.Storage
	p.Storage.AnnualFeePercent = s.AnnualFee
	p.Storage.VATPercent = s.VAT
	if p.Storage.Frequency, err = ParseStorageFrequency(s.Frequency); err != nil {
		return p, err
	}
	if p.Storage.Basis, err = ParseCostBasis(s.Basis); err != nil {
		return p, err
	}
	if p.Storage.Selector, err = ParseMetalSelector(s.Selector); err != nil {
		return p, err
	}
	if p.Storage.Selector == SelectFixed {
		m, err := market.ParseMetal(orDefault(s.Metal, "gold"))
		if err != nil {
			return p, configErr("storage metal", "%v", err)
		}
		p.Storage.Metal = m
	}

	if p.Pricing.Margin, err = metalPercents("margins", cfg.Margins); err != nil {
		return p, err
	}
	if p.Pricing.BuybackDiscount, err = metalPercents("buyback discounts", cfg.BuybackDiscounts); err != nil {
		return p, err
	}
	if p.Pricing.RebalanceMarkup, err = metalPercents("rebalance markups", cfg.RebalanceMarkups); err != nil {
		return p, err
	}
	return p, nil
}

func parseDate(param, s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, configErr(param, "%q is not a YYYY-MM-DD date", s)
	}
	return t, nil
}

func metalPercents(param string, in map[string]float64) (map[market.Metal]float64, error) {
	out := make(map[market.Metal]float64, len(in))
	for name, v := range in {
		m, err := market.ParseMetal(name)
		if err != nil {
			return nil, configErr(param, "%v", err)
		}
		out[m] = v
	}
	return out, nil
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
