package simulation

import (
	"fmt"
	"math"
	"time"

	"github.com/MADMAX-9999/reb20app/internal/market"
)

// ConfigurationError is a fatal problem with the policy parameters of a run.
type ConfigurationError struct {
	Param  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Param, e.Reason)
}

func configErr(param, format string, args ...any) error {
	return &ConfigurationError{Param: param, Reason: fmt.Sprintf(format, args...)}
}

// Frequency of recurring purchases.
type Frequency int

const (
	FrequencyNone Frequency = iota
	FrequencyWeekly
	FrequencyMonthly
	FrequencyQuarterly
)

var frequencyNames = [...]string{"none", "weekly", "monthly", "quarterly"}

func (f Frequency) String() string {
	if f < FrequencyNone || f > FrequencyQuarterly {
		return fmt.Sprintf("Frequency(%d)", int(f))
	}
	return frequencyNames[f]
}

// ParseFrequency accepts the lower-case names returned by String.
func ParseFrequency(s string) (Frequency, error) {
	for i, n := range frequencyNames {
		if s == n {
			return Frequency(i), nil
		}
	}
	return 0, configErr("purchase frequency", "unknown value %q", s)
}

// DeviationUnit selects how a rebalance threshold is compared against the
// drift of a metal's share from its target.
type DeviationUnit int

const (
	// DeviationPoints compares |share-target|*100 against the threshold.
	DeviationPoints DeviationUnit = iota
	// DeviationFraction compares |share-target| against the threshold as is.
	DeviationFraction
)

func ParseDeviationUnit(s string) (DeviationUnit, error) {
	switch s {
	case "", "points":
		return DeviationPoints, nil
	case "fraction":
		return DeviationFraction, nil
	}
	return 0, configErr("deviation unit", "unknown value %q", s)
}

// StorageFrequency is the accounting period at whose end storage fees are charged.
type StorageFrequency int

const (
	StorageYearly StorageFrequency = iota
	StorageMonthly
)

func ParseStorageFrequency(s string) (StorageFrequency, error) {
	switch s {
	case "", "yearly":
		return StorageYearly, nil
	case "monthly":
		return StorageMonthly, nil
	}
	return 0, configErr("storage frequency", "unknown value %q", s)
}

// CostBasis is what the storage fee percentage applies to.
type CostBasis int

const (
	BasisInvested CostBasis = iota
	BasisMarketValue
)

func ParseCostBasis(s string) (CostBasis, error) {
	switch s {
	case "", "invested":
		return BasisInvested, nil
	case "market":
		return BasisMarketValue, nil
	}
	return 0, configErr("storage basis", "unknown value %q", s)
}

// MetalSelector chooses which holdings pay the storage fee.
type MetalSelector int

const (
	SelectFixed MetalSelector = iota
	SelectBestOfPeriod
	SelectProRata
)

func ParseMetalSelector(s string) (MetalSelector, error) {
	switch s {
	case "", "fixed":
		return SelectFixed, nil
	case "best":
		return SelectBestOfPeriod, nil
	case "pro_rata":
		return SelectProRata, nil
	}
	return 0, configErr("storage selector", "unknown value %q", s)
}

// Allocation maps each metal to its target fraction of the portfolio.
type Allocation map[market.Metal]float64

// PurchasePlan describes the recurring purchases.
type PurchasePlan struct {
	Frequency Frequency
	// Day is a weekday index (0=Monday) for weekly plans, otherwise a day of month.
	Day    int
	Amount float64
}

// RebalanceRule is one independent rebalance slot.
type RebalanceRule struct {
	Enabled bool
	// Conditional enables the deviation test; when false the rule always
	// executes on its anniversary.
	Conditional  bool
	Threshold    float64
	Unit         DeviationUnit
	Start        time.Time
	CooldownDays int
	// RollForward lets an anniversary that is not a trading date fire on the
	// first trading date after it.
	RollForward bool
}

// StoragePolicy configures the periodic storage fee.
type StoragePolicy struct {
	AnnualFeePercent float64
	VATPercent       float64
	Frequency        StorageFrequency
	Basis            CostBasis
	Selector         MetalSelector
	// Metal is only used with SelectFixed.
	Metal market.Metal
}

// Pricing holds the per-metal spreads, all in percent of spot.
type Pricing struct {
	Margin          map[market.Metal]float64
	BuybackDiscount map[market.Metal]float64
	RebalanceMarkup map[market.Metal]float64
}

// BuyPrice is the price paid at an initial or recurring purchase.
func (p Pricing) BuyPrice(m market.Metal, spot float64) float64 {
	return spot * (1 + p.Margin[m]/100)
}

// SellPrice is the price received when liquidating metal.
func (p Pricing) SellPrice(m market.Metal, spot float64) float64 {
	return spot * (1 + p.BuybackDiscount[m]/100)
}

// RebalanceBuyPrice is the price paid when buying during a rebalance.
func (p Pricing) RebalanceBuyPrice(m market.Metal, spot float64) float64 {
	return spot * (1 + p.RebalanceMarkup[m]/100)
}

// PolicyConfig is the complete, immutable parameter set of one simulation run.
type PolicyConfig struct {
	InitialAmount float64
	Start         time.Time
	End           time.Time
	Allocation    Allocation
	Purchase      PurchasePlan
	Rebalance     [2]RebalanceRule
	Storage       StoragePolicy
	Pricing       Pricing
}

const (
	allocationTolerance = 1e-6
	defaultCooldownDays = 30
)

// Validate checks the policy against the series it will run on. A run
// assumes a validated policy; Engine.Run calls Validate itself.
func (p PolicyConfig) Validate(series *market.Series) error {
	if p.InitialAmount < 0 {
		return configErr("initial amount", "must not be negative, got %v", p.InitialAmount)
	}
	if p.Purchase.Amount < 0 {
		return configErr("purchase amount", "must not be negative, got %v", p.Purchase.Amount)
	}

	sum := 0.0
	for m, f := range p.Allocation {
		if !m.Valid() {
			return configErr("allocation", "unknown metal %v", m)
		}
		if f < 0 {
			return configErr("allocation", "%s fraction is negative", m)
		}
		if f > 0 && !series.Tracks(m) {
			return configErr("allocation", "no %s prices in series", m)
		}
		sum += f
	}
	if math.Abs(sum-1) > allocationTolerance {
		return configErr("allocation", "fractions sum to %.6f, want 1", sum)
	}

	if series.Len() == 0 {
		return configErr("date range", "price series is empty")
	}
	start, end := market.Day(p.Start), market.Day(p.End)
	if end.Before(start) {
		return configErr("date range", "end %s before start %s", p.End.Format(time.DateOnly), p.Start.Format(time.DateOnly))
	}
	if start.Before(series.First()) || end.After(series.Last()) {
		return configErr("date range", "%s..%s outside price series %s..%s",
			p.Start.Format(time.DateOnly), p.End.Format(time.DateOnly),
			series.First().Format(time.DateOnly), series.Last().Format(time.DateOnly))
	}

	switch p.Purchase.Frequency {
	case FrequencyNone:
	case FrequencyWeekly:
		if p.Purchase.Day < 0 || p.Purchase.Day > 6 {
			return configErr("purchase day", "weekday must be 0..6, got %d", p.Purchase.Day)
		}
	case FrequencyMonthly, FrequencyQuarterly:
		if p.Purchase.Day < 1 || p.Purchase.Day > 31 {
			return configErr("purchase day", "day of month must be 1..31, got %d", p.Purchase.Day)
		}
	default:
		return configErr("purchase frequency", "unknown value %v", p.Purchase.Frequency)
	}

	for i, r := range p.Rebalance {
		if r.Enabled && r.Threshold < 0 {
			return configErr(fmt.Sprintf("rebalance %d threshold", i+1), "must not be negative")
		}
	}

	if p.Storage.AnnualFeePercent < 0 || p.Storage.VATPercent < 0 {
		return configErr("storage fee", "percentages must not be negative")
	}
	if p.Storage.Selector == SelectFixed && p.Storage.AnnualFeePercent > 0 {
		if !p.Storage.Metal.Valid() {
			return configErr("storage metal", "unknown metal %v", p.Storage.Metal)
		}
		if !series.Tracks(p.Storage.Metal) {
			return configErr("storage metal", "no %s prices in series", p.Storage.Metal)
		}
	}
	return nil
}

func (r RebalanceRule) cooldown() int {
	if r.CooldownDays <= 0 {
		return defaultCooldownDays
	}
	return r.CooldownDays
}
