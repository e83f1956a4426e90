package simulation

import (
	"time"

	"github.com/MADMAX-9999/reb20app/internal/market"
	"go.uber.org/zap"
)

// LiquidationContext is what a Liquidator sees when a fee falls due.
type LiquidationContext struct {
	// Row holds the prices of the last trading date of the ended period.
	Row market.PriceRow
	// PeriodStart holds the prices of the first trading date of the period.
	PeriodStart market.PriceRow
	Holdings    Portfolio
	Metals      []market.Metal
}

// Liquidator decides how much of the fee each metal has to cover.
type Liquidator interface {
	// Name returns the unique name of the liquidation strategy.
	Name() string

	// Split returns the fee amount, in quote currency, to raise from each metal.
	Split(ctx LiquidationContext, fee float64) map[market.Metal]float64
}

// FixedMetal always pays the fee from a single metal.
type FixedMetal struct {
	Metal market.Metal
}

func (l FixedMetal) Name() string { return "fixed:" + l.Metal.String() }

func (l FixedMetal) Split(_ LiquidationContext, fee float64) map[market.Metal]float64 {
	return map[market.Metal]float64{l.Metal: fee}
}

// BestOfPeriod pays the fee from the metal whose price grew the most over the
// accounting period. Ties go to the first metal in enumeration order.
type BestOfPeriod struct{}

func (BestOfPeriod) Name() string { return "best_of_period" }

func (BestOfPeriod) Split(ctx LiquidationContext, fee float64) map[market.Metal]float64 {
	best, ok := bestPerformer(ctx)
	if !ok {
		return nil
	}
	return map[market.Metal]float64{best: fee}
}

func bestPerformer(ctx LiquidationContext) (market.Metal, bool) {
	var best market.Metal
	bestGrowth, found := 0.0, false
	for _, m := range ctx.Metals {
		first := ctx.PeriodStart.Prices[m]
		if first <= 0 {
			continue
		}
		growth := (ctx.Row.Prices[m] - first) / first * 100
		if !found || growth > bestGrowth {
			best, bestGrowth, found = m, growth, true
		}
	}
	return best, found
}

// ProRata spreads the fee across all metals by their share of spot value.
type ProRata struct{}

func (ProRata) Name() string { return "pro_rata" }

func (ProRata) Split(ctx LiquidationContext, fee float64) map[market.Metal]float64 {
	total := ctx.Holdings.SpotValue(ctx.Row)
	if total <= 0 {
		return nil
	}
	split := make(map[market.Metal]float64, len(ctx.Metals))
	for _, m := range ctx.Metals {
		if v := ctx.Row.Prices[m] * ctx.Holdings[m]; v > 0 {
			split[m] = fee * v / total
		}
	}
	return split
}

// NewLiquidator returns the Liquidator for the configured selector.
func NewLiquidator(p StoragePolicy) Liquidator {
	switch p.Selector {
	case SelectBestOfPeriod:
		return BestOfPeriod{}
	case SelectProRata:
		return ProRata{}
	}
	return FixedMetal{Metal: p.Metal}
}

// StorageEngine charges storage fees at accounting boundaries.
type StorageEngine struct {
	policy     StoragePolicy
	pricing    Pricing
	metals     []market.Metal
	liquidator Liquidator
	logger     *zap.Logger
}

func newStorageEngine(policy PolicyConfig, metals []market.Metal, logger *zap.Logger) *StorageEngine {
	liquidator := NewLiquidator(policy.Storage)
	return &StorageEngine{
		policy:     policy.Storage,
		pricing:    policy.Pricing,
		metals:     metals,
		liquidator: liquidator,
		logger:     logger.With(zap.String("liquidator", liquidator.Name())),
	}
}

// Enabled reports whether any fee is configured at all.
func (s *StorageEngine) Enabled() bool {
	return s.policy.AnnualFeePercent > 0
}

// Boundary reports whether moving from prev to today crosses the end of an
// accounting period.
func (s *StorageEngine) Boundary(prev, today time.Time) bool {
	if prev.IsZero() {
		return false
	}
	if prev.Year() != today.Year() {
		return true
	}
	return s.policy.Frequency == StorageMonthly && prev.Month() != today.Month()
}

// Fee computes the fee due for one period on the given basis.
func (s *StorageEngine) Fee(basis float64) float64 {
	rate := s.policy.AnnualFeePercent / 100
	if s.policy.Frequency == StorageMonthly {
		rate /= 12
	}
	return basis * rate * (1 + s.policy.VATPercent/100)
}

// Charge deducts the fee for the period ending on row.Date from holdings.
// Holdings never go negative; a fee larger than the available metal is only
// partly collected.
func (s *StorageEngine) Charge(row, periodStart market.PriceRow, holdings Portfolio, invested float64) Action {
	basis := invested
	if s.policy.Basis == BasisMarketValue {
		basis = holdings.SellValue(row, s.pricing)
	}
	fee := s.Fee(basis)
	charge := &FeeCharge{Basis: basis, Requested: fee}

	if fee > 0 {
		split := s.liquidator.Split(LiquidationContext{
			Row:         row,
			PeriodStart: periodStart,
			Holdings:    holdings,
			Metals:      s.metals,
		}, fee)
		for _, m := range market.Metals {
			amount, ok := split[m]
			if !ok || amount <= 0 {
				continue
			}
			price := s.pricing.SellPrice(m, row.Prices[m])
			if price <= 0 {
				continue
			}
			grams := holdings.sell(m, amount/price)
			if grams == 0 {
				continue
			}
			charge.Collected += grams * price
			charge.Sales = append(charge.Sales, Trade{Metal: m, Grams: -grams, Price: price, Amount: grams * price})
		}
	}

	s.logger.Debug("Storage fee charged",
		zap.Time("date", row.Date),
		zap.Float64("basis", basis),
		zap.Float64("requested", charge.Requested),
		zap.Float64("collected", charge.Collected))

	return Action{Kind: ActionStorageFee, Fee: charge}
}
