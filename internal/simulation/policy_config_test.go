package simulation

import (
	"errors"
	"testing"
	"time"

	"github.com/MADMAX-9999/reb20app/internal/config"
	"github.com/MADMAX-9999/reb20app/internal/market"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPolicyFromConfig(t *testing.T) {
	series := buildSeries(t, "2020-01-01", "2023-12-29", true, goldSilver)
	cfg := config.Simulation{
		InitialAmount: 5000,
		StartDate:     "2021-03-01",
		EndDate:       "2023-06-30",
		Allocation:    map[string]float64{"Gold": 70, "silver": 30},
		Purchase:      config.Purchase{Frequency: "quarterly", Day: 15, Amount: 250},
		Rebalance: []config.Rebalance{
			{Enabled: true, StartDate: "2021-06-01"},
			{Enabled: true, Conditional: true, Threshold: 0.05, Unit: "fraction", StartDate: "2021-12-01", CooldownDays: 90, RollForward: true},
		},
		Storage: config.Storage{
			AnnualFee: 1.5, VAT: 19, Frequency: "monthly", Basis: "market", Selector: "pro_rata",
		},
		Margins:          map[string]float64{"gold": 15.6, "silver": 18.36},
		BuybackDiscounts: map[string]float64{"gold": -1.5, "silver": -3},
		RebalanceMarkups: map[string]float64{"gold": 6.5, "silver": 6.5},
	}

	p, err := PolicyFromConfig(cfg, series)
	require.NoError(t, err)
	require.NoError(t, p.Validate(series))

	assert.Equal(t, 5000.0, p.InitialAmount)
	assert.Equal(t, day("2021-03-01"), p.Start)
	assert.Equal(t, day("2023-06-30"), p.End)
	assert.InDelta(t, 0.7, p.Allocation[market.Gold], 1e-12)
	assert.InDelta(t, 0.3, p.Allocation[market.Silver], 1e-12)
	assert.Equal(t, PurchasePlan{Frequency: FrequencyQuarterly, Day: 15, Amount: 250}, p.Purchase)

	assert.Equal(t, RebalanceRule{Enabled: true, Start: day("2021-06-01")}, p.Rebalance[0])
	assert.Equal(t, RebalanceRule{
		Enabled: true, Conditional: true, Threshold: 0.05, Unit: DeviationFraction,
		Start: day("2021-12-01"), CooldownDays: 90, RollForward: true,
	}, p.Rebalance[1])

	assert.Equal(t, StoragePolicy{
		AnnualFeePercent: 1.5, VATPercent: 19,
		Frequency: StorageMonthly, Basis: BasisMarketValue, Selector: SelectProRata,
	}, p.Storage)

	assert.Equal(t, 15.6, p.Pricing.Margin[market.Gold])
	assert.Equal(t, -3.0, p.Pricing.BuybackDiscount[market.Silver])
	assert.Equal(t, 6.5, p.Pricing.RebalanceMarkup[market.Gold])
}

func TestPolicyFromConfig_Defaults(t *testing.T) {
	series := buildSeries(t, "2020-01-01", "2020-12-31", true, func(time.Time) map[market.Metal]float64 {
		return map[market.Metal]float64{market.Gold: 1000, market.Silver: 20, market.Platinum: 900, market.Palladium: 800}
	})

	p, err := PolicyFromConfig(config.Simulation{}, series)
	require.NoError(t, err)

	assert.Equal(t, series.First(), p.Start)
	assert.Equal(t, series.Last(), p.End)
	assert.Equal(t, Allocation{market.Gold: 0.4, market.Silver: 0.2, market.Platinum: 0.2, market.Palladium: 0.2}, p.Allocation)
	assert.Equal(t, FrequencyNone, p.Purchase.Frequency)
	assert.False(t, p.Rebalance[0].Enabled)
	assert.False(t, p.Rebalance[1].Enabled)
	assert.Equal(t, SelectFixed, p.Storage.Selector)
	assert.Equal(t, market.Gold, p.Storage.Metal)
	assert.NoError(t, p.Validate(series))
}

func TestPolicyFromConfig_Errors(t *testing.T) {
	series := buildSeries(t, "2020-01-01", "2020-12-31", true, goldSilver)

	testCases := []struct {
		name  string
		cfg   config.Simulation
		param string
	}{
		{"bad start date", config.Simulation{StartDate: "01.01.2020"}, "start date"},
		{"bad end date", config.Simulation{EndDate: "2020-13-01"}, "end date"},
		{"unknown allocation metal", config.Simulation{Allocation: map[string]float64{"copper": 100}}, "allocation"},
		{"unknown frequency", config.Simulation{Purchase: config.Purchase{Frequency: "daily"}}, "purchase frequency"},
		{"too many slots", config.Simulation{Rebalance: make([]config.Rebalance, 3)}, "rebalance"},
		{"enabled slot without start", config.Simulation{Rebalance: []config.Rebalance{{Enabled: true}}}, "rebalance 1 start date"},
		{"unknown unit", config.Simulation{Rebalance: []config.Rebalance{{Unit: "percent"}}}, "deviation unit"},
		{"unknown storage frequency", config.Simulation{Storage: config.Storage{Frequency: "weekly"}}, "storage frequency"},
		{"unknown basis", config.Simulation{Storage: config.Storage{Basis: "spot"}}, "storage basis"},
		{"unknown selector", config.Simulation{Storage: config.Storage{Selector: "cheapest"}}, "storage selector"},
		{"unknown storage metal", config.Simulation{Storage: config.Storage{Metal: "rhodium"}}, "storage metal"},
		{"unknown margin metal", config.Simulation{Margins: map[string]float64{"tin": 1}}, "margins"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := PolicyFromConfig(tc.cfg, series)
			var cfgErr *ConfigurationError
			require.True(t, errors.As(err, &cfgErr), "got %v", err)
			assert.Equal(t, tc.param, cfgErr.Param)
		})
	}
}

func TestPolicyFromConfig_PurchaseDayDefault(t *testing.T) {
	series := buildSeries(t, "2020-01-01", "2020-12-31", true, goldSilver)
	allocation := map[string]float64{"gold": 50, "silver": 50}

	testCases := []struct {
		name     string
		purchase config.Purchase
		day      int
	}{
		{"weekly unset means monday", config.Purchase{Frequency: "weekly", Amount: 50}, 0},
		{"weekly explicit", config.Purchase{Frequency: "weekly", Day: 4, Amount: 50}, 4},
		{"monthly unset", config.Purchase{Frequency: "monthly", Amount: 50}, 15},
		{"quarterly unset", config.Purchase{Frequency: "quarterly", Amount: 50}, 15},
		{"monthly explicit", config.Purchase{Frequency: "monthly", Day: 3, Amount: 50}, 3},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			p, err := PolicyFromConfig(config.Simulation{Allocation: allocation, Purchase: tc.purchase}, series)
			require.NoError(t, err)
			assert.Equal(t, tc.day, p.Purchase.Day)
			assert.NoError(t, p.Validate(series))
		})
	}
}
