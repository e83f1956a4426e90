package simulation

import (
	"testing"

	"github.com/MADMAX-9999/reb20app/internal/market"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var goldSilver = flat(map[market.Metal]float64{market.Gold: 1000, market.Silver: 20})

func TestPurchaseDates(t *testing.T) {
	calendar := buildSeries(t, "2024-01-01", "2024-12-31", false, goldSilver)
	weekdays := buildSeries(t, "2024-01-01", "2024-12-31", true, goldSilver)

	// Mar 9 2024 is a Saturday, equidistant from the two trading dates
	gap, err := market.NewSeries("EUR", []market.Metal{market.Gold}, []market.PriceRow{
		row("2024-03-08", map[market.Metal]float64{market.Gold: 1}),
		row("2024-03-10", map[market.Metal]float64{market.Gold: 1}),
	})
	require.NoError(t, err)

	testCases := []struct {
		name     string
		series   *market.Series
		start    string
		freq     Frequency
		day      int
		end      string
		expected []string
	}{
		{"none", calendar, "2024-01-01", FrequencyNone, 15, "2024-12-31", nil},
		// the cursor steps a week at a time from the start date, so the last
		// nominal Monday (Feb 5) lies after the end date
		{"weekly anchored on start", calendar, "2024-01-03", FrequencyWeekly, 0, "2024-01-31",
			[]string{"2024-01-08", "2024-01-15", "2024-01-22", "2024-01-29", "2024-02-05"}},
		{"weekly same weekday as start", calendar, "2024-01-03", FrequencyWeekly, 2, "2024-01-17",
			[]string{"2024-01-03", "2024-01-10", "2024-01-17"}},
		{"monthly day capped at 28", calendar, "2024-01-20", FrequencyMonthly, 31, "2024-03-25",
			[]string{"2024-01-28", "2024-02-28", "2024-03-28"}},
		{"monthly nominal day before start", calendar, "2024-01-20", FrequencyMonthly, 5, "2024-02-20",
			[]string{"2024-01-05", "2024-02-05"}},
		{"quarterly", calendar, "2024-01-10", FrequencyQuarterly, 5, "2024-12-31",
			[]string{"2024-01-05", "2024-04-05", "2024-07-05", "2024-10-05"}},
		// Jan 6 2024 is a Saturday (Friday is closer), Jan 7 a Sunday (Monday is closer)
		{"snapped back to friday", weekdays, "2024-01-01", FrequencyMonthly, 6, "2024-01-31",
			[]string{"2024-01-05"}},
		{"snapped forward to monday", weekdays, "2024-01-01", FrequencyMonthly, 7, "2024-01-31",
			[]string{"2024-01-08"}},
		{"tie snaps to earlier date", gap, "2024-03-08", FrequencyWeekly, 5, "2024-03-08",
			[]string{"2024-03-08"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := PurchaseDates(tc.series, day(tc.start), tc.freq, tc.day, day(tc.end))
			if len(tc.expected) == 0 {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, dates(tc.expected...), got)
		})
	}
}

func TestPurchaseDates_EmptySeries(t *testing.T) {
	empty, err := market.NewSeries("EUR", []market.Metal{market.Gold}, nil)
	require.NoError(t, err)

	got := PurchaseDates(empty, day("2024-01-01"), FrequencyMonthly, 15, day("2024-12-31"))
	assert.Empty(t, got)
}

func TestAddMonthsClamped(t *testing.T) {
	assert.Equal(t, day("2024-02-29"), addMonthsClamped(day("2024-01-31"), 1))
	assert.Equal(t, day("2023-02-28"), addMonthsClamped(day("2023-01-31"), 1))
	assert.Equal(t, day("2025-01-31"), addMonthsClamped(day("2024-10-31"), 3))
}
