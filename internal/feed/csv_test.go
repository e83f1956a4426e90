package feed

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/MADMAX-9999/reb20app/internal/market"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const priceTable = `Date,Gold_EUR,Silver_EUR,Gold_USD,Platinum_EUR
2000-01-05,290.1,5.10,280.0,430
2000-01-03,288.0,5.00,279.0,428
2000-01-04,,5.05,279.5,429
2000-01-06,291.5,5.20,281.0,n/a
2000-01-07,292.0,5.25,282.0,433
`

func TestDecodePrices(t *testing.T) {
	series, err := DecodePrices(strings.NewReader(priceTable), "EUR")
	require.NoError(t, err)

	assert.Equal(t, []market.Metal{market.Gold, market.Silver, market.Platinum}, series.Metals())
	// rows with a missing or invalid value are dropped, the rest sorted
	require.Equal(t, 3, series.Len())
	assert.Equal(t, time.Date(2000, 1, 3, 0, 0, 0, 0, time.UTC), series.First())
	assert.Equal(t, time.Date(2000, 1, 7, 0, 0, 0, 0, time.UTC), series.Last())

	p, err := series.Price(time.Date(2000, 1, 5, 0, 0, 0, 0, time.UTC), market.Gold)
	require.NoError(t, err)
	assert.Equal(t, 290.1, p)
}

func TestDecodePrices_Errors(t *testing.T) {
	testCases := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"no metal columns", "Date,Copper_EUR\n2000-01-03,1\n"},
		{"bad date", "Date,Gold_EUR\nyesterday,1\n"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := DecodePrices(strings.NewReader(tc.input), "EUR")
			assert.Error(t, err)
		})
	}
}

func TestDecodeInflation(t *testing.T) {
	inf, err := DecodeInflation(strings.NewReader("Year,Percent\n2000,2.1\n2001, 2.4\n"))
	require.NoError(t, err)
	assert.Equal(t, market.Inflation{2000: 2.1, 2001: 2.4}, inf)

	_, err = DecodeInflation(strings.NewReader("Year,Percent\n2000,abc\n"))
	assert.Error(t, err)

	_, err = DecodeInflation(strings.NewReader("Year,Percent\nxx,1\n"))
	assert.Error(t, err)
}

func TestLoadFiles(t *testing.T) {
	dir := t.TempDir()
	prices := filepath.Join(dir, "prices.csv")
	inflation := filepath.Join(dir, "inflation.csv")
	require.NoError(t, os.WriteFile(prices, []byte(priceTable), 0o600))
	require.NoError(t, os.WriteFile(inflation, []byte("2000,1.5\n"), 0o600))

	series, err := LoadPricesFile(prices, "EUR")
	require.NoError(t, err)
	assert.Equal(t, 3, series.Len())

	inf, err := LoadInflationFile(inflation)
	require.NoError(t, err)
	assert.Equal(t, 1.5, inf[2000])

	_, err = LoadPricesFile(filepath.Join(dir, "missing.csv"), "EUR")
	assert.Error(t, err)
}
