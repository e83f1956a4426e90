package market

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(s string) time.Time {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		panic(err)
	}
	return t
}

func testSeries(t *testing.T, dates ...string) *Series {
	rows := make([]PriceRow, 0, len(dates))
	for i, d := range dates {
		rows = append(rows, PriceRow{Date: date(d), Prices: map[Metal]float64{Gold: 1000 + float64(i), Silver: 20}})
	}
	s, err := NewSeries("EUR", []Metal{Silver, Gold}, rows)
	require.NoError(t, err)
	return s
}

func TestParseMetal(t *testing.T) {
	m, err := ParseMetal(" platinum ")
	assert.NoError(t, err)
	assert.Equal(t, Platinum, m)

	_, err = ParseMetal("Rhodium")
	assert.Error(t, err)

	assert.Equal(t, "Palladium_EUR", Palladium.Column("EUR"))
	assert.Equal(t, "Metal(9)", Metal(9).String())
}

func TestNewSeries(t *testing.T) {
	t.Run("metals sorted in enumeration order", func(t *testing.T) {
		s := testSeries(t, "2020-01-02")
		assert.Equal(t, []Metal{Gold, Silver}, s.Metals())
		assert.True(t, s.Tracks(Silver))
		assert.False(t, s.Tracks(Palladium))
	})

	t.Run("rejects unsorted dates", func(t *testing.T) {
		_, err := NewSeries("EUR", []Metal{Gold}, []PriceRow{
			{Date: date("2020-01-03"), Prices: map[Metal]float64{Gold: 1}},
			{Date: date("2020-01-03"), Prices: map[Metal]float64{Gold: 1}},
		})
		assert.Error(t, err)
	})

	t.Run("rejects missing column", func(t *testing.T) {
		_, err := NewSeries("EUR", []Metal{Gold, Silver}, []PriceRow{
			{Date: date("2020-01-03"), Prices: map[Metal]float64{Gold: 1}},
		})
		var gap *DataGapError
		require.True(t, errors.As(err, &gap))
		assert.Equal(t, Silver, gap.Metal)
	})
}

func TestSeriesPrice(t *testing.T) {
	s := testSeries(t, "2020-01-02", "2020-01-03", "2020-01-06")

	p, err := s.Price(date("2020-01-03"), Gold)
	assert.NoError(t, err)
	assert.Equal(t, 1001.0, p)

	_, err = s.Price(date("2020-01-04"), Gold)
	var gap *DataGapError
	require.True(t, errors.As(err, &gap))
	assert.True(t, gap.MissingDate)

	_, err = s.Price(date("2020-01-03"), Platinum)
	require.True(t, errors.As(err, &gap))
	assert.False(t, gap.MissingDate)
	assert.Equal(t, Platinum, gap.Metal)
}

func TestSeriesNearest(t *testing.T) {
	s := testSeries(t, "2020-01-02", "2020-01-03", "2020-01-06", "2020-01-10")

	testCases := []struct {
		name     string
		target   string
		expected string
	}{
		{"exact", "2020-01-03", "2020-01-03"},
		{"before first", "2019-12-01", "2020-01-02"},
		{"after last", "2021-01-01", "2020-01-10"},
		{"closer to later", "2020-01-05", "2020-01-06"},
		{"tie picks earlier", "2020-01-08", "2020-01-06"},
		{"closer to earlier", "2020-01-04", "2020-01-03"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			d, ok := s.NearestDate(date(tc.target))
			require.True(t, ok)
			assert.Equal(t, date(tc.expected), d)
		})
	}

	empty, err := NewSeries("EUR", []Metal{Gold}, nil)
	require.NoError(t, err)
	_, ok := empty.Nearest(date("2020-01-01"))
	assert.False(t, ok)
}

func TestInflationDeflator(t *testing.T) {
	inf := Inflation{2000: 2, 2001: 10}

	d, err := inf.Deflator(2000, 2001)
	assert.NoError(t, err)
	assert.InDelta(t, 1.02*1.10, d, 1e-12)

	d, err = inf.Deflator(2001, 2000)
	assert.NoError(t, err)
	assert.Equal(t, 1.0, d)

	_, err = inf.Deflator(2000, 2002)
	assert.Error(t, err)
}
