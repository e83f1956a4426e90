package market

import (
	"fmt"
	"sort"
	"time"
)

// PriceRow is the spot price of every tracked metal on one trading date.
type PriceRow struct {
	Date   time.Time
	Prices map[Metal]float64
}

// Series is an ordered, gap-tolerant table of daily spot prices.
// Dates are strictly increasing; weekends and holidays are simply absent.
// A Series is never mutated after construction and may be shared between runs.
type Series struct {
	Currency string
	metals   []Metal
	rows     []PriceRow
	index    map[time.Time]int
}

// DataGapError reports an exact lookup of a date or metal column absent from the series.
type DataGapError struct {
	Date  time.Time
	Metal Metal
	// MissingDate is set when the whole trading date is absent rather than one column.
	MissingDate bool
}

func (e *DataGapError) Error() string {
	if e.MissingDate {
		return fmt.Sprintf("no price data for %s", e.Date.Format(time.DateOnly))
	}
	return fmt.Sprintf("no %s price on %s", e.Metal, e.Date.Format(time.DateOnly))
}

// Day truncates t to a calendar date at UTC midnight.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// NewSeries builds a Series over the given metal columns. Rows must be in
// strictly increasing date order and carry a price for every tracked metal.
func NewSeries(currency string, metals []Metal, rows []PriceRow) (*Series, error) {
	tracked := make([]Metal, 0, len(metals))
	seen := make(map[Metal]bool)
	for _, m := range Metals {
		for _, t := range metals {
			if t == m && !seen[m] {
				tracked = append(tracked, m)
				seen[m] = true
			}
		}
	}
	if len(tracked) != len(metals) {
		return nil, fmt.Errorf("invalid or duplicate metal columns: %v", metals)
	}

	s := &Series{
		Currency: currency,
		metals:   tracked,
		rows:     make([]PriceRow, len(rows)),
		index:    make(map[time.Time]int, len(rows)),
	}
	for i, r := range rows {
		date := Day(r.Date)
		if i > 0 && !date.After(s.rows[i-1].Date) {
			return nil, fmt.Errorf("row %d: date %s is not after %s", i, date.Format(time.DateOnly), s.rows[i-1].Date.Format(time.DateOnly))
		}
		prices := make(map[Metal]float64, len(tracked))
		for _, m := range tracked {
			p, ok := r.Prices[m]
			if !ok {
				return nil, fmt.Errorf("row %d: %w", i, &DataGapError{Date: date, Metal: m})
			}
			prices[m] = p
		}
		s.rows[i] = PriceRow{Date: date, Prices: prices}
		s.index[date] = i
	}
	return s, nil
}

// Metals returns the tracked metal columns in enumeration order.
func (s *Series) Metals() []Metal { return s.metals }

// Tracks reports whether the series carries a price column for m.
func (s *Series) Tracks(m Metal) bool {
	for _, t := range s.metals {
		if t == m {
			return true
		}
	}
	return false
}

func (s *Series) Len() int { return len(s.rows) }

// Row returns the i-th trading day.
func (s *Series) Row(i int) PriceRow { return s.rows[i] }

// First and Last return the bounds of the series. Both panic on an empty series.
func (s *Series) First() time.Time { return s.rows[0].Date }
func (s *Series) Last() time.Time  { return s.rows[len(s.rows)-1].Date }

// IndexOf returns the position of an exact trading date.
func (s *Series) IndexOf(date time.Time) (int, bool) {
	i, ok := s.index[Day(date)]
	return i, ok
}

// Price returns the spot price of m on an exact trading date.
func (s *Series) Price(date time.Time, m Metal) (float64, error) {
	i, ok := s.IndexOf(date)
	if !ok {
		return 0, &DataGapError{Date: Day(date), Metal: m, MissingDate: true}
	}
	p, ok := s.rows[i].Prices[m]
	if !ok {
		return 0, &DataGapError{Date: Day(date), Metal: m}
	}
	return p, nil
}

// Nearest returns the index of the trading date closest to date by absolute
// day distance. On a tie the earlier date wins. It returns false only for an
// empty series.
func (s *Series) Nearest(date time.Time) (int, bool) {
	n := len(s.rows)
	if n == 0 {
		return 0, false
	}
	date = Day(date)
	// first row not before date
	j := sort.Search(n, func(i int) bool { return !s.rows[i].Date.Before(date) })
	switch {
	case j == 0:
		return 0, true
	case j == n:
		return n - 1, true
	}
	before := date.Sub(s.rows[j-1].Date)
	after := s.rows[j].Date.Sub(date)
	if after < before {
		return j, true
	}
	return j - 1, true
}

// NearestDate is Nearest expressed as a date.
func (s *Series) NearestDate(date time.Time) (time.Time, bool) {
	i, ok := s.Nearest(date)
	if !ok {
		return time.Time{}, false
	}
	return s.rows[i].Date, true
}
