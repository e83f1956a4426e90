package feed

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/MADMAX-9999/reb20app/internal/market"
)

// DecodePrices reads a price table whose first column is the date and whose
// metal columns are named "<Metal>_<currency>", e.g. "Gold_EUR". Other
// columns are ignored. Rows with a missing or unparsable metal price are
// dropped, the rest are sorted by date.
func DecodePrices(r io.Reader, currency string) (*market.Series, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read price header: %w", err)
	}
	columns := make(map[int]market.Metal)
	var metals []market.Metal
	for i, name := range header[1:] {
		for _, m := range market.Metals {
			if strings.EqualFold(strings.TrimSpace(name), m.Column(currency)) {
				columns[i+1] = m
				metals = append(metals, m)
			}
		}
	}
	if len(metals) == 0 {
		return nil, fmt.Errorf("no %s price columns in header %v", currency, header)
	}

	var rows []market.PriceRow
	seen := make(map[time.Time]bool)
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		date, err := parseDate(rec[0])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if seen[date] {
			continue
		}
		row, ok := parseRow(rec, columns)
		if !ok {
			continue
		}
		row.Date = date
		seen[date] = true
		rows = append(rows, row)
	}

	sort.Slice(rows, func(i, j int) bool { return rows[i].Date.Before(rows[j].Date) })
	return market.NewSeries(currency, metals, rows)
}

func parseRow(rec []string, columns map[int]market.Metal) (market.PriceRow, bool) {
	row := market.PriceRow{Prices: make(map[market.Metal]float64, len(columns))}
	for i, m := range columns {
		if i >= len(rec) {
			return row, false
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(rec[i]), 64)
		if err != nil || v <= 0 {
			return row, false
		}
		row.Prices[m] = v
	}
	return row, true
}

var dateLayouts = []string{time.DateOnly, "2006-01-02 15:04:05", "02.01.2006", "01/02/2006"}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return market.Day(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", s)
}

// DecodeInflation reads a two-column "Year,Percent" table.
func DecodeInflation(r io.Reader) (market.Inflation, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read inflation table: %w", err)
	}

	inflation := make(market.Inflation, len(records))
	for i, rec := range records {
		if len(rec) < 2 {
			return nil, fmt.Errorf("line %d: want 2 columns, got %d", i+1, len(rec))
		}
		year, err := strconv.Atoi(strings.TrimSpace(rec[0]))
		if err != nil {
			if i == 0 {
				continue // header
			}
			return nil, fmt.Errorf("line %d: invalid year %q", i+1, rec[0])
		}
		pct, err := strconv.ParseFloat(strings.TrimSpace(rec[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid percent %q", i+1, rec[1])
		}
		inflation[year] = pct
	}
	return inflation, nil
}

// LoadPricesFile reads a price table from disk.
func LoadPricesFile(path, currency string) (*market.Series, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open price table: %w", err)
	}
	defer f.Close()
	return DecodePrices(f, currency)
}

// LoadInflationFile reads an inflation table from disk.
func LoadInflationFile(path string) (market.Inflation, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open inflation table: %w", err)
	}
	defer f.Close()
	return DecodeInflation(f)
}
