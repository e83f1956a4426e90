package simulation

import (
	"time"

	"github.com/MADMAX-9999/reb20app/internal/market"
)

// maxPurchaseDay caps the day of month of monthly and quarterly purchases so
// that every month has the day.
const maxPurchaseDay = 28

// PurchaseDates returns the trading dates of the recurring purchases between
// start and end. Nominal dates are snapped to the nearest trading date of the
// series, so the result may contain duplicates and dates outside [start, end].
//
// Weekly plans step the cursor by exactly seven days from start, not from the
// matched weekday; day is the weekday index with 0 meaning Monday.
func PurchaseDates(series *market.Series, start time.Time, freq Frequency, day int, end time.Time) []time.Time {
	var dates []time.Time
	snap := func(nominal time.Time) {
		if d, ok := series.NearestDate(nominal); ok {
			dates = append(dates, d)
		}
	}

	start, end = market.Day(start), market.Day(end)
	switch freq {
	case FrequencyWeekly:
		for cursor := start; !cursor.After(end); cursor = cursor.AddDate(0, 0, 7) {
			ahead := (day - mondayIndex(cursor.Weekday()) + 7) % 7
			snap(cursor.AddDate(0, 0, ahead))
		}
	case FrequencyMonthly, FrequencyQuarterly:
		step := 1
		if freq == FrequencyQuarterly {
			step = 3
		}
		target := min(day, maxPurchaseDay)
		for k := 0; ; k += step {
			cursor := addMonthsClamped(start, k)
			if cursor.After(end) {
				break
			}
			snap(time.Date(cursor.Year(), cursor.Month(), target, 0, 0, 0, 0, time.UTC))
		}
	}
	return dates
}

func mondayIndex(d time.Weekday) int {
	return (int(d) + 6) % 7
}

// addMonthsClamped adds n calendar months to t, clamping the day to the
// length of the resulting month (Jan 31 + 1 month = Feb 28/29).
func addMonthsClamped(t time.Time, n int) time.Time {
	first := time.Date(t.Year(), t.Month()+time.Month(n), 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1).Day()
	return time.Date(first.Year(), first.Month(), min(t.Day(), last), 0, 0, 0, 0, time.UTC)
}
