package market

import "fmt"

// Inflation maps a calendar year to its annual inflation in percent.
type Inflation map[int]float64

// Deflator returns Π_{y=from}^{to}(1+inflation(y)/100). A year missing from
// the table is an error; an empty range (to < from) yields 1.
func (inf Inflation) Deflator(from, to int) (float64, error) {
	d := 1.0
	for y := from; y <= to; y++ {
		p, ok := inf[y]
		if !ok {
			return 0, fmt.Errorf("no inflation data for year %d", y)
		}
		d *= 1 + p/100
	}
	return d, nil
}
