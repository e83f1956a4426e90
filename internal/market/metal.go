package market

import (
	"fmt"
	"strings"
)

// Metal is one of the four tracked precious metals.
type Metal int

const (
	Gold Metal = iota
	Silver
	Platinum
	Palladium
)

// Metals lists every metal in enumeration order. Iteration over holdings,
// trades and tie-breaks always follows this order.
var Metals = []Metal{Gold, Silver, Platinum, Palladium}

var metalNames = [...]string{"Gold", "Silver", "Platinum", "Palladium"}

func (m Metal) String() string {
	if m < Gold || m > Palladium {
		return fmt.Sprintf("Metal(%d)", int(m))
	}
	return metalNames[m]
}

// Valid reports whether m is one of the enumerated metals.
func (m Metal) Valid() bool { return m >= Gold && m <= Palladium }

// Column returns the price table column name for m in the given quote currency, e.g. "Gold_EUR".
func (m Metal) Column(currency string) string {
	return m.String() + "_" + currency
}

// ParseMetal resolves a metal name case-insensitively.
func ParseMetal(name string) (Metal, error) {
	for i, n := range metalNames {
		if strings.EqualFold(strings.TrimSpace(name), n) {
			return Metal(i), nil
		}
	}
	return 0, fmt.Errorf("unknown metal %q", name)
}
