package simulation

import (
	"fmt"
	"strings"

	"github.com/MADMAX-9999/reb20app/internal/market"
)

// ActionKind tags the variant of an Action.
type ActionKind int

const (
	ActionInitial ActionKind = iota
	ActionRecurring
	ActionRebalance
	ActionRebalanceSkipped
	ActionStorageFee
)

// SkipReason explains why a rebalance slot did not execute.
type SkipReason int

const (
	SkipNone SkipReason = iota
	SkipTooSoon
	SkipNoValue
	SkipNoDeviation
)

func (r SkipReason) String() string {
	switch r {
	case SkipTooSoon:
		return "too_soon"
	case SkipNoValue:
		return "no_value"
	case SkipNoDeviation:
		return "no_deviation"
	}
	return "none"
}

// Trade is a single buy (positive grams) or sell (negative grams) of one metal.
type Trade struct {
	Metal market.Metal
	Grams float64
	Price float64
	// Amount is the cash paid (buy) or received (sell), always positive.
	Amount float64
}

// FeeCharge describes one storage fee deduction.
type FeeCharge struct {
	Basis     float64
	Requested float64
	Collected float64
	Sales     []Trade
}

// Action is one event on a simulated day. Only the fields relevant to Kind are set.
type Action struct {
	Kind ActionKind
	// Slot is the 1-based rebalance slot for rebalance actions.
	Slot int
	Skip SkipReason
	// Amount is the cash spent by a purchase.
	Amount float64
	Trades []Trade
	// Residual is rebalance cash left over after the buy pass.
	Residual float64
	Fee      *FeeCharge
}

// Label is the stable machine label of the action, e.g. "rebalance_2" or
// "rebalance_1_skipped(no_deviation)". Display text is derived elsewhere.
func (a Action) Label() string {
	switch a.Kind {
	case ActionInitial:
		return "initial"
	case ActionRecurring:
		return "recurring"
	case ActionRebalance:
		return fmt.Sprintf("rebalance_%d", a.Slot)
	case ActionRebalanceSkipped:
		return fmt.Sprintf("rebalance_%d_skipped(%s)", a.Slot, a.Skip)
	case ActionStorageFee:
		return "storage_fee"
	}
	return fmt.Sprintf("action(%d)", int(a.Kind))
}

func joinLabels(actions []Action) string {
	labels := make([]string, len(actions))
	for i, a := range actions {
		labels[i] = a.Label()
	}
	return strings.Join(labels, ", ")
}
