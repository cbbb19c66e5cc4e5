// Package position computes cost basis and P&L metrics over lot ledgers.
package position

import "github.com/shopspring/decimal"

// Money aggregation runs on exact decimals so that cent-level amounts
// survive long chains of additions without binary float drift. Values
// enter as float64 at the API boundary and leave the same way.
//
// Division by a zero quantity is the caller's guard: an empty or fully
// closed position has no defined average cost, so callers return 0
// instead of dividing.

func dec(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}

// lotCost returns quantity*price + fees as a decimal.
func lotCost(quantity, price, fees float64) decimal.Decimal {
	return dec(quantity).Mul(dec(price)).Add(dec(fees))
}

// ratioDiv divides a by b, returning zero when b is zero.
func ratioDiv(a, b decimal.Decimal) decimal.Decimal {
	if b.IsZero() {
		return decimal.Zero
	}
	return a.Div(b)
}
