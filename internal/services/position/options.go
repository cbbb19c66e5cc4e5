package position

import (
	"math"

	"github.com/idoh90/portfoliohub/internal/models"
)

// OptionType is the option contract kind.
type OptionType string

const (
	OptionCall OptionType = "call"
	OptionPut  OptionType = "put"
)

// OptionAction is the position direction.
type OptionAction string

const (
	OptionBuy  OptionAction = "buy"
	OptionSell OptionAction = "sell"
)

// OptionBreakeven computes the closed-form breakeven and profit/loss
// bounds for a single-leg option position.
//
// Sentinels: MaxProfit nil means unbounded profit (long call); MaxLoss
// math.Inf(1) means unbounded loss (short call). The two fields use
// different conventions on purpose so consumers can't confuse them.
func OptionBreakeven(optionType OptionType, action OptionAction, strike, premium float64, contracts int, multiplier float64) (models.OptionBreakeven, error) {
	if optionType != OptionCall && optionType != OptionPut {
		return models.OptionBreakeven{}, &models.ValidationError{
			Entity: "option",
			Fields: map[string]string{"type": "must be call or put"},
		}
	}
	if action != OptionBuy && action != OptionSell {
		return models.OptionBreakeven{}, &models.ValidationError{
			Entity: "option",
			Fields: map[string]string{"action": "must be buy or sell"},
		}
	}

	totalPremium := dec(premium).Mul(dec(float64(contracts))).Mul(dec(multiplier)).InexactFloat64()

	var be models.OptionBreakeven
	switch optionType {
	case OptionCall:
		be.Breakeven = dec(strike).Add(dec(premium)).InexactFloat64()
		if action == OptionBuy {
			be.MaxProfit = nil // unbounded upside
			be.MaxLoss = totalPremium
		} else {
			profit := totalPremium
			be.MaxProfit = &profit
			be.MaxLoss = math.Inf(1) // unbounded downside
		}
	case OptionPut:
		be.Breakeven = dec(strike).Sub(dec(premium)).InexactFloat64()
		intrinsicAtZero := dec(strike).Sub(dec(premium)).
			Mul(dec(float64(contracts))).Mul(dec(multiplier)).InexactFloat64()
		if action == OptionBuy {
			profit := intrinsicAtZero
			be.MaxProfit = &profit
			be.MaxLoss = totalPremium
		} else {
			profit := totalPremium
			be.MaxProfit = &profit
			be.MaxLoss = intrinsicAtZero
		}
	}

	return be, nil
}

// OptionExpirationPL is the realized P/L when an option position expires
// unexercised. A long position loses its full average cost per unit; a
// short position keeps the premium collected.
func OptionExpirationPL(lots []models.Lot, positionIsLong bool) float64 {
	wa := WeightedAverageCost(lots)
	if wa.TotalQuantity <= 0 {
		return 0
	}
	total := dec(wa.TotalQuantity).Mul(dec(wa.WeightedAvgCost))
	if positionIsLong {
		return total.Neg().InexactFloat64()
	}
	return total.InexactFloat64()
}
