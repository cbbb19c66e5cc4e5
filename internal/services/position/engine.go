package position

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/idoh90/portfoliohub/internal/models"
)

// WeightedAverage is the net open quantity and average cost of a ledger.
type WeightedAverage struct {
	TotalQuantity   float64
	WeightedAvgCost float64
}

// WeightedAverageCost accumulates buy quantity and buy cost (fees
// included), subtracting sell quantity from the running total. Sells do
// not reduce accumulated cost: the average reflects buy-lot basis only.
// A closed or over-sold position (quantity <= 0) has average cost 0.
// Order-independent, so the ledger is consumed as given.
func WeightedAverageCost(lots []models.Lot) WeightedAverage {
	quantity := decimal.Zero
	cost := decimal.Zero

	for _, lot := range lots {
		switch lot.Side {
		case models.LotSideBuy:
			quantity = quantity.Add(dec(lot.Quantity))
			cost = cost.Add(lotCost(lot.Quantity, lot.Price, lot.Fees))
		case models.LotSideSell:
			quantity = quantity.Sub(dec(lot.Quantity))
		}
	}

	wa := WeightedAverage{TotalQuantity: quantity.InexactFloat64()}
	if quantity.IsPositive() {
		wa.WeightedAvgCost = cost.Div(quantity).InexactFloat64()
	}
	return wa
}

// openBuy is a buy lot with quantity still unmatched by sells.
type openBuy struct {
	quantity decimal.Decimal
	price    decimal.Decimal
}

// RealizedPLFIFO computes realized gain/loss by matching each sell
// against the oldest unsold buy quantity first. Partially consumed buys
// keep their remainder at the original price; fees are not re-amortized
// here. Sell quantity beyond cumulative buy quantity is left unmatched
// and contributes nothing (the total silently under-reports).
func RealizedPLFIFO(lots []models.Lot) float64 {
	ordered := sortedByDate(lots)

	var queue []openBuy
	realized := decimal.Zero

	for _, lot := range ordered {
		switch lot.Side {
		case models.LotSideBuy:
			queue = append(queue, openBuy{quantity: dec(lot.Quantity), price: dec(lot.Price)})
		case models.LotSideSell:
			toMatch := dec(lot.Quantity)
			sellPrice := dec(lot.Price)
			for len(queue) > 0 && toMatch.IsPositive() {
				head := &queue[0]
				matched := decimal.Min(head.quantity, toMatch)
				realized = realized.Add(sellPrice.Sub(head.price).Mul(matched))
				head.quantity = head.quantity.Sub(matched)
				toMatch = toMatch.Sub(matched)
				if head.quantity.IsZero() {
					queue = queue[1:]
				}
			}
		}
	}

	return realized.InexactFloat64()
}

// UnrealizedPL is totalQuantity * (currentPrice - weightedAvgCost),
// zero for a closed position.
func UnrealizedPL(currentPrice float64, lots []models.Lot) float64 {
	wa := WeightedAverageCost(lots)
	if wa.TotalQuantity <= 0 {
		return 0
	}
	return dec(wa.TotalQuantity).
		Mul(dec(currentPrice).Sub(dec(wa.WeightedAvgCost))).
		InexactFloat64()
}

// SoldLot records how much of a lot a FIFO sale consumed.
type SoldLot struct {
	LotID     string  `json:"lot_id"`
	Quantity  float64 `json:"quantity"`
	CostBasis float64 `json:"cost_basis"`
}

// FIFOResult is the outcome of matching a sale against a ledger.
type FIFOResult struct {
	CostBasis     float64      `json:"cost_basis"`
	RemainingLots []models.Lot `json:"remaining_lots"`
	SoldLots      []SoldLot    `json:"sold_lots"`
}

// FIFOCostBasis walks the ledger in ascending date order, consuming lot
// quantity against sellQuantity. Fully consumed lots contribute their
// whole cost, fees included. The first lot larger than the remainder is
// consumed partially: cost and fees are prorated by the fraction sold,
// and the lot is kept with reduced quantity and fees. Lots after the
// sell point are kept verbatim, as is everything once available
// quantity runs out.
func FIFOCostBasis(lots []models.Lot, sellQuantity float64) FIFOResult {
	ordered := sortedByDate(lots)

	result := FIFOResult{
		RemainingLots: make([]models.Lot, 0, len(ordered)),
		SoldLots:      make([]SoldLot, 0),
	}

	costBasis := decimal.Zero
	toSell := dec(sellQuantity)

	for _, lot := range ordered {
		if !toSell.IsPositive() {
			result.RemainingLots = append(result.RemainingLots, lot)
			continue
		}

		quantity := dec(lot.Quantity)
		if quantity.LessThanOrEqual(toSell) {
			// Whole lot consumed.
			full := lotCost(lot.Quantity, lot.Price, lot.Fees)
			costBasis = costBasis.Add(full)
			result.SoldLots = append(result.SoldLots, SoldLot{
				LotID:     lot.ID,
				Quantity:  lot.Quantity,
				CostBasis: full.InexactFloat64(),
			})
			toSell = toSell.Sub(quantity)
			continue
		}

		// Partial consumption: prorate cost and fees by fraction sold.
		fraction := toSell.Div(quantity)
		soldCost := lotCost(lot.Quantity, lot.Price, lot.Fees).Mul(fraction)
		costBasis = costBasis.Add(soldCost)
		result.SoldLots = append(result.SoldLots, SoldLot{
			LotID:     lot.ID,
			Quantity:  toSell.InexactFloat64(),
			CostBasis: soldCost.InexactFloat64(),
		})

		remainder := lot
		remainder.Quantity = quantity.Sub(toSell).InexactFloat64()
		remainder.Fees = dec(lot.Fees).Mul(decimal.NewFromInt(1).Sub(fraction)).InexactFloat64()
		result.RemainingLots = append(result.RemainingLots, remainder)
		toSell = decimal.Zero
	}

	result.CostBasis = costBasis.InexactFloat64()
	return result
}

// sortedByDate returns a copy of the ledger in ascending date order,
// preserving arrival order for equal dates.
func sortedByDate(lots []models.Lot) []models.Lot {
	ordered := make([]models.Lot, len(lots))
	copy(ordered, lots)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Date.Before(ordered[j].Date)
	})
	return ordered
}
