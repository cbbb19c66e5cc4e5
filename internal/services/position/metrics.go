package position

import (
	"github.com/shopspring/decimal"

	"github.com/idoh90/portfoliohub/internal/models"
)

// LotMetrics values a single lot against a current price. The percent
// return is 0 when the cost basis is 0.
func LotMetrics(lot models.Lot, currentPrice float64) models.LotMetrics {
	costBasis := lotCost(lot.Quantity, lot.Price, lot.Fees)
	currentValue := dec(lot.Quantity).Mul(dec(currentPrice))
	pnl := currentValue.Sub(costBasis)

	return models.LotMetrics{
		CostBasis:            costBasis.InexactFloat64(),
		CurrentValue:         currentValue.InexactFloat64(),
		UnrealizedPnL:        pnl.InexactFloat64(),
		UnrealizedPnLPercent: ratioDiv(pnl, costBasis).Mul(dec(100)).InexactFloat64(),
	}
}

// PositionMetrics aggregates a ledger against the current price and the
// previous close. TotalCost sums quantity*price+fees across every lot,
// sells included (gross lot cost, not net remaining basis). Every
// percentage guards its denominator by returning 0.
func PositionMetrics(lots []models.Lot, currentPrice, prevClose float64) models.PositionMetrics {
	wa := WeightedAverageCost(lots)

	totalCost := decimal.Zero
	for _, lot := range lots {
		totalCost = totalCost.Add(lotCost(lot.Quantity, lot.Price, lot.Fees))
	}

	m := models.PositionMetrics{
		TotalQuantity: wa.TotalQuantity,
		TotalCost:     totalCost.InexactFloat64(),
		AvgCost:       wa.WeightedAvgCost,
	}

	if wa.TotalQuantity > 0 {
		quantity := dec(wa.TotalQuantity)
		currentValue := quantity.Mul(dec(currentPrice))
		basis := quantity.Mul(dec(wa.WeightedAvgCost))
		pnl := currentValue.Sub(basis)

		m.CurrentValue = currentValue.InexactFloat64()
		m.UnrealizedPnL = pnl.InexactFloat64()
		m.UnrealizedPnLPercent = ratioDiv(pnl, basis).Mul(dec(100)).InexactFloat64()

		todayChange := quantity.Mul(dec(currentPrice).Sub(dec(prevClose)))
		m.TodayChange = todayChange.InexactFloat64()
		if prevClose > 0 {
			m.TodayChangePercent = dec(currentPrice).Sub(dec(prevClose)).
				Div(dec(prevClose)).Mul(dec(100)).InexactFloat64()
		}
	}

	return m
}
