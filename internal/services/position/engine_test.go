package position

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idoh90/portfoliohub/internal/models"
)

func day(offset int) time.Time {
	return time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC).AddDate(0, 0, offset)
}

func buy(quantity, price, fees float64, offset int) models.Lot {
	return models.NewLot(models.LotSideBuy, quantity, price, fees, day(offset))
}

func sell(quantity, price float64, offset int) models.Lot {
	return models.NewLot(models.LotSideSell, quantity, price, 0, day(offset))
}

func TestWeightedAverageCost_BuysOnly(t *testing.T) {
	lots := []models.Lot{
		buy(10, 100, 5, 0),
		buy(20, 110, 0, 1),
		buy(5, 90, 2.50, 2),
	}

	wa := WeightedAverageCost(lots)

	// sum(qty*price+fees) / sum(qty)
	wantCost := (10*100 + 5 + 20*110 + 5*90 + 2.50) / 35
	assert.InDelta(t, 35, wa.TotalQuantity, 1e-9)
	assert.InDelta(t, wantCost, wa.WeightedAvgCost, 1e-9)
}

func TestWeightedAverageCost_SellsReduceQuantityNotCost(t *testing.T) {
	lots := []models.Lot{
		buy(10, 100, 0, 0),
		sell(4, 130, 1),
	}

	wa := WeightedAverageCost(lots)

	assert.InDelta(t, 6, wa.TotalQuantity, 1e-9)
	// cost stays at 1000, spread over the remaining 6 units
	assert.InDelta(t, 1000.0/6, wa.WeightedAvgCost, 1e-9)
}

func TestWeightedAverageCost_ClosedPosition(t *testing.T) {
	lots := []models.Lot{
		buy(10, 100, 0, 0),
		sell(10, 120, 1),
	}

	wa := WeightedAverageCost(lots)

	assert.Zero(t, wa.TotalQuantity)
	assert.Zero(t, wa.WeightedAvgCost)
}

func TestWeightedAverageCost_NoFloatDrift(t *testing.T) {
	// 0.1 summed 100 times drifts under binary floats; decimals must not.
	var lots []models.Lot
	for i := 0; i < 100; i++ {
		lots = append(lots, buy(1, 0.1, 0, 0))
	}

	wa := WeightedAverageCost(lots)

	assert.Equal(t, 0.1, wa.WeightedAvgCost)
	assert.Equal(t, float64(100), wa.TotalQuantity)
}

func TestRealizedPLFIFOPartialSellAcrossLots(t *testing.T) {
	lots := []models.Lot{
		buy(10, 100, 0, 0),
		buy(10, 120, 0, 1),
		sell(15, 130, 2),
	}

	// 15*130 - (10*100 + 5*120) = 350
	assert.InDelta(t, 350, RealizedPLFIFO(lots), 1e-9)
}

func TestRealizedPLFIFO_SellBeforeLaterBuy(t *testing.T) {
	// The sell is dated between the two buys; it must only match the
	// earlier one even though the later buy arrives first in the slice.
	lots := []models.Lot{
		buy(10, 200, 0, 5),
		buy(10, 100, 0, 0),
		sell(10, 150, 2),
	}

	assert.InDelta(t, 500, RealizedPLFIFO(lots), 1e-9)
}

func TestRealizedPLFIFO_OverSellIgnoresExcess(t *testing.T) {
	lots := []models.Lot{
		buy(5, 100, 0, 0),
		sell(20, 150, 1),
	}

	// Only 5 units match; the 15 excess is silently unmatched.
	assert.InDelta(t, 250, RealizedPLFIFO(lots), 1e-9)
}

func TestRealizedPLFIFO_PartialBuyRetainsPrice(t *testing.T) {
	lots := []models.Lot{
		buy(10, 100, 0, 0),
		sell(4, 110, 1),
		sell(6, 120, 2),
	}

	// 4*(110-100) + 6*(120-100)
	assert.InDelta(t, 160, RealizedPLFIFO(lots), 1e-9)
}

func TestUnrealizedPL(t *testing.T) {
	lots := []models.Lot{
		buy(10, 100, 0, 0),
		buy(10, 120, 0, 1),
	}

	wa := WeightedAverageCost(lots)
	got := UnrealizedPL(130, lots)

	assert.InDelta(t, wa.TotalQuantity*(130-wa.WeightedAvgCost), got, 1e-9)
	assert.InDelta(t, 400, got, 1e-9)
}

func TestUnrealizedPL_ClosedPositionIsZero(t *testing.T) {
	lots := []models.Lot{
		buy(10, 100, 0, 0),
		sell(10, 150, 1),
	}

	assert.Zero(t, UnrealizedPL(200, lots))
	assert.Zero(t, UnrealizedPL(200, nil))
}

func TestFIFOCostBasis_SellEverything(t *testing.T) {
	lots := []models.Lot{
		buy(10, 100, 5, 0),
		buy(20, 120, 10, 1),
	}

	res := FIFOCostBasis(lots, 30)

	require.Empty(t, res.RemainingLots)
	require.Len(t, res.SoldLots, 2)
	assert.InDelta(t, 10*100+5+20*120+10, res.CostBasis, 1e-9)
}

func TestFIFOCostBasis_PartialLotProratesCostAndFees(t *testing.T) {
	lots := []models.Lot{
		buy(10, 100, 4, 0),
		buy(10, 120, 8, 1),
	}

	res := FIFOCostBasis(lots, 15)

	// First lot fully consumed (1004), second half consumed
	// ((10*120+8) * 0.5 = 604).
	assert.InDelta(t, 1004+604, res.CostBasis, 1e-9)

	require.Len(t, res.RemainingLots, 1)
	remainder := res.RemainingLots[0]
	assert.InDelta(t, 5, remainder.Quantity, 1e-9)
	assert.InDelta(t, 120, remainder.Price, 1e-9)
	assert.InDelta(t, 4, remainder.Fees, 1e-9) // half the fees stay

	require.Len(t, res.SoldLots, 2)
	assert.InDelta(t, 10, res.SoldLots[0].Quantity, 1e-9)
	assert.InDelta(t, 5, res.SoldLots[1].Quantity, 1e-9)
}

func TestFIFOCostBasis_WalksDateOrderNotSliceOrder(t *testing.T) {
	newest := buy(10, 200, 0, 9)
	oldest := buy(10, 100, 0, 0)

	res := FIFOCostBasis([]models.Lot{newest, oldest}, 10)

	assert.InDelta(t, 1000, res.CostBasis, 1e-9)
	require.Len(t, res.RemainingLots, 1)
	assert.Equal(t, newest.ID, res.RemainingLots[0].ID)
}

func TestFIFOCostBasis_OverSellKeepsNothingUnconsumed(t *testing.T) {
	lots := []models.Lot{buy(5, 100, 0, 0)}

	res := FIFOCostBasis(lots, 50)

	assert.Empty(t, res.RemainingLots)
	assert.InDelta(t, 500, res.CostBasis, 1e-9)
}

func TestFIFOCostBasis_ZeroSellKeepsLedgerVerbatim(t *testing.T) {
	lots := []models.Lot{buy(5, 100, 2, 0), buy(3, 110, 1, 1)}

	res := FIFOCostBasis(lots, 0)

	assert.Zero(t, res.CostBasis)
	assert.Empty(t, res.SoldLots)
	require.Len(t, res.RemainingLots, 2)
	assert.Equal(t, lots[0].ID, res.RemainingLots[0].ID)
	assert.Equal(t, lots[1].ID, res.RemainingLots[1].ID)
}
