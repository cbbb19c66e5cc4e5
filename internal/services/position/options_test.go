package position

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idoh90/portfoliohub/internal/models"
)

func TestOptionBreakeven_LongCall(t *testing.T) {
	be, err := OptionBreakeven(OptionCall, OptionBuy, 100, 5, 1, 100)
	require.NoError(t, err)

	assert.InDelta(t, 105, be.Breakeven, 1e-9)
	assert.Nil(t, be.MaxProfit, "long call profit is unbounded")
	assert.InDelta(t, 500, be.MaxLoss, 1e-9)
}

func TestOptionBreakeven_ShortCall(t *testing.T) {
	be, err := OptionBreakeven(OptionCall, OptionSell, 100, 5, 2, 100)
	require.NoError(t, err)

	assert.InDelta(t, 105, be.Breakeven, 1e-9)
	require.NotNil(t, be.MaxProfit)
	assert.InDelta(t, 1000, *be.MaxProfit, 1e-9)
	assert.True(t, math.IsInf(be.MaxLoss, 1), "short call loss is unbounded")
}

func TestOptionBreakeven_LongPut(t *testing.T) {
	be, err := OptionBreakeven(OptionPut, OptionBuy, 100, 5, 1, 100)
	require.NoError(t, err)

	assert.InDelta(t, 95, be.Breakeven, 1e-9)
	require.NotNil(t, be.MaxProfit)
	assert.InDelta(t, 9500, *be.MaxProfit, 1e-9) // (strike-premium)*contracts*multiplier
	assert.InDelta(t, 500, be.MaxLoss, 1e-9)
}

func TestOptionBreakeven_ShortPut(t *testing.T) {
	be, err := OptionBreakeven(OptionPut, OptionSell, 100, 5, 1, 100)
	require.NoError(t, err)

	assert.InDelta(t, 95, be.Breakeven, 1e-9)
	require.NotNil(t, be.MaxProfit)
	assert.InDelta(t, 500, *be.MaxProfit, 1e-9)
	assert.InDelta(t, 9500, be.MaxLoss, 1e-9)
}

func TestOptionBreakeven_InvalidInputs(t *testing.T) {
	_, err := OptionBreakeven("straddle", OptionBuy, 100, 5, 1, 100)
	var verr *models.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "type")

	_, err = OptionBreakeven(OptionCall, "hold", 100, 5, 1, 100)
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "action")
}

func TestOptionExpirationPL(t *testing.T) {
	lots := []models.Lot{
		buy(2, 3.50, 0, 0),
		buy(2, 4.50, 0, 1),
	}

	assert.InDelta(t, -16, OptionExpirationPL(lots, true), 1e-9)
	assert.InDelta(t, 16, OptionExpirationPL(lots, false), 1e-9)
	assert.Zero(t, OptionExpirationPL(nil, true))
}
