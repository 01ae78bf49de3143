package trades

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"riskengine/src/model"
)

var t0 = time.Date(2025, time.March, 4, 10, 0, 0, 0, time.UTC)

func fill(side string, qty, price float64, minutes int) model.Fill {
	return model.Fill{
		AccountID:    1,
		StrategyID:   7,
		Symbol:       "EURUSD",
		Side:         side,
		Quantity:     qty,
		AvgFillPrice: price,
		Status:       model.FillStatusFilled,
		FilledAt:     t0.Add(time.Duration(minutes) * time.Minute),
	}
}

func TestReconstruct_BuyRoundTripOneLot(t *testing.T) {
	trades := Reconstruct([]model.Fill{
		fill(model.SideBuy, 1, 1.0850, 0),
		fill(model.SideSell, 1, 1.0865, 30),
	})

	require.Len(t, trades, 1)
	tr := trades[0]
	assert.Equal(t, 150.0, tr.PnL)
	assert.Equal(t, model.SideBuy, tr.Side)
	assert.Equal(t, 1.0850, tr.EntryPrice)
	assert.Equal(t, 1.0865, tr.ExitPrice)
	assert.Equal(t, 30*time.Minute, tr.HoldDuration)
	assert.Equal(t, "1-7-EURUSD-1", tr.ID)
	assert.Equal(t, uint(1), tr.AccountID)
}

func TestReconstruct_BuyRoundTripTenThousandUnits(t *testing.T) {
	trades := Reconstruct([]model.Fill{
		fill(model.SideBuy, 10000, 1.0850, 0),
		fill(model.SideSell, 10000, 1.0865, 5),
	})

	require.Len(t, trades, 1)
	assert.Equal(t, 1500000.0, trades[0].PnL)
	assert.Equal(t, 10000.0, trades[0].Quantity)
}

func TestReconstruct_SellRoundTrip(t *testing.T) {
	trades := Reconstruct([]model.Fill{
		fill(model.SideSell, 1, 1.2000, 0),
		fill(model.SideBuy, 1, 1.1950, 10),
	})

	require.Len(t, trades, 1)
	assert.Equal(t, 500.0, trades[0].PnL)
	assert.Equal(t, model.SideSell, trades[0].Side)
}

func TestReconstruct_ScalingInKeepsEntryPrice(t *testing.T) {
	trades := Reconstruct([]model.Fill{
		fill(model.SideBuy, 1, 1.10, 0),
		fill(model.SideBuy, 1, 1.20, 1),
		fill(model.SideSell, 2, 1.15, 2),
	})

	require.Len(t, trades, 1)
	assert.Equal(t, 1.10, trades[0].EntryPrice)
	assert.Equal(t, 2.0, trades[0].Quantity)
	assert.Equal(t, 10000.0, trades[0].PnL)
}

func TestReconstruct_PartialCloseStaysOpen(t *testing.T) {
	fills := []model.Fill{
		fill(model.SideBuy, 2, 1.10, 0),
		fill(model.SideSell, 1, 1.11, 1),
	}

	assert.Empty(t, Reconstruct(fills))

	open := OpenPositions(fills)
	require.Len(t, open, 1)
	assert.Equal(t, 1.0, open[0].Quantity)
	assert.Equal(t, model.SideBuy, open[0].Side)
	assert.Equal(t, 1.11, open[0].CurrentPrice)
	assert.True(t, open[0].IsOpen)
}

func TestReconstruct_FlipKeepsEntryAndCloses(t *testing.T) {
	fills := []model.Fill{
		fill(model.SideBuy, 1, 1.10, 0),
		fill(model.SideSell, 3, 1.12, 1),
	}

	open := OpenPositions(fills)
	require.Len(t, open, 1)
	assert.Equal(t, model.SideSell, open[0].Side)
	assert.Equal(t, 2.0, open[0].Quantity)
	assert.Equal(t, 1.10, open[0].EntryPrice)

	fills = append(fills, fill(model.SideBuy, 2, 1.09, 2))
	trades := Reconstruct(fills)
	require.Len(t, trades, 1)
	assert.Equal(t, model.SideSell, trades[0].Side)
	assert.Equal(t, 2000.0, trades[0].PnL)
	assert.Equal(t, t0, trades[0].EntryTime)
}

func TestReconstruct_WithinEpsilonCloses(t *testing.T) {
	trades := Reconstruct([]model.Fill{
		fill(model.SideBuy, 1, 1.10, 0),
		fill(model.SideSell, 0.9995, 1.10, 1),
	})

	require.Len(t, trades, 1)
	assert.Equal(t, 0.0, trades[0].PnL)
}

func TestReconstruct_SkipsUnfilled(t *testing.T) {
	canceled := fill(model.SideSell, 1, 1.20, 1)
	canceled.Status = model.FillStatusCanceled

	fills := []model.Fill{
		fill(model.SideBuy, 1, 1.10, 0),
		canceled,
	}

	assert.Empty(t, Reconstruct(fills))
	assert.Len(t, OpenPositions(fills), 1)
}

func TestReconstruct_KeysBySymbolAndStrategy(t *testing.T) {
	other := fill(model.SideSell, 1, 1.20, 1)
	other.StrategyID = 8
	gbp := fill(model.SideSell, 1, 1.30, 2)
	gbp.Symbol = "GBPUSD"

	fills := []model.Fill{
		fill(model.SideBuy, 1, 1.10, 0),
		other,
		gbp,
	}

	assert.Empty(t, Reconstruct(fills))
	assert.Len(t, OpenPositions(fills), 3)
}

func TestReconstruct_CommissionAndSequentialIDs(t *testing.T) {
	open1 := fill(model.SideBuy, 1, 1.10, 0)
	open1.Commission = 2.5
	close1 := fill(model.SideSell, 1, 1.11, 1)
	close1.Commission = 2.5
	open2 := fill(model.SideBuy, 1, 1.11, 2)
	close2 := fill(model.SideSell, 1, 1.10, 3)

	trades := Reconstruct([]model.Fill{open1, close1, open2, close2})

	require.Len(t, trades, 2)
	assert.Equal(t, 5.0, trades[0].Commission)
	assert.Equal(t, "1-7-EURUSD-1", trades[0].ID)
	assert.Equal(t, "1-7-EURUSD-2", trades[1].ID)
	assert.Equal(t, -1000.0, trades[1].PnL)
}

func TestRealizedPnL(t *testing.T) {
	fills := []model.Fill{
		fill(model.SideBuy, 1, 1.10, 0),
		fill(model.SideSell, 1, 1.11, 1),
		fill(model.SideBuy, 1, 1.11, 2),
		fill(model.SideSell, 1, 1.08, 3),
		fill(model.SideBuy, 1, 1.08, 4),
	}

	assert.Equal(t, -2000.0, RealizedPnL(fills))
	assert.Equal(t, 0.0, RealizedPnL(nil))
}
