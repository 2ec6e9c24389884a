package journal

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// closedOn builds a closed round trip whose realized P&L equals pnl, with a
// buy notional of 1000, closing on the given day.
func closedOn(day int, pnl float64, mistake string) ClosedTrade {
	return ClosedTrade{
		Mistake: mistake,
		Transactions: []Transaction{
			{Type: SideBuy, Date: time.Date(2024, 5, day, 9, 30, 0, 0, time.UTC), Amount: 10, Price: 100},
			{Type: SideSell, Date: time.Date(2024, 5, day, 15, 0, 0, 0, time.UTC), Amount: 10, Price: 100 + pnl/10},
		},
	}
}

func openTrade() ClosedTrade {
	return ClosedTrade{
		Transactions: []Transaction{
			{Type: SideBuy, Date: time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC), Amount: 10, Price: 100},
			{Type: SideSell, Date: time.Date(2024, 5, 1, 15, 0, 0, 0, time.UTC), Amount: 4, Price: 101},
		},
	}
}

func TestBuildDashboard_EquityCurveAccumulates(t *testing.T) {
	dash := BuildDashboard([]ClosedTrade{
		closedOn(1, 100, ""),
		closedOn(2, -40, ""),
		closedOn(2, 10, ""),
	})

	require.Len(t, dash.EquityCurve, 2)
	assert.Equal(t, EquityPoint{Day: "2024-05-01", CumulativePnL: 100}, dash.EquityCurve[0])
	assert.Equal(t, EquityPoint{Day: "2024-05-02", CumulativePnL: 70}, dash.EquityCurve[1])
}

func TestBuildDashboard_OpenTradesExcluded(t *testing.T) {
	dash := BuildDashboard([]ClosedTrade{openTrade(), closedOn(1, 50, "")})

	assert.Len(t, dash.EquityCurve, 1)
	assert.InDelta(t, 50.0, dash.Stats.TotalPnL, 1e-9)
	assert.Equal(t, 100.0, dash.Stats.WinPct)
}

func TestBuildDashboard_Stats(t *testing.T) {
	dash := BuildDashboard([]ClosedTrade{
		closedOn(1, 100, ""),
		closedOn(2, 50, ""),
		closedOn(3, -30, ""),
	})

	stats := dash.Stats
	assert.InDelta(t, 120.0, stats.TotalPnL, 1e-9)
	assert.InDelta(t, 75.0, stats.AvgWin, 1e-9)
	assert.InDelta(t, -30.0, stats.AvgLoss, 1e-9)
	assert.InDelta(t, 100.0, stats.MaxWin, 1e-9)
	assert.InDelta(t, -30.0, stats.MaxLoss, 1e-9)
	assert.InDelta(t, 66.67, stats.WinPct, 1e-9)
	require.True(t, stats.ProfitFactor.Valid)
	assert.InDelta(t, 5.0, stats.ProfitFactor.Value, 1e-9) // 150 / 30

	// Percentage returns are relative to buy notional (1000).
	assert.InDelta(t, 10.0, stats.MaxGainPct, 1e-9)
	assert.InDelta(t, -3.0, stats.MaxLossPct, 1e-9)
	assert.InDelta(t, 7.5, stats.AvgGainPct, 1e-9)
	assert.InDelta(t, -3.0, stats.AvgLossPct, 1e-9)
}

func TestBuildDashboard_ProfitFactorAllWins(t *testing.T) {
	dash := BuildDashboard([]ClosedTrade{closedOn(1, 100, "")})

	require.True(t, dash.Stats.ProfitFactor.Valid)
	assert.True(t, dash.Stats.ProfitFactor.Inf)
	assert.True(t, math.IsInf(dash.Stats.ProfitFactor.Value, 1))
}

func TestBuildDashboard_ProfitFactorNoTrades(t *testing.T) {
	dash := BuildDashboard(nil)

	assert.False(t, dash.Stats.ProfitFactor.Valid)
	assert.Empty(t, dash.EquityCurve)
	assert.Empty(t, dash.Mistakes)
}

func TestBuildDashboard_MistakeBreakdown(t *testing.T) {
	dash := BuildDashboard([]ClosedTrade{
		closedOn(1, 100, "FOMO"),
		closedOn(2, -50, "FOMO"),
		closedOn(3, 20, "  "), // blank normalizes to None
	})

	require.Len(t, dash.Mistakes, 2)
	assert.Equal(t, MistakeRow{Mistake: "FOMO", Count: 2, PnL: 50}, dash.Mistakes[0])
	assert.Equal(t, MistakeRow{Mistake: "None", Count: 1, PnL: 20}, dash.Mistakes[1])
}

func TestProfitFactor_JSON(t *testing.T) {
	out, err := json.Marshal(ProfitFactor{})
	require.NoError(t, err)
	assert.Equal(t, "null", string(out))

	out, err = json.Marshal(ProfitFactor{Valid: true, Inf: true, Value: math.Inf(1)})
	require.NoError(t, err)
	assert.Equal(t, `"inf"`, string(out))

	out, err = json.Marshal(ProfitFactor{Valid: true, Value: 2.5})
	require.NoError(t, err)
	assert.Equal(t, "2.5", string(out))
}
