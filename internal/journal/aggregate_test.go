package journal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tx(side string, day int, amount, price, commissions float64) Transaction {
	return Transaction{
		Type:        side,
		Date:        time.Date(2024, 3, day, 10, 0, 0, 0, time.UTC),
		Amount:      amount,
		Price:       price,
		Commissions: commissions,
	}
}

func TestBuildTrade_RealizedPnL(t *testing.T) {
	agg, err := BuildTrade("aapl", "", "", []Transaction{
		tx(SideBuy, 1, 10, 100, 1),
		tx(SideSell, 2, 10, 110, 1),
	})
	require.NoError(t, err)

	assert.Equal(t, "AAPL", agg.Ticker)
	assert.Equal(t, DirectionLong, agg.Direction)
	assert.Equal(t, StatusClosed, agg.Status)
	require.NotNil(t, agg.PnL)
	assert.InDelta(t, 98.0, *agg.PnL, 1e-9) // 1100 - 1000 - 2
}

func TestBuildTrade_OpenTradeHasNoPnL(t *testing.T) {
	agg, err := BuildTrade("TSLA", "", "", []Transaction{
		tx(SideBuy, 1, 6, 200, 0),
		tx(SideBuy, 2, 4, 205, 0),
		tx(SideSell, 3, 4, 210, 0),
	})
	require.NoError(t, err)

	assert.Equal(t, StatusOpen, agg.Status)
	assert.Nil(t, agg.PnL)
}

func TestBuildTrade_DirectionFromEarliestTimestamp(t *testing.T) {
	// Insertion order puts the buy first, but the sell happened earlier.
	agg, err := BuildTrade("NVDA", "", "", []Transaction{
		tx(SideBuy, 5, 10, 500, 0),
		tx(SideSell, 1, 10, 520, 0),
	})
	require.NoError(t, err)

	assert.Equal(t, DirectionShort, agg.Direction)
	assert.Equal(t, SideSell, agg.Transactions[0].Type)
	assert.True(t, agg.Earliest.Equal(time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)))
	assert.True(t, agg.Latest.Equal(time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)))
}

func TestBuildTrade_EmptySetRejected(t *testing.T) {
	_, err := BuildTrade("AAPL", "", "", nil)
	assert.ErrorIs(t, err, ErrEmptyTransactionSet)
}

func TestSummarize_FlatWithinTolerance(t *testing.T) {
	status, pnl := Summarize([]Transaction{
		tx(SideBuy, 1, 0.30000000004, 10, 0),
		tx(SideSell, 2, 0.3, 11, 0),
	})
	assert.Equal(t, StatusClosed, status)
	require.NotNil(t, pnl)
}

func TestBaseNotional(t *testing.T) {
	txs := []Transaction{
		tx(SideBuy, 1, 10, 100, 0),
		tx(SideSell, 2, 10, 110, 0),
	}
	assert.InDelta(t, 1000.0, BaseNotional(DirectionLong, txs), 1e-9)
	assert.InDelta(t, 1100.0, BaseNotional(DirectionShort, txs), 1e-9)
}
