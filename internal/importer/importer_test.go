package importer

import (
	"testing"

	"trading-journal-go/internal/journal"
	"trading-journal-go/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupImporter(t *testing.T) (*Importer, *journal.Store) {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Trade{}, &models.TradeTransaction{}))

	store := journal.NewStore(db, zap.NewNop())
	return NewImporter(store, zap.NewNop()), store
}

func TestImportBroker_SegmentsAndPersists(t *testing.T) {
	imp, store := setupImporter(t)

	result, err := imp.ImportBroker("user-1", TradeZeroAdapter{}, sampleTradeZeroCSV)
	require.NoError(t, err)
	assert.Equal(t, Result{Inserted: 2, Duplicates: 0, Skipped: 0}, result)

	trades, err := store.ListTrades("user-1")
	require.NoError(t, err)
	require.Len(t, trades, 2)
	for _, trade := range trades {
		assert.Equal(t, DefaultBrokerMistake, trade.Mistake)
	}
}

func TestImportBroker_ReimportIsIdempotent(t *testing.T) {
	imp, store := setupImporter(t)

	_, err := imp.ImportBroker("user-1", TradeZeroAdapter{}, sampleTradeZeroCSV)
	require.NoError(t, err)

	// Re-uploading the exact same export inserts nothing new.
	result, err := imp.ImportBroker("user-1", TradeZeroAdapter{}, sampleTradeZeroCSV)
	require.NoError(t, err)
	assert.Equal(t, Result{Inserted: 0, Duplicates: 2, Skipped: 0}, result)

	trades, err := store.ListTrades("user-1")
	require.NoError(t, err)
	assert.Len(t, trades, 2)
}

func TestImportBroker_NothingParsable(t *testing.T) {
	imp, _ := setupImporter(t)

	_, err := imp.ImportBroker("user-1", TradeZeroAdapter{}, "garbage,with\nno,usable,rows\n")
	assert.ErrorIs(t, err, journal.ErrNoTradesParsed)
}

func TestImportTrades_CountsSkippedEntries(t *testing.T) {
	imp, _ := setupImporter(t)

	payloads := []journal.TradePayload{
		{
			Ticker: "AAPL",
			Transactions: []journal.TransactionPayload{
				{Type: "buy", Date: "2024-01-02T09:30:00", Amount: 10, Price: 150, Commissions: 1},
				{Type: "sell", Date: "2024-01-02T11:00:00", Amount: 10, Price: 152, Commissions: 1},
			},
		},
		{Ticker: "MSFT"}, // no transactions: skipped
		{
			Ticker: "TSLA",
			Transactions: []journal.TransactionPayload{
				{Type: "hold", Date: "2024-01-02", Amount: 5, Price: 200}, // bad side: skipped
			},
		},
	}

	result, err := imp.ImportTrades("user-1", payloads)
	require.NoError(t, err)
	assert.Equal(t, Result{Inserted: 1, Duplicates: 0, Skipped: 2}, result)
}

func TestImportTrades_AllUnusable(t *testing.T) {
	imp, _ := setupImporter(t)

	_, err := imp.ImportTrades("user-1", []journal.TradePayload{{Ticker: "MSFT"}})
	assert.ErrorIs(t, err, journal.ErrNoTradesParsed)
}

func TestImportTrades_DuplicateAgainstManualEntry(t *testing.T) {
	imp, store := setupImporter(t)

	date1, err := journal.ParseTimestamp("2024-01-02T09:30:00")
	require.NoError(t, err)
	date2, err := journal.ParseTimestamp("2024-01-02T11:00:00")
	require.NoError(t, err)
	_, created, err := store.CreateTrade("user-1", "AAPL", "None", "", []journal.Transaction{
		{Type: journal.SideBuy, Date: date1, Amount: 10, Price: 150, Commissions: 1},
		{Type: journal.SideSell, Date: date2, Amount: 10, Price: 152, Commissions: 1},
	})
	require.NoError(t, err)
	require.True(t, created)

	// The AI import resubmits the same transaction set in wire format.
	result, err := imp.ImportTrades("user-1", []journal.TradePayload{{
		Ticker: "aapl",
		Transactions: []journal.TransactionPayload{
			{Type: "sell", Date: "2024-01-02T11:00:00Z", Amount: 10, Price: 152, Commissions: 1},
			{Type: "buy", Date: "2024-01-02T09:30:00+00:00", Amount: 10, Price: 150, Commissions: 1},
		},
	}})
	require.NoError(t, err)
	assert.Equal(t, Result{Inserted: 0, Duplicates: 1, Skipped: 0}, result)
}
