package journal

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"trading-journal-go/internal/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Store persists trades and owns the duplicate-detection gate. The dedupe
// read-then-write sequence carries no optimistic-concurrency token, so a
// single mutex serializes writes.
type Store struct {
	db  *gorm.DB
	log *zap.Logger
	mu  sync.Mutex
}

// NewStore creates a new trade store.
func NewStore(db *gorm.DB, log *zap.Logger) *Store {
	return &Store{db: db, log: log.Named("store")}
}

// CreateTrade derives the trade aggregate and persists it, unless an existing
// trade for the same user and ticker carries an identical transaction set. In
// that case the pre-existing trade is returned unchanged and created is false;
// resubmission of the same transaction set is idempotent.
func (s *Store) CreateTrade(userID, ticker, mistake, notes string, txs []Transaction) (*models.Trade, bool, error) {
	agg, err := BuildTrade(ticker, mistake, notes, txs)
	if err != nil {
		return nil, false, err
	}
	if strings.TrimSpace(agg.Mistake) == "" {
		agg.Mistake = "None"
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// The dedupe check must run before any transaction rows are written and
	// must consider every existing trade for this ticker, not the latest one.
	var existing []models.Trade
	err = s.db.Where("user_id = ? AND ticker = ?", userID, agg.Ticker).
		Preload("Transactions").
		Find(&existing).Error
	if err != nil {
		return nil, false, fmt.Errorf("failed to list trades for duplicate check: %w", err)
	}

	fp := Fingerprint(agg.Transactions)
	for i := range existing {
		if Fingerprint(FromModelTransactions(existing[i].Transactions)) == fp {
			s.log.Info("Duplicate trade submission, returning existing trade",
				zap.String("user_id", userID),
				zap.String("ticker", agg.Ticker),
				zap.Uint("trade_id", existing[i].ID),
			)
			return &existing[i], false, nil
		}
	}

	trade := models.Trade{
		UserID:              userID,
		Ticker:              agg.Ticker,
		Direction:           agg.Direction,
		Mistake:             agg.Mistake,
		Notes:               agg.Notes,
		EarliestTransaction: &agg.Earliest,
		LatestTransaction:   &agg.Latest,
		Transactions:        toModelTransactions(agg.Transactions),
	}
	if err := s.db.Create(&trade).Error; err != nil {
		return nil, false, fmt.Errorf("failed to create trade: %w", err)
	}
	return &trade, true, nil
}

// UpdateTrade replaces a trade's transaction set in full and recomputes every
// derived field, inside one database transaction. The old transactions are
// deleted outright, never partially mutated.
func (s *Store) UpdateTrade(tradeID uint, userID, ticker, mistake, notes string, txs []Transaction) (*models.Trade, error) {
	agg, err := BuildTrade(ticker, mistake, notes, txs)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(agg.Mistake) == "" {
		agg.Mistake = "None"
	}

	var trade models.Trade
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND user_id = ?", tradeID, userID).First(&trade).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("failed to load trade %d: %w", tradeID, err)
		}

		if err := tx.Unscoped().Where("trade_id = ?", trade.ID).Delete(&models.TradeTransaction{}).Error; err != nil {
			return fmt.Errorf("failed to delete old transactions: %w", err)
		}

		trade.Ticker = agg.Ticker
		trade.Direction = agg.Direction
		trade.Mistake = agg.Mistake
		trade.Notes = agg.Notes
		trade.EarliestTransaction = &agg.Earliest
		trade.LatestTransaction = &agg.Latest
		trade.Transactions = toModelTransactions(agg.Transactions)
		if err := tx.Save(&trade).Error; err != nil {
			return fmt.Errorf("failed to update trade %d: %w", tradeID, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &trade, nil
}

// UpdateNotes patches only the mistake tag and notes, leaving the
// transaction set and all derived fields untouched.
func (s *Store) UpdateNotes(tradeID uint, userID, mistake, notes string) (*models.Trade, error) {
	if strings.TrimSpace(mistake) == "" {
		mistake = "None"
	}

	var trade models.Trade
	if err := s.db.Where("id = ? AND user_id = ?", tradeID, userID).First(&trade).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load trade %d: %w", tradeID, err)
	}

	trade.Mistake = mistake
	trade.Notes = notes
	if err := s.db.Model(&trade).Updates(map[string]any{"mistake": mistake, "notes": notes}).Error; err != nil {
		return nil, fmt.Errorf("failed to patch trade %d: %w", tradeID, err)
	}
	return &trade, nil
}

// GetTrade loads one trade with its transactions ordered chronologically.
func (s *Store) GetTrade(tradeID uint, userID string) (*models.Trade, error) {
	var trade models.Trade
	err := s.db.Where("id = ? AND user_id = ?", tradeID, userID).
		Preload("Transactions", func(db *gorm.DB) *gorm.DB { return db.Order("date ASC") }).
		First(&trade).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load trade %d: %w", tradeID, err)
	}
	return &trade, nil
}

// ListTrades returns all of a user's trades ordered by latest transaction
// descending, trades with no transactions first.
func (s *Store) ListTrades(userID string) ([]models.Trade, error) {
	var trades []models.Trade
	err := s.db.Where("user_id = ?", userID).
		Order("latest_transaction IS NOT NULL, latest_transaction DESC").
		Preload("Transactions", func(db *gorm.DB) *gorm.DB { return db.Order("date ASC") }).
		Find(&trades).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list trades: %w", err)
	}
	return trades, nil
}

// DeleteTrade removes a trade and cascades to its transactions.
func (s *Store) DeleteTrade(tradeID uint, userID string) error {
	var trade models.Trade
	if err := s.db.Where("id = ? AND user_id = ?", tradeID, userID).First(&trade).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to load trade %d: %w", tradeID, err)
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Where("trade_id = ?", trade.ID).Delete(&models.TradeTransaction{}).Error; err != nil {
			return fmt.Errorf("failed to delete transactions: %w", err)
		}
		if err := tx.Unscoped().Delete(&trade).Error; err != nil {
			return fmt.Errorf("failed to delete trade %d: %w", tradeID, err)
		}
		return nil
	})
}

// DeleteAllTrades removes every trade for a user and returns how many were deleted.
func (s *Store) DeleteAllTrades(userID string) (int64, error) {
	var count int64
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var ids []uint
		if err := tx.Model(&models.Trade{}).Where("user_id = ?", userID).Pluck("id", &ids).Error; err != nil {
			return fmt.Errorf("failed to list trades for delete: %w", err)
		}
		count = int64(len(ids))
		if count == 0 {
			return nil
		}
		if err := tx.Unscoped().Where("trade_id IN ?", ids).Delete(&models.TradeTransaction{}).Error; err != nil {
			return fmt.Errorf("failed to delete transactions: %w", err)
		}
		if err := tx.Unscoped().Where("user_id = ?", userID).Delete(&models.Trade{}).Error; err != nil {
			return fmt.Errorf("failed to delete trades: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

func toModelTransactions(txs []Transaction) []models.TradeTransaction {
	out := make([]models.TradeTransaction, 0, len(txs))
	for _, tx := range txs {
		out = append(out, models.TradeTransaction{
			Type:        tx.Type,
			Date:        tx.Date,
			Amount:      tx.Amount,
			Price:       tx.Price,
			Commissions: tx.Commissions,
		})
	}
	return out
}

// FromModelTransactions converts stored rows back into the canonical value type.
func FromModelTransactions(rows []models.TradeTransaction) []Transaction {
	out := make([]Transaction, 0, len(rows))
	for _, row := range rows {
		out = append(out, Transaction{
			Type:        row.Type,
			Date:        row.Date.UTC(),
			Amount:      row.Amount,
			Price:       row.Price,
			Commissions: row.Commissions,
		})
	}
	return out
}
