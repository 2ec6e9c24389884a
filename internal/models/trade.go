package models

import (
	"time"

	"gorm.io/gorm"
)

// Trade represents a logical round-trip position in one instrument.
// Direction and the earliest/latest markers are derived from the
// transaction set and recomputed on every mutation.
type Trade struct {
	gorm.Model
	UserID              string `gorm:"index;not null"`
	Ticker              string `gorm:"not null"`
	Direction           string // "Long" or "Short", side of the earliest transaction
	Mistake             string `gorm:"not null;default:None"`
	Notes               string `gorm:"type:text"`
	EarliestTransaction *time.Time
	LatestTransaction   *time.Time
	Transactions        []TradeTransaction `gorm:"constraint:OnDelete:CASCADE"`
}

// TradeTransaction is one atomic execution owned by its parent trade.
type TradeTransaction struct {
	gorm.Model
	TradeID     uint      `gorm:"index;not null"`
	Type        string    `gorm:"not null"` // "buy" or "sell"
	Date        time.Time `gorm:"not null"`
	Amount      float64   `gorm:"not null"`
	Price       float64   `gorm:"not null"`
	Commissions float64   `gorm:"not null;default:0"`
}
