package journal

import (
	"math"
	"sort"
	"strings"
	"time"
)

// Tolerance for treating a running or net position as flat. Broker exports
// routinely carry float noise well below this.
const flatTolerance = 1e-8

// Transaction side values.
const (
	SideBuy  = "buy"
	SideSell = "sell"
)

// Trade direction values, derived from the side of the earliest transaction.
const (
	DirectionLong  = "Long"
	DirectionShort = "Short"
)

// Trade status values. Status is always recomputed from the current
// transaction set, never cached.
const (
	StatusOpen   = "Open"
	StatusClosed = "Closed"
)

// Transaction is the canonical execution value type used uniformly across
// import, manual entry, and storage read paths. Date is a normalized UTC
// instant (see ParseTimestamp).
type Transaction struct {
	Type        string
	Date        time.Time
	Amount      float64
	Price       float64
	Commissions float64
}

// Aggregate is the fully derived view of a trade's transaction set.
type Aggregate struct {
	Ticker    string
	Direction string
	Mistake   string
	Notes     string
	Earliest  time.Time
	Latest    time.Time
	Status    string
	PnL       *float64 // nil while the trade is open

	// Transactions sorted ascending by timestamp.
	Transactions []Transaction
}

// BuildTrade derives the full trade aggregate from a transaction set.
// The same derivation runs on creation and on full replacement, so edits
// can flip direction and reopen or re-close a trade.
func BuildTrade(ticker, mistake, notes string, txs []Transaction) (Aggregate, error) {
	if len(txs) == 0 {
		return Aggregate{}, ErrEmptyTransactionSet
	}

	sorted := make([]Transaction, len(txs))
	copy(sorted, txs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})

	direction := DirectionShort
	if strings.EqualFold(sorted[0].Type, SideBuy) {
		direction = DirectionLong
	}

	status, pnl := Summarize(sorted)

	return Aggregate{
		Ticker:       strings.ToUpper(ticker),
		Direction:    direction,
		Mistake:      mistake,
		Notes:        notes,
		Earliest:     sorted[0].Date,
		Latest:       sorted[len(sorted)-1].Date,
		Status:       status,
		PnL:          pnl,
		Transactions: sorted,
	}, nil
}

// Summarize computes the open/closed status of a transaction set and, when
// flat, its realized P&L: sell notional minus buy notional minus all
// commissions. Open trades report a nil P&L; there is no mark-to-market.
func Summarize(txs []Transaction) (string, *float64) {
	var totalBought, totalSold float64
	var buyNotional, sellNotional float64
	var commissions float64

	for _, tx := range txs {
		commissions += tx.Commissions
		if strings.EqualFold(tx.Type, SideBuy) {
			totalBought += tx.Amount
			buyNotional += tx.Amount * tx.Price
		} else {
			totalSold += tx.Amount
			sellNotional += tx.Amount * tx.Price
		}
	}

	if math.Abs(totalBought-totalSold) > flatTolerance {
		return StatusOpen, nil
	}

	pnl := sellNotional - buyNotional - commissions
	return StatusClosed, &pnl
}

// BaseNotional returns the denominator used for percentage returns: total
// buy notional for long trades, total sell notional for short trades.
func BaseNotional(direction string, txs []Transaction) float64 {
	var base float64
	for _, tx := range txs {
		isBuy := strings.EqualFold(tx.Type, SideBuy)
		if (direction == DirectionLong && isBuy) || (direction == DirectionShort && !isBuy) {
			base += tx.Amount * tx.Price
		}
	}
	return base
}
