package journal

import (
	"fmt"
	"strings"
)

// TradePayload is the canonical trade wire format shared by manual entry,
// AI-interpreted CSV output, and the HTTP API.
type TradePayload struct {
	Ticker       string               `json:"ticker"`
	Mistake      string               `json:"mistake"`
	Notes        string               `json:"notes"`
	Transactions []TransactionPayload `json:"transactions"`
}

// TransactionPayload is one execution in the wire format. Date accepts any
// shape ParseTimestamp understands.
type TransactionPayload struct {
	Type        string  `json:"type"`
	Date        string  `json:"date"`
	Amount      float64 `json:"amount"`
	Price       float64 `json:"price"`
	Commissions float64 `json:"commissions"`
}

// Validate checks the payload against the canonical schema and converts its
// transactions into normalized values.
func (p TradePayload) Validate() ([]Transaction, error) {
	if strings.TrimSpace(p.Ticker) == "" {
		return nil, fmt.Errorf("ticker is required")
	}
	if len(p.Transactions) == 0 {
		return nil, ErrEmptyTransactionSet
	}

	txs := make([]Transaction, 0, len(p.Transactions))
	for i, tp := range p.Transactions {
		side := strings.ToLower(strings.TrimSpace(tp.Type))
		if side != SideBuy && side != SideSell {
			return nil, fmt.Errorf("transaction %d: type must be buy or sell", i)
		}
		if tp.Amount <= 0 {
			return nil, fmt.Errorf("transaction %d: amount must be positive", i)
		}
		if tp.Price <= 0 {
			return nil, fmt.Errorf("transaction %d: price must be positive", i)
		}
		if tp.Commissions < 0 {
			return nil, fmt.Errorf("transaction %d: commissions must not be negative", i)
		}
		date, err := ParseTimestamp(tp.Date)
		if err != nil {
			return nil, fmt.Errorf("transaction %d: %w", i, err)
		}
		txs = append(txs, Transaction{
			Type:        side,
			Date:        date,
			Amount:      tp.Amount,
			Price:       tp.Price,
			Commissions: tp.Commissions,
		})
	}
	return txs, nil
}
