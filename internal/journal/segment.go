package journal

import (
	"math"
	"sort"
	"strings"
	"time"
)

// Execution is one broker-reported fill after column mapping. Adapters in the
// importer package produce these; rows they cannot map are skipped before
// segmentation and never reach this type.
type Execution struct {
	Symbol      string
	Side        string // "buy" or "sell"
	Quantity    float64
	Price       float64
	Commissions float64
	Timestamp   time.Time
}

// TradeDraft is a segmented trade before persistence. Mistake and notes are
// left empty for the import layer to default.
type TradeDraft struct {
	Ticker       string
	Transactions []Transaction
}

// SegmentExecutions splits a flat multi-symbol execution list into discrete
// trades with a running-position rule: per symbol, walk fills in chronological
// order keeping a signed position (+qty for buys, -qty for sells); every time
// the position returns to flat the accumulated fills form one completed trade.
// Fills left over at the end of a symbol's stream form one final open trade.
//
// Executions are grouped stably by symbol in first-seen order and sorted by
// timestamp within each symbol, ties broken by original row order, so the
// output is deterministic for a given input.
func SegmentExecutions(execs []Execution) []TradeDraft {
	grouped := make(map[string][]Execution)
	var symbols []string
	for _, ex := range execs {
		symbol := strings.ToUpper(ex.Symbol)
		if _, seen := grouped[symbol]; !seen {
			symbols = append(symbols, symbol)
		}
		grouped[symbol] = append(grouped[symbol], ex)
	}

	var drafts []TradeDraft
	for _, symbol := range symbols {
		fills := grouped[symbol]
		sort.SliceStable(fills, func(i, j int) bool {
			return fills[i].Timestamp.Before(fills[j].Timestamp)
		})

		var position float64
		var current []Transaction
		for _, fill := range fills {
			tx := Transaction{
				Type:        strings.ToLower(fill.Side),
				Date:        fill.Timestamp,
				Amount:      fill.Quantity,
				Price:       fill.Price,
				Commissions: fill.Commissions,
			}
			if tx.Type == SideBuy {
				position += fill.Quantity
			} else {
				position -= fill.Quantity
			}
			current = append(current, tx)

			if math.Abs(position) < flatTolerance {
				drafts = append(drafts, TradeDraft{Ticker: symbol, Transactions: current})
				current = nil
				position = 0
			}
		}

		// Whatever is left never returned to flat: one open trade.
		if len(current) > 0 {
			drafts = append(drafts, TradeDraft{Ticker: symbol, Transactions: current})
		}
	}

	return drafts
}
