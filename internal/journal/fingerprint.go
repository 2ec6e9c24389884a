package journal

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// Fingerprint builds a canonical, order-independent encoding of a transaction
// set. Two trades with the same ticker are duplicates iff their fingerprints
// are equal. Ticker is compared separately and not encoded here.
func Fingerprint(txs []Transaction) string {
	keys := make([]string, 0, len(txs))
	for _, tx := range txs {
		keys = append(keys, fmt.Sprintf("%s|%s|%.8f|%.8f|%.8f",
			CanonicalString(tx.Date),
			strings.ToLower(tx.Type),
			round8(tx.Amount),
			round8(tx.Price),
			round8(tx.Commissions),
		))
	}
	sort.Strings(keys)
	return strings.Join(keys, "\n")
}

func round8(v float64) float64 {
	return math.Round(v*1e8) / 1e8
}
