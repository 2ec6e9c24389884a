package importer

import (
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
	"time"

	"trading-journal-go/internal/journal"
)

// TradeZero trade-history exports carry the trade date in "T/D" as MM/DD/YYYY
// and the fill time in "Exec Time" as HH:MM:SS.
const (
	tradeZeroDateLayout = "01/02/2006"
	tradeZeroTimeLayout = "15:04:05"
)

// TradeZeroAdapter maps a TradeZero "Trade History" CSV export into canonical
// executions. Rows with a missing or unrecognized symbol, side, quantity,
// price, or date are skipped silently; malformed broker exports under-count
// rather than abort.
type TradeZeroAdapter struct{}

// Name implements Adapter.
func (TradeZeroAdapter) Name() string { return "tradezero" }

// Parse implements Adapter.
func (TradeZeroAdapter) Parse(csvText string) ([]journal.Execution, error) {
	reader := csv.NewReader(strings.NewReader(csvText))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	header := make(map[string]int, len(records[0]))
	for i, name := range records[0] {
		header[strings.TrimSpace(name)] = i
	}

	field := func(row []string, name string) string {
		idx, ok := header[name]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	var execs []journal.Execution
	for _, row := range records[1:] {
		symbol := strings.ToUpper(field(row, "Symbol"))
		if symbol == "" {
			continue
		}

		side, ok := mapSide(field(row, "Side"))
		if !ok {
			continue
		}

		qty, err := strconv.ParseFloat(field(row, "Qty"), 64)
		if err != nil || qty <= 0 {
			continue
		}
		price, err := strconv.ParseFloat(field(row, "Price"), 64)
		if err != nil || price <= 0 {
			continue
		}

		commissions := 0.0
		if raw := field(row, "Comm"); raw != "" {
			if v, err := strconv.ParseFloat(raw, 64); err == nil {
				commissions = v
			}
		}

		timestamp, ok := parseTradeZeroTimestamp(field(row, "T/D"), field(row, "Exec Time"))
		if !ok {
			continue
		}

		execs = append(execs, journal.Execution{
			Symbol:      symbol,
			Side:        side,
			Quantity:    qty,
			Price:       price,
			Commissions: commissions,
			Timestamp:   timestamp,
		})
	}
	return execs, nil
}

// mapSide translates TradeZero side codes: B and BC (buy to cover) open or
// close long exposure, S and SS (short sell) the opposite.
func mapSide(raw string) (string, bool) {
	switch strings.ToUpper(raw) {
	case "B", "BC", "BUY":
		return journal.SideBuy, true
	case "S", "SS", "SELL":
		return journal.SideSell, true
	default:
		return "", false
	}
}

func parseTradeZeroTimestamp(dateRaw, timeRaw string) (time.Time, bool) {
	if dateRaw == "" {
		return time.Time{}, false
	}

	day, err := time.Parse(tradeZeroDateLayout, dateRaw)
	if err != nil {
		// Fallback in case the export ever switches to ISO dates.
		day, err = journal.ParseTimestamp(dateRaw)
		if err != nil {
			return time.Time{}, false
		}
	}

	// A malformed or absent exec time defaults to midnight.
	clock := time.Duration(0)
	if timeRaw != "" {
		if t, err := time.Parse(tradeZeroTimeLayout, timeRaw); err == nil {
			clock = time.Duration(t.Hour())*time.Hour +
				time.Duration(t.Minute())*time.Minute +
				time.Duration(t.Second())*time.Second
		}
	}

	return day.UTC().Truncate(24 * time.Hour).Add(clock), true
}
