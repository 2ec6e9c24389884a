package journal

import (
	"encoding/json"
	"math"
	"sort"
	"strings"
	"time"
)

// EquityPoint is one day on the cumulative P&L curve.
type EquityPoint struct {
	Day           string  `json:"day"` // YYYY-MM-DD
	CumulativePnL float64 `json:"cumulative_pnl"`
}

// ProfitFactor distinguishes the "no trades" and "no losses" edge cases.
// It marshals as null when unset and as the string "inf" when there are
// wins and zero losses.
type ProfitFactor struct {
	Valid bool
	Inf   bool
	Value float64
}

// MarshalJSON implements json.Marshaler.
func (p ProfitFactor) MarshalJSON() ([]byte, error) {
	if !p.Valid {
		return []byte("null"), nil
	}
	if p.Inf {
		return json.Marshal("inf")
	}
	return json.Marshal(p.Value)
}

// Stats summarizes all closed trades, money metrics and their
// percentage-return counterparts, all rounded to 2 decimals.
type Stats struct {
	TotalPnL     float64      `json:"total_pnl"`
	AvgWin       float64      `json:"avg_win"`
	AvgLoss      float64      `json:"avg_loss"`
	MaxWin       float64      `json:"max_win"`
	MaxLoss      float64      `json:"max_loss"`
	WinPct       float64      `json:"win_pct"`
	ProfitFactor ProfitFactor `json:"profit_factor"`
	AvgGainPct   float64      `json:"avg_gain_pct"`
	AvgLossPct   float64      `json:"avg_loss_pct"`
	MaxGainPct   float64      `json:"max_gain_pct"`
	MaxLossPct   float64      `json:"max_loss_pct"`
}

// MistakeRow is one group in the mistake breakdown.
type MistakeRow struct {
	Mistake string  `json:"mistake"`
	Count   int     `json:"count"`
	PnL     float64 `json:"pnl"`
}

// Dashboard is the full read-only portfolio summary.
type Dashboard struct {
	EquityCurve []EquityPoint `json:"equity_curve"`
	Stats       Stats         `json:"stats"`
	Mistakes    []MistakeRow  `json:"mistakes"`
}

// ClosedTrade is the slice of a trade the aggregator needs.
type ClosedTrade struct {
	Mistake      string
	Transactions []Transaction
}

// closedView is one closed trade after derivation.
type closedView struct {
	mistake  string
	pnl      float64
	pct      float64
	closeDay time.Time
}

// BuildDashboard aggregates a user's trades into an equity curve, summary
// statistics, and a mistake breakdown. Only closed trades (net position flat)
// participate; open trades are ignored entirely.
func BuildDashboard(trades []ClosedTrade) Dashboard {
	var closed []closedView
	for _, t := range trades {
		agg, err := BuildTrade("X", t.Mistake, "", t.Transactions)
		if err != nil || agg.Status != StatusClosed {
			continue
		}
		pnl := *agg.PnL

		var pct float64
		if base := BaseNotional(agg.Direction, agg.Transactions); base > flatTolerance {
			pct = pnl / base * 100
		}

		closed = append(closed, closedView{
			mistake:  normalizeMistake(t.Mistake),
			pnl:      pnl,
			pct:      pct,
			closeDay: agg.Latest,
		})
	}

	return Dashboard{
		EquityCurve: buildEquityCurve(closed),
		Stats:       buildStats(closed),
		Mistakes:    buildMistakeRows(closed),
	}
}

// buildEquityCurve attributes each closed trade's P&L to the calendar day it
// closed, then emits a running cumulative total over ascending days.
func buildEquityCurve(closed []closedView) []EquityPoint {
	daily := make(map[string]float64)
	for _, c := range closed {
		day := c.closeDay.UTC().Format("2006-01-02")
		daily[day] += c.pnl
	}

	days := make([]string, 0, len(daily))
	for day := range daily {
		days = append(days, day)
	}
	sort.Strings(days)

	curve := make([]EquityPoint, 0, len(days))
	var cumulative float64
	for _, day := range days {
		cumulative += daily[day]
		curve = append(curve, EquityPoint{Day: day, CumulativePnL: round2(cumulative)})
	}
	return curve
}

func buildStats(closed []closedView) Stats {
	var stats Stats

	var wins, losses int
	var winSum, lossSum float64
	var gainPctSum, lossPctSum float64
	var grossProfit, grossLoss float64

	for _, c := range closed {
		stats.TotalPnL += c.pnl
		switch {
		case c.pnl > 0:
			wins++
			winSum += c.pnl
			gainPctSum += c.pct
			grossProfit += c.pnl
			stats.MaxWin = math.Max(stats.MaxWin, c.pnl)
			stats.MaxGainPct = math.Max(stats.MaxGainPct, c.pct)
		case c.pnl < 0:
			losses++
			lossSum += c.pnl
			lossPctSum += c.pct
			grossLoss += -c.pnl
			stats.MaxLoss = math.Min(stats.MaxLoss, c.pnl)
			stats.MaxLossPct = math.Min(stats.MaxLossPct, c.pct)
		}
	}

	if wins > 0 {
		stats.AvgWin = winSum / float64(wins)
		stats.AvgGainPct = gainPctSum / float64(wins)
	}
	if losses > 0 {
		stats.AvgLoss = lossSum / float64(losses)
		stats.AvgLossPct = lossPctSum / float64(losses)
	}
	if len(closed) > 0 {
		stats.WinPct = float64(wins) / float64(len(closed)) * 100
	}

	switch {
	case grossLoss > 0:
		stats.ProfitFactor = ProfitFactor{Valid: true, Value: round2(grossProfit / grossLoss)}
	case grossProfit > 0:
		stats.ProfitFactor = ProfitFactor{Valid: true, Inf: true, Value: math.Inf(1)}
	}

	stats.TotalPnL = round2(stats.TotalPnL)
	stats.AvgWin = round2(stats.AvgWin)
	stats.AvgLoss = round2(stats.AvgLoss)
	stats.MaxWin = round2(stats.MaxWin)
	stats.MaxLoss = round2(stats.MaxLoss)
	stats.WinPct = round2(stats.WinPct)
	stats.AvgGainPct = round2(stats.AvgGainPct)
	stats.AvgLossPct = round2(stats.AvgLossPct)
	stats.MaxGainPct = round2(stats.MaxGainPct)
	stats.MaxLossPct = round2(stats.MaxLossPct)
	return stats
}

func buildMistakeRows(closed []closedView) []MistakeRow {
	type group struct {
		count int
		pnl   float64
	}
	groups := make(map[string]*group)
	for _, c := range closed {
		g, ok := groups[c.mistake]
		if !ok {
			g = &group{}
			groups[c.mistake] = g
		}
		g.count++
		g.pnl += c.pnl
	}

	rows := make([]MistakeRow, 0, len(groups))
	for mistake, g := range groups {
		rows = append(rows, MistakeRow{Mistake: mistake, Count: g.count, PnL: round2(g.pnl)})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Count != rows[j].Count {
			return rows[i].Count > rows[j].Count
		}
		return rows[i].Mistake < rows[j].Mistake
	})
	return rows
}

func normalizeMistake(mistake string) string {
	if strings.TrimSpace(mistake) == "" {
		return "None"
	}
	return mistake
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
