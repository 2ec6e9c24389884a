package main

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"trading-journal-go/internal/ai"
	"trading-journal-go/internal/challenge"
	"trading-journal-go/internal/importer"
	"trading-journal-go/internal/journal"
	"trading-journal-go/internal/marketdata"
	"trading-journal-go/internal/models"

	"go.uber.org/zap"
)

// APIHandler holds dependencies for the API endpoints.
type APIHandler struct {
	log        *zap.Logger
	store      *journal.Store
	importer   *importer.Importer
	aiClient   ai.ClientInterface
	market     marketdata.ClientInterface
	challenges *challenge.Service
}

// NewAPIHandler creates a new APIHandler.
func NewAPIHandler(
	log *zap.Logger,
	store *journal.Store,
	imp *importer.Importer,
	aiClient ai.ClientInterface,
	market marketdata.ClientInterface,
	challenges *challenge.Service,
) *APIHandler {
	return &APIHandler{
		log:        log,
		store:      store,
		importer:   imp,
		aiClient:   aiClient,
		market:     market,
		challenges: challenges,
	}
}

// Register wires every endpoint onto the mux.
func (h *APIHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/trades", h.CreateTradeHandler)
	mux.HandleFunc("GET /api/trades", h.ListTradesHandler)
	mux.HandleFunc("DELETE /api/trades", h.DeleteAllTradesHandler)
	mux.HandleFunc("GET /api/trades/{id}", h.GetTradeHandler)
	mux.HandleFunc("PUT /api/trades/{id}", h.UpdateTradeHandler)
	mux.HandleFunc("DELETE /api/trades/{id}", h.DeleteTradeHandler)
	mux.HandleFunc("PUT /api/trades/{id}/notes", h.UpdateNotesHandler)
	mux.HandleFunc("POST /api/trades/import", h.ImportBrokerHandler)
	mux.HandleFunc("POST /api/trades/import-ai", h.ImportAIHandler)
	mux.HandleFunc("GET /api/dashboard", h.DashboardHandler)
	mux.HandleFunc("GET /alpha/stock-data", h.StockDataHandler)
	mux.HandleFunc("POST /api/generate-challenge", h.GenerateChallengeHandler)
	mux.HandleFunc("GET /api/my-history", h.ChallengeHistoryHandler)
	mux.HandleFunc("GET /api/quota", h.QuotaHandler)
	mux.HandleFunc("GET /health", h.HealthHandler)
}

// tradeSummary is the list-view projection of a trade. Status and pnl are
// recomputed from the current transactions on every read.
type tradeSummary struct {
	ID                  uint       `json:"id"`
	Ticker              string     `json:"ticker"`
	Direction           string     `json:"direction"`
	Mistake             string     `json:"mistake"`
	Notes               string     `json:"notes"`
	EarliestTransaction *time.Time `json:"earliest_transaction"`
	LatestTransaction   *time.Time `json:"latest_transaction"`
	Status              string     `json:"status"`
	PnL                 *float64   `json:"pnl"`
}

type transactionView struct {
	Type        string  `json:"type"`
	Date        string  `json:"date"`
	Amount      float64 `json:"amount"`
	Price       float64 `json:"price"`
	Commissions float64 `json:"commissions"`
}

type tradeDetail struct {
	tradeSummary
	Transactions []transactionView `json:"transactions"`
}

func summarize(trade *models.Trade) tradeSummary {
	status, pnl := journal.Summarize(journal.FromModelTransactions(trade.Transactions))
	return tradeSummary{
		ID:                  trade.ID,
		Ticker:              trade.Ticker,
		Direction:           trade.Direction,
		Mistake:             trade.Mistake,
		Notes:               trade.Notes,
		EarliestTransaction: trade.EarliestTransaction,
		LatestTransaction:   trade.LatestTransaction,
		Status:              status,
		PnL:                 pnl,
	}
}

func detail(trade *models.Trade) tradeDetail {
	views := make([]transactionView, 0, len(trade.Transactions))
	for _, tx := range trade.Transactions {
		views = append(views, transactionView{
			Type:        tx.Type,
			Date:        tx.Date.UTC().Format(time.RFC3339),
			Amount:      tx.Amount,
			Price:       tx.Price,
			Commissions: tx.Commissions,
		})
	}
	return tradeDetail{tradeSummary: summarize(trade), Transactions: views}
}

// CreateTradeHandler persists a manually entered trade. Resubmitting an
// identical transaction set returns the existing trade's id.
func (h *APIHandler) CreateTradeHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	var payload journal.TradePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	txs, err := payload.Validate()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	trade, created, err := h.store.CreateTrade(userID, payload.Ticker, payload.Mistake, payload.Notes, txs)
	if err != nil {
		h.fail(w, "Failed to create trade", err)
		return
	}

	status := "success"
	if !created {
		status = "duplicate"
	}
	h.writeJSON(w, map[string]any{"status": status, "trade_id": trade.ID})
}

// ListTradesHandler returns all of the user's trades, newest activity first.
func (h *APIHandler) ListTradesHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	trades, err := h.store.ListTrades(userID)
	if err != nil {
		h.fail(w, "Failed to list trades", err)
		return
	}

	summaries := make([]tradeSummary, 0, len(trades))
	for i := range trades {
		summaries = append(summaries, summarize(&trades[i]))
	}
	h.writeJSON(w, map[string]any{"trades": summaries})
}

// GetTradeHandler returns one trade with its full transaction list.
func (h *APIHandler) GetTradeHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	id, ok := h.tradeID(w, r)
	if !ok {
		return
	}

	trade, err := h.store.GetTrade(id, userID)
	if err != nil {
		h.fail(w, "Failed to load trade", err)
		return
	}
	h.writeJSON(w, map[string]any{"trade": detail(trade)})
}

// UpdateTradeHandler replaces a trade's transaction set in full.
func (h *APIHandler) UpdateTradeHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	id, ok := h.tradeID(w, r)
	if !ok {
		return
	}

	var payload journal.TradePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	txs, err := payload.Validate()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	trade, err := h.store.UpdateTrade(id, userID, payload.Ticker, payload.Mistake, payload.Notes, txs)
	if err != nil {
		h.fail(w, "Failed to update trade", err)
		return
	}
	h.writeJSON(w, map[string]any{"status": "updated", "trade_id": trade.ID})
}

// UpdateNotesHandler patches only the mistake tag and notes.
func (h *APIHandler) UpdateNotesHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	id, ok := h.tradeID(w, r)
	if !ok {
		return
	}

	var payload struct {
		Mistake string `json:"mistake"`
		Notes   string `json:"notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	trade, err := h.store.UpdateNotes(id, userID, payload.Mistake, payload.Notes)
	if err != nil {
		h.fail(w, "Failed to update notes", err)
		return
	}
	h.writeJSON(w, map[string]any{"status": "updated", "trade_id": trade.ID})
}

// DeleteTradeHandler deletes one trade and its transactions.
func (h *APIHandler) DeleteTradeHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	id, ok := h.tradeID(w, r)
	if !ok {
		return
	}

	if err := h.store.DeleteTrade(id, userID); err != nil {
		h.fail(w, "Failed to delete trade", err)
		return
	}
	h.writeJSON(w, map[string]any{"message": "Trade deleted"})
}

// DeleteAllTradesHandler removes every trade for the user.
func (h *APIHandler) DeleteAllTradesHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	count, err := h.store.DeleteAllTrades(userID)
	if err != nil {
		h.fail(w, "Failed to delete trades", err)
		return
	}
	h.writeJSON(w, map[string]any{"deleted": count})
}

// ImportBrokerHandler imports a TradeZero CSV posted as the request body.
func (h *APIHandler) ImportBrokerHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return
	}

	result, err := h.importer.ImportBroker(userID, importer.TradeZeroAdapter{}, string(body))
	if err != nil {
		h.fail(w, "Broker import failed", err)
		return
	}
	h.writeJSON(w, result)
}

// ImportAIHandler forwards free-form CSV text to the AI interpreter and
// persists the trades it returns through the normal create flow.
func (h *APIHandler) ImportAIHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return
	}

	payloads, err := h.aiClient.ParseTrades(r.Context(), string(body))
	if err != nil {
		h.log.Error("AI CSV interpretation failed", zap.Error(err))
		http.Error(w, "AI CSV interpretation failed", http.StatusBadGateway)
		return
	}

	result, err := h.importer.ImportTrades(userID, payloads)
	if err != nil {
		h.fail(w, "AI import failed", err)
		return
	}
	h.writeJSON(w, result)
}

// DashboardHandler aggregates the user's closed trades into the equity
// curve, summary stats, and mistake breakdown.
func (h *APIHandler) DashboardHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	trades, err := h.store.ListTrades(userID)
	if err != nil {
		h.fail(w, "Failed to load trades for dashboard", err)
		return
	}

	inputs := make([]journal.ClosedTrade, 0, len(trades))
	for i := range trades {
		inputs = append(inputs, journal.ClosedTrade{
			Mistake:      trades[i].Mistake,
			Transactions: journal.FromModelTransactions(trades[i].Transactions),
		})
	}
	h.writeJSON(w, journal.BuildDashboard(inputs))
}

// StockDataHandler proxies daily candles around a trade window.
func (h *APIHandler) StockDataHandler(w http.ResponseWriter, r *http.Request) {
	symbol := r.URL.Query().Get("symbol")
	startDate := r.URL.Query().Get("start_date")
	endDate := r.URL.Query().Get("end_date")
	if symbol == "" || startDate == "" || endDate == "" {
		http.Error(w, "symbol, start_date and end_date are required", http.StatusBadRequest)
		return
	}

	candles, err := h.market.GetDailyCandles(r.Context(), symbol, startDate, endDate)
	if err != nil {
		h.log.Error("Market data fetch failed", zap.String("symbol", symbol), zap.Error(err))
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	h.writeJSON(w, candles)
}

// GenerateChallengeHandler creates one quota-gated quiz question.
func (h *APIHandler) GenerateChallengeHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	var payload struct {
		Difficulty string `json:"difficulty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.Difficulty == "" {
		http.Error(w, "difficulty is required", http.StatusBadRequest)
		return
	}

	generated, err := h.challenges.Generate(r.Context(), userID, payload.Difficulty)
	if err != nil {
		if errors.Is(err, challenge.ErrQuotaExhausted) {
			http.Error(w, "Quota exhausted", http.StatusTooManyRequests)
			return
		}
		h.log.Error("Challenge generation failed", zap.Error(err))
		http.Error(w, "Challenge generation failed", http.StatusBadGateway)
		return
	}

	var options []string
	_ = json.Unmarshal([]byte(generated.Options), &options)
	h.writeJSON(w, map[string]any{
		"id":                generated.ID,
		"difficulty":        generated.Difficulty,
		"title":             generated.Title,
		"options":           options,
		"correct_answer_id": generated.CorrectAnswerID,
		"explanation":       generated.Explanation,
		"timestamp":         generated.CreatedAt.Format(time.RFC3339),
	})
}

// ChallengeHistoryHandler lists the user's generated challenges.
func (h *APIHandler) ChallengeHistoryHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	challenges, err := h.challenges.History(userID)
	if err != nil {
		h.fail(w, "Failed to load challenge history", err)
		return
	}
	h.writeJSON(w, map[string]any{"challenges": challenges})
}

// QuotaHandler returns the user's remaining daily quota.
func (h *APIHandler) QuotaHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	quota, err := h.challenges.Quota(userID)
	if err != nil {
		h.fail(w, "Failed to load quota", err)
		return
	}
	h.writeJSON(w, map[string]any{
		"user_id":         quota.UserID,
		"quota_remaining": quota.QuotaRemaining,
		"last_reset_date": quota.LastResetDate.Format(time.RFC3339),
	})
}

// HealthHandler reports liveness.
func (h *APIHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK\n"))
}

// userID resolves the requesting user. Session resolution proper lives in
// front of this service; here only the forwarded identity header is read.
func (h *APIHandler) userID(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := r.Header.Get("X-User-Id")
	if userID == "" {
		http.Error(w, "Missing user identity", http.StatusUnauthorized)
		return "", false
	}
	return userID, true
}

func (h *APIHandler) tradeID(w http.ResponseWriter, r *http.Request) (uint, bool) {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid trade id", http.StatusBadRequest)
		return 0, false
	}
	return uint(id), true
}

// fail maps engine errors onto HTTP statuses and logs the rest.
func (h *APIHandler) fail(w http.ResponseWriter, msg string, err error) {
	switch {
	case errors.Is(err, journal.ErrNotFound):
		http.Error(w, "Trade not found", http.StatusNotFound)
	case errors.Is(err, journal.ErrEmptyTransactionSet),
		errors.Is(err, journal.ErrNoTradesParsed),
		errors.Is(err, journal.ErrMalformedTimestamp),
		errors.Is(err, journal.ErrUnsupportedInputType):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		h.log.Error(msg, zap.Error(err))
		http.Error(w, msg, http.StatusInternalServerError)
	}
}

func (h *APIHandler) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Error("Failed to encode response", zap.Error(err))
	}
}
