package importer

import (
	"trading-journal-go/internal/journal"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultBrokerMistake tags trades created from a broker export so they are
// distinguishable from manual entries until the user classifies them.
const DefaultBrokerMistake = "Imported from TradeZero CSV"

// Adapter maps one broker's tabular export into canonical executions. New
// broker formats implement only the column mapping; segmentation is shared.
type Adapter interface {
	Name() string
	Parse(csvText string) ([]journal.Execution, error)
}

// Result reports the outcome of a bulk import. Imports are not atomic: the
// flow continues past per-trade failures, so partial success is normal and
// reported through these counts.
type Result struct {
	Inserted   int `json:"inserted"`
	Duplicates int `json:"duplicates"`
	Skipped    int `json:"skipped"`
}

// Importer drives broker and AI imports through the normal create-trade flow,
// including duplicate detection.
type Importer struct {
	store *journal.Store
	log   *zap.Logger
}

// NewImporter creates a new importer backed by the given store.
func NewImporter(store *journal.Store, log *zap.Logger) *Importer {
	return &Importer{store: store, log: log.Named("importer")}
}

// ImportBroker parses a broker CSV with the given adapter, segments the
// executions into trades with the running-position rule, and persists each
// one. Returns ErrNoTradesParsed when the whole file yields nothing usable.
func (imp *Importer) ImportBroker(userID string, adapter Adapter, csvText string) (Result, error) {
	batchID := uuid.NewString()
	l := imp.log.With(
		zap.String("batch_id", batchID),
		zap.String("adapter", adapter.Name()),
		zap.String("user_id", userID),
	)

	execs, err := adapter.Parse(csvText)
	if err != nil {
		return Result{}, err
	}

	drafts := journal.SegmentExecutions(execs)
	if len(drafts) == 0 {
		return Result{}, journal.ErrNoTradesParsed
	}
	l.Info("Segmented broker executions", zap.Int("executions", len(execs)), zap.Int("trades", len(drafts)))

	var res Result
	for _, draft := range drafts {
		_, created, err := imp.store.CreateTrade(userID, draft.Ticker, DefaultBrokerMistake, "", draft.Transactions)
		if err != nil {
			l.Warn("Skipping trade that failed to persist", zap.String("ticker", draft.Ticker), zap.Error(err))
			res.Skipped++
			continue
		}
		if created {
			res.Inserted++
		} else {
			res.Duplicates++
		}
	}

	if res.Inserted == 0 && res.Duplicates == 0 {
		return res, journal.ErrNoTradesParsed
	}
	l.Info("Broker import finished",
		zap.Int("inserted", res.Inserted),
		zap.Int("duplicates", res.Duplicates),
		zap.Int("skipped", res.Skipped),
	)
	return res, nil
}

// ImportTrades persists trades already in the canonical wire format, such as
// the output of the AI CSV interpreter. Unusable entries are skipped with a
// diagnostic; only a fully unusable batch is an error.
func (imp *Importer) ImportTrades(userID string, payloads []journal.TradePayload) (Result, error) {
	batchID := uuid.NewString()
	l := imp.log.With(zap.String("batch_id", batchID), zap.String("user_id", userID))

	var res Result
	for _, payload := range payloads {
		txs, err := payload.Validate()
		if err != nil {
			l.Warn("Skipping unusable trade entry", zap.String("ticker", payload.Ticker), zap.Error(err))
			res.Skipped++
			continue
		}
		_, created, err := imp.store.CreateTrade(userID, payload.Ticker, payload.Mistake, payload.Notes, txs)
		if err != nil {
			l.Warn("Skipping trade that failed to persist", zap.String("ticker", payload.Ticker), zap.Error(err))
			res.Skipped++
			continue
		}
		if created {
			res.Inserted++
		} else {
			res.Duplicates++
		}
	}

	if res.Inserted == 0 && res.Duplicates == 0 {
		return res, journal.ErrNoTradesParsed
	}
	l.Info("Trade import finished",
		zap.Int("inserted", res.Inserted),
		zap.Int("duplicates", res.Duplicates),
		zap.Int("skipped", res.Skipped),
	)
	return res, nil
}
