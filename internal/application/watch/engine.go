package watch

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/whalewatch/engine/internal/detector"
	"github.com/whalewatch/engine/internal/domain"
	"github.com/whalewatch/engine/internal/ledger"
	"github.com/whalewatch/engine/internal/ports"
)

// Engine wires the pipeline: feed → detector → scorer → ledger, with
// storage and notification on the side. Persistence and notification
// failures are logged and skipped; they never stop the stream.
type Engine struct {
	detector *detector.Detector
	ledger   *ledger.Ledger
	scorer   ports.ConfidenceScorer
	store    ports.Storage // nil = dry run, nothing persisted
	notifier ports.Notifier
}

// New crea un Engine con todas las dependencias inyectadas.
func New(
	det *detector.Detector,
	led *ledger.Ledger,
	scorer ports.ConfidenceScorer,
	store ports.Storage,
	notifier ports.Notifier,
) *Engine {
	return &Engine{
		detector: det,
		ledger:   led,
		scorer:   scorer,
		store:    store,
		notifier: notifier,
	}
}

// RunResult contains everything produced by one engine run.
type RunResult struct {
	TradesProcessed int
	TradesRejected  int
	Anomalies       int
	TradesOpened    int
	SignalsRejected int
}

// Run consumes the feed until it is exhausted or ctx is cancelled.
func (e *Engine) Run(ctx context.Context, feed ports.TradeFeed) (*RunResult, error) {
	trades, err := feed.Trades(ctx)
	if err != nil {
		return nil, fmt.Errorf("watch.Run: %w", err)
	}

	result := &RunResult{}
	for {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		case trade, ok := <-trades:
			if !ok {
				return result, nil
			}
			e.handleTrade(ctx, trade, result)
		}
	}
}

// handleTrade runs one trade through detection and, for every fired
// event, through scoring and the paper trade ledger.
func (e *Engine) handleTrade(ctx context.Context, trade domain.Trade, result *RunResult) {
	events, err := e.detector.Process(trade)
	if err != nil {
		result.TradesRejected++
		slog.Warn("dropping invalid trade", "market", trade.MarketID, "err", err)
		return
	}
	result.TradesProcessed++
	if len(events) == 0 {
		return
	}
	result.Anomalies += len(events)

	if e.store != nil {
		for _, ev := range events {
			if err := e.store.SaveAnomaly(ctx, ev); err != nil {
				slog.Warn("failed to persist anomaly", "type", ev.Type, "err", err)
			}
		}
	}
	if err := e.notifier.NotifyAnomalies(ctx, events); err != nil {
		slog.Warn("notifier error", "err", err)
	}

	for _, ev := range events {
		e.handleSignal(ctx, ev, result)
	}
}

// handleSignal scores one anomaly and tries to open a paper trade.
func (e *Engine) handleSignal(ctx context.Context, ev domain.AnomalyEvent, result *RunResult) {
	confidence, err := e.scorer.Score(ctx, ev)
	if err != nil {
		result.SignalsRejected++
		slog.Warn("scorer failed, skipping signal", "type", ev.Type, "err", err)
		return
	}

	sig := signalFromEvent(ev, confidence)
	trade, reason := e.ledger.Open(sig)
	if reason != "" {
		result.SignalsRejected++
		slog.Debug("signal rejected", "signal", sig.ID, "reason", string(reason))
		return
	}
	result.TradesOpened++

	if e.store != nil {
		if err := e.store.SavePaperTrade(ctx, *trade); err != nil {
			slog.Warn("failed to persist paper trade", "trade", trade.TradeID, "err", err)
		}
	}
	if err := e.notifier.NotifyPaperTrade(ctx, *trade); err != nil {
		slog.Warn("notifier error", "err", err)
	}
}

// Resolve settles a paper trade from the external resolution feed and
// propagates the update to storage and the notifier.
func (e *Engine) Resolve(ctx context.Context, tradeID string, won bool, exitPrice float64) (*domain.PaperTrade, error) {
	trade, err := e.ledger.Resolve(tradeID, won, exitPrice)
	if err != nil {
		return nil, err
	}

	if e.store != nil {
		if err := e.store.MarkPaperTradeResolved(ctx, *trade); err != nil {
			slog.Warn("failed to persist resolution", "trade", tradeID, "err", err)
		}
	}
	if err := e.notifier.NotifyPaperTrade(ctx, *trade); err != nil {
		slog.Warn("notifier error", "err", err)
	}
	return trade, nil
}

// PrintSummary renders the aggregate state of the run.
func (e *Engine) PrintSummary() {
	e.notifier.PrintSummary(e.ledger.Stats(), len(e.detector.Events()))
}

// signalFromEvent derives a deterministic signal from an anomaly, so
// replaying the same stream cannot double-open trades.
func signalFromEvent(ev domain.AnomalyEvent, confidence int) domain.Signal {
	return domain.Signal{
		ID:           fmt.Sprintf("%s:%s:%d", ev.Type, ev.MarketID, ev.DetectedAt.UnixNano()),
		Wallet:       ev.Trigger.TraderID,
		MarketID:     ev.MarketID,
		Description:  ev.MarketID, // feeds carry no question text; the id doubles as description
		EntryPrice:   ev.Trigger.Price,
		Confidence:   confidence,
		OutcomeIndex: outcomeFor(ev),
		Timestamp:    ev.DetectedAt,
	}
}

// outcomeFor follows the direction of the anomaly: upward moves back
// YES (index 0), downward moves back NO.
func outcomeFor(ev domain.AnomalyEvent) *int {
	idx := 0
	switch ev.Type {
	case domain.AnomalyRapidPriceMove:
		if ev.Metrics.NewPrice < ev.Metrics.OldPrice {
			idx = 1
		}
	case domain.AnomalyOneSidedPressure:
		if ev.Metrics.Direction == domain.PressureDown {
			idx = 1
		}
	}
	return &idx
}
