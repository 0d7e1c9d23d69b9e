package ledger

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/whalewatch/engine/internal/domain"
)

// ErrNotFound is returned when resolving an unknown trade id.
var ErrNotFound = errors.New("paper trade not found")

// DefaultExchangeRate converts curve stakes (USD) to the ledger's
// settlement currency (USDC). 1:1 unless overridden by config.
const DefaultExchangeRate = 1.0

// Config holds the ledger's sizing parameters.
type Config struct {
	Curve        domain.StakeCurve
	ExchangeRate float64 // USD → USDC
}

// DefaultConfig returns the default curve with a 1:1 exchange rate.
func DefaultConfig() Config {
	return Config{
		Curve:        domain.DefaultStakeCurve(),
		ExchangeRate: DefaultExchangeRate,
	}
}

// Ledger turns qualifying signals into sized paper trades and owns
// their OPEN→RESOLVED lifecycle. Callers get snapshots, never live
// references. One Ledger per process; construct with New.
type Ledger struct {
	cfg Config
	now func() time.Time

	mu       sync.Mutex
	bySignal map[string]string             // signal id → trade id
	trades   map[string]*domain.PaperTrade // trade id → trade
	order    []string                      // trade ids in open order
}

// New creates an empty ledger.
func New(cfg Config) *Ledger {
	if cfg.ExchangeRate <= 0 {
		cfg.ExchangeRate = DefaultExchangeRate
	}
	zero := domain.StakeCurve{}
	if cfg.Curve == zero {
		cfg.Curve = domain.DefaultStakeCurve()
	}
	return &Ledger{
		cfg:      cfg,
		now:      time.Now,
		bySignal: make(map[string]string),
		trades:   make(map[string]*domain.PaperTrade),
	}
}

// Open sizes and opens a paper trade for the signal, or rejects it
// with a reason code. Opening is idempotent per signal id: a second
// call returns the existing trade without charging a second stake.
// The check-then-create runs under one lock so concurrent calls with
// the same signal cannot both create a trade.
func (l *Ledger) Open(sig domain.Signal) (*domain.PaperTrade, domain.RejectReason) {
	if sig.Wallet == "" {
		return nil, domain.ReasonMissingWallet
	}
	if sig.MarketID == "" {
		return nil, domain.ReasonMissingMarket
	}
	if sig.Description == "" {
		return nil, domain.ReasonMissingDescription
	}
	if sig.EntryPrice <= 0 {
		return nil, domain.ReasonInvalidEntryPrice
	}

	stake := l.cfg.Curve.StakeFor(sig.Confidence)
	if stake <= 0 {
		return nil, domain.ReasonStakeZeroOrNegative
	}

	position := domain.NormalizePosition(sig.OutcomeName, sig.OutcomeIndex)
	position = domain.ApplyRangeHint(sig.Description, position)

	openedAt := sig.Timestamp
	if openedAt.IsZero() {
		openedAt = l.now()
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if tradeID, ok := l.bySignal[sig.ID]; ok && sig.ID != "" {
		return snapshot(l.trades[tradeID]), ""
	}

	trade := &domain.PaperTrade{
		TradeID:    uuid.New().String(),
		SignalID:   sig.ID,
		Wallet:     sig.Wallet,
		MarketID:   sig.MarketID,
		OpenedAt:   openedAt,
		Status:     domain.PaperStatusOpen,
		StakeUSD:   stake,
		StakeUSDC:  stake * l.cfg.ExchangeRate,
		EntryPrice: sig.EntryPrice,
		Position:   position,
		Confidence: sig.Confidence,
	}

	l.trades[trade.TradeID] = trade
	l.order = append(l.order, trade.TradeID)
	if sig.ID != "" {
		l.bySignal[sig.ID] = trade.TradeID
	}

	return snapshot(trade), ""
}

// snapshot deep-copies a trade so the pointer fields set on resolution
// are never shared with callers.
func snapshot(trade *domain.PaperTrade) *domain.PaperTrade {
	out := *trade
	if trade.ResolvedAt != nil {
		at := *trade.ResolvedAt
		out.ResolvedAt = &at
	}
	if trade.Won != nil {
		won := *trade.Won
		out.Won = &won
	}
	if trade.PnL != nil {
		pnl := *trade.PnL
		out.PnL = &pnl
	}
	return &out
}

// Resolve moves an OPEN trade to RESOLVED and computes its PnL from
// stake, entry and exit price. Resolving an already-resolved trade is
// an idempotent no-op returning the stored record; unknown ids fail
// with ErrNotFound.
func (l *Ledger) Resolve(tradeID string, won bool, exitPrice float64) (*domain.PaperTrade, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	trade, ok := l.trades[tradeID]
	if !ok {
		return nil, fmt.Errorf("ledger.Resolve %q: %w", tradeID, ErrNotFound)
	}
	if trade.Status == domain.PaperStatusResolved {
		return snapshot(trade), nil
	}

	resolvedAt := l.now()
	shares := trade.StakeUSDC / trade.EntryPrice
	pnl := shares*exitPrice - trade.StakeUSDC

	trade.Status = domain.PaperStatusResolved
	trade.ResolvedAt = &resolvedAt
	trade.Won = &won
	trade.PnL = &pnl

	return snapshot(trade), nil
}

// Get returns a snapshot of a trade, or ErrNotFound.
func (l *Ledger) Get(tradeID string) (*domain.PaperTrade, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	trade, ok := l.trades[tradeID]
	if !ok {
		return nil, fmt.Errorf("ledger.Get %q: %w", tradeID, ErrNotFound)
	}
	return snapshot(trade), nil
}

// All returns snapshots of every trade, in the order they were opened.
func (l *Ledger) All() []domain.PaperTrade {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]domain.PaperTrade, 0, len(l.order))
	for _, id := range l.order {
		out = append(out, *snapshot(l.trades[id]))
	}
	return out
}

// Stats aggregates the ledger's current state.
func (l *Ledger) Stats() domain.PaperStats {
	l.mu.Lock()
	defer l.mu.Unlock()

	var stats domain.PaperStats
	stats.TotalOpened = len(l.order)
	for _, trade := range l.trades {
		stats.TotalStaked += trade.StakeUSDC
		if trade.Status == domain.PaperStatusOpen {
			stats.OpenCount++
			continue
		}
		stats.ResolvedCount++
		if trade.Won != nil && *trade.Won {
			stats.Wins++
		} else {
			stats.Losses++
		}
		if trade.PnL != nil {
			stats.NetPnL += *trade.PnL
		}
	}
	if stats.ResolvedCount > 0 {
		stats.WinRate = float64(stats.Wins) / float64(stats.ResolvedCount)
	}
	return stats
}
