package detector

import (
	"fmt"
	"sync"
	"time"

	"github.com/whalewatch/engine/internal/domain"
)

// MarketWindow is the bounded sliding-window state for one market.
// CumulativeVolumeValue and TradeCount are lifetime counters; only
// the recent trade buffer is bounded by the window duration.
type MarketWindow struct {
	MarketID              string
	InitialPrice          float64
	CurrentPrice          float64
	LastUpdate            time.Time
	CumulativeVolumeValue float64
	TradeCount            int

	recent []domain.Trade
}

// RecentTrades returns a copy of the in-window trade buffer, oldest first.
func (w *MarketWindow) RecentTrades() []domain.Trade {
	out := make([]domain.Trade, len(w.recent))
	copy(out, w.recent)
	return out
}

// WindowStore owns every MarketWindow, one per market id, created on
// first trade and never deleted. The mutex guards the map so that the
// first trade of a market cannot create two windows; per-market
// timestamp ordering is the caller's contract.
type WindowStore struct {
	mu      sync.Mutex
	windows map[string]*MarketWindow
	span    time.Duration
}

// NewWindowStore creates a store with the given window span.
func NewWindowStore(span time.Duration) *WindowStore {
	if span <= 0 {
		span = DefaultWindow
	}
	return &WindowStore{
		windows: make(map[string]*MarketWindow),
		span:    span,
	}
}

// Apply records a trade into its market's window and returns the
// updated window plus the pre-update price, so the caller can compute
// deltas. Malformed trades are rejected and leave the window untouched.
func (s *WindowStore) Apply(trade domain.Trade) (*MarketWindow, float64, error) {
	if err := trade.Validate(); err != nil {
		return nil, 0, fmt.Errorf("detector.Apply: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	win, ok := s.windows[trade.MarketID]
	if !ok {
		// First trade of the market: oldPrice == trade.Price so the
		// first trade produces a zero delta and cannot fire the
		// price-move rule by itself.
		win = &MarketWindow{
			MarketID:     trade.MarketID,
			InitialPrice: trade.Price,
			CurrentPrice: trade.Price,
		}
		s.windows[trade.MarketID] = win
	}

	oldPrice := win.CurrentPrice

	win.recent = append(win.recent, trade)
	win.CurrentPrice = trade.Price
	win.LastUpdate = trade.Timestamp
	win.CumulativeVolumeValue += trade.Value()
	win.TradeCount++

	// Prune before evaluation, relative to the new trade's timestamp.
	cutoff := trade.Timestamp.Add(-s.span)
	idx := 0
	for idx < len(win.recent) && win.recent[idx].Timestamp.Before(cutoff) {
		idx++
	}
	if idx > 0 {
		win.recent = append([]domain.Trade(nil), win.recent[idx:]...)
	}

	return win, oldPrice, nil
}

// Window returns the window for a market, or nil if no trade has been
// seen for it yet.
func (s *WindowStore) Window(marketID string) *MarketWindow {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.windows[marketID]
}

// Markets returns the number of markets tracked so far.
func (s *WindowStore) Markets() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.windows)
}
