package detector

import (
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/whalewatch/engine/internal/domain"
)

// Default rule thresholds. Empirically chosen in the original strategy;
// kept as named knobs rather than re-derived.
const (
	DefaultWindow           = 120 * time.Second
	DefaultPriceMovePct     = 0.03 // 3% move between consecutive trades
	DefaultVolumeMult       = 3.0  // trade value vs average trade value
	DefaultPressureTrades   = 5    // lookback for the monotone run
	DefaultPressureRangePct = 0.02 // 2% range across the run
	DefaultWalletLookback   = 10   // trades scanned for involved wallets
)

// Config holds the detector thresholds.
type Config struct {
	Window           time.Duration
	PriceMovePct     float64
	VolumeMult       float64
	PressureTrades   int
	PressureRangePct float64
	WalletLookback   int
}

// DefaultConfig returns the thresholds used in production.
func DefaultConfig() Config {
	return Config{
		Window:           DefaultWindow,
		PriceMovePct:     DefaultPriceMovePct,
		VolumeMult:       DefaultVolumeMult,
		PressureTrades:   DefaultPressureTrades,
		PressureRangePct: DefaultPressureRangePct,
		WalletLookback:   DefaultWalletLookback,
	}
}

// Detector consumes one trade at a time and evaluates the three
// anomaly rules against the market's updated window. Every fired rule
// appends one event to the in-memory log and returns it to the caller.
type Detector struct {
	cfg   Config
	store *WindowStore

	mu  sync.Mutex
	log []domain.AnomalyEvent
}

// New creates a Detector with its own window store.
func New(cfg Config) *Detector {
	if cfg.Window <= 0 {
		cfg.Window = DefaultWindow
	}
	if cfg.PriceMovePct <= 0 {
		cfg.PriceMovePct = DefaultPriceMovePct
	}
	if cfg.VolumeMult <= 0 {
		cfg.VolumeMult = DefaultVolumeMult
	}
	if cfg.PressureTrades <= 0 {
		cfg.PressureTrades = DefaultPressureTrades
	}
	if cfg.PressureRangePct <= 0 {
		cfg.PressureRangePct = DefaultPressureRangePct
	}
	if cfg.WalletLookback <= 0 {
		cfg.WalletLookback = DefaultWalletLookback
	}
	return &Detector{
		cfg:   cfg,
		store: NewWindowStore(cfg.Window),
	}
}

// Store exposes the underlying window store (read access for callers).
func (d *Detector) Store() *WindowStore {
	return d.store
}

// Process applies the trade to its market window and evaluates the
// rules in fixed order: price move, volume spike, one-sided pressure.
// All three may fire for the same trade. A panic inside one rule
// degrades to "rule did not fire" and never suppresses the others.
func (d *Detector) Process(trade domain.Trade) ([]domain.AnomalyEvent, error) {
	win, oldPrice, err := d.store.Apply(trade)
	if err != nil {
		return nil, err
	}

	var events []domain.AnomalyEvent
	rules := []struct {
		typ  domain.AnomalyType
		eval func() *domain.AnomalyMetrics
	}{
		{domain.AnomalyRapidPriceMove, func() *domain.AnomalyMetrics { return d.evalPriceMove(win, oldPrice, trade) }},
		{domain.AnomalyVolumeSpike, func() *domain.AnomalyMetrics { return d.evalVolumeSpike(win, trade) }},
		{domain.AnomalyOneSidedPressure, func() *domain.AnomalyMetrics { return d.evalPressure(win) }},
	}

	for _, rule := range rules {
		metrics := safeEval(rule.typ, rule.eval)
		if metrics == nil {
			continue
		}
		events = append(events, domain.AnomalyEvent{
			Type:            rule.typ,
			MarketID:        trade.MarketID,
			DetectedAt:      trade.Timestamp,
			Trigger:         trade,
			Metrics:         *metrics,
			WalletsInvolved: d.walletsInvolved(win),
		})
	}

	if len(events) > 0 {
		d.mu.Lock()
		d.log = append(d.log, events...)
		d.mu.Unlock()
	}
	return events, nil
}

// Events returns a snapshot of the append-only anomaly log.
func (d *Detector) Events() []domain.AnomalyEvent {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]domain.AnomalyEvent, len(d.log))
	copy(out, d.log)
	return out
}

// safeEval isolates one rule behind a recover boundary.
func safeEval(typ domain.AnomalyType, fn func() *domain.AnomalyMetrics) (m *domain.AnomalyMetrics) {
	defer func() {
		if r := recover(); r != nil {
			slog.Warn("anomaly rule panicked, treating as not fired", "rule", string(typ), "panic", r)
			m = nil
		}
	}()
	return fn()
}

// evalPriceMove fires when the price moved ≥ PriceMovePct between the
// previous and current trade. Needs at least 2 trades in the window.
func (d *Detector) evalPriceMove(win *MarketWindow, oldPrice float64, trade domain.Trade) *domain.AnomalyMetrics {
	// recent already includes the current trade; after pruning, a lone
	// trade means the reference price is stale and the rule stays quiet.
	if len(win.recent) < 2 || oldPrice == 0 {
		return nil
	}
	delta := math.Abs(trade.Price-oldPrice) / oldPrice
	if delta < d.cfg.PriceMovePct {
		return nil
	}
	return &domain.AnomalyMetrics{
		OldPrice:  oldPrice,
		NewPrice:  trade.Price,
		ChangePct: delta * 100,
	}
}

// evalVolumeSpike fires when the trade's value is ≥ VolumeMult times
// the market's average trade value (average includes this trade).
func (d *Detector) evalVolumeSpike(win *MarketWindow, trade domain.Trade) *domain.AnomalyMetrics {
	if win.TradeCount < 2 {
		return nil
	}
	count := win.TradeCount
	if count < 1 {
		count = 1
	}
	avg := win.CumulativeVolumeValue / float64(count)
	if avg <= 0 {
		return nil
	}
	value := trade.Value()
	if value < avg*d.cfg.VolumeMult {
		return nil
	}
	return &domain.AnomalyMetrics{
		TradeValue:    value,
		AvgTradeValue: avg,
		Multiplier:    value / avg,
	}
}

// evalPressure fires when the last PressureTrades prices form a
// monotone run spanning ≥ PressureRangePct.
func (d *Detector) evalPressure(win *MarketWindow) *domain.AnomalyMetrics {
	n := d.cfg.PressureTrades
	if len(win.recent) < n {
		return nil
	}
	last := win.recent[len(win.recent)-n:]

	up, down := true, true
	lo, hi := last[0].Price, last[0].Price
	for i := 1; i < n; i++ {
		prev, cur := last[i-1].Price, last[i].Price
		if cur < prev {
			up = false
		}
		if cur > prev {
			down = false
		}
		if cur < lo {
			lo = cur
		}
		if cur > hi {
			hi = cur
		}
	}
	if (!up && !down) || lo <= 0 {
		return nil
	}
	rangePct := (hi - lo) / lo
	if rangePct < d.cfg.PressureRangePct {
		return nil
	}

	dir := domain.PressureUp
	if down {
		dir = domain.PressureDown
	}
	return &domain.AnomalyMetrics{
		Direction:     dir,
		PriceRangePct: rangePct * 100,
		TradeCount:    n,
	}
}

// walletsInvolved collects the distinct trader ids over the last
// WalletLookback trades in the window, oldest first.
func (d *Detector) walletsInvolved(win *MarketWindow) []string {
	start := len(win.recent) - d.cfg.WalletLookback
	if start < 0 {
		start = 0
	}
	seen := make(map[string]bool)
	var wallets []string
	for _, t := range win.recent[start:] {
		if t.TraderID == "" || seen[t.TraderID] {
			continue
		}
		seen[t.TraderID] = true
		wallets = append(wallets, t.TraderID)
	}
	return wallets
}
