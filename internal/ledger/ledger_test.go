package ledger

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/whalewatch/engine/internal/domain"
)

func validSignal() domain.Signal {
	return domain.Signal{
		ID:          "sig-1",
		Wallet:      "0xwhale",
		MarketID:    "0xcond",
		Description: "Will BTC close above $100k?",
		EntryPrice:  0.55,
		Confidence:  80,
		OutcomeName: "Yes",
		Timestamp:   time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestOpen_SizesFromConfidence(t *testing.T) {
	l := New(DefaultConfig())

	trade, reason := l.Open(validSignal())
	require.Empty(t, reason)
	require.NotNil(t, trade)

	assert.Equal(t, domain.PaperStatusOpen, trade.Status)
	assert.Equal(t, 3.50, trade.StakeUSD) // confidence 80 on the default curve
	assert.Equal(t, 3.50, trade.StakeUSDC)
	assert.Equal(t, "YES", trade.Position)
	assert.Equal(t, "sig-1", trade.SignalID)
	assert.NotEmpty(t, trade.TradeID)
	assert.Equal(t, validSignal().Timestamp, trade.OpenedAt)
}

func TestOpen_ExchangeRateApplied(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ExchangeRate = 1.1
	l := New(cfg)

	trade, reason := l.Open(validSignal())
	require.Empty(t, reason)
	assert.Equal(t, 3.50, trade.StakeUSD)
	assert.InDelta(t, 3.85, trade.StakeUSDC, 0.001)
}

func TestOpen_ValidationReasons(t *testing.T) {
	l := New(DefaultConfig())

	tests := []struct {
		name   string
		mutate func(*domain.Signal)
		want   domain.RejectReason
	}{
		{"missing wallet", func(s *domain.Signal) { s.Wallet = "" }, domain.ReasonMissingWallet},
		{"missing market", func(s *domain.Signal) { s.MarketID = "" }, domain.ReasonMissingMarket},
		{"missing description", func(s *domain.Signal) { s.Description = "" }, domain.ReasonMissingDescription},
		{"zero entry price", func(s *domain.Signal) { s.EntryPrice = 0 }, domain.ReasonInvalidEntryPrice},
		{"negative entry price", func(s *domain.Signal) { s.EntryPrice = -0.5 }, domain.ReasonInvalidEntryPrice},
		{"low confidence", func(s *domain.Signal) { s.Confidence = 49 }, domain.ReasonStakeZeroOrNegative},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			sig := validSignal()
			tc.mutate(&sig)
			trade, reason := l.Open(sig)
			assert.Nil(t, trade)
			assert.Equal(t, tc.want, reason)
		})
	}

	assert.Empty(t, l.All(), "rejected signals must never enter the ledger")
}

func TestOpen_IdempotentPerSignal(t *testing.T) {
	l := New(DefaultConfig())

	first, reason := l.Open(validSignal())
	require.Empty(t, reason)
	second, reason := l.Open(validSignal())
	require.Empty(t, reason)

	assert.Equal(t, first.TradeID, second.TradeID)
	assert.Len(t, l.All(), 1)
}

func TestOpen_ConcurrentSameSignal(t *testing.T) {
	l := New(DefaultConfig())

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l.Open(validSignal())
		}()
	}
	wg.Wait()

	assert.Len(t, l.All(), 1, "concurrent opens for one signal must create exactly one trade")
}

func TestOpen_RangeHintAppliedToLabel(t *testing.T) {
	l := New(DefaultConfig())

	sig := validSignal()
	sig.Description = "Will ETH trade between $3,000 and $4,000 this week?"
	trade, reason := l.Open(sig)
	require.Empty(t, reason)
	assert.Equal(t, "Yes (IN RANGE $3,000–$4,000)", trade.Position)
}

func TestResolve_WinComputesPnL(t *testing.T) {
	l := New(DefaultConfig())
	opened, _ := l.Open(validSignal())

	resolved, err := l.Resolve(opened.TradeID, true, 1.0)
	require.NoError(t, err)

	assert.Equal(t, domain.PaperStatusResolved, resolved.Status)
	require.NotNil(t, resolved.Won)
	assert.True(t, *resolved.Won)
	require.NotNil(t, resolved.PnL)
	// shares = 3.50/0.55 ≈ 6.3636, pnl = 6.3636×1.0 − 3.50 ≈ 2.8636
	assert.InDelta(t, 2.8636, *resolved.PnL, 0.001)
	assert.NotNil(t, resolved.ResolvedAt)
}

func TestResolve_LossLosesStake(t *testing.T) {
	l := New(DefaultConfig())
	opened, _ := l.Open(validSignal())

	resolved, err := l.Resolve(opened.TradeID, false, 0)
	require.NoError(t, err)
	require.NotNil(t, resolved.PnL)
	assert.InDelta(t, -3.50, *resolved.PnL, 0.001)
}

func TestResolve_Idempotent(t *testing.T) {
	l := New(DefaultConfig())
	opened, _ := l.Open(validSignal())

	first, err := l.Resolve(opened.TradeID, true, 1.0)
	require.NoError(t, err)

	// A second resolve must not recompute or flip anything.
	second, err := l.Resolve(opened.TradeID, false, 0)
	require.NoError(t, err)
	assert.Equal(t, *first.Won, *second.Won)
	assert.Equal(t, *first.PnL, *second.PnL)
	assert.Equal(t, first.ResolvedAt.Unix(), second.ResolvedAt.Unix())
}

func TestResolve_UnknownTrade(t *testing.T) {
	l := New(DefaultConfig())
	_, err := l.Resolve("nope", true, 1.0)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSnapshots_AreNotLiveReferences(t *testing.T) {
	l := New(DefaultConfig())
	opened, _ := l.Open(validSignal())

	opened.Status = domain.PaperStatusResolved
	stored, err := l.Get(opened.TradeID)
	require.NoError(t, err)
	assert.Equal(t, domain.PaperStatusOpen, stored.Status)

	// Resolution pointers must not be shared with callers either.
	resolved, err := l.Resolve(opened.TradeID, true, 1.0)
	require.NoError(t, err)
	require.NotNil(t, resolved.PnL)
	originalPnL := *resolved.PnL
	*resolved.PnL = -999
	*resolved.Won = false

	stored, err = l.Get(opened.TradeID)
	require.NoError(t, err)
	require.NotNil(t, stored.PnL)
	assert.InDelta(t, originalPnL, *stored.PnL, 0.001)
	assert.True(t, *stored.Won)
}

func TestStats(t *testing.T) {
	l := New(DefaultConfig())

	for i := 0; i < 3; i++ {
		sig := validSignal()
		sig.ID = fmt.Sprintf("sig-%d", i)
		trade, reason := l.Open(sig)
		require.Empty(t, reason)
		if i < 2 {
			_, err := l.Resolve(trade.TradeID, i == 0, float64(i))
			require.NoError(t, err)
		}
	}

	stats := l.Stats()
	assert.Equal(t, 3, stats.TotalOpened)
	assert.Equal(t, 1, stats.OpenCount)
	assert.Equal(t, 2, stats.ResolvedCount)
	assert.Equal(t, 1, stats.Wins)
	assert.Equal(t, 1, stats.Losses)
	assert.InDelta(t, 0.5, stats.WinRate, 0.001)
	assert.InDelta(t, 10.5, stats.TotalStaked, 0.001)
}
