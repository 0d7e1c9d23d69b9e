package storage_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/whalewatch/engine/internal/adapters/storage"
	"github.com/whalewatch/engine/internal/domain"
)

var detectedAt = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func makeAnomaly(market string, typ domain.AnomalyType) domain.AnomalyEvent {
	return domain.AnomalyEvent{
		Type:       typ,
		MarketID:   market,
		DetectedAt: detectedAt,
		Trigger: domain.Trade{
			MarketID:  market,
			Price:     0.42,
			Size:      500,
			Timestamp: detectedAt,
			TraderID:  "0xwhale",
		},
		Metrics: domain.AnomalyMetrics{
			OldPrice:  0.40,
			NewPrice:  0.42,
			ChangePct: 5.0,
		},
		WalletsInvolved: []string{"0xwhale", "0xother"},
	}
}

func makePaperTrade(id, signalID string) domain.PaperTrade {
	return domain.PaperTrade{
		TradeID:    id,
		SignalID:   signalID,
		Wallet:     "0xwhale",
		MarketID:   "0xcond",
		OpenedAt:   detectedAt,
		Status:     domain.PaperStatusOpen,
		StakeUSD:   3.50,
		StakeUSDC:  3.50,
		EntryPrice: 0.55,
		Position:   "YES",
		Confidence: 80,
	}
}

func TestSQLiteStorage_SaveAndGetAnomalies(t *testing.T) {
	db, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	require.NoError(t, db.SaveAnomaly(ctx, makeAnomaly("0xaaa", domain.AnomalyRapidPriceMove)))
	require.NoError(t, db.SaveAnomaly(ctx, makeAnomaly("0xbbb", domain.AnomalyVolumeSpike)))

	all, err := db.GetAnomalies(ctx, "", 0)
	require.NoError(t, err)
	require.Len(t, all, 2)

	// Newest first.
	assert.Equal(t, domain.AnomalyVolumeSpike, all[0].Type)
	assert.Equal(t, []string{"0xwhale", "0xother"}, all[0].WalletsInvolved)
	assert.Equal(t, detectedAt, all[0].DetectedAt)

	byMarket, err := db.GetAnomalies(ctx, "0xaaa", 10)
	require.NoError(t, err)
	require.Len(t, byMarket, 1)
	assert.InDelta(t, 5.0, byMarket[0].Metrics.ChangePct, 0.001)

	n, err := db.CountAnomalies(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestSQLiteStorage_PaperTradeLifecycle(t *testing.T) {
	db, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	trade := makePaperTrade("t-1", "sig-1")
	require.NoError(t, db.SavePaperTrade(ctx, trade))

	// Duplicate save is a no-op.
	require.NoError(t, db.SavePaperTrade(ctx, trade))
	open, err := db.GetPaperTrades(ctx, "OPEN")
	require.NoError(t, err)
	require.Len(t, open, 1)

	resolvedAt := detectedAt.Add(time.Hour)
	won := true
	pnl := 2.86
	trade.Status = domain.PaperStatusResolved
	trade.ResolvedAt = &resolvedAt
	trade.Won = &won
	trade.PnL = &pnl
	require.NoError(t, db.MarkPaperTradeResolved(ctx, trade))

	got, err := db.GetPaperTrade(ctx, "t-1")
	require.NoError(t, err)
	assert.Equal(t, domain.PaperStatusResolved, got.Status)
	require.NotNil(t, got.Won)
	assert.True(t, *got.Won)
	require.NotNil(t, got.PnL)
	assert.InDelta(t, 2.86, *got.PnL, 0.001)
	require.NotNil(t, got.ResolvedAt)
	assert.Equal(t, resolvedAt, *got.ResolvedAt)
}

func TestSQLiteStorage_GetAnomaliesCorruptTimestamp(t *testing.T) {
	path := filepath.Join(t.TempDir(), "whalewatch.db")
	db, err := storage.NewSQLiteStorage(path)
	require.NoError(t, err)
	defer db.Close()

	// Inyecta una fila con detected_at ilegible, bypaseando SaveAnomaly.
	raw, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer raw.Close()
	_, err = raw.Exec(`INSERT INTO anomalies (type, market_id, detected_at)
	                   VALUES ('rapid_price_move', '0xaaa', 'not-a-timestamp')`)
	require.NoError(t, err)

	_, err = db.GetAnomalies(context.Background(), "", 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "detected_at")
}

func TestSQLiteStorage_GetPaperTradeNotFound(t *testing.T) {
	db, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	defer db.Close()

	_, err = db.GetPaperTrade(context.Background(), "missing")
	assert.ErrorIs(t, err, storage.ErrTradeNotFound)
}

func TestSQLiteStorage_PaperStats(t *testing.T) {
	db, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	require.NoError(t, db.SavePaperTrade(ctx, makePaperTrade("t-1", "sig-1")))
	require.NoError(t, db.SavePaperTrade(ctx, makePaperTrade("t-2", "sig-2")))

	resolved := makePaperTrade("t-2", "sig-2")
	resolvedAt := detectedAt.Add(time.Hour)
	won := true
	pnl := 1.25
	resolved.ResolvedAt = &resolvedAt
	resolved.Won = &won
	resolved.PnL = &pnl
	require.NoError(t, db.MarkPaperTradeResolved(ctx, resolved))

	stats, err := db.GetPaperStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalOpened)
	assert.Equal(t, 1, stats.OpenCount)
	assert.Equal(t, 1, stats.ResolvedCount)
	assert.Equal(t, 1, stats.Wins)
	assert.Equal(t, 0, stats.Losses)
	assert.InDelta(t, 1.0, stats.WinRate, 0.001)
	assert.InDelta(t, 7.0, stats.TotalStaked, 0.001)
	assert.InDelta(t, 1.25, stats.NetPnL, 0.001)
}
