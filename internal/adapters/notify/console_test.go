package notify

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/whalewatch/engine/internal/domain"
)

var at = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func TestNotifyAnomalies_CompactLine(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsoleWriter(&buf, false)

	err := c.NotifyAnomalies(context.Background(), []domain.AnomalyEvent{{
		Type:            domain.AnomalyRapidPriceMove,
		MarketID:        "0xcondition",
		DetectedAt:      at,
		Metrics:         domain.AnomalyMetrics{OldPrice: 0.40, NewPrice: 0.42, ChangePct: 5.0},
		WalletsInvolved: []string{"0xa", "0xb"},
	}})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "rapid_price_move")
	assert.Contains(t, out, "0.400→0.420")
	assert.Contains(t, out, "5.0%")
}

func TestNotifyAnomalies_TableMode(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsoleWriter(&buf, true)

	err := c.NotifyAnomalies(context.Background(), []domain.AnomalyEvent{{
		Type:       domain.AnomalyVolumeSpike,
		MarketID:   "0xcondition",
		DetectedAt: at,
		Metrics:    domain.AnomalyMetrics{TradeValue: 100, AvgTradeValue: 32.5, Multiplier: 3.08},
	}})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "volume_spike")
	assert.Contains(t, buf.String(), "3.1x")
}

func TestNotifyAnomalies_Empty(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsoleWriter(&buf, false)
	require.NoError(t, c.NotifyAnomalies(context.Background(), nil))
	assert.Empty(t, buf.String())
}

func TestNotifyPaperTrade_Open(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsoleWriter(&buf, false)

	err := c.NotifyPaperTrade(context.Background(), domain.PaperTrade{
		TradeID:    "abcdef1234567890",
		MarketID:   "0xcond",
		OpenedAt:   at,
		Status:     domain.PaperStatusOpen,
		StakeUSDC:  3.50,
		EntryPrice: 0.55,
		Position:   "YES",
		Confidence: 80,
	})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "OPEN abcdef12")
	assert.Contains(t, buf.String(), "$3.50")
}

func TestNotifyPaperTrade_ResolvedWithMissingOptionals(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsoleWriter(&buf, false)

	// Resolved record with nil Won/PnL/ResolvedAt must render
	// placeholders, never panic.
	err := c.NotifyPaperTrade(context.Background(), domain.PaperTrade{
		TradeID:  "t-1",
		MarketID: "0xcond",
		Status:   domain.PaperStatusResolved,
	})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "N/A")
	assert.Contains(t, buf.String(), "--:--:--")
}

func TestPrintSummary(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsoleWriter(&buf, false)

	c.PrintSummary(domain.PaperStats{
		TotalOpened: 3, OpenCount: 1, ResolvedCount: 2,
		Wins: 1, Losses: 1, WinRate: 0.5,
		TotalStaked: 10.5, NetPnL: 2.86,
	}, 7)

	assert.Contains(t, buf.String(), "7 anomalies")
	assert.Contains(t, buf.String(), "W/L 1/1 (50%)")
}
