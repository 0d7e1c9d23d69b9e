package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/whalewatch/engine/internal/domain"
)

// ErrTradeNotFound is returned when a trade id has no row.
var ErrTradeNotFound = errors.New("paper trade not found in storage")

// SavePaperTrade inserts a newly opened trade. Re-saving the same
// trade id is a no-op, mirroring the ledger's idempotent open.
func (s *SQLiteStorage) SavePaperTrade(ctx context.Context, trade domain.PaperTrade) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO paper_trades (trade_id, signal_id, wallet, market_id, opened_at,
		                          status, stake_usd, stake_usdc, entry_price,
		                          position, confidence)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(trade_id) DO NOTHING`,
		trade.TradeID, trade.SignalID, trade.Wallet, trade.MarketID,
		trade.OpenedAt.UTC().Format(time.RFC3339), string(trade.Status),
		trade.StakeUSD, trade.StakeUSDC, trade.EntryPrice,
		trade.Position, trade.Confidence,
	)
	if err != nil {
		return fmt.Errorf("storage.SavePaperTrade: %w", err)
	}
	return nil
}

// MarkPaperTradeResolved writes the resolution fields for an OPEN row.
func (s *SQLiteStorage) MarkPaperTradeResolved(ctx context.Context, trade domain.PaperTrade) error {
	var resolvedAt any
	if trade.ResolvedAt != nil {
		resolvedAt = trade.ResolvedAt.UTC().Format(time.RFC3339)
	}
	var won any
	if trade.Won != nil {
		won = boolToInt(*trade.Won)
	}
	var pnl any
	if trade.PnL != nil {
		pnl = *trade.PnL
	}

	_, err := s.db.ExecContext(ctx, `
		UPDATE paper_trades SET status = 'RESOLVED', resolved_at = ?, won = ?, pnl = ?
		WHERE trade_id = ? AND status = 'OPEN'`,
		resolvedAt, won, pnl, trade.TradeID,
	)
	if err != nil {
		return fmt.Errorf("storage.MarkPaperTradeResolved: %w", err)
	}
	return nil
}

// GetPaperTrade returns one trade by id.
func (s *SQLiteStorage) GetPaperTrade(ctx context.Context, tradeID string) (*domain.PaperTrade, error) {
	trades, err := s.queryPaperTrades(ctx, `
		SELECT trade_id, signal_id, wallet, market_id, opened_at, status,
		       stake_usd, stake_usdc, entry_price, position, confidence,
		       resolved_at, won, pnl
		FROM paper_trades WHERE trade_id = ?`, tradeID)
	if err != nil {
		return nil, err
	}
	if len(trades) == 0 {
		return nil, fmt.Errorf("storage.GetPaperTrade %q: %w", tradeID, ErrTradeNotFound)
	}
	return &trades[0], nil
}

// GetPaperTrades returns trades, optionally filtered by status, newest first.
func (s *SQLiteStorage) GetPaperTrades(ctx context.Context, status string) ([]domain.PaperTrade, error) {
	if status != "" {
		return s.queryPaperTrades(ctx, `
			SELECT trade_id, signal_id, wallet, market_id, opened_at, status,
			       stake_usd, stake_usdc, entry_price, position, confidence,
			       resolved_at, won, pnl
			FROM paper_trades WHERE status = ?
			ORDER BY opened_at DESC`, status)
	}
	return s.queryPaperTrades(ctx, `
		SELECT trade_id, signal_id, wallet, market_id, opened_at, status,
		       stake_usd, stake_usdc, entry_price, position, confidence,
		       resolved_at, won, pnl
		FROM paper_trades ORDER BY opened_at DESC`)
}

// GetPaperStats computes aggregate stats from paper_trades.
func (s *SQLiteStorage) GetPaperStats(ctx context.Context) (domain.PaperStats, error) {
	var stats domain.PaperStats
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(CASE WHEN status = 'OPEN' THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN status = 'RESOLVED' THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN won = 1 THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN status = 'RESOLVED' AND (won IS NULL OR won = 0) THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(stake_usdc), 0),
		       COALESCE(SUM(pnl), 0)
		FROM paper_trades`).Scan(
		&stats.TotalOpened, &stats.OpenCount, &stats.ResolvedCount,
		&stats.Wins, &stats.Losses, &stats.TotalStaked, &stats.NetPnL,
	)
	if err != nil {
		return domain.PaperStats{}, fmt.Errorf("storage.GetPaperStats: %w", err)
	}
	if stats.ResolvedCount > 0 {
		stats.WinRate = float64(stats.Wins) / float64(stats.ResolvedCount)
	}
	return stats, nil
}

// queryPaperTrades is a helper to scan rows into PaperTrade slices.
func (s *SQLiteStorage) queryPaperTrades(ctx context.Context, query string, args ...any) ([]domain.PaperTrade, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("storage.queryPaperTrades: %w", err)
	}
	defer rows.Close()

	var out []domain.PaperTrade
	for rows.Next() {
		var trade domain.PaperTrade
		var status, openedAt string
		var position, resolvedAt sql.NullString
		var won sql.NullInt64
		var pnl sql.NullFloat64

		if err := rows.Scan(
			&trade.TradeID, &trade.SignalID, &trade.Wallet, &trade.MarketID,
			&openedAt, &status, &trade.StakeUSD, &trade.StakeUSDC,
			&trade.EntryPrice, &position, &trade.Confidence,
			&resolvedAt, &won, &pnl,
		); err != nil {
			return nil, fmt.Errorf("storage.queryPaperTrades: scan: %w", err)
		}

		trade.Status = domain.PaperTradeStatus(status)
		trade.OpenedAt, _ = time.Parse(time.RFC3339, openedAt)
		if position.Valid {
			trade.Position = position.String
		}
		if resolvedAt.Valid {
			t, _ := time.Parse(time.RFC3339, resolvedAt.String)
			trade.ResolvedAt = &t
		}
		if won.Valid {
			w := won.Int64 == 1
			trade.Won = &w
		}
		if pnl.Valid {
			p := pnl.Float64
			trade.PnL = &p
		}

		out = append(out, trade)
	}
	return out, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
