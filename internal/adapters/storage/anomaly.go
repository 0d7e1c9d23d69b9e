package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/whalewatch/engine/internal/domain"
)

// SaveAnomaly appends one detected event. Events are immutable; there
// is no update path.
func (s *SQLiteStorage) SaveAnomaly(ctx context.Context, ev domain.AnomalyEvent) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO anomalies (type, market_id, detected_at,
		                       trigger_price, trigger_size, trigger_trader,
		                       old_price, new_price, change_pct,
		                       trade_value, avg_trade_value, multiplier,
		                       direction, price_range_pct, run_trades, wallets)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(ev.Type), ev.MarketID, ev.DetectedAt.UTC().Format(time.RFC3339),
		ev.Trigger.Price, ev.Trigger.Size, ev.Trigger.TraderID,
		ev.Metrics.OldPrice, ev.Metrics.NewPrice, ev.Metrics.ChangePct,
		ev.Metrics.TradeValue, ev.Metrics.AvgTradeValue, ev.Metrics.Multiplier,
		string(ev.Metrics.Direction), ev.Metrics.PriceRangePct, ev.Metrics.TradeCount,
		strings.Join(ev.WalletsInvolved, ","),
	)
	if err != nil {
		return fmt.Errorf("storage.SaveAnomaly: %w", err)
	}
	return nil
}

// GetAnomalies returns the most recent events, newest first. An empty
// marketID returns events across all markets; limit <= 0 means 100.
func (s *SQLiteStorage) GetAnomalies(ctx context.Context, marketID string, limit int) ([]domain.AnomalyEvent, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT type, market_id, detected_at,
		       trigger_price, trigger_size, trigger_trader,
		       old_price, new_price, change_pct,
		       trade_value, avg_trade_value, multiplier,
		       direction, price_range_pct, run_trades, wallets
		FROM anomalies`
	args := []any{}
	if marketID != "" {
		query += ` WHERE market_id = ?`
		args = append(args, marketID)
	}
	query += ` ORDER BY id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("storage.GetAnomalies: %w", err)
	}
	defer rows.Close()

	var out []domain.AnomalyEvent
	for rows.Next() {
		var ev domain.AnomalyEvent
		var typ, detectedAt string
		var trader, direction, wallets sql.NullString

		if err := rows.Scan(
			&typ, &ev.MarketID, &detectedAt,
			&ev.Trigger.Price, &ev.Trigger.Size, &trader,
			&ev.Metrics.OldPrice, &ev.Metrics.NewPrice, &ev.Metrics.ChangePct,
			&ev.Metrics.TradeValue, &ev.Metrics.AvgTradeValue, &ev.Metrics.Multiplier,
			&direction, &ev.Metrics.PriceRangePct, &ev.Metrics.TradeCount,
			&wallets,
		); err != nil {
			return nil, fmt.Errorf("storage.GetAnomalies: scan: %w", err)
		}

		ev.Type = domain.AnomalyType(typ)
		ev.DetectedAt, err = time.Parse(time.RFC3339, detectedAt)
		if err != nil {
			return nil, fmt.Errorf("storage.GetAnomalies: detected_at: %w", err)
		}
		ev.Trigger.MarketID = ev.MarketID
		ev.Trigger.Timestamp = ev.DetectedAt
		if trader.Valid {
			ev.Trigger.TraderID = trader.String
		}
		if direction.Valid && direction.String != "" {
			ev.Metrics.Direction = domain.PressureDirection(direction.String)
		}
		if wallets.Valid && wallets.String != "" {
			ev.WalletsInvolved = strings.Split(wallets.String, ",")
		}

		out = append(out, ev)
	}
	return out, rows.Err()
}

// CountAnomalies returns the total number of persisted events.
func (s *SQLiteStorage) CountAnomalies(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM anomalies`).Scan(&n); err != nil {
		return 0, fmt.Errorf("storage.CountAnomalies: %w", err)
	}
	return n, nil
}
