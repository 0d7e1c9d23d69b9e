package storage

// sqlite.go — persistencia del log de anomalías y los paper trades.
//
// Dos tablas append-mostly:
//   - `anomalies`: una fila por evento, inmutable una vez escrita.
//   - `paper_trades`: una fila por trade, UPDATE único OPEN → RESOLVED.

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS anomalies (
    id              INTEGER PRIMARY KEY AUTOINCREMENT,
    type            TEXT NOT NULL,
    market_id       TEXT NOT NULL,
    detected_at     DATETIME NOT NULL,
    trigger_price   REAL NOT NULL DEFAULT 0,
    trigger_size    REAL NOT NULL DEFAULT 0,
    trigger_trader  TEXT,
    old_price       REAL NOT NULL DEFAULT 0,
    new_price       REAL NOT NULL DEFAULT 0,
    change_pct      REAL NOT NULL DEFAULT 0,
    trade_value     REAL NOT NULL DEFAULT 0,
    avg_trade_value REAL NOT NULL DEFAULT 0,
    multiplier      REAL NOT NULL DEFAULT 0,
    direction       TEXT,
    price_range_pct REAL NOT NULL DEFAULT 0,
    run_trades      INTEGER NOT NULL DEFAULT 0,
    wallets         TEXT
);

CREATE TABLE IF NOT EXISTS paper_trades (
    trade_id    TEXT PRIMARY KEY,
    signal_id   TEXT NOT NULL,
    wallet      TEXT NOT NULL,
    market_id   TEXT NOT NULL,
    opened_at   DATETIME NOT NULL,
    status      TEXT NOT NULL DEFAULT 'OPEN',
    stake_usd   REAL NOT NULL DEFAULT 0,
    stake_usdc  REAL NOT NULL DEFAULT 0,
    entry_price REAL NOT NULL DEFAULT 0,
    position    TEXT,
    confidence  INTEGER NOT NULL DEFAULT 0,
    resolved_at DATETIME,
    won         INTEGER,
    pnl         REAL
);

CREATE INDEX IF NOT EXISTS idx_anomalies_market ON anomalies(market_id);
CREATE INDEX IF NOT EXISTS idx_anomalies_at     ON anomalies(detected_at DESC);
CREATE INDEX IF NOT EXISTS idx_paper_status     ON paper_trades(status);
CREATE INDEX IF NOT EXISTS idx_paper_signal     ON paper_trades(signal_id);
`

// SQLiteStorage implementa ports.Storage usando SQLite (pure Go, sin CGo).
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage abre (o crea) la base de datos y aplica el schema.
func NewSQLiteStorage(path string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.NewSQLiteStorage: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite es single-writer
	db.SetMaxIdleConns(1)

	s := &SQLiteStorage{db: db}
	if err := s.ApplySchema(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// ApplySchema crea las tablas si no existen.
func (s *SQLiteStorage) ApplySchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("storage.ApplySchema: %w", err)
	}
	return nil
}

// Close cierra la conexión.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
