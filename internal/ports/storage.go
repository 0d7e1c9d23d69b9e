package ports

import (
	"context"

	"github.com/whalewatch/engine/internal/domain"
)

// AnomalyStorage persists the append-only anomaly log. The core only
// exposes events; the adapter decides the storage format.
type AnomalyStorage interface {
	ApplySchema(ctx context.Context) error
	SaveAnomaly(ctx context.Context, ev domain.AnomalyEvent) error
	GetAnomalies(ctx context.Context, marketID string, limit int) ([]domain.AnomalyEvent, error)
	CountAnomalies(ctx context.Context) (int, error)
}

// PaperStorage persists paper trade snapshots.
type PaperStorage interface {
	ApplySchema(ctx context.Context) error
	SavePaperTrade(ctx context.Context, trade domain.PaperTrade) error
	MarkPaperTradeResolved(ctx context.Context, trade domain.PaperTrade) error
	GetPaperTrade(ctx context.Context, tradeID string) (*domain.PaperTrade, error)
	GetPaperTrades(ctx context.Context, status string) ([]domain.PaperTrade, error)
	GetPaperStats(ctx context.Context) (domain.PaperStats, error)
}

// Storage bundles both stores so one adapter can back the whole engine.
type Storage interface {
	AnomalyStorage
	PaperStorage
}
