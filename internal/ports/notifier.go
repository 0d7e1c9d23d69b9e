package ports

import (
	"context"

	"github.com/whalewatch/engine/internal/domain"
)

// Notifier presenta anomalías y paper trades al usuario. El formato es
// un render puro de los snapshots: nunca debe fallar por campos
// opcionales ausentes.
type Notifier interface {
	NotifyAnomalies(ctx context.Context, events []domain.AnomalyEvent) error
	NotifyPaperTrade(ctx context.Context, trade domain.PaperTrade) error
	PrintSummary(stats domain.PaperStats, anomalies int)
}
