package ports

import (
	"context"

	"github.com/whalewatch/engine/internal/domain"
)

// ConfidenceScorer turns an anomaly event into a 0-100 confidence
// score. The core trusts the value as-is; anything below the stake
// curve's minimum is rejected at the sizing boundary.
type ConfidenceScorer interface {
	Score(ctx context.Context, ev domain.AnomalyEvent) (int, error)
}
