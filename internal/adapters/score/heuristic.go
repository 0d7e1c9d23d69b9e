package score

import (
	"context"
	"math"

	"github.com/whalewatch/engine/internal/domain"
)

// Base scores and slopes per rule type. A bigger move, spike or run
// earns a higher score, capped below certainty.
const (
	priceMoveBase  = 50.0
	priceMoveSlope = 5.0 // per % of price change
	spikeBase      = 45.0
	spikeSlope     = 8.0 // per multiple of the average
	pressureBase   = 55.0
	pressureSlope  = 6.0 // per % of run range
	maxScore       = 95  // heuristics never claim certainty
)

// Heuristic implements ports.ConfidenceScorer with a deterministic
// magnitude-based mapping. It stands in for the external scorer so
// the pipeline runs end to end; swap it out behind the port.
type Heuristic struct{}

// NewHeuristic creates the default scorer.
func NewHeuristic() *Heuristic {
	return &Heuristic{}
}

// Score maps an anomaly's magnitude to a 0-100 confidence.
func (h *Heuristic) Score(_ context.Context, ev domain.AnomalyEvent) (int, error) {
	var raw float64
	switch ev.Type {
	case domain.AnomalyRapidPriceMove:
		raw = priceMoveBase + ev.Metrics.ChangePct*priceMoveSlope
	case domain.AnomalyVolumeSpike:
		raw = spikeBase + ev.Metrics.Multiplier*spikeSlope
	case domain.AnomalyOneSidedPressure:
		raw = pressureBase + ev.Metrics.PriceRangePct*pressureSlope
	default:
		return 0, nil
	}

	score := int(math.Round(raw))
	if score > maxScore {
		score = maxScore
	}
	if score < 0 {
		score = 0
	}
	return score, nil
}
