package domain

import "time"

// AnomalyType identifies which detection rule fired.
type AnomalyType string

const (
	AnomalyRapidPriceMove   AnomalyType = "rapid_price_move"
	AnomalyVolumeSpike      AnomalyType = "volume_spike"
	AnomalyOneSidedPressure AnomalyType = "one_sided_pressure"
)

// PressureDirection is the direction of a one-sided pressure run.
type PressureDirection string

const (
	PressureUp   PressureDirection = "UP"
	PressureDown PressureDirection = "DOWN"
)

// AnomalyMetrics carries the numeric payload of an anomaly. Only the
// fields for the event's type are populated.
type AnomalyMetrics struct {
	// rapid_price_move
	OldPrice  float64
	NewPrice  float64
	ChangePct float64

	// volume_spike
	TradeValue    float64
	AvgTradeValue float64
	Multiplier    float64

	// one_sided_pressure
	Direction     PressureDirection
	PriceRangePct float64
	TradeCount    int
}

// AnomalyEvent is an immutable record of one fired rule. Events are
// appended to the detector's log and handed to callers as values;
// they are never mutated after creation.
type AnomalyEvent struct {
	Type            AnomalyType
	MarketID        string
	DetectedAt      time.Time
	Trigger         Trade
	Metrics         AnomalyMetrics
	WalletsInvolved []string
}
