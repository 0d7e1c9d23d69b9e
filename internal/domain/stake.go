package domain

import "math"

// Default stake curve breakpoints. Empirical values carried over from
// the original strategy; overridable via config, not recomputed.
const (
	DefaultMinConfidence  = 50
	DefaultMidConfidence  = 70
	DefaultHighConfidence = 90
	DefaultBaseStake      = 1.0
	DefaultMidStake       = 2.0
	DefaultHighStake      = 5.0
	DefaultMaxStake       = 6.0
)

// StakeCurve mapea confianza (0-100) a un stake acotado mediante una
// curva lineal a tramos. Continua en los breakpoints y monótona
// no-decreciente en [MinConfidence, 100].
type StakeCurve struct {
	MinConfidence  int     // por debajo: nunca operar
	MidConfidence  int
	HighConfidence int
	BaseStake      float64 // stake en MinConfidence
	MidStake       float64 // stake en MidConfidence
	HighStake      float64 // stake en HighConfidence
	MaxStake       float64 // stake en confianza 100, también el cap
}

// DefaultStakeCurve devuelve la curva 50→$1, 70→$2, 90→$5, 100→$6.
func DefaultStakeCurve() StakeCurve {
	return StakeCurve{
		MinConfidence:  DefaultMinConfidence,
		MidConfidence:  DefaultMidConfidence,
		HighConfidence: DefaultHighConfidence,
		BaseStake:      DefaultBaseStake,
		MidStake:       DefaultMidStake,
		HighStake:      DefaultHighStake,
		MaxStake:       DefaultMaxStake,
	}
}

// StakeFor devuelve el stake para una confianza dada, redondeado a
// 2 decimales. Confianza < MinConfidence devuelve 0.
func (c StakeCurve) StakeFor(confidence int) float64 {
	if confidence < c.MinConfidence {
		return 0
	}
	if confidence > 100 {
		confidence = 100
	}

	var stake float64
	switch {
	case confidence <= c.MidConfidence:
		stake = interpolate(confidence, c.MinConfidence, c.MidConfidence, c.BaseStake, c.MidStake)
	case confidence <= c.HighConfidence:
		stake = interpolate(confidence, c.MidConfidence, c.HighConfidence, c.MidStake, c.HighStake)
	default:
		stake = interpolate(confidence, c.HighConfidence, 100, c.HighStake, c.MaxStake)
	}

	if stake > c.MaxStake {
		stake = c.MaxStake
	}
	return math.Round(stake*100) / 100
}

// interpolate hace interpolación lineal de x en [x0,x1] → [y0,y1].
func interpolate(x, x0, x1 int, y0, y1 float64) float64 {
	if x1 == x0 {
		return y1
	}
	return y0 + float64(x-x0)*(y1-y0)/float64(x1-x0)
}
