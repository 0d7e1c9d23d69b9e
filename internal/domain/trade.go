package domain

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidTrade marca un trade malformado que el detector rechaza.
var ErrInvalidTrade = errors.New("invalid trade")

// Trade es un trade normalizado del feed externo.
// Los adapters de ingesta mapean las formas heterogéneas del upstream
// (maker/taker/trader/user/address...) a esta forma canónica antes de
// que el core lo vea.
type Trade struct {
	MarketID  string
	Price     float64
	Size      float64
	Timestamp time.Time
	TraderID  string
}

// Value devuelve el valor monetario del trade (size × price).
func (t Trade) Value() float64 {
	return t.Size * t.Price
}

// Validate rechaza trades con precio no-positivo o size negativo.
func (t Trade) Validate() error {
	if t.MarketID == "" {
		return fmt.Errorf("%w: empty market id", ErrInvalidTrade)
	}
	if t.Price <= 0 {
		return fmt.Errorf("%w: price %.6f is not positive", ErrInvalidTrade, t.Price)
	}
	if t.Size < 0 {
		return fmt.Errorf("%w: size %.6f is negative", ErrInvalidTrade, t.Size)
	}
	return nil
}
