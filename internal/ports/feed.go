package ports

import (
	"context"

	"github.com/whalewatch/engine/internal/domain"
)

// TradeFeed supplies canonical trades, already normalized from
// whatever shape the upstream uses. Timestamps must be non-decreasing
// per market; out-of-order delivery is a feed bug, not something the
// core corrects.
type TradeFeed interface {
	// Trades sends trades until the source is exhausted or ctx is
	// cancelled, then closes the channel.
	Trades(ctx context.Context) (<-chan domain.Trade, error)
}
