package domain

import "time"

// PaperTradeStatus represents the lifecycle of a simulated position.
type PaperTradeStatus string

const (
	PaperStatusOpen     PaperTradeStatus = "OPEN"
	PaperStatusResolved PaperTradeStatus = "RESOLVED"
)

// RejectReason is the code returned when the ledger refuses to open
// a paper trade. Empty means the signal was accepted.
type RejectReason string

const (
	ReasonMissingWallet       RejectReason = "missing_wallet"
	ReasonMissingMarket       RejectReason = "missing_market"
	ReasonMissingDescription  RejectReason = "missing_description"
	ReasonInvalidEntryPrice   RejectReason = "invalid_entry_price"
	ReasonStakeZeroOrNegative RejectReason = "stake_zero_or_negative"
)

// Signal is a candidate trading opportunity with a confidence score,
// usually derived from an AnomalyEvent by an external scorer.
type Signal struct {
	ID           string
	Wallet       string
	MarketID     string
	Description  string
	EntryPrice   float64
	Confidence   int // 0..100
	OutcomeName  string
	OutcomeIndex *int
	Timestamp    time.Time
}

// PaperTrade is a simulated position opened from a signal.
type PaperTrade struct {
	TradeID    string
	SignalID   string
	Wallet     string
	MarketID   string
	OpenedAt   time.Time
	Status     PaperTradeStatus
	StakeUSD   float64 // stake from the confidence curve
	StakeUSDC  float64 // stake converted at the configured rate
	EntryPrice float64
	Position   string // normalized outcome label
	Confidence int

	ResolvedAt *time.Time
	Won        *bool
	PnL        *float64
}

// IsOpen reports whether the trade is still awaiting resolution.
func (p PaperTrade) IsOpen() bool {
	return p.Status == PaperStatusOpen
}

// PaperStats is the aggregate view over all paper trades in the ledger.
type PaperStats struct {
	TotalOpened   int
	OpenCount     int
	ResolvedCount int
	Wins          int
	Losses        int
	WinRate       float64 // wins / resolved, 0 if none resolved
	TotalStaked   float64 // USDC committed across all trades
	NetPnL        float64 // sum of resolved PnL
}
