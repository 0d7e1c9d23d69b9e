package feed

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/whalewatch/engine/internal/domain"
)

// Upstream feeds disagree on field names. The normalizer maps every
// shape we have seen into the canonical Trade at the ingestion
// boundary, so the core only ever sees one shape.
var (
	traderKeys    = []string{"trader_id", "trader", "maker", "taker", "user", "address", "wallet", "proxy_wallet", "proxyWallet"}
	marketKeys    = []string{"market_id", "market", "condition_id", "conditionId", "asset_id", "asset"}
	sizeKeys      = []string{"size", "amount", "shares", "quantity"}
	priceKeys     = []string{"price"}
	timestampKeys = []string{"timestamp", "time", "ts", "match_time", "matchTime"}
)

// NormalizeRaw maps one raw upstream record into a canonical Trade.
// Field validation (positive price etc.) stays with the core; this
// only resolves which keys carry which value.
func NormalizeRaw(raw map[string]any) (domain.Trade, error) {
	market, ok := firstString(raw, marketKeys)
	if !ok {
		return domain.Trade{}, fmt.Errorf("feed.NormalizeRaw: no market id field")
	}
	price, ok := firstFloat(raw, priceKeys)
	if !ok {
		return domain.Trade{}, fmt.Errorf("feed.NormalizeRaw: no price field")
	}
	ts, ok := firstTimestamp(raw, timestampKeys)
	if !ok {
		return domain.Trade{}, fmt.Errorf("feed.NormalizeRaw: no timestamp field")
	}

	size, _ := firstFloat(raw, sizeKeys)
	trader, _ := firstString(raw, traderKeys)

	return domain.Trade{
		MarketID:  market,
		Price:     price,
		Size:      size,
		Timestamp: ts,
		TraderID:  trader,
	}, nil
}

// ParseLine decodes one JSONL line into a canonical Trade.
func ParseLine(line []byte) (domain.Trade, error) {
	var raw map[string]any
	if err := json.Unmarshal(line, &raw); err != nil {
		return domain.Trade{}, fmt.Errorf("feed.ParseLine: %w", err)
	}
	return NormalizeRaw(raw)
}

func firstString(raw map[string]any, keys []string) (string, bool) {
	for _, k := range keys {
		v, ok := raw[k]
		if !ok {
			continue
		}
		if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s), true
		}
	}
	return "", false
}

func firstFloat(raw map[string]any, keys []string) (float64, bool) {
	for _, k := range keys {
		v, ok := raw[k]
		if !ok {
			continue
		}
		if f, ok := asFloat(v); ok {
			return f, true
		}
	}
	return 0, false
}

func firstTimestamp(raw map[string]any, keys []string) (time.Time, bool) {
	for _, k := range keys {
		v, ok := raw[k]
		if !ok {
			continue
		}
		switch t := v.(type) {
		case string:
			if ts, err := time.Parse(time.RFC3339, t); err == nil {
				return ts, true
			}
			if f, err := strconv.ParseFloat(t, 64); err == nil {
				return unixToTime(f), true
			}
		default:
			if f, ok := asFloat(v); ok {
				return unixToTime(f), true
			}
		}
	}
	return time.Time{}, false
}

// unixToTime accepts unix seconds or milliseconds.
func unixToTime(f float64) time.Time {
	if f > 1e12 {
		return time.UnixMilli(int64(f)).UTC()
	}
	sec := int64(f)
	nsec := int64((f - float64(sec)) * 1e9)
	return time.Unix(sec, nsec).UTC()
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	}
	return 0, false
}
