package feed

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"

	"golang.org/x/time/rate"

	"github.com/whalewatch/engine/internal/domain"
)

// Replay implements ports.TradeFeed from a JSONL file: one raw trade
// record per line, in timestamp order. Lines that fail to normalize
// are logged and skipped; the replay keeps going.
type Replay struct {
	path    string
	limiter *rate.Limiter // nil = no pacing
}

// NewReplay creates a replay feed. tradesPerSec <= 0 disables pacing
// and replays as fast as the consumer drains.
func NewReplay(path string, tradesPerSec float64) *Replay {
	r := &Replay{path: path}
	if tradesPerSec > 0 {
		r.limiter = rate.NewLimiter(rate.Limit(tradesPerSec), 1)
	}
	return r
}

// Trades streams the file's trades until EOF or ctx cancellation.
func (r *Replay) Trades(ctx context.Context) (<-chan domain.Trade, error) {
	f, err := os.Open(r.path)
	if err != nil {
		return nil, fmt.Errorf("feed.Trades: open %q: %w", r.path, err)
	}

	ch := make(chan domain.Trade, 64)
	go func() {
		defer close(ch)
		defer f.Close()

		scanner := bufio.NewScanner(f)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		lineNo := 0
		skipped := 0

		for scanner.Scan() {
			lineNo++
			line := scanner.Bytes()
			if len(line) == 0 {
				continue
			}

			trade, err := ParseLine(line)
			if err != nil {
				skipped++
				slog.Warn("replay: skipping unparseable line", "line", lineNo, "err", err)
				continue
			}

			if r.limiter != nil {
				if err := r.limiter.Wait(ctx); err != nil {
					return
				}
			}

			select {
			case ch <- trade:
			case <-ctx.Done():
				return
			}
		}
		if err := scanner.Err(); err != nil {
			slog.Error("replay: read failed", "path", r.path, "err", err)
		}
		slog.Info("replay finished", "path", r.path, "lines", lineNo, "skipped", skipped)
	}()

	return ch, nil
}
