package notify

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/whalewatch/engine/internal/domain"
)

// Console implementa ports.Notifier escribiendo a stdout. El render es
// puro: campos opcionales ausentes se muestran como N/A, nunca fallan.
type Console struct {
	out   io.Writer
	table bool
}

// NewConsole crea un notificador que escribe a stdout.
func NewConsole(table bool) *Console {
	return &Console{out: os.Stdout, table: table}
}

// NewConsoleWriter crea un notificador para tests.
func NewConsoleWriter(w io.Writer, table bool) *Console {
	return &Console{out: w, table: table}
}

// NotifyAnomalies imprime los eventos detectados en un trade.
func (c *Console) NotifyAnomalies(_ context.Context, events []domain.AnomalyEvent) error {
	if len(events) == 0 {
		return nil
	}
	if c.table {
		c.printAnomalyTable(events)
		return nil
	}
	for _, ev := range events {
		fmt.Fprintf(c.out, "[%s][ANOMALY] %s %s %s wallets:%d\n",
			ev.DetectedAt.Format("15:04:05"), ev.Type, compactName(ev.MarketID, 18),
			metricSummary(ev), len(ev.WalletsInvolved))
	}
	return nil
}

// NotifyPaperTrade imprime una línea por trade abierto o resuelto.
func (c *Console) NotifyPaperTrade(_ context.Context, trade domain.PaperTrade) error {
	if trade.Status == domain.PaperStatusResolved {
		fmt.Fprintf(c.out, "[%s][PAPER] RESOLVED %s %s %s stake $%.2f pnl %s\n",
			renderTime(trade.ResolvedAt), shortID(trade.TradeID),
			compactName(trade.MarketID, 18), renderOutcome(trade.Won),
			trade.StakeUSDC, renderPnL(trade.PnL))
		return nil
	}
	fmt.Fprintf(c.out, "[%s][PAPER] OPEN %s %s %s stake $%.2f @ %.3f conf %d\n",
		trade.OpenedAt.Format("15:04:05"), shortID(trade.TradeID),
		compactName(trade.MarketID, 18), renderLabel(trade.Position),
		trade.StakeUSDC, trade.EntryPrice, trade.Confidence)
	return nil
}

// PrintSummary imprime el estado agregado del run.
func (c *Console) PrintSummary(stats domain.PaperStats, anomalies int) {
	now := time.Now().Format("15:04:05")
	fmt.Fprintf(c.out, "[%s][SUMMARY] %d anomalies | %d trades (%d open, %d resolved) | W/L %d/%d (%.0f%%) | staked $%.2f | pnl $%.2f\n",
		now, anomalies, stats.TotalOpened, stats.OpenCount, stats.ResolvedCount,
		stats.Wins, stats.Losses, stats.WinRate*100, stats.TotalStaked, stats.NetPnL)
}

// printAnomalyTable imprime los eventos en formato tabla.
func (c *Console) printAnomalyTable(events []domain.AnomalyEvent) {
	table := tablewriter.NewWriter(c.out)
	table.Header("Time", "Type", "Market", "Metrics", "Wallets")

	for _, ev := range events {
		table.Append(
			ev.DetectedAt.Format("15:04:05"),
			string(ev.Type),
			compactName(ev.MarketID, 24),
			metricSummary(ev),
			renderWallets(ev.WalletsInvolved),
		)
	}
	table.Render()
}

// metricSummary renderiza el payload específico de cada tipo de regla.
func metricSummary(ev domain.AnomalyEvent) string {
	m := ev.Metrics
	switch ev.Type {
	case domain.AnomalyRapidPriceMove:
		return fmt.Sprintf("%.3f→%.3f (%.1f%%)", m.OldPrice, m.NewPrice, m.ChangePct)
	case domain.AnomalyVolumeSpike:
		return fmt.Sprintf("$%.2f vs avg $%.2f (%.1fx)", m.TradeValue, m.AvgTradeValue, m.Multiplier)
	case domain.AnomalyOneSidedPressure:
		return fmt.Sprintf("%s %.1f%% over %d trades", renderDirection(m.Direction), m.PriceRangePct, m.TradeCount)
	}
	return "N/A"
}

func renderDirection(d domain.PressureDirection) string {
	if d == "" {
		return "N/A"
	}
	return string(d)
}

func renderLabel(label string) string {
	if label == "" {
		return "Unknown"
	}
	return label
}

func renderOutcome(won *bool) string {
	if won == nil {
		return "N/A"
	}
	if *won {
		return "WON"
	}
	return "LOST"
}

func renderPnL(pnl *float64) string {
	if pnl == nil {
		return "N/A"
	}
	return fmt.Sprintf("$%+.2f", *pnl)
}

func renderTime(t *time.Time) string {
	if t == nil {
		return "--:--:--"
	}
	return t.Format("15:04:05")
}

func renderWallets(wallets []string) string {
	if len(wallets) == 0 {
		return "N/A"
	}
	if len(wallets) <= 2 {
		return strings.Join(wallets, ",")
	}
	return fmt.Sprintf("%s +%d", wallets[0], len(wallets)-1)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	if id == "" {
		return "N/A"
	}
	return id
}

// compactName recorta nombres largos para el output de una línea.
func compactName(name string, max int) string {
	if name == "" {
		return "Unknown"
	}
	if len(name) <= max {
		return name
	}
	return name[:max-1] + "…"
}
