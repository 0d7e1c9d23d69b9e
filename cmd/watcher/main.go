package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/whalewatch/engine/config"
	"github.com/whalewatch/engine/internal/adapters/feed"
	"github.com/whalewatch/engine/internal/adapters/notify"
	"github.com/whalewatch/engine/internal/adapters/score"
	"github.com/whalewatch/engine/internal/adapters/storage"
	"github.com/whalewatch/engine/internal/application/watch"
	"github.com/whalewatch/engine/internal/detector"
	"github.com/whalewatch/engine/internal/domain"
	"github.com/whalewatch/engine/internal/ledger"
	"github.com/whalewatch/engine/internal/ports"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	replayPath := flag.String("replay", "", "JSONL trade file to replay (overrides config)")
	dryRun := flag.Bool("dry-run", false, "skip persistence, console output only")
	verbose := flag.Bool("verbose", false, "set log level to debug")
	logFormat := flag.String("format", "", "log format: text|json (overrides config)")
	table := flag.Bool("table", false, "print anomalies as a table instead of 1-line")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		// Sin archivo de config el engine sigue siendo usable con defaults.
		if !errors.Is(err, os.ErrNotExist) {
			slog.Error("failed to load config", "err", err, "path", *configPath)
			os.Exit(1)
		}
		cfg = config.Default()
	}

	if *verbose {
		cfg.Log.Level = "debug"
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}
	if *replayPath != "" {
		cfg.Replay.Path = *replayPath
	}
	setupLogger(cfg.Log)

	if cfg.Replay.Path == "" {
		slog.Error("no trade source: set -replay or replay.path in config")
		os.Exit(1)
	}

	slog.Info("whalewatch starting",
		"config", *configPath,
		"replay", cfg.Replay.Path,
		"window", cfg.Window(),
		"dry_run", *dryRun,
	)

	var store ports.Storage
	if !*dryRun {
		db, err := storage.NewSQLiteStorage(cfg.Storage.DSN)
		if err != nil {
			slog.Error("failed to open storage", "err", err, "dsn", cfg.Storage.DSN)
			os.Exit(1)
		}
		defer db.Close()
		store = db
	}

	det := detector.New(detector.Config{
		Window:           cfg.Window(),
		PriceMovePct:     cfg.Detector.PriceMovePct,
		VolumeMult:       cfg.Detector.VolumeMult,
		PressureTrades:   cfg.Detector.PressureTrades,
		PressureRangePct: cfg.Detector.PressureRangePct,
		WalletLookback:   cfg.Detector.WalletLookback,
	})

	led := ledger.New(ledger.Config{
		Curve: domain.StakeCurve{
			MinConfidence:  cfg.Stake.MinConfidence,
			MidConfidence:  cfg.Stake.MidConfidence,
			HighConfidence: cfg.Stake.HighConfidence,
			BaseStake:      cfg.Stake.BaseStake,
			MidStake:       cfg.Stake.MidStake,
			HighStake:      cfg.Stake.HighStake,
			MaxStake:       cfg.Stake.MaxStake,
		},
		ExchangeRate: cfg.Ledger.ExchangeRate,
	})

	engine := watch.New(det, led, score.NewHeuristic(), store, notify.NewConsole(*table))
	source := feed.NewReplay(cfg.Replay.Path, cfg.Replay.TradesPerSec)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	result, err := engine.Run(ctx, source)
	if err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("engine exited with error", "err", err)
		os.Exit(1)
	}

	engine.PrintSummary()
	slog.Info("whalewatch stopped cleanly",
		"trades", result.TradesProcessed,
		"rejected", result.TradesRejected,
		"anomalies", result.Anomalies,
		"opened", result.TradesOpened,
	)
}

func setupLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}
