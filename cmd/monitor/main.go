package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/sdelkov4-collab/bot/internal/catalog"
	"github.com/sdelkov4-collab/bot/internal/config"
	"github.com/sdelkov4-collab/bot/internal/logger"
	"github.com/sdelkov4-collab/bot/internal/monitor"
	"github.com/sdelkov4-collab/bot/internal/report"
	"github.com/sdelkov4-collab/bot/internal/steam"
	"github.com/sdelkov4-collab/bot/internal/storage"
	"github.com/sdelkov4-collab/bot/internal/telegram"
)

var configPath = flag.String("config", "configs/config.yaml", "Path to configuration file")

func main() {
	flag.Parse()

	// Secrets such as the bot token usually come from a local .env file;
	// a missing file is fine, the environment may already be populated.
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	logger.Info("Configuration loaded from %s", *configPath)

	store, err := storage.New(cfg.Storage.DBPath)
	if err != nil {
		logger.Fatal("Failed to initialize storage: %v", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("Failed to close storage: %v", err)
		}
	}()

	items := catalog.Build(cfg.Scope, cfg.Aliases)
	if len(items) == 0 {
		logger.Fatal("Catalog is empty: check scope.teams and scope.players")
	}
	logger.Info("Tracking %d sticker variants for %s", len(items), cfg.Scope.Event)

	throttler := steam.NewThrottler(
		secondsToDuration(cfg.Request.BaseDelaySec),
		secondsToDuration(cfg.Request.JitterSec),
	)
	steamClient := steam.NewClient(
		cfg.Steam.PriceURL,
		cfg.Steam.AppID,
		cfg.CurrencyCode,
		cfg.Request.Timeout,
		throttler,
		steam.ClientConfig{
			MaxRetries:    cfg.Request.Retries,
			BackoffFactor: cfg.Request.BackoffFactor,
		},
	)

	mon := monitor.New(monitorConfig(cfg), steamClient, store)

	var telegramClient *telegram.Client
	if cfg.Telegram.Enabled {
		telegramClient, err = telegram.NewClient(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Telegram.MaxRetries, cfg.Telegram.RetryDelayBase)
		if err != nil {
			logger.Fatal("Failed to initialize Telegram client: %v", err)
		}
		logger.Info("Telegram client initialized successfully")
	} else {
		logger.Debug("Telegram notifications disabled")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Info("Shutdown signal received, cleaning up...")
		cancel()
	}()

	assembler := &report.Assembler{
		Title: fmt.Sprintf("STICKER MARKET REPORT — %s", cfg.Scope.Event),
	}

	if cfg.RunInterval <= 0 {
		if err := runCycle(ctx, mon, store, assembler, telegramClient, items, cfg); err != nil {
			logger.Fatal("Monitoring cycle failed: %v", err)
		}
		return
	}

	logger.Info("Starting monitoring service (interval: %v, items: %d)", cfg.RunInterval, len(items))

	ticker := time.NewTicker(cfg.RunInterval)
	defer ticker.Stop()

	consecutiveFailures := 0

	handleCycleResult := func(err error) {
		if err != nil {
			consecutiveFailures++
			logger.Error("Monitoring cycle failed: %v", err)
			if consecutiveFailures == 1 && telegramClient != nil {
				if sendErr := telegramClient.SendError(err); sendErr != nil {
					logger.Warn("Failed to send error notification to Telegram: %v", sendErr)
				}
			}
		} else {
			if consecutiveFailures > 0 && telegramClient != nil {
				if sendErr := telegramClient.SendRecovery(consecutiveFailures); sendErr != nil {
					logger.Warn("Failed to send recovery notification to Telegram: %v", sendErr)
				}
			}
			consecutiveFailures = 0
		}
	}

	logger.Debug("Running initial monitoring cycle")
	handleCycleResult(runCycle(ctx, mon, store, assembler, telegramClient, items, cfg))

	for {
		select {
		case <-ctx.Done():
			logger.Info("Service stopped")
			return

		case <-ticker.C:
			logger.Debug("Starting scheduled monitoring cycle")
			handleCycleResult(runCycle(ctx, mon, store, assembler, telegramClient, items, cfg))
		}
	}
}

func runCycle(
	ctx context.Context,
	mon *monitor.Monitor,
	store *storage.Store,
	assembler *report.Assembler,
	telegramClient *telegram.Client,
	items []catalog.Item,
	cfg *config.Config,
) error {
	startTime := time.Now()
	logger.Info("Starting monitoring cycle (%d items)", len(items))

	result, err := mon.Run(ctx, items)
	if err != nil {
		return fmt.Errorf("monitoring run failed: %w", err)
	}
	logger.Info("Checked %d/%d items (%d below sales floor, %d notes)",
		result.Checked, result.ItemCount, result.Skipped, len(result.Notes))

	rep := assembler.Assemble(result)
	for kind, n := range rep.Counts {
		if n > 0 {
			logger.Info("Signals fired: %s x%d", kind, n)
		}
	}

	if telegramClient != nil {
		if err := telegramClient.SendSummary(rep.Summary); err != nil {
			logger.Error("Failed to send Telegram summary: %v", err)
		}
		filename := fmt.Sprintf("sticker-report-%s.txt", result.StartedAt.Format("20060102-150405"))
		caption := fmt.Sprintf("Full report, %s", result.StartedAt.Format("2006-01-02 15:04 MST"))
		if err := telegramClient.SendReport(filename, caption, rep.Full); err != nil {
			logger.Error("Failed to deliver full report: %v", err)
		}
	}

	cutoff := startTime.AddDate(0, 0, -cfg.RetentionDays)
	if err := store.PruneSignals(cutoff); err != nil {
		logger.Warn("Failed to prune signal log: %v", err)
	}

	logger.Info("Monitoring cycle completed in %v", time.Since(startTime))
	return nil
}

func monitorConfig(cfg *config.Config) monitor.Config {
	return monitor.Config{
		RetentionDays: cfg.RetentionDays,
		MinDailySales: cfg.MinDailySales,

		SoftPct:        cfg.Signals.Price.SoftPct,
		DeepPct:        cfg.Signals.Price.DeepPct,
		PriceMinPoints: cfg.Signals.Price.MinPoints,

		SpikeMultiplier: cfg.Signals.Volume.SpikeMultiplier,
		VolumeMinPoints: cfg.Signals.Volume.MinPoints,

		ComboCooldown: hoursToDuration(cfg.Signals.ComboCooldownHrs),

		ShortWindow:      time.Duration(cfg.Signals.Pump.ShortWindowMinutes) * time.Minute,
		PumpMinPoints:    cfg.Signals.Pump.MinPoints,
		PriceJumpPct:     cfg.Signals.Pump.PriceJumpPct,
		AskJumpPct:       cfg.Signals.Pump.AskJumpPct,
		BreakoutPoints:   cfg.Signals.Pump.BreakoutPoints,
		BreakoutExtraPct: cfg.Signals.Pump.BreakoutExtraPct,
		MomentumMult:     cfg.Signals.Pump.MomentumMult,
		ConfirmPricePct:  cfg.Signals.Pump.ConfirmPricePct,

		ChangeAlertsEnabled: cfg.ChangeAlerts.Enabled,
		ChangeThresholdPct:  cfg.ChangeAlerts.ThresholdPct,
		ChangeCooldown:      hoursToDuration(cfg.ChangeAlerts.CooldownHours),

		Shuffle: cfg.Request.Shuffle,
	}
}

func secondsToDuration(sec float64) time.Duration {
	return time.Duration(sec * float64(time.Second))
}

func hoursToDuration(hours float64) time.Duration {
	return time.Duration(hours * float64(time.Hour))
}
