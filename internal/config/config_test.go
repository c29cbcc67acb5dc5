package config

import (
	"os"
	"testing"
	"time"
)

func validConfig() *Config {
	return &Config{
		CurrencyCode:  5,
		MinDailySales: 1,
		RetentionDays: 60,
		Signals: SignalsConfig{
			Price:            PriceSignalConfig{SoftPct: 0.90, DeepPct: 0.85, MinPoints: 12},
			Volume:           VolumeSignalConfig{SpikeMultiplier: 1.5, MinPoints: 12},
			ComboCooldownHrs: 6,
			Pump: PumpConfig{
				ShortWindowMinutes: 120,
				MinPoints:          4,
				PriceJumpPct:       0.08,
				AskJumpPct:         0.10,
				BreakoutPoints:     6,
				BreakoutExtraPct:   0.03,
				MomentumMult:       1.8,
				ConfirmPricePct:    0.04,
			},
		},
		Request: RequestConfig{
			BaseDelaySec:  2.5,
			JitterSec:     0.5,
			Retries:       5,
			BackoffFactor: 1.8,
			Timeout:       30 * time.Second,
		},
		Steam: SteamConfig{
			PriceURL: "https://steamcommunity.com/market/priceoverview/",
			AppID:    730,
		},
		Scope: ScopeConfig{
			Event: "Austin 2025",
			Teams: GroupConfig{Include: []string{"Vitality"}, Variants: []string{"paper", "holo"}},
		},
		Storage: StorageConfig{DBPath: "./data/test.db"},
		Logging: LoggingConfig{Level: "info", Format: "text"},
	}
}

func TestLoadAndValidate(t *testing.T) {
	content := `
currency_code: 5
min_daily_sales: 2

scope:
  event: "Austin 2025"
  teams:
    include:
      - Vitality
      - Spirit
    variants: [paper, holo, foil]
  players:
    include:
      - donk
    variants: [paper, holo, gold]

aliases:
  players:
    donk: "donk (Gold alias)"

signals:
  price_from_7d_median:
    soft_pct: 0.92
    deep_pct: 0.85
  pump:
    short_window_minutes: 90

telegram:
  bot_token: "test_token"
  chat_id: "12345"
  enabled: true

storage:
  db_path: "./data/test.db"
`
	tmpfile, err := os.CreateTemp("", "config-*.yaml")
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = os.Remove(tmpfile.Name()) }()

	if _, err := tmpfile.Write([]byte(content)); err != nil {
		t.Fatal(err)
	}
	if err := tmpfile.Close(); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(tmpfile.Name())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.MinDailySales != 2 {
		t.Errorf("unexpected min_daily_sales: %d", cfg.MinDailySales)
	}
	if cfg.Scope.Event != "Austin 2025" {
		t.Errorf("unexpected event: %q", cfg.Scope.Event)
	}
	if len(cfg.Scope.Teams.Include) != 2 {
		t.Errorf("expected 2 teams, got %d", len(cfg.Scope.Teams.Include))
	}
	if cfg.Signals.Price.SoftPct != 0.92 {
		t.Errorf("unexpected soft_pct: %f", cfg.Signals.Price.SoftPct)
	}
	if cfg.Signals.Pump.ShortWindowMinutes != 90 {
		t.Errorf("unexpected short window: %d", cfg.Signals.Pump.ShortWindowMinutes)
	}
	if cfg.Aliases.Players["donk"] != "donk (Gold alias)" {
		t.Errorf("unexpected alias map: %v", cfg.Aliases.Players)
	}

	// Defaults for keys absent from the file.
	if cfg.RetentionDays != 60 {
		t.Errorf("expected default retention 60, got %d", cfg.RetentionDays)
	}
	if cfg.Signals.Pump.BreakoutPoints != 6 {
		t.Errorf("expected default breakout_points 6, got %d", cfg.Signals.Pump.BreakoutPoints)
	}
	if cfg.Signals.Volume.SpikeMultiplier != 1.5 {
		t.Errorf("expected default spike_multiplier 1.5, got %f", cfg.Signals.Volume.SpikeMultiplier)
	}
	if cfg.Request.Timeout != 30*time.Second {
		t.Errorf("expected default timeout 30s, got %v", cfg.Request.Timeout)
	}

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{
			name:   "missing telegram token when enabled",
			mutate: func(c *Config) { c.Telegram = TelegramConfig{Enabled: true, ChatID: "1"} },
		},
		{
			name:   "deep_pct above soft_pct",
			mutate: func(c *Config) { c.Signals.Price.DeepPct = 0.95 },
		},
		{
			name:   "empty scope",
			mutate: func(c *Config) { c.Scope.Teams.Include = nil },
		},
		{
			name:   "unknown variant",
			mutate: func(c *Config) { c.Scope.Teams.Variants = []string{"glitter"} },
		},
		{
			name:   "zero retention",
			mutate: func(c *Config) { c.RetentionDays = 0 },
		},
		{
			name:   "backoff below 1",
			mutate: func(c *Config) { c.Request.BackoffFactor = 0.5 },
		},
		{
			name:   "missing db path",
			mutate: func(c *Config) { c.Storage.DBPath = "" },
		},
		{
			name:   "bad log level",
			mutate: func(c *Config) { c.Logging.Level = "verbose" },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate() = nil, want error")
			}
		})
	}
}
