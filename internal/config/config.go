// Package config loads and validates application configuration.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete application configuration.
type Config struct {
	CurrencyCode  int           `mapstructure:"currency_code"`
	MinDailySales int           `mapstructure:"min_daily_sales"`
	RetentionDays int           `mapstructure:"retention_days"`
	RunInterval   time.Duration `mapstructure:"run_interval"`

	ChangeAlerts ChangeAlertConfig `mapstructure:"change_alerts"`
	Signals      SignalsConfig     `mapstructure:"signals"`
	Request      RequestConfig     `mapstructure:"request"`
	Steam        SteamConfig       `mapstructure:"steam"`
	Scope        ScopeConfig       `mapstructure:"scope"`
	Aliases      AliasConfig       `mapstructure:"aliases"`
	Telegram     TelegramConfig    `mapstructure:"telegram"`
	Storage      StorageConfig     `mapstructure:"storage"`
	Logging      LoggingConfig     `mapstructure:"logging"`
}

// ChangeAlertConfig holds the legacy simple change detector settings.
type ChangeAlertConfig struct {
	Enabled       bool    `mapstructure:"enabled"`
	ThresholdPct  float64 `mapstructure:"threshold_pct"`
	CooldownHours float64 `mapstructure:"cooldown_hours"`
}

// SignalsConfig holds thresholds for the baseline deviation detectors.
type SignalsConfig struct {
	Price            PriceSignalConfig  `mapstructure:"price_from_7d_median"`
	Volume           VolumeSignalConfig `mapstructure:"volume_spike"`
	ComboCooldownHrs float64            `mapstructure:"combo_cooldown_hours"`
	Pump             PumpConfig         `mapstructure:"pump"`
}

// PriceSignalConfig configures the long-window price discount detector.
type PriceSignalConfig struct {
	SoftPct   float64 `mapstructure:"soft_pct"`
	DeepPct   float64 `mapstructure:"deep_pct"`
	MinPoints int     `mapstructure:"min_points"`
}

// VolumeSignalConfig configures the volume spike detector.
type VolumeSignalConfig struct {
	SpikeMultiplier float64 `mapstructure:"spike_multiplier"`
	MinPoints       int     `mapstructure:"min_points"`
}

// PumpConfig configures the short-window pump detector family.
type PumpConfig struct {
	ShortWindowMinutes int     `mapstructure:"short_window_minutes"`
	MinPoints          int     `mapstructure:"min_points"`
	PriceJumpPct       float64 `mapstructure:"price_jump_pct"`
	AskJumpPct         float64 `mapstructure:"ask_jump_pct"`
	BreakoutPoints     int     `mapstructure:"breakout_points"`
	BreakoutExtraPct   float64 `mapstructure:"breakout_extra_pct"`
	MomentumMult       float64 `mapstructure:"momentum_mult"`
	ConfirmPricePct    float64 `mapstructure:"confirm_price_pct"`
}

// RequestConfig holds throttling and retry behavior for the price source.
type RequestConfig struct {
	BaseDelaySec  float64       `mapstructure:"base_delay_sec"`
	JitterSec     float64       `mapstructure:"jitter_sec"`
	Retries       int           `mapstructure:"retries"`
	BackoffFactor float64       `mapstructure:"backoff_factor"`
	Shuffle       bool          `mapstructure:"shuffle"`
	Timeout       time.Duration `mapstructure:"timeout"`
}

// SteamConfig holds the Steam community market endpoint settings.
type SteamConfig struct {
	PriceURL string `mapstructure:"price_url"`
	AppID    int    `mapstructure:"app_id"`
}

// ScopeConfig describes the catalog of tracked sticker variants.
type ScopeConfig struct {
	Event   string      `mapstructure:"event"`
	Teams   GroupConfig `mapstructure:"teams"`
	Players GroupConfig `mapstructure:"players"`
}

// GroupConfig is one catalog group: base names plus the variants to expand.
type GroupConfig struct {
	Include  []string `mapstructure:"include"`
	Variants []string `mapstructure:"variants"`
}

// AliasConfig maps configured names onto the names the marketplace uses.
type AliasConfig struct {
	Players map[string]string `mapstructure:"players"`
}

// TelegramConfig holds Telegram delivery configuration.
type TelegramConfig struct {
	BotToken       string        `mapstructure:"bot_token"`
	ChatID         string        `mapstructure:"chat_id"`
	Enabled        bool          `mapstructure:"enabled"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryDelayBase time.Duration `mapstructure:"retry_delay_base"`
}

// StorageConfig holds state persistence configuration.
type StorageConfig struct {
	DBPath string `mapstructure:"db_path"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from file and environment variables.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetConfigFile(path)
	setDefaults(v)

	v.SetEnvPrefix("STICKER_MONITOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults configures default values for all configuration options.
func setDefaults(v *viper.Viper) {
	v.SetDefault("currency_code", 5)
	v.SetDefault("min_daily_sales", 1)
	v.SetDefault("retention_days", 60)
	v.SetDefault("run_interval", "0s") // 0 = single run, cron-friendly

	v.SetDefault("change_alerts.enabled", false)
	v.SetDefault("change_alerts.threshold_pct", 10.0)
	v.SetDefault("change_alerts.cooldown_hours", 6.0)

	v.SetDefault("signals.price_from_7d_median.soft_pct", 0.90)
	v.SetDefault("signals.price_from_7d_median.deep_pct", 0.85)
	v.SetDefault("signals.price_from_7d_median.min_points", 12)
	v.SetDefault("signals.volume_spike.spike_multiplier", 1.5)
	v.SetDefault("signals.volume_spike.min_points", 12)
	v.SetDefault("signals.combo_cooldown_hours", 6.0)
	v.SetDefault("signals.pump.short_window_minutes", 120)
	v.SetDefault("signals.pump.min_points", 4)
	v.SetDefault("signals.pump.price_jump_pct", 0.08)
	v.SetDefault("signals.pump.ask_jump_pct", 0.10)
	v.SetDefault("signals.pump.breakout_points", 6)
	v.SetDefault("signals.pump.breakout_extra_pct", 0.03)
	v.SetDefault("signals.pump.momentum_mult", 1.8)
	v.SetDefault("signals.pump.confirm_price_pct", 0.04)

	v.SetDefault("request.base_delay_sec", 2.5)
	v.SetDefault("request.jitter_sec", 0.5)
	v.SetDefault("request.retries", 5)
	v.SetDefault("request.backoff_factor", 1.8)
	v.SetDefault("request.shuffle", true)
	v.SetDefault("request.timeout", "30s")

	v.SetDefault("steam.price_url", "https://steamcommunity.com/market/priceoverview/")
	v.SetDefault("steam.app_id", 730)

	v.SetDefault("telegram.enabled", true)
	v.SetDefault("telegram.max_retries", 3)
	v.SetDefault("telegram.retry_delay_base", "1s")

	v.SetDefault("storage.db_path", "./data/monitor.db")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

var knownVariants = map[string]bool{
	"paper": true,
	"holo":  true,
	"foil":  true,
	"gold":  true,
}

// Validate checks that all configuration values are valid.
func (c *Config) Validate() error {
	if c.CurrencyCode < 1 {
		return fmt.Errorf("currency_code must be positive")
	}
	if c.MinDailySales < 0 {
		return fmt.Errorf("min_daily_sales must not be negative")
	}
	if c.RetentionDays < 1 {
		return fmt.Errorf("retention_days must be at least 1")
	}

	p := c.Signals.Price
	if p.SoftPct <= 0 || p.SoftPct >= 1 {
		return fmt.Errorf("signals.price_from_7d_median.soft_pct must be in (0, 1)")
	}
	if p.DeepPct <= 0 || p.DeepPct >= 1 {
		return fmt.Errorf("signals.price_from_7d_median.deep_pct must be in (0, 1)")
	}
	if p.DeepPct > p.SoftPct {
		return fmt.Errorf("signals.price_from_7d_median.deep_pct must not exceed soft_pct")
	}
	if p.MinPoints < 1 {
		return fmt.Errorf("signals.price_from_7d_median.min_points must be at least 1")
	}
	if c.Signals.Volume.SpikeMultiplier < 1 {
		return fmt.Errorf("signals.volume_spike.spike_multiplier must be at least 1")
	}
	if c.Signals.Volume.MinPoints < 1 {
		return fmt.Errorf("signals.volume_spike.min_points must be at least 1")
	}
	if c.Signals.ComboCooldownHrs < 0 {
		return fmt.Errorf("signals.combo_cooldown_hours must not be negative")
	}

	pump := c.Signals.Pump
	if pump.ShortWindowMinutes < 1 {
		return fmt.Errorf("signals.pump.short_window_minutes must be at least 1")
	}
	if pump.MinPoints < 1 {
		return fmt.Errorf("signals.pump.min_points must be at least 1")
	}
	if pump.BreakoutPoints < 1 {
		return fmt.Errorf("signals.pump.breakout_points must be at least 1")
	}
	if pump.MomentumMult <= 0 {
		return fmt.Errorf("signals.pump.momentum_mult must be positive")
	}

	if c.Request.BaseDelaySec < 0 || c.Request.JitterSec < 0 {
		return fmt.Errorf("request delays must not be negative")
	}
	if c.Request.Retries < 0 {
		return fmt.Errorf("request.retries must not be negative")
	}
	if c.Request.BackoffFactor < 1 {
		return fmt.Errorf("request.backoff_factor must be at least 1")
	}

	if c.Steam.PriceURL == "" {
		return fmt.Errorf("steam.price_url is required")
	}
	if c.Steam.AppID < 1 {
		return fmt.Errorf("steam.app_id must be positive")
	}

	if c.Scope.Event == "" {
		return fmt.Errorf("scope.event is required")
	}
	if len(c.Scope.Teams.Include) == 0 && len(c.Scope.Players.Include) == 0 {
		return fmt.Errorf("scope must include at least one team or player")
	}
	for _, variant := range append(append([]string{}, c.Scope.Teams.Variants...), c.Scope.Players.Variants...) {
		if !knownVariants[variant] {
			return fmt.Errorf("unknown sticker variant: %q", variant)
		}
	}

	if c.Telegram.Enabled {
		if c.Telegram.BotToken == "" {
			return fmt.Errorf("telegram.bot_token is required when telegram is enabled")
		}
		if c.Telegram.ChatID == "" {
			return fmt.Errorf("telegram.chat_id is required when telegram is enabled")
		}
	}

	if c.Storage.DBPath == "" {
		return fmt.Errorf("storage.db_path is required")
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("logging.format must be one of: json, text")
	}

	return nil
}
