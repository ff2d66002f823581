// Package config defines service configuration and its loading.
//
// Conventions:
// - Provide New(ctx) to build a Config with defaults.
// - Load layers defaults, an optional YAML file, and environment variables.
// - Every validation failure wraps ErrInvalidConfig.
package config

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/okian/lottoheat/internal/domain/heat"
	"github.com/okian/lottoheat/internal/domain/ranking"
	"github.com/robfig/cron/v3"
	"github.com/shopspring/decimal"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// QueueSize bounds the heat recompute queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of recompute workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize sets how many win submission ids are remembered.
	DedupeSize int `koanf:"dedupe_size"`

	// MaxHotLimit caps GET /stores/hot?limit.
	MaxHotLimit int `koanf:"max_hot_limit"`

	// RefreshSchedule is a cron spec for the full leaderboard rebuild.
	// Empty disables it.
	RefreshSchedule string `koanf:"refresh_schedule"`

	// SubmitRatePerSec and SubmitBurst throttle POST /wins.
	SubmitRatePerSec float64 `koanf:"submit_rate_per_sec"`
	SubmitBurst      int     `koanf:"submit_burst"`

	Heat  HeatConfig  `koanf:"heat"`
	Tiers TiersConfig `koanf:"tiers"`
}

// HeatConfig tunes the heat score.
type HeatConfig struct {
	RecentWindowDays int     `koanf:"recent_window_days"`
	BigWinThreshold  float64 `koanf:"big_win_threshold"`
}

// TiersConfig tunes recommendation tiers.
type TiersConfig struct {
	SafeMaxVolatility    float64 `koanf:"safe_max_volatility"`
	SafeMaxTopMultiple   float64 `koanf:"safe_max_top_multiple"`
	InsaneMinVolatility  float64 `koanf:"insane_min_volatility"`
	InsaneMinTopMultiple float64 `koanf:"insane_min_top_multiple"`
	KellyScale           float64 `koanf:"kelly_scale"`
}

// New creates a Config holding the defaults.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:         "info",
		LogFormat:        "text",
		Addr:             ":9080",
		QueueSize:        10_000,
		WorkerCount:      runtime.NumCPU(),
		DedupeSize:       100_000,
		MaxHotLimit:      100,
		RefreshSchedule:  "@every 15m",
		SubmitRatePerSec: 20,
		SubmitBurst:      40,
		Heat: HeatConfig{
			RecentWindowDays: 30,
			BigWinThreshold:  1000,
		},
		Tiers: TiersConfig{
			SafeMaxVolatility:    ranking.DefaultSafeMaxVolatility,
			SafeMaxTopMultiple:   ranking.DefaultSafeMaxTopMultiple,
			InsaneMinVolatility:  ranking.DefaultInsaneMinVolatility,
			InsaneMinTopMultiple: ranking.DefaultInsaneMinTopMultiple,
			KellyScale:           ranking.DefaultKellyScale,
		},
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	checks := []struct {
		ok  bool
		msg string
	}{
		{strings.TrimSpace(c.Addr) != "", "addr must not be empty"},
		{c.QueueSize > 0, "queue_size must be positive"},
		{c.WorkerCount > 0, "worker_count must be positive"},
		{c.DedupeSize > 0, "dedupe_size must be positive"},
		{c.MaxHotLimit > 0, "max_hot_limit must be positive"},
		{c.SubmitRatePerSec > 0, "submit_rate_per_sec must be positive"},
		{c.SubmitBurst > 0, "submit_burst must be positive"},
		{c.LogFormat == "text" || c.LogFormat == "json", "log_format must be text or json"},
		{c.Heat.RecentWindowDays > 0, "heat.recent_window_days must be positive"},
		{c.Heat.BigWinThreshold > 0, "heat.big_win_threshold must be positive"},
		{c.Tiers.SafeMaxVolatility > 0, "tiers.safe_max_volatility must be positive"},
		{c.Tiers.SafeMaxTopMultiple > 0, "tiers.safe_max_top_multiple must be positive"},
		{c.Tiers.InsaneMinVolatility > c.Tiers.SafeMaxVolatility, "tiers.insane_min_volatility must exceed tiers.safe_max_volatility"},
		{c.Tiers.InsaneMinTopMultiple > c.Tiers.SafeMaxTopMultiple, "tiers.insane_min_top_multiple must exceed tiers.safe_max_top_multiple"},
		{c.Tiers.KellyScale > 0 && c.Tiers.KellyScale <= 1, "tiers.kelly_scale must be in (0, 1]"},
	}
	for _, chk := range checks {
		if !chk.ok {
			return fmt.Errorf("%w: %s", ErrInvalidConfig, chk.msg)
		}
	}
	if c.RefreshSchedule != "" {
		if _, err := cron.ParseStandard(c.RefreshSchedule); err != nil {
			return fmt.Errorf("%w: refresh_schedule: %v", ErrInvalidConfig, err)
		}
	}
	return nil
}

// HeatOptions translates the heat settings into calculator options.
func (c *Config) HeatOptions() []heat.Option {
	return []heat.Option{
		heat.WithRecentWindow(time.Duration(c.Heat.RecentWindowDays) * 24 * time.Hour),
		heat.WithBigWinThreshold(decimal.NewFromFloat(c.Heat.BigWinThreshold)),
	}
}

// RankingOptions translates the tier settings into ranker options.
func (c *Config) RankingOptions() []ranking.Option {
	return []ranking.Option{
		ranking.WithThresholds(ranking.Thresholds{
			SafeMaxVolatility:    c.Tiers.SafeMaxVolatility,
			SafeMaxTopMultiple:   c.Tiers.SafeMaxTopMultiple,
			InsaneMinVolatility:  c.Tiers.InsaneMinVolatility,
			InsaneMinTopMultiple: c.Tiers.InsaneMinTopMultiple,
		}),
		ranking.WithKellyScale(c.Tiers.KellyScale),
	}
}
