package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/okian/lottoheat/internal/config"
	"github.com/okian/lottoheat/internal/domain/ranking"
	"github.com/smartystreets/goconvey/convey"
)

var configEnvVars = []string{
	"LOTTOHEAT_CONFIG",
	"LOTTOHEAT_ADDR",
	"LOTTOHEAT_QUEUE_SIZE",
	"LOTTOHEAT_WORKER_COUNT",
	"LOTTOHEAT_LOG_FORMAT",
	"LOTTOHEAT_REFRESH_SCHEDULE",
	"LOTTOHEAT_HEAT__BIG_WIN_THRESHOLD",
	"LOTTOHEAT_TIERS__KELLY_SCALE",
}

func clearConfigEnv(t *testing.T) {
	t.Helper()
	for _, k := range configEnvVars {
		t.Setenv(k, "")
		_ = os.Unsetenv(k)
	}
}

func writeYAML(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "lottoheat.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnv(t)

		convey.Convey("When loading with defaults only", func() {
			cfg, err := config.Load(ctx)

			convey.So(err, convey.ShouldBeNil)
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.QueueSize, convey.ShouldEqual, 10_000)
			convey.So(cfg.WorkerCount, convey.ShouldEqual, runtime.NumCPU())
			convey.So(cfg.Heat.RecentWindowDays, convey.ShouldEqual, 30)
			convey.So(cfg.Tiers.InsaneMinTopMultiple, convey.ShouldEqual, 100_000)
			convey.So(cfg.RefreshSchedule, convey.ShouldEqual, "@every 15m")
		})

		convey.Convey("When flat and nested env vars are set", func() {
			t.Setenv("LOTTOHEAT_ADDR", ":8081")
			t.Setenv("LOTTOHEAT_QUEUE_SIZE", "64")
			t.Setenv("LOTTOHEAT_LOG_FORMAT", "JSON")
			t.Setenv("LOTTOHEAT_HEAT__BIG_WIN_THRESHOLD", "5000")
			t.Setenv("LOTTOHEAT_TIERS__KELLY_SCALE", "0.5")

			cfg, err := config.Load(ctx)

			convey.So(err, convey.ShouldBeNil)
			convey.So(cfg.Addr, convey.ShouldEqual, ":8081")
			convey.So(cfg.QueueSize, convey.ShouldEqual, 64)
			convey.So(cfg.LogFormat, convey.ShouldEqual, "json")
			convey.So(cfg.Heat.BigWinThreshold, convey.ShouldEqual, 5000)
			convey.So(cfg.Tiers.KellyScale, convey.ShouldEqual, 0.5)
			convey.So(cfg.Heat.RecentWindowDays, convey.ShouldEqual, 30)
		})

		convey.Convey("When a YAML file is provided", func() {
			path := writeYAML(t, `
addr: ":7000"
worker_count: 3
heat:
  recent_window_days: 7
tiers:
  safe_max_volatility: 5
`)
			t.Setenv("LOTTOHEAT_CONFIG", path)

			convey.Convey("Then file values override defaults", func() {
				cfg, err := config.Load(ctx)
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":7000")
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 3)
				convey.So(cfg.Heat.RecentWindowDays, convey.ShouldEqual, 7)
				convey.So(cfg.Heat.BigWinThreshold, convey.ShouldEqual, 1000)
				convey.So(cfg.Tiers.SafeMaxVolatility, convey.ShouldEqual, 5)
			})

			convey.Convey("Then env overrides the file", func() {
				t.Setenv("LOTTOHEAT_WORKER_COUNT", "9")
				cfg, err := config.Load(ctx)
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 9)
				convey.So(cfg.Addr, convey.ShouldEqual, ":7000")
			})
		})

		convey.Convey("When the file does not exist", func() {
			t.Setenv("LOTTOHEAT_CONFIG", "/non/existent/lottoheat.yaml")
			_, err := config.Load(ctx)
			convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
		})

		convey.Convey("When a value fails validation", func() {
			t.Setenv("LOTTOHEAT_QUEUE_SIZE", "0")
			_, err := config.Load(ctx)
			convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
		})

		convey.Convey("When the refresh schedule is not a cron spec", func() {
			t.Setenv("LOTTOHEAT_REFRESH_SCHEDULE", "every now and then")
			_, err := config.Load(ctx)
			convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
		})
	})
}

func TestValidate(t *testing.T) {
	convey.Convey("Given default config", t, func() {
		cfg := config.New(context.Background())
		convey.So(cfg.Validate(), convey.ShouldBeNil)

		convey.Convey("Overlapping tier thresholds are rejected", func() {
			cfg.Tiers.InsaneMinVolatility = cfg.Tiers.SafeMaxVolatility
			convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
		})

		convey.Convey("Kelly scale above one is rejected", func() {
			cfg.Tiers.KellyScale = 1.5
			convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
		})

		convey.Convey("An empty refresh schedule disables the job", func() {
			cfg.RefreshSchedule = ""
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})

		convey.Convey("Options reflect the settings", func() {
			convey.So(cfg.HeatOptions(), convey.ShouldHaveLength, 2)
			convey.So(cfg.RankingOptions(), convey.ShouldHaveLength, 2)
		})

		convey.Convey("Tier settings reach the ranker", func() {
			cfg.Tiers.SafeMaxVolatility = 7
			cfg.Tiers.InsaneMinTopMultiple = 250_000
			th := ranking.NewRanker(cfg.RankingOptions()...).Thresholds()
			convey.So(th, convey.ShouldResemble, ranking.Thresholds{
				SafeMaxVolatility:    7,
				SafeMaxTopMultiple:   cfg.Tiers.SafeMaxTopMultiple,
				InsaneMinVolatility:  cfg.Tiers.InsaneMinVolatility,
				InsaneMinTopMultiple: 250_000,
			})
		})
	})
}
