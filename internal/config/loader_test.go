package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/courtside/internal/config"
)

var configEnvVars = []string{
	"COURTSIDE_CONFIG",
	"COURTSIDE_LOG_LEVEL",
	"COURTSIDE_LOG_FORMAT",
	"COURTSIDE_WORKER_COUNT",
	"COURTSIDE_QUEUE_SIZE",
	"COURTSIDE_DEDUPE_SIZE",
	"COURTSIDE_GAME_TIMEOUT_MS",
	"COURTSIDE_FUZZY_THRESHOLD",
	"COURTSIDE_STORE_PATH",
	"COURTSIDE_METRICS_ADDR",
}

func clearConfigEnvVars() {
	for _, v := range configEnvVars {
		_ = os.Unsetenv(v)
	}
}

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "courtside.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()
		defer clearConfigEnvVars()

		convey.Convey("When loading config with defaults only", func() {
			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.QueueSize, convey.ShouldEqual, 10_000)
				convey.So(cfg.GameTimeoutMS, convey.ShouldEqual, 5000)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("COURTSIDE_QUEUE_SIZE", "500")
			_ = os.Setenv("COURTSIDE_WORKER_COUNT", "3")
			_ = os.Setenv("COURTSIDE_GAME_TIMEOUT_MS", "250")
			_ = os.Setenv("COURTSIDE_FUZZY_THRESHOLD", "0.9")
			_ = os.Setenv("COURTSIDE_STORE_PATH", "/tmp/games.db")
			_ = os.Setenv("COURTSIDE_LOG_LEVEL", "DEBUG")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.QueueSize, convey.ShouldEqual, 500)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 3)
				convey.So(cfg.GameTimeout(), convey.ShouldEqual, 250*time.Millisecond)
				convey.So(cfg.FuzzyThreshold, convey.ShouldEqual, 0.9)
				convey.So(cfg.StorePath, convey.ShouldEqual, "/tmp/games.db")
				convey.So(cfg.LogLevel, convey.ShouldEqual, "debug")
			})
		})

		convey.Convey("When loading config with a YAML file", func() {
			path := writeConfigFile(t, `
# batch settings
worker_count: 6
queue_size: 64  # small queue
log_format: json
metrics_addr: ":9100"
`)
			_ = os.Setenv("COURTSIDE_CONFIG", path)

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from the file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 6)
				convey.So(cfg.QueueSize, convey.ShouldEqual, 64)
				convey.So(cfg.LogFormat, convey.ShouldEqual, "json")
				convey.So(cfg.MetricsAddr, convey.ShouldEqual, ":9100")
				convey.So(cfg.DedupeSize, convey.ShouldEqual, 50_000)
			})
		})

		convey.Convey("When env vars and a YAML file disagree", func() {
			path := writeConfigFile(t, "worker_count: 6\nqueue_size: 64\n")
			_ = os.Setenv("COURTSIDE_CONFIG", path)
			_ = os.Setenv("COURTSIDE_WORKER_COUNT", "2")

			cfg, err := config.Load(ctx)

			convey.Convey("Then env vars win", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 2)
				convey.So(cfg.QueueSize, convey.ShouldEqual, 64)
			})
		})
	})
}

func TestConfigLoaderEdgeCases(t *testing.T) {
	convey.Convey("Given config loader edge cases", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()
		defer clearConfigEnvVars()

		convey.Convey("When the config file does not exist", func() {
			_, err := config.LoadFile(ctx, filepath.Join(t.TempDir(), "missing.yaml"))

			convey.Convey("Then loading fails with ErrLoadConfig", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the config file is not YAML", func() {
			path := writeConfigFile(t, "worker_count: [unclosed\n")
			_, err := config.LoadFile(ctx, path)

			convey.Convey("Then loading fails with ErrLoadConfig", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When a value is out of range", func() {
			_ = os.Setenv("COURTSIDE_WORKER_COUNT", "0")
			_, err := config.Load(ctx)

			convey.Convey("Then loading fails with ErrInvalidConfig", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the log format is unknown", func() {
			_ = os.Setenv("COURTSIDE_LOG_FORMAT", "xml")
			_, err := config.Load(ctx)

			convey.Convey("Then loading fails with ErrInvalidConfig", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})
	})
}
