package config_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/okian/isp/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()

		convey.Convey("When loading config with defaults only", func() {
			clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.ClassifierProvider, convey.ShouldEqual, "")
				convey.So(cfg.UploadStore, convey.ShouldEqual, "local")
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("ISP_ADDR", ":8080")
			_ = os.Setenv("ISP_CLASSIFIER_PROVIDER", "gemini")
			_ = os.Setenv("ISP_CLASSIFY_BATCH_SIZE", "8")
			_ = os.Setenv("ISP_CLASSIFIER_TIMEOUT_MS", "2500")
			_ = os.Setenv("ISP_LOCATION_CACHE", "lru")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.ClassifierProvider, convey.ShouldEqual, "gemini")
				convey.So(cfg.ClassifyBatchSize, convey.ShouldEqual, 8)
				convey.So(cfg.ClassifierTimeout(), convey.ShouldEqual, 2500*time.Millisecond)
				convey.So(cfg.LocationCache, convey.ShouldEqual, "lru")
			})
		})

		convey.Convey("When loading config with YAML file", func() {
			yamlContent := `
addr: ":9090"
month_timezone: America/New_York
location_cache: sqlite
location_cache_path: /tmp/loc.db
roster_sources:
  "2025": https://example.com/exec
  "2026": https://example.com/exec2
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("ISP_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from YAML file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.MonthTimezone, convey.ShouldEqual, "America/New_York")
				convey.So(cfg.LocationCache, convey.ShouldEqual, "sqlite")
				convey.So(cfg.RosterSources, convey.ShouldResemble, map[string]string{
					"2025": "https://example.com/exec",
					"2026": "https://example.com/exec2",
				})
				convey.So(cfg.ClassifyBatchSize, convey.ShouldEqual, 5)
			})
		})

		convey.Convey("When loading config with both file and environment variables", func() {
			tmpFile := createTempConfigFile("addr: \":9090\"\nclassify_batch_size: 3\n")
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("ISP_CONFIG", tmpFile)
			_ = os.Setenv("ISP_ADDR", ":8080")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then environment variables should override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.ClassifyBatchSize, convey.ShouldEqual, 3)
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			tmpFile := createTempConfigFile(`invalid: yaml: content: [`)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("ISP_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv("ISP_CONFIG", "/non/existent/file.yaml")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with empty addr", func() {
			_ = os.Setenv("ISP_ADDR", "")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "addr must not be empty")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with unknown enum values", func() {
			_ = os.Setenv("ISP_CLASSIFIER_PROVIDER", "claude")
			_ = os.Setenv("ISP_LOCATION_CACHE", "redis")
			_ = os.Setenv("ISP_CLASSIFY_BATCH_SIZE", "0")
			defer clearConfigEnvVars()

			_, err := config.Load(ctx)

			convey.Convey("Then every problem is reported", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(err.Error(), convey.ShouldContainSubstring, `unknown classifier_provider "claude"`)
				convey.So(err.Error(), convey.ShouldContainSubstring, `unknown location_cache "redis"`)
				convey.So(err.Error(), convey.ShouldContainSubstring, "classify_batch_size must be positive")
			})
		})

		convey.Convey("When the s3 store has no bucket", func() {
			_ = os.Setenv("ISP_UPLOAD_STORE", "s3")
			defer clearConfigEnvVars()

			_, err := config.Load(ctx)
			convey.So(err, convey.ShouldNotBeNil)
			convey.So(err.Error(), convey.ShouldContainSubstring, "s3_bucket is required")
		})

		convey.Convey("When the timezone is not a zone", func() {
			_ = os.Setenv("ISP_MONTH_TIMEZONE", "Mars/Olympus")
			defer clearConfigEnvVars()

			_, err := config.Load(ctx)
			convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
		})

		convey.Convey("When loading config with invalid numeric environment variables", func() {
			_ = os.Setenv("ISP_CLASSIFY_BATCH_SIZE", "not_a_number")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}

// Helper functions.

func clearConfigEnvVars() {
	envVars := []string{
		"ISP_CONFIG",
		"ISP_ADDR",
		"ISP_CLASSIFIER_PROVIDER",
		"ISP_CLASSIFY_BATCH_SIZE",
		"ISP_CLASSIFIER_TIMEOUT_MS",
		"ISP_LOCATION_CACHE",
		"ISP_UPLOAD_STORE",
		"ISP_MONTH_TIMEZONE",
	}
	for _, envVar := range envVars {
		_ = os.Unsetenv(envVar)
	}
}

func createTempConfigFile(content string) string {
	tmpFile, err := os.CreateTemp("", "isp-config-*.yaml")
	if err != nil {
		panic(err)
	}

	if _, err := tmpFile.WriteString(content); err != nil {
		panic(err)
	}

	if err := tmpFile.Close(); err != nil {
		panic(err)
	}

	return tmpFile.Name()
}
