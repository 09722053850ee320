package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

var (
	classifierProviders = []string{"", "openai", "gemini"}
	cacheKinds          = []string{"memory", "lru", "sqlite"}
	uploadStores        = []string{"local", "s3"}
	logFormats          = []string{"text", "json"}
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if ISP_CONFIG is set
//  3. env (prefix ISP_)
func Load(_ context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv("ISP_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// ISP_CLASSIFY_BATCH_SIZE -> classify_batch_size. Underscores are kept to
	// match the flat koanf tags; nested roster sources come from the file.
	envProvider := env.Provider("ISP_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "isp_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks required fields and enum values.
func (c *Config) Validate() error {
	var errs []error
	if c.Addr == "" {
		errs = append(errs, errors.New("addr must not be empty"))
	}
	if c.ClassifyBatchSize <= 0 {
		errs = append(errs, fmt.Errorf("classify_batch_size must be positive, got %d", c.ClassifyBatchSize))
	}
	if c.MaxUploadBytes <= 0 {
		errs = append(errs, fmt.Errorf("max_upload_bytes must be positive, got %d", c.MaxUploadBytes))
	}
	if !slices.Contains(classifierProviders, c.ClassifierProvider) {
		errs = append(errs, fmt.Errorf("unknown classifier_provider %q", c.ClassifierProvider))
	}
	if !slices.Contains(cacheKinds, c.LocationCache) {
		errs = append(errs, fmt.Errorf("unknown location_cache %q", c.LocationCache))
	}
	if !slices.Contains(uploadStores, c.UploadStore) {
		errs = append(errs, fmt.Errorf("unknown upload_store %q", c.UploadStore))
	}
	if c.UploadStore == "s3" && c.S3Bucket == "" {
		errs = append(errs, errors.New("s3_bucket is required for the s3 upload store"))
	}
	if !slices.Contains(logFormats, c.LogFormat) {
		errs = append(errs, fmt.Errorf("unknown log_format %q", c.LogFormat))
	}
	if _, err := time.LoadLocation(c.MonthTimezone); err != nil {
		errs = append(errs, fmt.Errorf("month_timezone: %w", err))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

// ClassifierTimeout returns the classifier call timeout.
func (c *Config) ClassifierTimeout() time.Duration {
	return time.Duration(c.ClassifierTimeoutMS) * time.Millisecond
}

// RosterFetchTimeout returns the remote roster fetch timeout.
func (c *Config) RosterFetchTimeout() time.Duration {
	return time.Duration(c.RosterFetchTimeoutMS) * time.Millisecond
}
