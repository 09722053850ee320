package service

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/okian/isp/internal/adapters/cache"
	"github.com/okian/isp/internal/config"
	"github.com/okian/isp/internal/domain/location"
	"github.com/okian/isp/internal/domain/month"
	"github.com/okian/isp/internal/domain/pipeline"
	"github.com/okian/isp/internal/rubric"
	"github.com/okian/isp/pkg/logger"
)

// Engine is the scoring pipeline together with the adapters it owns.
type Engine struct {
	Pipeline *pipeline.Pipeline
	Cache    *cache.Instrumented
	// Degraded is set when no classifier is available.
	Degraded bool

	closer io.Closer
}

// NewEngine loads the rubric and assembles the pipeline from cfg. A non-nil
// cls replaces the configured classifier.
func NewEngine(ctx context.Context, cfg *config.Config, cls location.Classifier, log logger.Logger) (*Engine, error) {
	schema, err := rubric.Load(ctx, cfg.RubricPath)
	if err != nil {
		return nil, err
	}
	tz, err := time.LoadLocation(cfg.MonthTimezone)
	if err != nil {
		return nil, fmt.Errorf("%w: month_timezone: %w", config.ErrInvalidConfig, err)
	}

	if cls == nil {
		if cfg.ClassifierProvider != "" && cfg.ClassifierAPIKey == "" {
			log.Warn(ctx, "classifier api key missing; running without classifier",
				logger.String("provider", cfg.ClassifierProvider))
		}
		if cls, err = NewClassifier(ctx, cfg); err != nil {
			return nil, err
		}
	}

	locCache, closer, err := cache.New(ctx, cache.Options{
		Kind: cfg.LocationCache,
		Size: cfg.LocationCacheSize,
		Path: cfg.LocationCachePath,
	})
	if err != nil {
		return nil, err
	}

	e := &Engine{Cache: locCache, closer: closer}
	normOpts := []location.Option{
		location.WithCache(locCache),
		location.WithBatchSize(cfg.ClassifyBatchSize),
		location.WithLogger(log.Named("location")),
	}
	if cls != nil {
		normOpts = append(normOpts, location.WithClassifier(cls))
	} else {
		e.Degraded = true
		log.Warn(ctx, "no location classifier configured; locations are only DC-canonicalized")
	}

	e.Pipeline = pipeline.New(schema,
		pipeline.WithNormalizer(location.NewNormalizer(normOpts...)),
		pipeline.WithMonthExtractor(month.NewExtractor(month.WithLocation(tz))),
		pipeline.WithLogger(log.Named("pipeline")),
	)
	return e, nil
}

// Close releases the location cache.
func (e *Engine) Close() error {
	return e.closer.Close()
}
