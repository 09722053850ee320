// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/isp/internal/adapters/roster"
	"github.com/okian/isp/internal/adapters/storage"
	"github.com/okian/isp/internal/adapters/storage/local"
	"github.com/okian/isp/internal/adapters/storage/s3"
	"github.com/okian/isp/internal/config"
	"github.com/okian/isp/internal/domain/location"
	"github.com/okian/isp/internal/domain/pipeline"
	"github.com/okian/isp/internal/domain/record"
	"github.com/okian/isp/internal/rubric"
	"github.com/okian/isp/pkg/logger"
	"github.com/okian/isp/pkg/metrics"
)

// Service implements the API dependencies for the rubric scoring system.
type Service struct {
	mu sync.RWMutex

	cfg *config.Config

	// Core components
	engine     *Engine
	classifier location.Classifier
	store      storage.ObjectStore
	uploads    *storage.Uploads
	fetcher    *roster.Fetcher

	// Counters
	runs          atomic.Int64
	recordsScored atomic.Int64
	uploadCount   atomic.Int64

	// State
	started bool

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithConfig sets the process configuration.
func WithConfig(cfg *config.Config) Option {
	return func(s *Service) {
		if cfg != nil {
			s.cfg = cfg
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClassifier replaces the configured location classifier.
func WithClassifier(c location.Classifier) Option {
	return func(s *Service) {
		s.classifier = c
	}
}

// WithObjectStore replaces the configured upload store.
func WithObjectStore(st storage.ObjectStore) Option {
	return func(s *Service) {
		s.store = st
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{cfg: config.New()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start loads the rubric and builds the pipeline and its adapters.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	s.logger.Info(ctx, "starting scoring service...")

	engine, err := NewEngine(ctx, s.cfg, s.classifier, s.logger)
	if err != nil {
		return err
	}

	store := s.store
	if store == nil {
		if store, err = s.buildStore(ctx); err != nil {
			_ = engine.Close()
			return err
		}
	}
	uploads, err := storage.NewUploads(ctx, store, storage.WithLogger(s.logger.Named("uploads")))
	if err != nil {
		_ = engine.Close()
		return err
	}

	fetcher, err := roster.NewFetcher(s.cfg.RosterSources,
		roster.WithFetchTimeout(s.cfg.RosterFetchTimeout()),
		roster.WithFetcherLogger(s.logger.Named("roster")),
	)
	if err != nil {
		_ = engine.Close()
		return err
	}

	s.engine = engine
	s.store, s.uploads, s.fetcher = store, uploads, fetcher

	s.started = true
	s.logger.Info(ctx, "scoring service started",
		logger.String("classifier", s.cfg.ClassifierProvider),
		logger.String("cache", s.cfg.LocationCache),
		logger.String("uploadStore", s.cfg.UploadStore),
		logger.Int("batchSize", s.cfg.ClassifyBatchSize),
		logger.Bool("degraded", engine.Degraded),
	)
	return nil
}

func (s *Service) buildStore(ctx context.Context) (storage.ObjectStore, error) {
	switch s.cfg.UploadStore {
	case "s3":
		return s3.New(ctx, s.cfg.S3Region, s.cfg.S3Bucket, s.cfg.S3Prefix)
	default:
		return local.New(s.cfg.UploadDir)
	}
}

// Stop releases adapter resources.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	if err := s.engine.Close(); err != nil {
		s.logger.Error(context.Background(), "failed to close location cache", logger.Error(err))
	}
	s.started = false
	s.logger.Info(context.Background(), "scoring service stopped")
}

func (s *Service) ready() (*pipeline.Pipeline, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, ErrNotStarted
	}
	return s.engine.Pipeline, nil
}

// Extract runs the scoring pipeline over in.
func (s *Service) Extract(ctx context.Context, in pipeline.Input) (*pipeline.Result, error) {
	p, err := s.ready()
	if err != nil {
		return nil, err
	}

	start := time.Now()
	res, err := p.Run(ctx, in)
	metrics.RecordPipelineLatency(float64(time.Since(start).Milliseconds()))
	if err != nil {
		metrics.RecordPipelineRun("error")
		metrics.RecordErrorByComponent("pipeline", errorKind(err))
		return nil, err
	}
	metrics.RecordPipelineRun("ok")
	metrics.RecordRecordsScored(res.TotalRecords)
	for _, issue := range res.Issues {
		metrics.RecordValidationWarning(issue.Field)
	}
	s.runs.Add(1)
	s.recordsScored.Add(int64(res.TotalRecords))
	return res, nil
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, pipeline.ErrEmptyRecords):
		return "empty_records"
	case errors.Is(err, pipeline.ErrInvalidScale):
		return "invalid_scale"
	default:
		return "input"
	}
}

// DefaultScale returns a copy of the rubric's default scale.
func (s *Service) DefaultScale() (rubric.Scale, error) {
	p, err := s.ready()
	if err != nil {
		return rubric.Scale{}, err
	}
	return p.Schema().DefaultScale.Clone(), nil
}

// ValidateScale checks a user supplied scale.
func (s *Service) ValidateScale(scale rubric.Scale) error {
	return scale.Validate()
}

// MoveState moves state into tier on a copy of base, or of the default scale
// when base is nil. A nil points uses the tier's default points.
func (s *Service) MoveState(base *rubric.Scale, state string, tier rubric.Tier, points *float64) (rubric.Scale, error) {
	var scale rubric.Scale
	if base != nil {
		scale = base.Clone()
	} else {
		def, err := s.DefaultScale()
		if err != nil {
			return rubric.Scale{}, err
		}
		scale = def
	}
	p := tier.DefaultPoints()
	if points != nil {
		p = *points
	}
	if err := scale.MoveState(state, tier, p); err != nil {
		return rubric.Scale{}, err
	}
	if err := scale.Validate(); err != nil {
		return rubric.Scale{}, err
	}
	return scale, nil
}

// Upload stores r as the current roster. size is the client-declared size,
// or -1 when unknown; the body is capped at the configured maximum either way.
func (s *Service) Upload(ctx context.Context, name string, size int64, r io.Reader) (storage.Object, error) {
	if _, err := s.ready(); err != nil {
		return storage.Object{}, err
	}
	if name == "" || r == nil {
		metrics.RecordUpload("rejected", 0)
		return storage.Object{}, ErrEmptyUpload
	}
	if !roster.Supported(name) {
		metrics.RecordUpload("rejected", 0)
		return storage.Object{}, fmt.Errorf("%w: %s", ErrUnsupportedUpload, name)
	}
	limit := s.cfg.MaxUploadBytes
	if size > limit {
		metrics.RecordUpload("rejected", 0)
		return storage.Object{}, fmt.Errorf("%w: %d > %d bytes", ErrUploadTooLarge, size, limit)
	}

	lr := &limitedReader{r: r, remaining: limit}
	obj, err := s.uploads.Replace(ctx, name, lr)
	if lr.exceeded {
		metrics.RecordUpload("rejected", 0)
		return storage.Object{}, fmt.Errorf("%w: more than %d bytes", ErrUploadTooLarge, limit)
	}
	if err != nil {
		metrics.RecordUpload("error", 0)
		return storage.Object{}, err
	}
	metrics.RecordUpload("ok", obj.Size)
	s.uploadCount.Add(1)
	return obj, nil
}

// CurrentRoster parses the current upload.
func (s *Service) CurrentRoster(ctx context.Context) ([]record.Raw, storage.Object, error) {
	if _, err := s.ready(); err != nil {
		return nil, storage.Object{}, err
	}
	rc, obj, err := s.uploads.Open(ctx)
	if err != nil {
		return nil, storage.Object{}, err
	}
	defer func() { _ = rc.Close() }()

	rows, err := roster.Parse(obj.Name, rc)
	if err != nil {
		return nil, obj, err
	}
	return rows, obj, nil
}

// FetchRoster loads the roster of a cohort year from its remote source.
func (s *Service) FetchRoster(ctx context.Context, year int) ([]record.Raw, error) {
	if _, err := s.ready(); err != nil {
		return nil, err
	}
	rows, err := s.fetcher.Fetch(ctx, year)
	if err != nil {
		metrics.RecordErrorByComponent("roster", "fetch")
		return nil, err
	}
	return rows, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":       s.started,
		"classifier":    s.cfg.ClassifierProvider,
		"batchSize":     s.cfg.ClassifyBatchSize,
		"locationCache": s.cfg.LocationCache,
		"runs":          s.runs.Load(),
		"recordsScored": s.recordsScored.Load(),
		"uploads":       s.uploadCount.Load(),
	}

	if s.started {
		stats["degraded"] = s.engine.Degraded
		entries := s.engine.Cache.Len()
		stats["cacheEntries"] = entries
		metrics.UpdateCacheEntries(entries)
		if obj, ok := s.uploads.Current(); ok {
			stats["currentUpload"] = obj.Name
		}
		stats["rosterYears"] = s.fetcher.Years()
	}
	return stats
}

// limitedReader fails once more than remaining bytes are read.
type limitedReader struct {
	r         io.Reader
	remaining int64
	exceeded  bool
}

func (l *limitedReader) Read(p []byte) (int, error) {
	if int64(len(p)) > l.remaining+1 {
		p = p[:l.remaining+1]
	}
	n, err := l.r.Read(p)
	l.remaining -= int64(n)
	if l.remaining < 0 {
		l.exceeded = true
		return n, ErrUploadTooLarge
	}
	return n, err
}
