// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	service "github.com/okian/isp/internal/app"
	"github.com/okian/isp/internal/adapters/roster"
	"github.com/okian/isp/internal/adapters/storage"
	"github.com/okian/isp/internal/domain/columns"
	"github.com/okian/isp/internal/domain/pipeline"
	"github.com/okian/isp/internal/domain/record"
	"github.com/okian/isp/internal/rubric"
	"github.com/okian/isp/pkg/logger"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// Extract runs the scoring pipeline.
	Extract(ctx context.Context, in pipeline.Input) (*pipeline.Result, error)

	// Scale operations.
	DefaultScale() (rubric.Scale, error)
	ValidateScale(scale rubric.Scale) error
	MoveState(base *rubric.Scale, state string, tier rubric.Tier, points *float64) (rubric.Scale, error)

	// Roster files.
	Upload(ctx context.Context, name string, size int64, r io.Reader) (storage.Object, error)
	CurrentRoster(ctx context.Context) ([]record.Raw, storage.Object, error)
	FetchRoster(ctx context.Context, year int) ([]record.Raw, error)
}

// Option applies a configuration option to the Server.
type Option func(*Server)

// WithAllowOrigin sets the CORS allowed origin.
func WithAllowOrigin(origin string) Option {
	return func(s *Server) {
		if origin != "" {
			s.allowOrigin = origin
		}
	}
}

// WithMaxUploadBytes caps multipart upload bodies.
func WithMaxUploadBytes(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxUploadBytes = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.log = l
		}
	}
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler  *HealthHandler
	statsHandler   *StatsHandler
	extractHandler *ExtractHandler
	filesHandler   *FilesHandler
	scaleHandler   *ScaleHandler

	allowOrigin    string
	maxUploadBytes int64
	log            logger.Logger
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	s := &Server{
		allowOrigin:    "*",
		maxUploadBytes: 10 << 20,
		log:            logger.Get().Named("api"),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.healthHandler = NewHealthHandler()
	s.statsHandler = NewStatsHandler(statsProvider)
	s.extractHandler = NewExtractHandler(deps, s.log)
	s.filesHandler = NewFilesHandler(deps, s.maxUploadBytes, s.log)
	s.scaleHandler = NewScaleHandler(deps)
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	cors := func(next http.HandlerFunc, methods string) http.HandlerFunc {
		return CORSMiddleware(next, s.allowOrigin, methods)
	}

	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/api/extract", MetricsMiddleware(cors(s.extractHandler.HandleExtract, "POST, OPTIONS"), "extract"))
	mux.HandleFunc("/api/upload", MetricsMiddleware(cors(s.filesHandler.HandleUpload, "POST, OPTIONS"), "upload"))
	mux.HandleFunc("/api/file", MetricsMiddleware(cors(s.filesHandler.HandleFile, "GET, OPTIONS"), "file"))
	mux.HandleFunc("/api/scale", MetricsMiddleware(cors(s.scaleHandler.HandleValidate, "POST, OPTIONS"), "scale"))
	mux.HandleFunc("/api/scale/default", MetricsMiddleware(cors(s.scaleHandler.HandleDefault, "GET, OPTIONS"), "scale_default"))
	mux.HandleFunc("/api/scale/tier", MetricsMiddleware(cors(s.scaleHandler.HandleTier, "POST, OPTIONS"), "scale_tier"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeFailure maps err to a status code and error payload.
func writeFailure(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrTooLarge), errors.Is(err, service.ErrUploadTooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, "too_large", err)
	case errors.Is(err, ErrNotFound),
		errors.Is(err, storage.ErrNoUpload),
		errors.Is(err, roster.ErrUnknownYear):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, pipeline.ErrEmptyRecords),
		errors.Is(err, pipeline.ErrInvalidScale),
		errors.Is(err, columns.ErrNoMatchingColumns),
		errors.Is(err, rubric.ErrInvalidScale),
		errors.Is(err, rubric.ErrUnknownTier),
		errors.Is(err, service.ErrUnsupportedUpload),
		errors.Is(err, service.ErrEmptyUpload):
		writeError(w, http.StatusBadRequest, "bad_request", err)
	case errors.Is(err, roster.ErrEmptyRoster), errors.Is(err, roster.ErrUnsupportedFormat):
		writeError(w, http.StatusUnprocessableEntity, "unprocessable", err)
	case errors.Is(err, service.ErrNotStarted):
		writeError(w, http.StatusServiceUnavailable, "unavailable", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal", err)
	}
}
