package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/okian/isp/internal/domain/pipeline"
	"github.com/okian/isp/internal/domain/record"
	"github.com/okian/isp/internal/rubric"
	"github.com/okian/isp/pkg/logger"
)

const maxExtractBytes = 32 << 20

var (
	errDataRequired = errors.New("data is required")
	errDataShape    = errors.New("data must be an array of row objects or an object with a 'data' array")
)

// extractRequest mirrors the OpenAPI schema for POST /api/extract. Data is
// either an array of rows or an object holding one under "data".
type extractRequest struct {
	Data  json.RawMessage `json:"data"`
	Scale *rubric.Scale   `json:"scale,omitempty"`
}

func (e extractRequest) records() ([]record.Raw, error) {
	data := bytes.TrimSpace(e.Data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil, errDataRequired
	}
	var rows []record.Raw
	switch data[0] {
	case '[':
		if err := json.Unmarshal(data, &rows); err != nil {
			return nil, errDataShape
		}
	case '{':
		var inner struct {
			Data []record.Raw `json:"data"`
		}
		if err := json.Unmarshal(data, &inner); err != nil || inner.Data == nil {
			return nil, errDataShape
		}
		rows = inner.Data
	default:
		return nil, errDataShape
	}
	return rows, nil
}

// ExtractHandler scores rosters.
type ExtractHandler struct {
	deps Dependencies
	log  logger.Logger
}

// NewExtractHandler creates a new extract handler.
func NewExtractHandler(deps Dependencies, log logger.Logger) *ExtractHandler {
	return &ExtractHandler{deps: deps, log: log}
}

// HandleExtract handles POST /api/extract requests.
func (h *ExtractHandler) HandleExtract(w http.ResponseWriter, r *http.Request) {
	const op = "api.extract"
	if r.Method != http.MethodPost {
		methodNotAllowed(w, "POST, OPTIONS")
		return
	}

	var req extractRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxExtractBytes)).Decode(&req); err != nil {
		writeFailure(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	rows, err := req.records()
	if err != nil {
		writeFailure(w, WrapKind(op, ErrBadRequest, err))
		return
	}

	res, err := h.deps.Extract(r.Context(), pipeline.Input{Records: rows, Scale: req.Scale})
	if err != nil {
		h.log.Warn(r.Context(), "extract failed", logger.String("op", op), logger.Error(err))
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, res)
}
