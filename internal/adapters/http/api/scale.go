package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/okian/isp/internal/rubric"
)

const maxScaleBytes = 1 << 20

type scaleResponse struct {
	Result rubric.Scale `json:"result"`
}

// tierRequest mirrors the OpenAPI schema for POST /api/scale/tier. Tier
// accepts 1, "1", "tier1" or "Tier 1".
type tierRequest struct {
	Scale  *rubric.Scale   `json:"scale,omitempty"`
	State  string          `json:"state"`
	Tier   json.RawMessage `json:"tier"`
	Points *float64        `json:"points,omitempty"`
}

func (t tierRequest) tier() (rubric.Tier, error) {
	raw := strings.Trim(strings.TrimSpace(string(t.Tier)), `"`)
	if raw == "" {
		return 0, errors.New("missing tier")
	}
	return rubric.ParseTier(raw)
}

// ScaleHandler serves scale validation and editing.
type ScaleHandler struct {
	deps Dependencies
}

// NewScaleHandler creates a new scale handler.
func NewScaleHandler(deps Dependencies) *ScaleHandler {
	return &ScaleHandler{deps: deps}
}

// HandleValidate handles POST /api/scale.
func (h *ScaleHandler) HandleValidate(w http.ResponseWriter, r *http.Request) {
	const op = "api.scale"
	if r.Method != http.MethodPost {
		methodNotAllowed(w, "POST, OPTIONS")
		return
	}
	var scale rubric.Scale
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxScaleBytes)).Decode(&scale); err != nil {
		writeFailure(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := h.deps.ValidateScale(scale); err != nil {
		writeFailure(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	writeJSON(w, http.StatusOK, scaleResponse{Result: scale})
}

// HandleDefault handles GET /api/scale/default.
func (h *ScaleHandler) HandleDefault(w http.ResponseWriter, r *http.Request) {
	const op = "api.scale_default"
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET, OPTIONS")
		return
	}
	scale, err := h.deps.DefaultScale()
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, scaleResponse{Result: scale})
}

// HandleTier handles POST /api/scale/tier.
func (h *ScaleHandler) HandleTier(w http.ResponseWriter, r *http.Request) {
	const op = "api.scale_tier"
	if r.Method != http.MethodPost {
		methodNotAllowed(w, "POST, OPTIONS")
		return
	}
	var req tierRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxScaleBytes)).Decode(&req); err != nil {
		writeFailure(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	if strings.TrimSpace(req.State) == "" {
		writeFailure(w, WrapKind(op, ErrBadRequest, errors.New("missing state")))
		return
	}
	tier, err := req.tier()
	if err != nil {
		writeFailure(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	scale, err := h.deps.MoveState(req.Scale, strings.TrimSpace(req.State), tier, req.Points)
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, scaleResponse{Result: scale})
}
