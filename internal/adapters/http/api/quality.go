// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/okian/presage/internal/domain/quality"
)

// QualityDependencies defines the interface for quality profile operations.
type QualityDependencies interface {
	// QualityProfile returns the current derived profile.
	QualityProfile(ctx context.Context) quality.Profile

	// ForceQuality pins a tier; the value "auto" clears the override.
	ForceQuality(ctx context.Context, forced string) error

	// SetEnvironment feeds a fresh environment snapshot.
	SetEnvironment(ctx context.Context, env quality.EnvironmentSnapshot)

	// RecordUnderrun counts one audio buffer underrun.
	RecordUnderrun(ctx context.Context)
}

// QualityHandler handles quality profile requests.
type QualityHandler struct {
	deps QualityDependencies
}

// NewQualityHandler creates a new quality handler.
func NewQualityHandler(deps QualityDependencies) *QualityHandler {
	return &QualityHandler{deps: deps}
}

// HandleQuality handles GET /quality and PUT /quality requests.
func (h *QualityHandler) HandleQuality(w http.ResponseWriter, r *http.Request) {
	const op = "api.quality"
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, h.deps.QualityProfile(r.Context()))
	case http.MethodPut:
		var req qualityPutRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
			return
		}
		if strings.TrimSpace(req.Forced) == "" {
			writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
			return
		}
		if err := h.deps.ForceQuality(r.Context(), req.Forced); err != nil {
			writeError(w, http.StatusBadRequest, "unknown_tier", WrapKind(op, ErrBadRequest, err))
			return
		}
		writeJSON(w, http.StatusOK, h.deps.QualityProfile(r.Context()))
	default:
		http.NotFound(w, r)
	}
}

// HandleEnvironment handles POST /quality/environment requests.
func (h *QualityHandler) HandleEnvironment(w http.ResponseWriter, r *http.Request) {
	const op = "api.quality_environment"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	// Unknown telemetry must degrade toward the favorable default, so the
	// request is decoded over DefaultEnvironment rather than a zero value.
	env := quality.DefaultEnvironment()
	if err := json.NewDecoder(r.Body).Decode(&env); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	h.deps.SetEnvironment(r.Context(), env)
	writeJSON(w, http.StatusOK, h.deps.QualityProfile(r.Context()))
}

// HandleUnderrun handles POST /quality/underrun requests.
func (h *QualityHandler) HandleUnderrun(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	h.deps.RecordUnderrun(r.Context())
	writeJSON(w, http.StatusOK, ackResponse{Status: "recorded"})
}
