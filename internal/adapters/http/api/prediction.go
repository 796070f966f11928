// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/okian/presage/internal/domain/gesture"
	"github.com/okian/presage/internal/domain/session"
)

// PredictionDependencies defines the interface for prediction reads and
// feedback operations.
type PredictionDependencies interface {
	// LastPrediction returns the latest prediction for a session.
	// The bool is false while no prediction has been emitted.
	LastPrediction(ctx context.Context, id string) (session.Prediction, bool, error)

	// SessionMetrics returns accuracy counters for a session.
	SessionMetrics(ctx context.Context, id string) (session.Metrics, error)

	// ConfirmGesture reports the gesture the client actually observed.
	ConfirmGesture(ctx context.Context, id string, g gesture.Gesture) error

	// RejectPrediction reports that the current prediction was wrong.
	RejectPrediction(ctx context.Context, id string) error

	// ResetSession clears tracking state but keeps accuracy counters.
	ResetSession(ctx context.Context, id string) error
}

// PredictionHandler handles prediction reads and feedback.
type PredictionHandler struct {
	deps PredictionDependencies
}

// NewPredictionHandler creates a new prediction handler.
func NewPredictionHandler(deps PredictionDependencies) *PredictionHandler {
	return &PredictionHandler{deps: deps}
}

// HandleGetPrediction handles GET /sessions/{id}/prediction requests.
// Returns 204 while the session has no prediction yet.
func (h *PredictionHandler) HandleGetPrediction(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	p, ok, err := h.deps.LastPrediction(r.Context(), id)
	if err != nil {
		h.writeLookupError(w, err)
		return
	}
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// HandleGetMetrics handles GET /sessions/{id}/metrics requests.
func (h *PredictionHandler) HandleGetMetrics(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	m, err := h.deps.SessionMetrics(r.Context(), id)
	if err != nil {
		h.writeLookupError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// HandleConfirm handles POST /sessions/{id}/confirm requests.
func (h *PredictionHandler) HandleConfirm(w http.ResponseWriter, r *http.Request, id string) {
	const op = "api.confirm_gesture"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	var req confirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if strings.TrimSpace(req.Gesture) == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}

	if err := h.deps.ConfirmGesture(r.Context(), id, gesture.Gesture(req.Gesture)); err != nil {
		h.writeLookupError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ackResponse{Status: "confirmed"})
}

// HandleReject handles POST /sessions/{id}/reject requests.
func (h *PredictionHandler) HandleReject(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	if err := h.deps.RejectPrediction(r.Context(), id); err != nil {
		h.writeLookupError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ackResponse{Status: "rejected"})
}

// HandleReset handles POST /sessions/{id}/reset requests.
func (h *PredictionHandler) HandleReset(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	if err := h.deps.ResetSession(r.Context(), id); err != nil {
		h.writeLookupError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ackResponse{Status: "reset"})
}

func (h *PredictionHandler) writeLookupError(w http.ResponseWriter, err error) {
	if isNotFound(err) {
		writeError(w, http.StatusNotFound, "not_found", err)
		return
	}
	writeError(w, http.StatusInternalServerError, "internal_error", err)
}
