// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/okian/presage/internal/domain/touch"
)

// TouchDependencies defines the interface for touch ingest.
type TouchDependencies interface {
	// HasSession reports whether a session id is live.
	HasSession(ctx context.Context, id string) bool

	// Enqueue pushes a touch event for async processing.
	// Returns false on backpressure.
	Enqueue(ctx context.Context, e touch.Event) bool
}

// TouchesHandler handles touch ingest requests.
type TouchesHandler struct {
	deps TouchDependencies
}

// NewTouchesHandler creates a new touches handler.
func NewTouchesHandler(deps TouchDependencies) *TouchesHandler {
	return &TouchesHandler{deps: deps}
}

// HandlePostTouch handles POST /sessions/{id}/touches requests.
func (h *TouchesHandler) HandlePostTouch(w http.ResponseWriter, r *http.Request, id string) {
	const op = "api.post_touch"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	var req touchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	if !h.deps.HasSession(r.Context(), id) {
		writeError(w, http.StatusNotFound, "not_found", ErrSessionNotFound)
		return
	}

	if ok := h.deps.Enqueue(r.Context(), req.event(id)); !ok {
		writeError(w, http.StatusTooManyRequests, "backpressure", NewKind(op, ErrBackpressure))
		return
	}
	writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted"})
}
