// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"
)

// SessionDependencies defines the interface for session lifecycle operations.
type SessionDependencies interface {
	// CreateSession registers a new session and returns its id.
	CreateSession(ctx context.Context) (string, error)

	// DeleteSession tears down a session. Unknown ids are not an error.
	DeleteSession(ctx context.Context, id string) error
}

// SessionsHandler handles session lifecycle requests.
type SessionsHandler struct {
	deps SessionDependencies
}

// NewSessionsHandler creates a new sessions handler.
func NewSessionsHandler(deps SessionDependencies) *SessionsHandler {
	return &SessionsHandler{deps: deps}
}

// HandleCreateSession handles POST /sessions requests.
func (h *SessionsHandler) HandleCreateSession(w http.ResponseWriter, r *http.Request) {
	const op = "api.create_session"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	id, err := h.deps.CreateSession(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", WrapKind(op, ErrInternal, err))
		return
	}
	writeJSON(w, http.StatusCreated, createSessionResponse{SessionID: id})
}

// HandleDeleteSession handles DELETE /sessions/{id} requests.
// Deletion is idempotent: deleting an unknown session still returns 204.
func (h *SessionsHandler) HandleDeleteSession(w http.ResponseWriter, r *http.Request, id string) {
	const op = "api.delete_session"
	if r.Method != http.MethodDelete {
		http.NotFound(w, r)
		return
	}

	if err := h.deps.DeleteSession(r.Context(), id); err != nil && !isNotFound(err) {
		writeError(w, http.StatusInternalServerError, "internal_error", WrapKind(op, ErrInternal, err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
