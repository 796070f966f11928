// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/okian/presage/internal/domain/latency"
)

// LatencyDependencies defines the interface for frame timing operations.
type LatencyDependencies interface {
	// RecordFrame feeds one frame timestamp into the latency monitor.
	RecordFrame(ctx context.Context, ts time.Time)

	// LatencySnapshot returns the monitor's current read state.
	LatencySnapshot(ctx context.Context) latency.Stats
}

// FramesHandler handles frame ticks and latency reads.
type FramesHandler struct {
	deps LatencyDependencies
}

// NewFramesHandler creates a new frames handler.
func NewFramesHandler(deps LatencyDependencies) *FramesHandler {
	return &FramesHandler{deps: deps}
}

// HandlePostFrame handles POST /frames requests. An absent or empty ts
// stamps the frame at arrival time.
func (h *FramesHandler) HandlePostFrame(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_frame"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	var req frameRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
			return
		}
	}

	ts := time.Now()
	if strings.TrimSpace(req.TS) != "" {
		parsed, err := time.Parse(time.RFC3339Nano, req.TS)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
			return
		}
		ts = parsed
	}

	h.deps.RecordFrame(r.Context(), ts)
	writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted"})
}

// HandleGetLatency handles GET /latency requests.
func (h *FramesHandler) HandleGetLatency(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, h.deps.LatencySnapshot(r.Context()))
}
