// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/okian/presage/internal/domain/touch"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	SessionDependencies
	TouchDependencies
	PredictionDependencies
	LatencyDependencies
	QualityDependencies
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler     *HealthHandler
	statsHandler      *StatsHandler
	sessionsHandler   *SessionsHandler
	touchesHandler    *TouchesHandler
	predictionHandler *PredictionHandler
	framesHandler     *FramesHandler
	qualityHandler    *QualityHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:     NewHealthHandler(),
		statsHandler:      NewStatsHandler(statsProvider),
		sessionsHandler:   NewSessionsHandler(deps),
		touchesHandler:    NewTouchesHandler(deps),
		predictionHandler: NewPredictionHandler(deps),
		framesHandler:     NewFramesHandler(deps),
		qualityHandler:    NewQualityHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	// Specific paths first (most specific to least specific)
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/metrics", s.healthHandler.HandleMetrics)
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/sessions", MetricsMiddleware(s.sessionsHandler.HandleCreateSession, "sessions"))
	mux.HandleFunc("/sessions/", SessionMetricsMiddleware(s.handleSessionSubroutes))
	mux.HandleFunc("/frames", MetricsMiddleware(s.framesHandler.HandlePostFrame, "frames"))
	mux.HandleFunc("/latency", MetricsMiddleware(s.framesHandler.HandleGetLatency, "latency"))
	mux.HandleFunc("/quality", MetricsMiddleware(s.qualityHandler.HandleQuality, "quality"))
	mux.HandleFunc("/quality/environment", MetricsMiddleware(s.qualityHandler.HandleEnvironment, "quality_environment"))
	mux.HandleFunc("/quality/underrun", MetricsMiddleware(s.qualityHandler.HandleUnderrun, "quality_underrun"))
}

// handleSessionSubroutes dispatches /sessions/{id} and /sessions/{id}/<op>.
func (s *Server) handleSessionSubroutes(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/sessions/")
	id, op, _ := strings.Cut(rest, "/")
	if id == "" || strings.Contains(op, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}

	switch op {
	case "":
		s.sessionsHandler.HandleDeleteSession(w, r, id)
	case "touches":
		s.touchesHandler.HandlePostTouch(w, r, id)
	case "prediction":
		s.predictionHandler.HandleGetPrediction(w, r, id)
	case "metrics":
		s.predictionHandler.HandleGetMetrics(w, r, id)
	case "confirm":
		s.predictionHandler.HandleConfirm(w, r, id)
	case "reject":
		s.predictionHandler.HandleReject(w, r, id)
	case "reset":
		s.predictionHandler.HandleReset(w, r, id)
	default:
		http.NotFound(w, r)
	}
}

// touchRequest mirrors the wire schema for POST /sessions/{id}/touches.
type touchRequest struct {
	TouchID  int     `json:"touch_id"`
	Phase    string  `json:"phase"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	TS       string  `json:"ts"`
	Pressure float64 `json:"pressure"`
}

func (t touchRequest) validate() error {
	if !touch.Phase(t.Phase).Valid() {
		return errors.New("invalid phase; must be start, move, end, or cancel")
	}
	if t.TouchID < 0 {
		return errors.New("touch_id must not be negative")
	}
	if strings.TrimSpace(t.TS) == "" {
		return errors.New("missing ts")
	}
	if _, err := time.Parse(time.RFC3339Nano, t.TS); err != nil {
		return errors.New("invalid ts; must be RFC3339")
	}
	return nil
}

func (t touchRequest) event(sessionID string) touch.Event {
	ts, _ := time.Parse(time.RFC3339Nano, t.TS)
	return touch.Event{
		SessionID: sessionID,
		Phase:     touch.Phase(t.Phase),
		Sample: touch.Sample{
			ID:       t.TouchID,
			X:        t.X,
			Y:        t.Y,
			TS:       ts,
			Pressure: t.Pressure,
		},
	}
}

type createSessionResponse struct {
	SessionID string `json:"session_id"`
}

type ackResponse struct {
	Status string `json:"status"`
}

type confirmRequest struct {
	Gesture string `json:"gesture"`
}

type frameRequest struct {
	TS string `json:"ts"`
}

type qualityPutRequest struct {
	Forced string `json:"forced"`
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

// isNotFound allows the API to translate upstream not-found errors to 404.
// This stays generic to avoid tight coupling with specific packages.
func isNotFound(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(strings.ToLower(err.Error()), "not found")
}
