package ws

import (
	"github.com/okian/presage/internal/domain/confidence"
	"github.com/okian/presage/internal/domain/gesture"
	"github.com/okian/presage/internal/domain/latency"
	"github.com/okian/presage/internal/domain/quality"
	"github.com/okian/presage/internal/domain/session"
)

// Event type names on the wire.
const (
	EventPrediction        = "prediction"
	EventGestureStarted    = "gesture_started"
	EventGestureEnded      = "gesture_ended"
	EventConfidenceChanged = "confidence_changed"
	EventActionTriggered   = "action_triggered"
	EventQualityProfile    = "quality_profile"
	EventLatencyMode       = "latency_mode"
)

// envelope is the JSON frame every event is wrapped in.
type envelope struct {
	Type      string `json:"type"`
	SessionID string `json:"session_id,omitempty"`
	Data      any    `json:"data,omitempty"`
}

type gestureStartedData struct {
	TouchID int `json:"touch_id"`
}

type gestureEndedData struct {
	Gesture          gesture.Gesture `json:"gesture"`
	TrackedCorrectly bool            `json:"tracked_correctly"`
}

type confidenceChangedData struct {
	Level confidence.Level `json:"level"`
}

type actionTriggeredData struct {
	Gesture gesture.Gesture `json:"gesture"`
}

type latencyModeData struct {
	Mode latency.Mode `json:"mode"`
}

var _ session.Observer = (*Hub)(nil)

// OnPrediction broadcasts a prediction event.
func (h *Hub) OnPrediction(sessionID string, p session.Prediction) {
	_ = h.BroadcastJSON(envelope{Type: EventPrediction, SessionID: sessionID, Data: p})
}

// OnGestureStarted broadcasts a gesture-start event.
func (h *Hub) OnGestureStarted(sessionID string, touchID int) {
	_ = h.BroadcastJSON(envelope{Type: EventGestureStarted, SessionID: sessionID, Data: gestureStartedData{TouchID: touchID}})
}

// OnGestureEnded broadcasts a gesture-end event.
func (h *Hub) OnGestureEnded(sessionID string, g gesture.Gesture, trackedCorrectly bool) {
	_ = h.BroadcastJSON(envelope{
		Type:      EventGestureEnded,
		SessionID: sessionID,
		Data:      gestureEndedData{Gesture: g, TrackedCorrectly: trackedCorrectly},
	})
}

// OnConfidenceChanged broadcasts a confidence-level transition.
func (h *Hub) OnConfidenceChanged(sessionID string, level confidence.Level) {
	_ = h.BroadcastJSON(envelope{Type: EventConfidenceChanged, SessionID: sessionID, Data: confidenceChangedData{Level: level}})
}

// OnActionTriggered broadcasts an act-threshold crossing.
func (h *Hub) OnActionTriggered(sessionID string, g gesture.Gesture) {
	_ = h.BroadcastJSON(envelope{Type: EventActionTriggered, SessionID: sessionID, Data: actionTriggeredData{Gesture: g}})
}

// BroadcastQualityProfile broadcasts a derived quality profile change.
func (h *Hub) BroadcastQualityProfile(p quality.Profile) {
	_ = h.BroadcastJSON(envelope{Type: EventQualityProfile, Data: p})
}

// BroadcastLatencyMode broadcasts a latency mode transition.
func (h *Hub) BroadcastLatencyMode(m latency.Mode) {
	_ = h.BroadcastJSON(envelope{Type: EventLatencyMode, Data: latencyModeData{Mode: m}})
}
