// Package session owns the per-surface prediction lifecycle: touch
// start/move/end/cancel handling, the long-press timer, double-tap recency,
// per-sample emission, and accuracy metrics.
package session

import (
	"github.com/okian/presage/internal/domain/confidence"
	"github.com/okian/presage/internal/domain/gesture"
	"github.com/okian/presage/internal/domain/touch"
)

// Prediction is the confidence-scored output produced on every sample.
// It is not persisted beyond the latest value; the most recent one is kept
// for later confirm/reject scoring.
type Prediction struct {
	Gesture             gesture.Gesture     `json:"gesture"`
	Confidence          confidence.Level    `json:"confidence"`
	Probability         float64             `json:"probability"`
	PredictedEndPoint   *touch.Point        `json:"predicted_end_point,omitempty"`
	PredictedDurationMS float64             `json:"predicted_duration_ms"`
	Alternates          []gesture.Alternate `json:"alternates,omitempty"`
	ShouldAct           bool                `json:"should_act"`
}

// Metrics are per-session predictor counters. They are mutated only by the
// owning session and survive Reset; only ResetMetrics clears them.
type Metrics struct {
	TotalPredictions     int64                     `json:"total_predictions"`
	CorrectPredictions   int64                     `json:"correct_predictions"`
	IncorrectPredictions int64                     `json:"incorrect_predictions"`
	Accuracy             float64                   `json:"accuracy"`
	AverageConfidence    float64                   `json:"average_confidence"`
	AverageLatencyMS     float64                   `json:"average_latency_ms"`
	CountByGesture       map[gesture.Gesture]int64 `json:"count_by_gesture"`
}

// Observer receives the discrete event taxonomy in per-sample firing order:
// prediction first, then confidence-change when the level moved, then
// action-trigger when the act threshold cleared.
type Observer interface {
	OnPrediction(sessionID string, p Prediction)
	OnGestureStarted(sessionID string, touchID int)
	OnGestureEnded(sessionID string, g gesture.Gesture, trackedCorrectly bool)
	OnConfidenceChanged(sessionID string, level confidence.Level)
	OnActionTriggered(sessionID string, g gesture.Gesture)
}
