package session

import (
	"github.com/okian/presage/internal/domain/confidence"
	"github.com/okian/presage/internal/domain/gesture"
)

// Default session configuration constants.
const (
	defaultPredictionHorizonMS = 100.0
)

// Option applies a configuration option to the Session.
type Option func(*Session)

// WithMode sets the operating mode for act/surface thresholds.
// Invalid modes keep the default (balanced).
func WithMode(m confidence.Mode) Option {
	return func(s *Session) {
		if m.Valid() {
			s.mode = m
		}
	}
}

// WithThresholds replaces the classifier thresholds.
func WithThresholds(t gesture.Thresholds) Option {
	return func(s *Session) {
		s.classifier = gesture.NewClassifier(gesture.WithThresholds(t))
	}
}

// WithMinConfidenceToAct adds a qualitative floor on top of the mode's act
// threshold: predictions whose confidence level falls below it never set
// ShouldAct. The default (none) gates nothing.
func WithMinConfidenceToAct(l confidence.Level) Option {
	return func(s *Session) {
		s.minConfidence = l
	}
}

// WithHistorySize bounds the per-touch sample history.
func WithHistorySize(n int) Option {
	return func(s *Session) {
		if n > 0 {
			s.historySize = n
		}
	}
}

// WithPredictionHorizon sets the end-point extrapolation horizon in ms.
func WithPredictionHorizon(ms float64) Option {
	return func(s *Session) {
		if ms > 0 {
			s.horizonMS = ms
		}
	}
}

// WithEnabled toggles the kill switch. A disabled session ignores all touch
// events but still answers reads.
func WithEnabled(enabled bool) Option {
	return func(s *Session) {
		s.enabled = enabled
	}
}

// WithObserver registers an observer for the discrete event taxonomy.
// Observers fire synchronously in registration order.
func WithObserver(o Observer) Option {
	return func(s *Session) {
		if o != nil {
			s.observers = append(s.observers, o)
		}
	}
}
