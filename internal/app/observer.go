package service

import (
	"github.com/okian/presage/internal/domain/confidence"
	"github.com/okian/presage/internal/domain/gesture"
	"github.com/okian/presage/internal/domain/session"
	"github.com/okian/presage/pkg/metrics"
)

// serviceObserver bridges session events into metrics, the latency
// monitor's interaction window, and the preload cache.
type serviceObserver struct {
	svc *Service
}

var _ session.Observer = (*serviceObserver)(nil)

// observer returns the service's internal session observer.
func (s *Service) observer() session.Observer {
	return &serviceObserver{svc: s}
}

func (o *serviceObserver) OnPrediction(sessionID string, p session.Prediction) {
	metrics.RecordPrediction(string(p.Gesture))
}

func (o *serviceObserver) OnGestureStarted(sessionID string, touchID int) {
	if o.svc.monitor != nil {
		o.svc.monitor.SetInteractionActive(true)
	}
}

func (o *serviceObserver) OnGestureEnded(sessionID string, g gesture.Gesture, trackedCorrectly bool) {
	if o.svc.monitor != nil {
		o.svc.monitor.SetInteractionActive(false)
	}
}

func (o *serviceObserver) OnConfidenceChanged(sessionID string, level confidence.Level) {}

func (o *serviceObserver) OnActionTriggered(sessionID string, g gesture.Gesture) {
	metrics.RecordActionTriggered(string(g))

	// Warm the reaction animation for the predicted gesture so the asset
	// is resident before the gesture completes.
	if o.svc.preloads != nil {
		o.svc.preloads.Put(string(g), 1.0, nil)
		metrics.UpdatePreloadedAnimations(o.svc.preloads.Len())
	}
}
