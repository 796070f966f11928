package session

import (
	"sync"
	"time"

	"github.com/okian/presage/internal/domain/confidence"
	"github.com/okian/presage/internal/domain/gesture"
	"github.com/okian/presage/internal/domain/touch"
	"github.com/okian/presage/internal/domain/trajectory"
)

// Fixed parameters of the timer-driven long-press emission path.
const (
	longPressTimerProbability = 0.9
	longPressDistanceMult     = 2.0
)

// Session is the owning state machine for one interactive surface. All
// mutable state (trajectory map, metrics, timer handle, last prediction,
// recency timestamp) belongs to exactly one Session; callers deliver events
// one at a time and the internal mutex enforces that even when transports
// misbehave.
type Session struct {
	mu sync.Mutex

	id            string
	tracker       *trajectory.Tracker
	classifier    *gesture.Classifier
	mode          confidence.Mode
	minConfidence confidence.Level
	enabled       bool
	horizonMS     float64
	historySize   int
	observers     []Observer

	// Long-press timer state. One cancellable deferred task per primary
	// touch; re-armed (old one cancelled first) whenever a new primary touch
	// begins, so a stale timer cannot fire against a since-replaced touch.
	longPressTimer *time.Timer
	longPressTouch int
	longPressSeq   uint64 // invalidates callbacks from cancelled arms

	gestureStart time.Time // first sample TS of the current interaction
	lastTapEnded time.Time // recency anchor for double-tap detection

	// current is the live prediction for the ongoing interaction; retained
	// holds the same value but survives the end of the gesture, so ground
	// truth arriving after the touch lifts can still be scored. Reject and
	// Reset clear both.
	current  *Prediction
	retained *Prediction

	// Metric accumulators.
	total          int64
	correct        int64
	incorrect      int64
	confidenceSum  float64
	latencySumMS   float64
	countByGesture map[gesture.Gesture]int64

	closed bool
}

// New creates a session with configuration options.
func New(id string, opts ...Option) *Session {
	s := &Session{
		id:             id,
		classifier:     gesture.NewClassifier(),
		mode:           confidence.Balanced,
		enabled:        true,
		horizonMS:      defaultPredictionHorizonMS,
		longPressTouch: -1,
		countByGesture: make(map[gesture.Gesture]int64),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.historySize > 0 {
		s.tracker = trajectory.NewTracker(trajectory.WithHistorySize(s.historySize))
	} else {
		s.tracker = trajectory.NewTracker()
	}
	return s
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Mode returns the operating mode.
func (s *Session) Mode() confidence.Mode { return s.mode }

// Handle processes one touch event. Malformed input (unknown touch id on
// end/cancel, invalid phase) is a silent no-op; this subsystem has no fatal
// error path.
func (s *Session) Handle(ev touch.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || !s.enabled {
		return
	}

	switch ev.Phase {
	case touch.PhaseStart:
		s.handleStart(ev.Sample)
	case touch.PhaseMove:
		s.handleMove(ev.Sample)
	case touch.PhaseEnd:
		s.handleEnd(ev.Sample)
	case touch.PhaseCancel:
		s.handleCancel(ev.Sample)
	}
}

func (s *Session) handleStart(sample touch.Sample) {
	wasIdle := s.tracker.Len() == 0
	s.tracker.AddSample(sample)

	if wasIdle {
		s.gestureStart = sample.TS
	}

	// The lowest-id active touch is the primary; a start that takes over as
	// primary re-arms the long-press timer.
	if s.primaryTouchID() == sample.ID {
		s.armLongPress(sample.ID)
	}

	for _, o := range s.observers {
		o.OnGestureStarted(s.id, sample.ID)
	}

	s.classifyAndEmit(sample)
}

func (s *Session) handleMove(sample touch.Sample) {
	s.tracker.AddSample(sample)
	s.classifyAndEmit(sample)
}

func (s *Session) handleEnd(sample touch.Sample) {
	if _, ok := s.tracker.Get(sample.ID); !ok {
		return
	}
	if s.longPressTouch == sample.ID {
		s.cancelLongPress()
	}

	s.tracker.AddSample(sample)
	final := s.classifier.Classify(s.tracker.Active(), s.lastTapEnded)

	trackedCorrectly := s.current != nil && s.current.Gesture == final.Gesture
	if final.Gesture != gesture.None {
		if final.Gesture == gesture.Tap {
			s.lastTapEnded = sample.TS
		}
		s.countByGesture[final.Gesture]++
		for _, o := range s.observers {
			o.OnGestureEnded(s.id, final.Gesture, trackedCorrectly)
		}
	}

	s.tracker.Remove(sample.ID)
	if s.tracker.Len() == 0 {
		s.current = nil
		s.gestureStart = time.Time{}
	}
}

// handleCancel is identical cleanup to handleEnd but records no final
// classification and touches no metrics.
func (s *Session) handleCancel(sample touch.Sample) {
	if _, ok := s.tracker.Get(sample.ID); !ok {
		return
	}
	if s.longPressTouch == sample.ID {
		s.cancelLongPress()
	}
	s.tracker.Remove(sample.ID)
	if s.tracker.Len() == 0 {
		s.current = nil
		s.gestureStart = time.Time{}
	}
}

// classifyAndEmit runs the per-sample classification path and fires the
// event taxonomy in order. Called with the mutex held.
func (s *Session) classifyAndEmit(sample touch.Sample) {
	result := s.classifier.Classify(s.tracker.Active(), s.lastTapEnded)

	// Below the mode's surface threshold the candidate is demoted to an
	// internal alternate and the emitted prediction reads as "no gesture".
	if result.Gesture != gesture.None && !confidence.Surfaceable(result.Probability, s.mode) {
		result = gesture.Result{
			Gesture: gesture.None,
			Alternates: append([]gesture.Alternate{
				{Gesture: result.Gesture, Probability: result.Probability},
			}, result.Alternates...),
		}
	}

	p := s.buildPrediction(result, sample)
	s.emit(p, sample.TS)
}

func (s *Session) buildPrediction(result gesture.Result, sample touch.Sample) Prediction {
	p := Prediction{
		Gesture:     result.Gesture,
		Confidence:  confidence.ToLevel(result.Probability),
		Probability: result.Probability,
		Alternates:  result.Alternates,
	}
	if result.Gesture != gesture.None {
		p.ShouldAct = confidence.ShouldAct(result.Probability, s.mode) &&
			confidence.MeetsFloor(result.Probability, s.minConfidence)
	}
	if t, ok := s.tracker.Get(sample.ID); ok {
		p.PredictedEndPoint = trajectory.PredictEndPoint(t, s.horizonMS)
		p.PredictedDurationMS = s.estimateDuration(result.Gesture, t)
	}
	return p
}

// estimateDuration predicts the total gesture duration from the label:
// tap-family gestures complete within the tap window, long-press at its
// minimum dwell, and moving gestures run for the current duration plus the
// prediction horizon.
func (s *Session) estimateDuration(g gesture.Gesture, t *trajectory.Trajectory) float64 {
	th := s.classifier.Thresholds()
	switch g {
	case gesture.Tap, gesture.DoubleTap:
		return th.TapMaxDurationMS
	case gesture.LongPress:
		return th.LongPressMinDurationMS
	default:
		return t.DurationMS + s.horizonMS
	}
}

// emit records the prediction and fires observers: prediction always,
// confidence-change when the level moved, action-trigger when acting.
// Called with the mutex held.
func (s *Session) emit(p Prediction, sampleTS time.Time) {
	prevLevel := confidence.NoneL
	if s.current != nil {
		prevLevel = s.current.Confidence
	}

	s.current = &p
	s.retained = &p
	s.total++
	s.confidenceSum += p.Probability
	if !s.gestureStart.IsZero() && sampleTS.After(s.gestureStart) {
		s.latencySumMS += float64(sampleTS.Sub(s.gestureStart).Microseconds()) / 1e3
	}

	for _, o := range s.observers {
		o.OnPrediction(s.id, p)
	}
	if p.Confidence != prevLevel {
		for _, o := range s.observers {
			o.OnConfidenceChanged(s.id, p.Confidence)
		}
	}
	if p.ShouldAct {
		for _, o := range s.observers {
			o.OnActionTriggered(s.id, p.Gesture)
		}
	}
}

// primaryTouchID returns the lowest active touch id, or -1 when idle.
func (s *Session) primaryTouchID() int {
	active := s.tracker.Active()
	if len(active) == 0 {
		return -1
	}
	return active[0].ID
}

// armLongPress schedules the long-press timer for the given touch,
// cancelling any previous arm first. Called with the mutex held.
func (s *Session) armLongPress(touchID int) {
	s.cancelLongPress()
	s.longPressTouch = touchID
	s.longPressSeq++
	seq := s.longPressSeq

	delay := time.Duration(s.classifier.Thresholds().LongPressMinDurationMS * float64(time.Millisecond))
	s.longPressTimer = time.AfterFunc(delay, func() {
		s.fireLongPress(touchID, seq)
	})
}

// cancelLongPress stops the pending timer, if any. Called with the mutex held.
func (s *Session) cancelLongPress() {
	if s.longPressTimer != nil {
		s.longPressTimer.Stop()
		s.longPressTimer = nil
	}
	s.longPressTouch = -1
	s.longPressSeq++
}

// fireLongPress is the timer callback. It synthesizes a long-press
// prediction at fixed high confidence when the touch is still down and has
// not wandered past the long-press distance gate. This path is independent
// of the per-sample classification path and is not arbitrated against it:
// the most recent emission wins, whichever path produced it.
func (s *Session) fireLongPress(touchID int, seq uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || seq != s.longPressSeq || s.longPressTouch != touchID {
		return
	}
	t, ok := s.tracker.Get(touchID)
	if !ok {
		return
	}
	th := s.classifier.Thresholds()
	if t.Distance >= longPressDistanceMult*th.TapMaxDistancePx {
		return
	}

	act := confidence.ShouldAct(longPressTimerProbability, s.mode) &&
		confidence.MeetsFloor(longPressTimerProbability, s.minConfidence)
	p := Prediction{
		Gesture:             gesture.LongPress,
		Confidence:          confidence.High,
		Probability:         longPressTimerProbability,
		PredictedEndPoint:   trajectory.PredictEndPoint(t, s.horizonMS),
		PredictedDurationMS: th.LongPressMinDurationMS,
		ShouldAct:           act,
	}
	last, _ := t.Last()
	s.emit(p, last.TS)
}

// LastPrediction returns the most recent prediction. It stays available
// after the gesture ends so late-arriving ground truth can still be scored;
// only RejectPrediction, Reset, and Close clear it.
func (s *Session) LastPrediction() (Prediction, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.retained == nil {
		return Prediction{}, false
	}
	return *s.retained, true
}

// ActiveTouches returns the number of currently tracked touches.
func (s *Session) ActiveTouches() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tracker.Len()
}

// ConfirmGesture scores the retained prediction against ground truth g:
// a match increments the correct counter, a mismatch the incorrect one.
// Ground truth typically arrives after the gesture has ended, so scoring
// runs against the retained value rather than the live one. Without a
// prediction to score this is a no-op.
func (s *Session) ConfirmGesture(g gesture.Gesture) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.retained == nil {
		return
	}
	if s.retained.Gesture == g {
		s.correct++
	} else {
		s.incorrect++
	}
}

// RejectPrediction always counts one incorrect prediction and clears both
// the live and the retained prediction.
func (s *Session) RejectPrediction() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.incorrect++
	s.current = nil
	s.retained = nil
}

// Reset clears trajectories, predictions, timers, and the double-tap recency
// anchor. Accumulated metrics survive; see ResetMetrics. Reset is idempotent.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelLongPress()
	s.tracker.Clear()
	s.current = nil
	s.retained = nil
	s.lastTapEnded = time.Time{}
	s.gestureStart = time.Time{}
}

// ResetMetrics clears the accumulated counters. This is the only way metrics
// are ever reset.
func (s *Session) ResetMetrics() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.total = 0
	s.correct = 0
	s.incorrect = 0
	s.confidenceSum = 0
	s.latencySumMS = 0
	s.countByGesture = make(map[gesture.Gesture]int64)
}

// Metrics returns a snapshot of the predictor counters.
func (s *Session) Metrics() Metrics {
	s.mu.Lock()
	defer s.mu.Unlock()

	m := Metrics{
		TotalPredictions:     s.total,
		CorrectPredictions:   s.correct,
		IncorrectPredictions: s.incorrect,
		CountByGesture:       make(map[gesture.Gesture]int64, len(s.countByGesture)),
	}
	for g, n := range s.countByGesture {
		m.CountByGesture[g] = n
	}
	if scored := s.correct + s.incorrect; scored > 0 {
		m.Accuracy = float64(s.correct) / float64(scored)
	}
	if s.total > 0 {
		m.AverageConfidence = s.confidenceSum / float64(s.total)
		m.AverageLatencyMS = s.latencySumMS / float64(s.total)
	}
	return m
}

// Close tears the session down: pending timer cancelled, trajectories
// discarded. Safe to call multiple times.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.cancelLongPress()
	s.tracker.Clear()
	s.current = nil
	s.retained = nil
	s.closed = true
}
