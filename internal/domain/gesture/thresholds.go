package gesture

// Default classification thresholds. Distances are px, durations ms,
// velocity px/ms.
const (
	defaultTapMaxDurationMS       = 200.0
	defaultTapMaxDistancePx       = 10.0
	defaultDoubleTapMaxIntervalMS = 300.0
	defaultLongPressMinDurationMS = 500.0
	defaultSwipeMinVelocity       = 0.5
	defaultSwipeMinDistancePx     = 50.0
	defaultPinchMinScale          = 0.1
	defaultRotateMinAngleDeg      = 15.0
)

// Thresholds parameterizes the classifier. Misconfigured thresholds are not
// validated: a threshold set that makes a gesture unreachable simply never
// matches, which is an accepted degraded mode.
type Thresholds struct {
	TapMaxDurationMS       float64
	TapMaxDistancePx       float64
	DoubleTapMaxIntervalMS float64
	LongPressMinDurationMS float64
	SwipeMinVelocity       float64 // px/ms
	SwipeMinDistancePx     float64
	PinchMinScale          float64 // minimum |scale-1| to call a pinch
	RotateMinAngleDeg      float64
}

// DefaultThresholds returns the stock threshold set.
func DefaultThresholds() Thresholds {
	return Thresholds{
		TapMaxDurationMS:       defaultTapMaxDurationMS,
		TapMaxDistancePx:       defaultTapMaxDistancePx,
		DoubleTapMaxIntervalMS: defaultDoubleTapMaxIntervalMS,
		LongPressMinDurationMS: defaultLongPressMinDurationMS,
		SwipeMinVelocity:       defaultSwipeMinVelocity,
		SwipeMinDistancePx:     defaultSwipeMinDistancePx,
		PinchMinScale:          defaultPinchMinScale,
		RotateMinAngleDeg:      defaultRotateMinAngleDeg,
	}
}

// Option applies a configuration option to the Classifier.
type Option func(*Classifier)

// WithThresholds replaces the whole threshold set.
func WithThresholds(t Thresholds) Option {
	return func(c *Classifier) {
		c.th = t
	}
}
