// Package gesture classifies in-progress touch trajectories into discrete
// gesture labels with raw probabilities. The decision order inside the
// classifier is load-bearing: distance-gated checks (tap, long-press) run
// before velocity-gated checks (swipe, drag) so a short fast jitter cannot
// satisfy a swipe threshold spuriously.
package gesture

// Gesture is a discrete gesture label.
type Gesture string

// Recognized gestures.
const (
	None       Gesture = "none"
	Tap        Gesture = "tap"
	DoubleTap  Gesture = "double-tap"
	LongPress  Gesture = "long-press"
	SwipeLeft  Gesture = "swipe-left"
	SwipeRight Gesture = "swipe-right"
	SwipeUp    Gesture = "swipe-up"
	SwipeDown  Gesture = "swipe-down"
	Drag       Gesture = "drag"
	PinchIn    Gesture = "pinch-in"
	PinchOut   Gesture = "pinch-out"
	RotateCW   Gesture = "rotate-cw"
	RotateCCW  Gesture = "rotate-ccw"
)

// IsSwipe reports whether g is one of the four directional swipes.
func (g Gesture) IsSwipe() bool {
	switch g {
	case SwipeLeft, SwipeRight, SwipeUp, SwipeDown:
		return true
	}
	return false
}

// Alternate is a lower-ranked candidate carried alongside the winning label.
type Alternate struct {
	Gesture     Gesture `json:"gesture"`
	Probability float64 `json:"probability"`
}

// Result is the classifier output for one trajectory set.
// A Result with Gesture == None means "no gesture yet", which consumers must
// treat as "wait", never as an error.
type Result struct {
	Gesture     Gesture     `json:"gesture"`
	Probability float64     `json:"probability"`
	Alternates  []Alternate `json:"alternates,omitempty"`
}

// NoGesture is the neutral result for unclassifiable input.
func NoGesture() Result {
	return Result{Gesture: None}
}
