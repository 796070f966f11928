package gesture

import (
	"math"
	"time"

	"github.com/okian/presage/internal/domain/trajectory"
)

// Fixed probabilities for the non-swipe branches.
const (
	tapProbability       = 0.9
	doubleTapProbability = 0.85
	longPressProbability = 0.85
	dragProbability      = 0.7
	pinchProbability     = 0.85
	rotateProbability    = 0.8

	tapAlternateProbability   = 0.1
	dragAlternateProbability  = 0.1
	swipeAlternateProbability = 0.2

	swipeBaseProbability  = 0.8
	swipeSpeedWeight      = 0.05
	swipeMaxProbability   = 0.95
	longPressDistanceMult = 2.0
)

// Classifier turns one or two trajectories into a gesture label.
// It is stateless apart from its thresholds; recency context for double-tap
// detection is supplied per call by the owning session.
type Classifier struct {
	th Thresholds
}

// NewClassifier creates a classifier with configuration options.
func NewClassifier(opts ...Option) *Classifier {
	c := &Classifier{th: DefaultThresholds()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Thresholds returns the active threshold set.
func (c *Classifier) Thresholds() Thresholds {
	return c.th
}

// Classify maps the active trajectory set to a gesture. lastTapEnded is the
// end time of the most recent confirmed tap, zero when there is none; it
// drives double-tap detection against the newest sample's timestamp.
//
// Three or more simultaneous touches are unsupported and classify as None.
func (c *Classifier) Classify(trajs []*trajectory.Trajectory, lastTapEnded time.Time) Result {
	switch len(trajs) {
	case 0:
		return NoGesture()
	case 1:
		return c.classifySingle(trajs[0], lastTapEnded)
	case 2:
		return c.classifyPair(trajs[0], trajs[1])
	default:
		return NoGesture()
	}
}

// classifySingle evaluates the single-touch branches in fixed order:
// tap family, long-press, swipe, drag fallback.
func (c *Classifier) classifySingle(t *trajectory.Trajectory, lastTapEnded time.Time) Result {
	if t.Len() == 0 {
		return NoGesture()
	}

	// Tap family: distance-gated, evaluated first.
	if t.DurationMS < c.th.TapMaxDurationMS && t.Distance < c.th.TapMaxDistancePx {
		if c.withinDoubleTapWindow(t, lastTapEnded) {
			return Result{
				Gesture:     DoubleTap,
				Probability: doubleTapProbability,
				Alternates:  []Alternate{{Gesture: Tap, Probability: tapAlternateProbability}},
			}
		}
		return Result{
			Gesture:     Tap,
			Probability: tapProbability,
			Alternates:  []Alternate{{Gesture: DoubleTap, Probability: tapAlternateProbability}},
		}
	}

	// Long-press: long dwell with little motion.
	if t.DurationMS >= c.th.LongPressMinDurationMS && t.Distance < longPressDistanceMult*c.th.TapMaxDistancePx {
		return Result{
			Gesture:     LongPress,
			Probability: longPressProbability,
			Alternates:  []Alternate{{Gesture: Drag, Probability: dragAlternateProbability}},
		}
	}

	// Swipe: velocity-gated. Speed is px/ms to match the threshold unit.
	speed := t.Speed() / 1e3
	if speed >= c.th.SwipeMinVelocity && t.Distance >= c.th.SwipeMinDistancePx {
		p := swipeBaseProbability + speed*swipeSpeedWeight
		if p > swipeMaxProbability {
			p = swipeMaxProbability
		}
		return Result{
			Gesture:     swipeDirection(t.Direction),
			Probability: p,
			Alternates:  []Alternate{{Gesture: Drag, Probability: dragAlternateProbability}},
		}
	}

	// Drag fallback: moved past tap distance without matching anything above.
	if t.Distance > c.th.TapMaxDistancePx {
		return Result{
			Gesture:     Drag,
			Probability: dragProbability,
			Alternates:  []Alternate{{Gesture: swipeDirection(t.Direction), Probability: swipeAlternateProbability}},
		}
	}

	return NoGesture()
}

// withinDoubleTapWindow reports whether the newest sample lands inside the
// double-tap interval after the previous tap ended.
func (c *Classifier) withinDoubleTapWindow(t *trajectory.Trajectory, lastTapEnded time.Time) bool {
	if lastTapEnded.IsZero() {
		return false
	}
	last, ok := t.Last()
	if !ok {
		return false
	}
	gap := last.TS.Sub(lastTapEnded)
	return gap >= 0 && float64(gap.Microseconds())/1e3 <= c.th.DoubleTapMaxIntervalMS
}

// classifyPair evaluates the two-touch branches: pinch first, then rotation.
// A motion that is simultaneously a strong pinch and a strong rotation
// reports only the pinch; rotation is never surfaced in that case.
func (c *Classifier) classifyPair(a, b *trajectory.Trajectory) Result {
	aFirst, okA := a.First()
	bFirst, okB := b.First()
	if !okA || !okB {
		return NoGesture()
	}
	aLast, _ := a.Last()
	bLast, _ := b.Last()

	initial := math.Hypot(bFirst.X-aFirst.X, bFirst.Y-aFirst.Y)
	current := math.Hypot(bLast.X-aLast.X, bLast.Y-aLast.Y)
	if initial > 0 {
		scale := current / initial
		if math.Abs(scale-1) > c.th.PinchMinScale {
			g := PinchOut
			if scale < 1 {
				g = PinchIn
			}
			return Result{Gesture: g, Probability: pinchProbability}
		}
	}

	// Rotation: signed bearing delta between initial and final finger axis.
	initialBearing := math.Atan2(bFirst.Y-aFirst.Y, bFirst.X-aFirst.X)
	finalBearing := math.Atan2(bLast.Y-aLast.Y, bLast.X-aLast.X)
	deltaDeg := normalizeAngle(finalBearing-initialBearing) * 180 / math.Pi
	if math.Abs(deltaDeg) > c.th.RotateMinAngleDeg {
		g := RotateCCW
		if deltaDeg > 0 {
			// Screen coordinates grow downward, so a positive bearing delta
			// is a clockwise turn on screen.
			g = RotateCW
		}
		return Result{Gesture: g, Probability: rotateProbability}
	}

	return NoGesture()
}

// swipeDirection buckets a direction angle (radians) into the four swipes:
// |angle| < pi/4 right, |angle| > 3pi/4 left, otherwise down for positive
// angles and up for negative ones.
func swipeDirection(angle float64) Gesture {
	abs := math.Abs(angle)
	switch {
	case abs < math.Pi/4:
		return SwipeRight
	case abs > 3*math.Pi/4:
		return SwipeLeft
	case angle > 0:
		return SwipeDown
	default:
		return SwipeUp
	}
}

// normalizeAngle wraps an angle into (-pi, pi].
func normalizeAngle(a float64) float64 {
	for a > math.Pi {
		a -= 2 * math.Pi
	}
	for a <= -math.Pi {
		a += 2 * math.Pi
	}
	return a
}
