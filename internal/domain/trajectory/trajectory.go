// Package trajectory maintains per-touch motion history and derived
// kinematics used by the gesture classifier.
package trajectory

import (
	"math"

	"github.com/okian/presage/internal/domain/touch"
)

// Window sizes for derived kinematics.
const (
	velocityWindow     = 5  // samples considered for velocity
	accelerationWindow = 10 // samples considered for acceleration
)

// Vector is a 2D kinematic quantity (px/s or px/s^2).
type Vector struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Trajectory is the retained motion history for one active touch id plus
// derived fields. Derived fields are recomputed on every insert so they are
// always consistent with the current sample sequence.
type Trajectory struct {
	ID int

	// Derived kinematics, recomputed by recompute() on each append.
	Velocity     Vector  // px/s over the velocity window
	Acceleration Vector  // px/s^2 over the acceleration window
	Direction    float64 // radians, first retained sample to last
	Distance     float64 // straight-line px, first retained sample to last
	DurationMS   float64 // ms, first retained sample to last

	samples []touch.Sample
}

// Len returns the number of retained samples.
func (t *Trajectory) Len() int {
	return len(t.samples)
}

// First returns the oldest retained sample. The second return is false when
// the trajectory is empty.
func (t *Trajectory) First() (touch.Sample, bool) {
	if len(t.samples) == 0 {
		return touch.Sample{}, false
	}
	return t.samples[0], true
}

// Last returns the newest sample. The second return is false when the
// trajectory is empty.
func (t *Trajectory) Last() (touch.Sample, bool) {
	if len(t.samples) == 0 {
		return touch.Sample{}, false
	}
	return t.samples[len(t.samples)-1], true
}

// Samples returns a copy of the retained sample sequence, oldest first.
func (t *Trajectory) Samples() []touch.Sample {
	out := make([]touch.Sample, len(t.samples))
	copy(out, t.samples)
	return out
}

// Speed returns the magnitude of the current velocity in px/s.
func (t *Trajectory) Speed() float64 {
	return math.Hypot(t.Velocity.X, t.Velocity.Y)
}

// append adds a sample, truncates to the history bound, and recomputes the
// derived fields.
func (t *Trajectory) append(s touch.Sample, historySize int) {
	t.samples = append(t.samples, s)
	if historySize > 0 && len(t.samples) > historySize {
		t.samples = t.samples[len(t.samples)-historySize:]
	}
	t.recompute()
}

func (t *Trajectory) recompute() {
	t.Velocity = windowVelocity(tail(t.samples, velocityWindow))
	t.Acceleration = windowAcceleration(tail(t.samples, accelerationWindow))

	first := t.samples[0]
	last := t.samples[len(t.samples)-1]
	dx := last.X - first.X
	dy := last.Y - first.Y
	t.Direction = math.Atan2(dy, dx)
	t.Distance = math.Hypot(dx, dy)
	t.DurationMS = float64(last.TS.Sub(first.TS).Microseconds()) / 1e3
}

// tail returns the last n samples (or all of them when fewer exist).
func tail(s []touch.Sample, n int) []touch.Sample {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}

// windowVelocity computes first-to-last displacement over elapsed time in
// px/s. Fewer than two samples, or a zero time delta, yields a zero vector:
// no motion may be fabricated from zero time.
func windowVelocity(s []touch.Sample) Vector {
	if len(s) < 2 {
		return Vector{}
	}
	first, last := s[0], s[len(s)-1]
	dt := last.TS.Sub(first.TS).Seconds()
	if dt <= 0 {
		return Vector{}
	}
	return Vector{
		X: (last.X - first.X) / dt,
		Y: (last.Y - first.Y) / dt,
	}
}

// windowAcceleration splits the window in two halves, takes the velocity of
// each, and divides the velocity change by the time between the half
// endpoints. Fewer than three samples, or a zero time delta, yields a zero
// vector.
func windowAcceleration(s []touch.Sample) Vector {
	if len(s) < 3 {
		return Vector{}
	}
	mid := len(s) / 2
	firstHalf := s[:mid]
	secondHalf := s[mid:]

	v1 := windowVelocity(firstHalf)
	v2 := windowVelocity(secondHalf)

	dt := secondHalf[len(secondHalf)-1].TS.Sub(firstHalf[len(firstHalf)-1].TS).Seconds()
	if dt <= 0 {
		return Vector{}
	}
	return Vector{
		X: (v2.X - v1.X) / dt,
		Y: (v2.Y - v1.Y) / dt,
	}
}
