// Package touch contains the touch input model passed between layers.
package touch

import "time"

// Phase identifies the lifecycle stage of a touch event.
type Phase string

// Touch event phases as delivered by the host input source.
const (
	PhaseStart  Phase = "start"
	PhaseMove   Phase = "move"
	PhaseEnd    Phase = "end"
	PhaseCancel Phase = "cancel"
)

// Valid reports whether p is one of the recognized phases.
func (p Phase) Valid() bool {
	switch p {
	case PhaseStart, PhaseMove, PhaseEnd, PhaseCancel:
		return true
	}
	return false
}

// Sample is a single normalized touch reading for one finger.
// Samples are immutable once recorded.
type Sample struct {
	ID       int       // touch identifier assigned by the host
	X        float64   // horizontal position in px
	Y        float64   // vertical position in px
	TS       time.Time // host timestamp of the reading
	Pressure float64   // optional force reading, 0 when unavailable
}

// Event carries one touch sample through the ingest pipeline.
type Event struct {
	SessionID string // owning prediction session
	Phase     Phase
	Sample    Sample
}

// Point is a 2D position used by predictions and kinematics.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}
