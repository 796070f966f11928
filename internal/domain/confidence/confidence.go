// Package confidence maps raw classifier probabilities to qualitative
// confidence levels and act/no-act decisions, parameterized by an operating
// mode.
package confidence

// Level is a coarse qualitative bucket derived from a continuous probability.
type Level string

// Confidence levels, highest first.
const (
	High   Level = "high"
	Medium Level = "medium"
	Low    Level = "low"
	NoneL  Level = "none"
)

// Mode shifts the act/surface thresholds without changing the algorithm.
type Mode string

// Operating modes for action-taking.
const (
	Conservative Mode = "conservative"
	Balanced     Mode = "balanced"
	Aggressive   Mode = "aggressive"
)

// Valid reports whether m is a recognized mode.
func (m Mode) Valid() bool {
	switch m {
	case Conservative, Balanced, Aggressive:
		return true
	}
	return false
}

// Level bucket boundaries.
const (
	highFloor   = 0.8
	mediumFloor = 0.6
	lowFloor    = 0.3
)

// Per-mode thresholds. actThreshold gates shouldAct; surfaceThreshold is the
// minimum probability at which a prediction is surfaced at all (below it the
// label only survives as an internal alternate).
var modeThresholds = map[Mode]struct {
	act     float64
	surface float64
}{
	Conservative: {act: 0.9, surface: 0.8},
	Balanced:     {act: 0.75, surface: 0.6},
	Aggressive:   {act: 0.6, surface: 0.4},
}

// rank orders levels for floor comparisons; unrecognized values rank as none.
func (l Level) rank() int {
	switch l {
	case High:
		return 3
	case Medium:
		return 2
	case Low:
		return 1
	default:
		return 0
	}
}

// MeetsFloor reports whether the probability's derived level reaches floor.
// A floor of NoneL (or an unrecognized value) gates nothing.
func MeetsFloor(probability float64, floor Level) bool {
	return ToLevel(probability).rank() >= floor.rank()
}

// ToLevel buckets a probability into a confidence level.
func ToLevel(probability float64) Level {
	switch {
	case probability >= highFloor:
		return High
	case probability >= mediumFloor:
		return Medium
	case probability >= lowFloor:
		return Low
	default:
		return NoneL
	}
}

// ShouldAct reports whether a prediction at the given probability clears the
// mode's action threshold. Unknown modes behave as Balanced.
func ShouldAct(probability float64, mode Mode) bool {
	return probability >= thresholdsFor(mode).act
}

// Surfaceable reports whether the probability is high enough to surface as a
// usable prediction in the given mode.
func Surfaceable(probability float64, mode Mode) bool {
	return probability >= thresholdsFor(mode).surface
}

func thresholdsFor(mode Mode) struct {
	act     float64
	surface float64
} {
	if t, ok := modeThresholds[mode]; ok {
		return t
	}
	return modeThresholds[Balanced]
}
