// Package latency samples frame-to-frame timing and derives an optimization
// level and a latency mode for the quality controller.
package latency

// Mode is the operating latency profile derived from achieved frame timing.
type Mode string

// Latency modes, least to most aggressive.
const (
	ModeNormal   Mode = "normal"
	ModeLow      Mode = "low"
	ModeUltraLow Mode = "ultra-low"
	ModeInstant  Mode = "instant"
)

// Valid reports whether m is a recognized latency mode.
func (m Mode) Valid() bool {
	switch m {
	case ModeNormal, ModeLow, ModeUltraLow, ModeInstant:
		return true
	}
	return false
}

// OptimizationLevel grades how hard downstream code should shed work.
type OptimizationLevel string

// Optimization levels, least to most aggressive.
const (
	OptimizeNone       OptimizationLevel = "none"
	OptimizeModerate   OptimizationLevel = "moderate"
	OptimizeAggressive OptimizationLevel = "aggressive"
	OptimizeExtreme    OptimizationLevel = "extreme"
)

// Budget is the static frame-time allocation table, consumed for reporting.
// The adaptive outputs are the derived mode and optimization level, not the
// budget itself.
type Budget struct {
	TotalMS           float64 `json:"total_ms"`
	InputProcessingMS float64 `json:"input_processing_ms"`
	AnimationUpdateMS float64 `json:"animation_update_ms"`
	RenderMS          float64 `json:"render_ms"`
	RemainingMS       float64 `json:"remaining_ms"`
}

// Fixed budget allocation fractions.
const (
	inputShare     = 0.15
	animationShare = 0.35
	renderShare    = 0.40
)

// BudgetFor allocates a frame budget for the given total frame time.
func BudgetFor(totalMS float64) Budget {
	input := totalMS * inputShare
	anim := totalMS * animationShare
	render := totalMS * renderShare
	return Budget{
		TotalMS:           totalMS,
		InputProcessingMS: input,
		AnimationUpdateMS: anim,
		RenderMS:          render,
		RemainingMS:       totalMS - input - anim - render,
	}
}

// Stats is a read snapshot of the monitor.
type Stats struct {
	CurrentMS         float64           `json:"current_ms"`
	AverageMS         float64           `json:"average_ms"`
	P95MS             float64           `json:"p95_ms"`
	DroppedFrames     int64             `json:"dropped_frames"`
	Ticks             int64             `json:"ticks"`
	Mode              Mode              `json:"mode"`
	OptimizationLevel OptimizationLevel `json:"optimization_level"`
	Overridden        bool              `json:"overridden"`
	Budget            Budget            `json:"budget"`
}
