package latency

import (
	"sort"
	"sync"
	"time"
)

// Monitor configuration constants.
const (
	defaultTargetMS  = 1000.0 / 60.0 // 60 fps target
	ringCapacity     = 60            // recent frame deltas retained
	minP95Samples    = 10            // p95 undefined below this
	recomputeEvery   = 30            // ticks between mode recomputations
	droppedThreshold = 2.0           // delta > 2x target counts as dropped

	// average/target ratio boundaries for optimization levels.
	optModerateRatio   = 0.8
	optAggressiveRatio = 1.0
	optExtremeRatio    = 1.5

	// average/target ratio boundaries for latency modes.
	modeNormalRatio   = 0.5
	modeLowRatio      = 0.8
	modeUltraLowRatio = 1.2
)

// Monitor keeps a ring buffer of recent frame deltas and derives the
// optimization level and latency mode every 30 ticks. A manual override
// bypasses recomputation entirely until cleared.
type Monitor struct {
	mu sync.Mutex

	targetMS     float64
	onModeChange func(Mode)

	deltas [ringCapacity]float64
	idx    int
	count  int

	lastTick time.Time
	ticks    int64
	dropped  int64

	interactionActive bool
	level             OptimizationLevel
	mode              Mode
	override          *Mode
}

// Option applies a configuration option to the Monitor.
type Option func(*Monitor)

// WithTargetLatency sets the target frame time in ms. Values <= 0 keep the
// 60 fps default.
func WithTargetLatency(ms float64) Option {
	return func(m *Monitor) {
		if ms > 0 {
			m.targetMS = ms
		}
	}
}

// WithModeChange registers a callback fired (with the monitor unlocked)
// whenever the derived or overridden mode changes.
func WithModeChange(fn func(Mode)) Option {
	return func(m *Monitor) {
		m.onModeChange = fn
	}
}

// NewMonitor creates a monitor with configuration options.
func NewMonitor(opts ...Option) *Monitor {
	m := &Monitor{
		targetMS: defaultTargetMS,
		level:    OptimizeNone,
		mode:     ModeNormal,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// RecordFrame ingests one rendering tick at the given timestamp. The first
// call primes the clock; each subsequent call records the delta to the
// previous tick.
func (m *Monitor) RecordFrame(ts time.Time) {
	m.mu.Lock()

	if m.lastTick.IsZero() || !ts.After(m.lastTick) {
		m.lastTick = ts
		m.mu.Unlock()
		return
	}
	delta := float64(ts.Sub(m.lastTick).Microseconds()) / 1e3
	m.lastTick = ts

	m.deltas[m.idx] = delta
	m.idx = (m.idx + 1) % ringCapacity
	if m.count < ringCapacity {
		m.count++
	}
	if delta > droppedThreshold*m.targetMS {
		m.dropped++
	}

	m.ticks++
	var changed bool
	var mode Mode
	if m.ticks%recomputeEvery == 0 {
		changed, mode = m.recompute()
	}
	m.mu.Unlock()

	if changed && m.onModeChange != nil {
		m.onModeChange(mode)
	}
}

// SetInteractionActive flags whether the user is currently interacting; an
// idle surface with headroom stays in normal mode.
func (m *Monitor) SetInteractionActive(active bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.interactionActive = active
}

// ForceMode pins the latency mode, suspending recomputation.
// Invalid modes are ignored.
func (m *Monitor) ForceMode(mode Mode) {
	if !mode.Valid() {
		return
	}
	m.mu.Lock()
	changed := m.mode != mode
	m.override = &mode
	m.mode = mode
	m.mu.Unlock()

	if changed && m.onModeChange != nil {
		m.onModeChange(mode)
	}
}

// ClearForcedMode re-enables automatic mode derivation. The next recompute
// window picks the mode back up.
func (m *Monitor) ClearForcedMode() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.override = nil
}

// Mode returns the current latency mode.
func (m *Monitor) Mode() Mode {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mode
}

// Snapshot returns a read snapshot of the monitor state.
func (m *Monitor) Snapshot() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := Stats{
		DroppedFrames:     m.dropped,
		Ticks:             m.ticks,
		Mode:              m.mode,
		OptimizationLevel: m.level,
		Overridden:        m.override != nil,
		Budget:            BudgetFor(m.targetMS),
	}
	if m.count > 0 {
		latest := (m.idx - 1 + ringCapacity) % ringCapacity
		s.CurrentMS = m.deltas[latest]
		s.AverageMS = m.average()
	}
	if m.count >= minP95Samples {
		s.P95MS = m.p95()
	}
	return s
}

// recompute derives the optimization level and latency mode from the
// average/target ratio. Returns whether the mode changed and the new mode.
// Called with the mutex held.
func (m *Monitor) recompute() (bool, Mode) {
	if m.count == 0 || m.override != nil {
		return false, m.mode
	}
	ratio := m.average() / m.targetMS

	switch {
	case ratio < optModerateRatio:
		m.level = OptimizeNone
	case ratio < optAggressiveRatio:
		m.level = OptimizeModerate
	case ratio < optExtremeRatio:
		m.level = OptimizeAggressive
	default:
		m.level = OptimizeExtreme
	}

	var mode Mode
	switch {
	case ratio < modeNormalRatio && !m.interactionActive:
		mode = ModeNormal
	case ratio < modeLowRatio:
		mode = ModeLow
	case ratio < modeUltraLowRatio:
		mode = ModeUltraLow
	default:
		mode = ModeInstant
	}

	changed := mode != m.mode
	m.mode = mode
	return changed, mode
}

// average returns the mean of the retained deltas. Called with the mutex held.
func (m *Monitor) average() float64 {
	var sum float64
	for i := 0; i < m.count; i++ {
		sum += m.deltas[i]
	}
	return sum / float64(m.count)
}

// p95 returns the 95th-percentile delta. Called with the mutex held.
func (m *Monitor) p95() float64 {
	sorted := make([]float64, m.count)
	copy(sorted, m.deltas[:m.count])
	sort.Float64s(sorted)
	idx := int(float64(m.count) * 0.95)
	if idx >= m.count {
		idx = m.count - 1
	}
	return sorted[idx]
}
