package trajectory

import (
	"sort"

	"github.com/okian/presage/internal/domain/touch"
)

// Default tracker configuration constants.
const (
	defaultHistorySize = 20
)

// Tracker owns the trajectory map for one prediction session. It is not
// internally synchronized: the owning session delivers samples one at a time,
// in arrival order.
type Tracker struct {
	historySize  int
	trajectories map[int]*Trajectory
}

// NewTracker creates a tracker with configuration options.
func NewTracker(opts ...Option) *Tracker {
	t := &Tracker{
		historySize:  defaultHistorySize,
		trajectories: make(map[int]*Trajectory),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// AddSample appends a sample to the trajectory for s.ID, creating the
// trajectory if absent, and returns it with derived fields up to date.
func (tr *Tracker) AddSample(s touch.Sample) *Trajectory {
	t, ok := tr.trajectories[s.ID]
	if !ok {
		t = &Trajectory{ID: s.ID}
		tr.trajectories[s.ID] = t
	}
	t.append(s, tr.historySize)
	return t
}

// Get returns the trajectory for a touch id, if it exists.
func (tr *Tracker) Get(id int) (*Trajectory, bool) {
	t, ok := tr.trajectories[id]
	return t, ok
}

// Remove deletes the trajectory for a touch id. Unknown ids are a no-op.
func (tr *Tracker) Remove(id int) {
	delete(tr.trajectories, id)
}

// Len returns the number of active trajectories.
func (tr *Tracker) Len() int {
	return len(tr.trajectories)
}

// Active returns the active trajectories ordered by touch id, so multi-touch
// classification sees a deterministic ordering regardless of map iteration.
func (tr *Tracker) Active() []*Trajectory {
	out := make([]*Trajectory, 0, len(tr.trajectories))
	for _, t := range tr.trajectories {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Clear drops all trajectories.
func (tr *Tracker) Clear() {
	tr.trajectories = make(map[int]*Trajectory)
}

// PredictEndPoint extrapolates the trajectory position horizonMs into the
// future using constant-acceleration kinematics:
//
//	p(t) = p_last + v*t + 0.5*a*t^2, t in seconds
//
// Returns nil for an empty trajectory.
func PredictEndPoint(t *Trajectory, horizonMs float64) *touch.Point {
	last, ok := t.Last()
	if !ok {
		return nil
	}
	sec := horizonMs / 1e3
	return &touch.Point{
		X: last.X + t.Velocity.X*sec + 0.5*t.Acceleration.X*sec*sec,
		Y: last.Y + t.Velocity.Y*sec + 0.5*t.Acceleration.Y*sec*sec,
	}
}
