package trajectory

// Option applies a configuration option to the Tracker.
type Option func(*Tracker)

// WithHistorySize bounds the number of samples retained per trajectory.
// Values below 1 keep the default.
func WithHistorySize(n int) Option {
	return func(t *Tracker) {
		if n > 0 {
			t.historySize = n
		}
	}
}
