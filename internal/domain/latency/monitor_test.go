package latency_test

import (
	"testing"
	"time"

	"github.com/okian/presage/internal/domain/latency"
	. "github.com/smartystreets/goconvey/convey"
)

// feedFrames records n frames at a fixed delta starting from base.
func feedFrames(m *latency.Monitor, base time.Time, n int, delta time.Duration) time.Time {
	ts := base
	for i := 0; i < n; i++ {
		m.RecordFrame(ts)
		ts = ts.Add(delta)
	}
	return ts
}

func TestMonitor_RecordFrame(t *testing.T) {
	Convey("Given a fresh monitor", t, func() {
		m := latency.NewMonitor()
		base := time.Now()

		Convey("When no frames have been recorded", func() {
			snap := m.Snapshot()

			Convey("Then the snapshot is empty and normal", func() {
				So(snap.Ticks, ShouldEqual, 0)
				So(snap.Mode, ShouldEqual, latency.ModeNormal)
				So(snap.OptimizationLevel, ShouldEqual, latency.OptimizeNone)
			})
		})

		Convey("When the first frame arrives", func() {
			m.RecordFrame(base)
			snap := m.Snapshot()

			Convey("Then it only primes the clock", func() {
				So(snap.Ticks, ShouldEqual, 0)
				So(snap.AverageMS, ShouldEqual, 0)
			})
		})

		Convey("When frames arrive at a steady 16ms", func() {
			feedFrames(m, base, 21, 16*time.Millisecond)
			snap := m.Snapshot()

			Convey("Then ticks and averages reflect the deltas", func() {
				So(snap.Ticks, ShouldEqual, 20)
				So(snap.AverageMS, ShouldAlmostEqual, 16, 0.01)
				So(snap.CurrentMS, ShouldAlmostEqual, 16, 0.01)
				So(snap.DroppedFrames, ShouldEqual, 0)
			})

			Convey("And the p95 is defined once enough samples exist", func() {
				So(snap.P95MS, ShouldAlmostEqual, 16, 0.01)
			})
		})

		Convey("When a timestamp goes backwards", func() {
			m.RecordFrame(base)
			m.RecordFrame(base.Add(16 * time.Millisecond))
			m.RecordFrame(base) // regression
			snap := m.Snapshot()

			Convey("Then the regression is not recorded as a delta", func() {
				So(snap.Ticks, ShouldEqual, 1)
			})
		})

		Convey("When a frame takes more than twice the target", func() {
			m.RecordFrame(base)
			m.RecordFrame(base.Add(50 * time.Millisecond))
			snap := m.Snapshot()

			Convey("Then it counts as a dropped frame", func() {
				So(snap.DroppedFrames, ShouldEqual, 1)
			})
		})
	})
}

func TestMonitor_ModeDerivation(t *testing.T) {
	Convey("Given a monitor at the 60fps default target", t, func() {
		base := time.Now()

		Convey("When frames run well under half the budget", func() {
			m := latency.NewMonitor()
			feedFrames(m, base, 40, 5*time.Millisecond)

			Convey("Then the mode stays normal with no optimization", func() {
				snap := m.Snapshot()
				So(snap.Mode, ShouldEqual, latency.ModeNormal)
				So(snap.OptimizationLevel, ShouldEqual, latency.OptimizeNone)
			})
		})

		Convey("When frames sit just over half the budget", func() {
			m := latency.NewMonitor()
			// ~10ms against a 16.7ms target is a 0.6 ratio.
			feedFrames(m, base, 40, 10*time.Millisecond)

			Convey("Then the mode drops to low", func() {
				So(m.Mode(), ShouldEqual, latency.ModeLow)
			})
		})

		Convey("When frames run near the full budget", func() {
			m := latency.NewMonitor()
			// ~15ms is a 0.9 ratio: ultra-low mode, moderate optimization.
			feedFrames(m, base, 40, 15*time.Millisecond)
			snap := m.Snapshot()

			Convey("Then the mode is ultra-low", func() {
				So(snap.Mode, ShouldEqual, latency.ModeUltraLow)
			})

			Convey("And optimization is moderate", func() {
				So(snap.OptimizationLevel, ShouldEqual, latency.OptimizeModerate)
			})
		})

		Convey("When frames blow far past the budget", func() {
			m := latency.NewMonitor()
			feedFrames(m, base, 40, 50*time.Millisecond)
			snap := m.Snapshot()

			Convey("Then the mode is instant with extreme optimization", func() {
				So(snap.Mode, ShouldEqual, latency.ModeInstant)
				So(snap.OptimizationLevel, ShouldEqual, latency.OptimizeExtreme)
			})
		})

		Convey("When the surface is interacting with headroom", func() {
			m := latency.NewMonitor()
			m.SetInteractionActive(true)
			feedFrames(m, base, 40, 5*time.Millisecond)

			Convey("Then normal mode is withheld during interaction", func() {
				So(m.Mode(), ShouldEqual, latency.ModeLow)
			})
		})
	})

	Convey("Given a monitor with a custom target", t, func() {
		m := latency.NewMonitor(latency.WithTargetLatency(33.3))
		base := time.Now()

		Convey("When frames run at 15ms against a 30fps target", func() {
			feedFrames(m, base, 40, 15*time.Millisecond)

			Convey("Then the ratio stays under half and the mode is normal", func() {
				So(m.Mode(), ShouldEqual, latency.ModeNormal)
			})
		})
	})
}

func TestMonitor_ModeChangeCallback(t *testing.T) {
	Convey("Given a monitor with a mode-change callback", t, func() {
		var changes []latency.Mode
		m := latency.NewMonitor(latency.WithModeChange(func(mode latency.Mode) {
			changes = append(changes, mode)
		}))
		base := time.Now()

		Convey("When the derived mode degrades", func() {
			feedFrames(m, base, 40, 50*time.Millisecond)

			Convey("Then the callback fires with the new mode", func() {
				So(len(changes), ShouldBeGreaterThan, 0)
				So(changes[len(changes)-1], ShouldEqual, latency.ModeInstant)
			})
		})

		Convey("When frames stay fast", func() {
			feedFrames(m, base, 40, 5*time.Millisecond)

			Convey("Then no change is reported", func() {
				So(len(changes), ShouldEqual, 0)
			})
		})
	})
}

func TestMonitor_ForceMode(t *testing.T) {
	Convey("Given a monitor", t, func() {
		var changes []latency.Mode
		m := latency.NewMonitor(latency.WithModeChange(func(mode latency.Mode) {
			changes = append(changes, mode)
		}))
		base := time.Now()

		Convey("When a mode is forced", func() {
			m.ForceMode(latency.ModeUltraLow)

			Convey("Then the mode is pinned and reported", func() {
				So(m.Mode(), ShouldEqual, latency.ModeUltraLow)
				So(m.Snapshot().Overridden, ShouldBeTrue)
				So(changes, ShouldResemble, []latency.Mode{latency.ModeUltraLow})
			})

			Convey("And recomputation is suspended while forced", func() {
				feedFrames(m, base, 40, 5*time.Millisecond)
				So(m.Mode(), ShouldEqual, latency.ModeUltraLow)
			})

			Convey("And clearing the override resumes derivation", func() {
				m.ClearForcedMode()
				feedFrames(m, base, 40, 5*time.Millisecond)
				So(m.Mode(), ShouldEqual, latency.ModeNormal)
				So(m.Snapshot().Overridden, ShouldBeFalse)
			})
		})

		Convey("When an invalid mode is forced", func() {
			m.ForceMode(latency.Mode("warp"))

			Convey("Then it is ignored", func() {
				So(m.Mode(), ShouldEqual, latency.ModeNormal)
				So(m.Snapshot().Overridden, ShouldBeFalse)
			})
		})
	})
}

func TestBudgetFor(t *testing.T) {
	Convey("Given the fixed allocation fractions", t, func() {
		Convey("When allocating a 16.7ms frame", func() {
			b := latency.BudgetFor(16.7)

			Convey("Then the shares split 15/35/40 with 10% remaining", func() {
				So(b.TotalMS, ShouldAlmostEqual, 16.7, 1e-9)
				So(b.InputProcessingMS, ShouldAlmostEqual, 16.7*0.15, 1e-9)
				So(b.AnimationUpdateMS, ShouldAlmostEqual, 16.7*0.35, 1e-9)
				So(b.RenderMS, ShouldAlmostEqual, 16.7*0.40, 1e-9)
				So(b.RemainingMS, ShouldAlmostEqual, 16.7*0.10, 1e-6)
			})
		})
	})
}

func TestMode_Valid(t *testing.T) {
	Convey("Given the latency modes", t, func() {
		Convey("Then only the four recognized modes are valid", func() {
			So(latency.ModeNormal.Valid(), ShouldBeTrue)
			So(latency.ModeLow.Valid(), ShouldBeTrue)
			So(latency.ModeUltraLow.Valid(), ShouldBeTrue)
			So(latency.ModeInstant.Valid(), ShouldBeTrue)
			So(latency.Mode("warp").Valid(), ShouldBeFalse)
		})
	})
}
