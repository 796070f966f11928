package trajectory_test

import (
	"math"
	"testing"
	"time"

	"github.com/okian/presage/internal/domain/touch"
	"github.com/okian/presage/internal/domain/trajectory"
	. "github.com/smartystreets/goconvey/convey"
)

func sampleAt(id int, x, y float64, base time.Time, offsetMS int) touch.Sample {
	return touch.Sample{
		ID: id,
		X:  x,
		Y:  y,
		TS: base.Add(time.Duration(offsetMS) * time.Millisecond),
	}
}

func TestTracker_AddSample(t *testing.T) {
	Convey("Given a tracker", t, func() {
		tr := trajectory.NewTracker()
		base := time.Now()

		Convey("When adding the first sample for a touch", func() {
			traj := tr.AddSample(sampleAt(0, 100, 200, base, 0))

			Convey("Then a trajectory is created", func() {
				So(traj, ShouldNotBeNil)
				So(traj.ID, ShouldEqual, 0)
				So(traj.Len(), ShouldEqual, 1)
				So(tr.Len(), ShouldEqual, 1)
			})

			Convey("And a single sample yields zero kinematics", func() {
				So(traj.Velocity.X, ShouldEqual, 0)
				So(traj.Velocity.Y, ShouldEqual, 0)
				So(traj.Distance, ShouldEqual, 0)
			})
		})

		Convey("When adding samples for multiple touches", func() {
			tr.AddSample(sampleAt(0, 100, 100, base, 0))
			tr.AddSample(sampleAt(1, 500, 500, base, 0))

			Convey("Then trajectories are kept per touch id", func() {
				So(tr.Len(), ShouldEqual, 2)

				t0, ok := tr.Get(0)
				So(ok, ShouldBeTrue)
				So(t0.ID, ShouldEqual, 0)

				t1, ok := tr.Get(1)
				So(ok, ShouldBeTrue)
				So(t1.ID, ShouldEqual, 1)
			})

			Convey("And Active orders trajectories by touch id", func() {
				active := tr.Active()
				So(len(active), ShouldEqual, 2)
				So(active[0].ID, ShouldEqual, 0)
				So(active[1].ID, ShouldEqual, 1)
			})
		})

		Convey("When removing a trajectory", func() {
			tr.AddSample(sampleAt(0, 1, 1, base, 0))
			tr.Remove(0)

			Convey("Then it is gone", func() {
				_, ok := tr.Get(0)
				So(ok, ShouldBeFalse)
				So(tr.Len(), ShouldEqual, 0)
			})

			Convey("And removing an unknown id is a no-op", func() {
				So(func() { tr.Remove(42) }, ShouldNotPanic)
			})
		})

		Convey("When clearing the tracker", func() {
			tr.AddSample(sampleAt(0, 1, 1, base, 0))
			tr.AddSample(sampleAt(1, 2, 2, base, 0))
			tr.Clear()

			Convey("Then no trajectories remain", func() {
				So(tr.Len(), ShouldEqual, 0)
			})
		})
	})
}

func TestTracker_HistoryBound(t *testing.T) {
	Convey("Given a tracker with a small history bound", t, func() {
		tr := trajectory.NewTracker(trajectory.WithHistorySize(5))
		base := time.Now()

		Convey("When more samples than the bound arrive", func() {
			var traj *trajectory.Trajectory
			for i := 0; i < 12; i++ {
				traj = tr.AddSample(sampleAt(0, float64(i*10), 0, base, i*16))
			}

			Convey("Then only the newest samples are retained", func() {
				So(traj.Len(), ShouldEqual, 5)

				first, ok := traj.First()
				So(ok, ShouldBeTrue)
				So(first.X, ShouldEqual, 70)

				last, ok := traj.Last()
				So(ok, ShouldBeTrue)
				So(last.X, ShouldEqual, 110)
			})

			Convey("And derived fields span only the retained window", func() {
				So(traj.Distance, ShouldAlmostEqual, 40, 1e-9)
				So(traj.DurationMS, ShouldAlmostEqual, 64, 1e-9)
			})
		})
	})
}

func TestTrajectory_Kinematics(t *testing.T) {
	Convey("Given a rightward constant-velocity sequence", t, func() {
		tr := trajectory.NewTracker()
		base := time.Now()

		// 100 px every 100 ms is 1000 px/s.
		var traj *trajectory.Trajectory
		for i := 0; i < 5; i++ {
			traj = tr.AddSample(sampleAt(0, float64(i*100), 0, base, i*100))
		}

		Convey("Then velocity points right at the expected magnitude", func() {
			So(traj.Velocity.X, ShouldAlmostEqual, 1000, 1e-6)
			So(traj.Velocity.Y, ShouldAlmostEqual, 0, 1e-6)
			So(traj.Speed(), ShouldAlmostEqual, 1000, 1e-6)
		})

		Convey("And direction is along the positive x axis", func() {
			So(traj.Direction, ShouldAlmostEqual, 0, 1e-9)
		})

		Convey("And constant velocity has near-zero acceleration", func() {
			So(traj.Acceleration.X, ShouldAlmostEqual, 0, 1e-6)
			So(traj.Acceleration.Y, ShouldAlmostEqual, 0, 1e-6)
		})
	})

	Convey("Given a downward sequence", t, func() {
		tr := trajectory.NewTracker()
		base := time.Now()

		var traj *trajectory.Trajectory
		for i := 0; i < 4; i++ {
			traj = tr.AddSample(sampleAt(0, 0, float64(i*50), base, i*50))
		}

		Convey("Then direction is pi/2", func() {
			So(traj.Direction, ShouldAlmostEqual, math.Pi/2, 1e-9)
		})
	})

	Convey("Given samples with identical timestamps", t, func() {
		tr := trajectory.NewTracker()
		base := time.Now()

		tr.AddSample(sampleAt(0, 0, 0, base, 0))
		traj := tr.AddSample(sampleAt(0, 100, 0, base, 0))

		Convey("Then no velocity is fabricated from zero time", func() {
			So(traj.Velocity.X, ShouldEqual, 0)
			So(traj.Velocity.Y, ShouldEqual, 0)
		})
	})
}

func TestPredictEndPoint(t *testing.T) {
	Convey("Given a moving trajectory", t, func() {
		tr := trajectory.NewTracker()
		base := time.Now()

		var traj *trajectory.Trajectory
		for i := 0; i < 5; i++ {
			traj = tr.AddSample(sampleAt(0, float64(i*100), 0, base, i*100))
		}

		Convey("When extrapolating 100ms ahead", func() {
			p := trajectory.PredictEndPoint(traj, 100)

			Convey("Then the point continues along the velocity vector", func() {
				So(p, ShouldNotBeNil)
				// 400px current position + 1000px/s * 0.1s
				So(p.X, ShouldAlmostEqual, 500, 1)
				So(p.Y, ShouldAlmostEqual, 0, 1)
			})
		})

		Convey("When extrapolating zero ms ahead", func() {
			p := trajectory.PredictEndPoint(traj, 0)

			Convey("Then the point is the last sample", func() {
				So(p, ShouldNotBeNil)
				So(p.X, ShouldAlmostEqual, 400, 1e-9)
			})
		})
	})

	Convey("Given an empty trajectory", t, func() {
		var traj trajectory.Trajectory

		Convey("Then extrapolation returns nil", func() {
			So(trajectory.PredictEndPoint(&traj, 100), ShouldBeNil)
		})
	})
}
