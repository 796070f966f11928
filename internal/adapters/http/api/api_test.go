package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/okian/presage/internal/adapters/http/api"
	"github.com/okian/presage/internal/domain/gesture"
	"github.com/okian/presage/internal/domain/latency"
	"github.com/okian/presage/internal/domain/quality"
	"github.com/okian/presage/internal/domain/session"
	"github.com/okian/presage/internal/domain/touch"
	. "github.com/smartystreets/goconvey/convey"
)

var errNotFound = errors.New("session not found")

// fakeDeps implements the handler dependency bundle with canned behavior.
type fakeDeps struct {
	sessions map[string]bool

	enqueueOK bool
	enqueued  []touch.Event

	prediction    session.Prediction
	hasPrediction bool

	metrics session.Metrics

	confirmed []gesture.Gesture
	rejected  int
	resets    int

	frames    []time.Time
	snapshot  latency.Stats
	profile   quality.Profile
	forced    []string
	envs      []quality.EnvironmentSnapshot
	underruns int
}

func newFakeDeps() *fakeDeps {
	return &fakeDeps{
		sessions:  map[string]bool{"live": true},
		enqueueOK: true,
		snapshot:  latency.Stats{Mode: latency.ModeNormal, AverageMS: 16},
		profile: quality.Profile{
			LatencyMode: latency.ModeNormal,
			RenderTier:  quality.TierHigh,
			AudioTier:   quality.TierHigh,
		},
	}
}

func (f *fakeDeps) CreateSession(context.Context) (string, error) {
	f.sessions["fresh"] = true
	return "fresh", nil
}

func (f *fakeDeps) DeleteSession(_ context.Context, id string) error {
	if !f.sessions[id] {
		return errNotFound
	}
	delete(f.sessions, id)
	return nil
}

func (f *fakeDeps) HasSession(_ context.Context, id string) bool { return f.sessions[id] }

func (f *fakeDeps) Enqueue(_ context.Context, e touch.Event) bool {
	if !f.enqueueOK {
		return false
	}
	f.enqueued = append(f.enqueued, e)
	return true
}

func (f *fakeDeps) LastPrediction(_ context.Context, id string) (session.Prediction, bool, error) {
	if !f.sessions[id] {
		return session.Prediction{}, false, errNotFound
	}
	return f.prediction, f.hasPrediction, nil
}

func (f *fakeDeps) SessionMetrics(_ context.Context, id string) (session.Metrics, error) {
	if !f.sessions[id] {
		return session.Metrics{}, errNotFound
	}
	return f.metrics, nil
}

func (f *fakeDeps) ConfirmGesture(_ context.Context, id string, g gesture.Gesture) error {
	if !f.sessions[id] {
		return errNotFound
	}
	f.confirmed = append(f.confirmed, g)
	return nil
}

func (f *fakeDeps) RejectPrediction(_ context.Context, id string) error {
	if !f.sessions[id] {
		return errNotFound
	}
	f.rejected++
	return nil
}

func (f *fakeDeps) ResetSession(_ context.Context, id string) error {
	if !f.sessions[id] {
		return errNotFound
	}
	f.resets++
	return nil
}

func (f *fakeDeps) RecordFrame(_ context.Context, ts time.Time) { f.frames = append(f.frames, ts) }
func (f *fakeDeps) LatencySnapshot(context.Context) latency.Stats {
	return f.snapshot
}

func (f *fakeDeps) QualityProfile(context.Context) quality.Profile { return f.profile }

func (f *fakeDeps) ForceQuality(_ context.Context, forced string) error {
	if _, ok := quality.ParseTier(forced); !ok && forced != quality.Auto {
		return quality.ErrUnknownTier
	}
	f.forced = append(f.forced, forced)
	return nil
}

func (f *fakeDeps) SetEnvironment(_ context.Context, env quality.EnvironmentSnapshot) {
	f.envs = append(f.envs, env)
}

func (f *fakeDeps) RecordUnderrun(context.Context) { f.underruns++ }

func (f *fakeDeps) GetStats() map[string]interface{} {
	return map[string]interface{}{"sessions": len(f.sessions)}
}

// newTestServer registers the full route table against a fake backend.
func newTestServer(deps *fakeDeps) *httptest.Server {
	mux := http.NewServeMux()
	api.NewServer(deps, deps).Register(context.Background(), mux)
	return httptest.NewServer(mux)
}

func doJSON(t *testing.T, method, url string, body any) (*http.Response, []byte) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode request: %v", err)
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()

	var out bytes.Buffer
	_, _ = out.ReadFrom(resp.Body)
	return resp, out.Bytes()
}

func validTouch() map[string]any {
	return map[string]any{
		"touch_id": 0,
		"phase":    "start",
		"x":        100.0,
		"y":        200.0,
		"ts":       time.Now().Format(time.RFC3339Nano),
		"pressure": 0.5,
	}
}

func TestAPI_Sessions(t *testing.T) {
	Convey("Given the API over a fake backend", t, func() {
		deps := newFakeDeps()
		srv := newTestServer(deps)
		defer srv.Close()

		Convey("When POST /sessions", func() {
			resp, body := doJSON(t, http.MethodPost, srv.URL+"/sessions", nil)

			Convey("Then a session id comes back with 201", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusCreated)

				var out map[string]string
				So(json.Unmarshal(body, &out), ShouldBeNil)
				So(out["session_id"], ShouldEqual, "fresh")
			})
		})

		Convey("When DELETE /sessions/{id}", func() {
			resp, _ := doJSON(t, http.MethodDelete, srv.URL+"/sessions/live", nil)

			Convey("Then the session is removed with 204", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusNoContent)
				So(deps.sessions["live"], ShouldBeFalse)
			})
		})

		Convey("When DELETE targets an unknown session", func() {
			resp, _ := doJSON(t, http.MethodDelete, srv.URL+"/sessions/ghost", nil)

			Convey("Then deletion stays idempotent", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusNoContent)
			})
		})

		Convey("When GET /sessions is attempted", func() {
			resp, _ := doJSON(t, http.MethodGet, srv.URL+"/sessions", nil)

			Convey("Then the method is not routed", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusNotFound)
			})
		})
	})
}

func TestAPI_Touches(t *testing.T) {
	Convey("Given the API over a fake backend", t, func() {
		deps := newFakeDeps()
		srv := newTestServer(deps)
		defer srv.Close()

		Convey("When a valid touch is posted", func() {
			resp, _ := doJSON(t, http.MethodPost, srv.URL+"/sessions/live/touches", validTouch())

			Convey("Then it is accepted for async processing", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusAccepted)
				So(len(deps.enqueued), ShouldEqual, 1)
				So(deps.enqueued[0].SessionID, ShouldEqual, "live")
				So(deps.enqueued[0].Phase, ShouldEqual, touch.PhaseStart)
			})
		})

		Convey("When the phase is invalid", func() {
			body := validTouch()
			body["phase"] = "hover"
			resp, _ := doJSON(t, http.MethodPost, srv.URL+"/sessions/live/touches", body)

			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When the touch id is negative", func() {
			body := validTouch()
			body["touch_id"] = -1
			resp, _ := doJSON(t, http.MethodPost, srv.URL+"/sessions/live/touches", body)

			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When the timestamp is malformed", func() {
			body := validTouch()
			body["ts"] = "yesterday"
			resp, _ := doJSON(t, http.MethodPost, srv.URL+"/sessions/live/touches", body)

			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When the session does not exist", func() {
			resp, _ := doJSON(t, http.MethodPost, srv.URL+"/sessions/ghost/touches", validTouch())

			So(resp.StatusCode, ShouldEqual, http.StatusNotFound)
		})

		Convey("When the queue pushes back", func() {
			deps.enqueueOK = false
			resp, body := doJSON(t, http.MethodPost, srv.URL+"/sessions/live/touches", validTouch())

			Convey("Then the client is told to slow down", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusTooManyRequests)

				var out map[string]string
				So(json.Unmarshal(body, &out), ShouldBeNil)
				So(out["code"], ShouldEqual, "backpressure")
			})
		})
	})
}

func TestAPI_Prediction(t *testing.T) {
	Convey("Given the API over a fake backend", t, func() {
		deps := newFakeDeps()
		srv := newTestServer(deps)
		defer srv.Close()

		Convey("When no prediction exists yet", func() {
			resp, _ := doJSON(t, http.MethodGet, srv.URL+"/sessions/live/prediction", nil)

			Convey("Then the read returns 204", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusNoContent)
			})
		})

		Convey("When a prediction is live", func() {
			deps.hasPrediction = true
			deps.prediction = session.Prediction{Gesture: gesture.SwipeRight, Probability: 0.85}
			resp, body := doJSON(t, http.MethodGet, srv.URL+"/sessions/live/prediction", nil)

			Convey("Then it is returned as JSON", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)

				var out map[string]any
				So(json.Unmarshal(body, &out), ShouldBeNil)
				So(out["gesture"], ShouldEqual, "swipe-right")
			})
		})

		Convey("When the session is unknown", func() {
			resp, _ := doJSON(t, http.MethodGet, srv.URL+"/sessions/ghost/prediction", nil)
			So(resp.StatusCode, ShouldEqual, http.StatusNotFound)
		})

		Convey("When metrics are requested", func() {
			deps.metrics = session.Metrics{TotalPredictions: 7, CorrectPredictions: 5}
			resp, body := doJSON(t, http.MethodGet, srv.URL+"/sessions/live/metrics", nil)

			Convey("Then the counters come back", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)

				var out map[string]any
				So(json.Unmarshal(body, &out), ShouldBeNil)
				So(out["total_predictions"], ShouldEqual, 7)
			})
		})

		Convey("When a gesture is confirmed", func() {
			resp, _ := doJSON(t, http.MethodPost, srv.URL+"/sessions/live/confirm", map[string]string{"gesture": "tap"})

			Convey("Then the feedback lands", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				So(deps.confirmed, ShouldResemble, []gesture.Gesture{gesture.Tap})
			})
		})

		Convey("When the confirmation names no gesture", func() {
			resp, _ := doJSON(t, http.MethodPost, srv.URL+"/sessions/live/confirm", map[string]string{"gesture": " "})
			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When a prediction is rejected", func() {
			resp, _ := doJSON(t, http.MethodPost, srv.URL+"/sessions/live/reject", nil)

			So(resp.StatusCode, ShouldEqual, http.StatusOK)
			So(deps.rejected, ShouldEqual, 1)
		})

		Convey("When a session is reset", func() {
			resp, _ := doJSON(t, http.MethodPost, srv.URL+"/sessions/live/reset", nil)

			So(resp.StatusCode, ShouldEqual, http.StatusOK)
			So(deps.resets, ShouldEqual, 1)
		})

		Convey("When the subroute is unknown", func() {
			resp, _ := doJSON(t, http.MethodGet, srv.URL+"/sessions/live/teleport", nil)
			So(resp.StatusCode, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestAPI_FramesAndLatency(t *testing.T) {
	Convey("Given the API over a fake backend", t, func() {
		deps := newFakeDeps()
		srv := newTestServer(deps)
		defer srv.Close()

		Convey("When a frame tick carries a timestamp", func() {
			ts := time.Now().Add(-10 * time.Millisecond).Truncate(time.Millisecond)
			resp, _ := doJSON(t, http.MethodPost, srv.URL+"/frames", map[string]string{
				"ts": ts.Format(time.RFC3339Nano),
			})

			Convey("Then the monitor receives that instant", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusAccepted)
				So(len(deps.frames), ShouldEqual, 1)
				So(deps.frames[0].UnixNano(), ShouldEqual, ts.UnixNano())
			})
		})

		Convey("When a frame tick has no body", func() {
			resp, _ := doJSON(t, http.MethodPost, srv.URL+"/frames", nil)

			Convey("Then the frame is stamped at arrival", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusAccepted)
				So(len(deps.frames), ShouldEqual, 1)
			})
		})

		Convey("When the timestamp is malformed", func() {
			resp, _ := doJSON(t, http.MethodPost, srv.URL+"/frames", map[string]string{"ts": "noon"})
			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When latency is read", func() {
			resp, body := doJSON(t, http.MethodGet, srv.URL+"/latency", nil)

			Convey("Then the snapshot is returned", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)

				var out map[string]any
				So(json.Unmarshal(body, &out), ShouldBeNil)
				So(out["mode"], ShouldEqual, "normal")
			})
		})
	})
}

func TestAPI_Quality(t *testing.T) {
	Convey("Given the API over a fake backend", t, func() {
		deps := newFakeDeps()
		srv := newTestServer(deps)
		defer srv.Close()

		Convey("When the profile is read", func() {
			resp, body := doJSON(t, http.MethodGet, srv.URL+"/quality", nil)

			Convey("Then the derived profile is returned", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)

				var out map[string]any
				So(json.Unmarshal(body, &out), ShouldBeNil)
				So(out["render_tier"], ShouldEqual, "high")
			})
		})

		Convey("When a tier is forced", func() {
			resp, _ := doJSON(t, http.MethodPut, srv.URL+"/quality", map[string]string{"forced": "low"})

			Convey("Then the override is applied", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				So(deps.forced, ShouldResemble, []string{"low"})
			})
		})

		Convey("When an unknown tier is forced", func() {
			resp, _ := doJSON(t, http.MethodPut, srv.URL+"/quality", map[string]string{"forced": "turbo"})
			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When the forced value is blank", func() {
			resp, _ := doJSON(t, http.MethodPut, srv.URL+"/quality", map[string]string{"forced": ""})
			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When an environment snapshot is posted", func() {
			resp, _ := doJSON(t, http.MethodPost, srv.URL+"/quality/environment", map[string]any{
				"connection": "poor",
				"is_mobile":  true,
			})

			Convey("Then absent fields keep the favorable defaults", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				So(len(deps.envs), ShouldEqual, 1)
				So(deps.envs[0].Connection, ShouldEqual, quality.ConnPoor)
				So(deps.envs[0].IsMobile, ShouldBeTrue)
				So(deps.envs[0].IsOnline, ShouldBeTrue)
				So(deps.envs[0].DeviceTier, ShouldEqual, quality.DeviceHigh)
			})
		})

		Convey("When an underrun is reported", func() {
			resp, _ := doJSON(t, http.MethodPost, srv.URL+"/quality/underrun", nil)

			So(resp.StatusCode, ShouldEqual, http.StatusOK)
			So(deps.underruns, ShouldEqual, 1)
		})
	})
}

func TestAPI_HealthAndStats(t *testing.T) {
	Convey("Given the API over a fake backend", t, func() {
		deps := newFakeDeps()
		srv := newTestServer(deps)
		defer srv.Close()

		Convey("When the health endpoint is probed", func() {
			resp, body := doJSON(t, http.MethodGet, srv.URL+"/healthz", nil)

			So(resp.StatusCode, ShouldEqual, http.StatusOK)

			var out map[string]string
			So(json.Unmarshal(body, &out), ShouldBeNil)
			So(out["status"], ShouldEqual, "ok")
		})

		Convey("When stats are read", func() {
			resp, body := doJSON(t, http.MethodGet, srv.URL+"/stats", nil)

			So(resp.StatusCode, ShouldEqual, http.StatusOK)

			var out map[string]any
			So(json.Unmarshal(body, &out), ShouldBeNil)
			So(out["sessions"], ShouldEqual, 1)
		})

		Convey("When a session path nests too deep", func() {
			resp, _ := doJSON(t, http.MethodGet, srv.URL+"/sessions/live/prediction/extra", nil)
			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
		})
	})
}
