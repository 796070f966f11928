// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/okian/presage/pkg/metrics"
)

// MetricsMiddleware wraps a handler and records request, duration, and error
// metrics under a fixed route label.
func MetricsMiddleware(next http.HandlerFunc, route string) http.HandlerFunc {
	return instrument(next, func(*http.Request) string { return route })
}

// SessionMetricsMiddleware labels each per-session operation separately
// (sessions_touches, sessions_prediction, ...) with the session id collapsed
// out of the label so cardinality stays bounded.
func SessionMetricsMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return instrument(next, sessionRouteLabel)
}

// sessionRouteLabel maps /sessions/{id} and /sessions/{id}/<op> paths to a
// metrics label. Operations outside the route table share one bucket so
// arbitrary client paths cannot mint new label values.
func sessionRouteLabel(r *http.Request) string {
	rest := strings.TrimPrefix(r.URL.Path, "/sessions/")
	_, op, _ := strings.Cut(rest, "/")
	switch op {
	case "":
		return "sessions"
	case "touches", "prediction", "metrics", "confirm", "reject", "reset":
		return "sessions_" + op
	default:
		return "sessions_other"
	}
}

func instrument(next http.HandlerFunc, label func(*http.Request) string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := label(r)
		durationMS := float64(time.Since(start).Milliseconds())
		status := strconv.Itoa(rec.status)

		metrics.RecordHTTPRequest(route, r.Method, status)
		metrics.RecordHTTPRequestDuration(route, r.Method, status, durationMS)

		if rec.status >= http.StatusBadRequest {
			class := errorClass(rec.status)
			metrics.RecordErrorByEndpoint(route, r.Method, class)
			metrics.RecordErrorByType(class, errorSeverity(rec.status))
			metrics.RecordErrorLatency("http", class, durationMS)
		}
	}
}

// errorClass buckets a failure status for the error metrics. Backpressure
// and unknown-session responses get their own classes; everything else
// splits client vs server.
func errorClass(status int) string {
	switch {
	case status >= http.StatusInternalServerError:
		return "server_error"
	case status == http.StatusTooManyRequests:
		return "backpressure"
	case status == http.StatusNotFound:
		return "not_found"
	case status >= http.StatusBadRequest:
		return "client_error"
	default:
		return "unknown"
	}
}

func errorSeverity(status int) string {
	switch {
	case status >= http.StatusInternalServerError:
		return "high"
	case status >= http.StatusBadRequest:
		return "medium"
	default:
		return "low"
	}
}

// statusRecorder captures the status code written by the wrapped handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	n, err := s.ResponseWriter.Write(b)
	if err != nil {
		return n, fmt.Errorf("failed to write response: %w", err)
	}
	return n, nil
}
