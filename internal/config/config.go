// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Keep fields unexported where possible and use functional options.
// - Provide New(...Option) initializer to build a Config with defaults.
// - All future functions must accept context.Context as the first parameter.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"context"
	"runtime"
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// EventQueueSize bounds the in-memory touch event queue.
	EventQueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of dispatch lanes.
	WorkerCount int `koanf:"worker_count"`

	// SessionShards configures the number of shards in the session store.
	SessionShards int `koanf:"session_shards"`

	// Enabled toggles prediction for newly created sessions.
	Enabled bool `koanf:"enabled"`

	// Mode selects the confidence mode: conservative, balanced, aggressive.
	Mode string `koanf:"mode"`

	// MinConfidenceToAct adds a qualitative floor on action triggering:
	// none, low, medium, or high. Empty means no extra gate.
	MinConfidenceToAct string `koanf:"min_confidence_to_act"`

	// HistorySize bounds the per-touch sample history.
	HistorySize int `koanf:"history_size"`

	// PredictionHorizonMS sets how far ahead end points are extrapolated.
	PredictionHorizonMS float64 `koanf:"prediction_horizon_ms"`

	// Gesture thresholds. Zero values fall back to the classifier defaults.
	TapMaxDurationMS       float64 `koanf:"tap_max_duration_ms"`
	TapMaxDistancePx       float64 `koanf:"tap_max_distance_px"`
	DoubleTapMaxIntervalMS float64 `koanf:"double_tap_max_interval_ms"`
	LongPressMinDurationMS float64 `koanf:"long_press_min_duration_ms"`
	SwipeMinVelocity       float64 `koanf:"swipe_min_velocity"`
	SwipeMinDistancePx     float64 `koanf:"swipe_min_distance_px"`
	PinchMinScale          float64 `koanf:"pinch_min_scale"`
	RotateMinAngleDeg      float64 `koanf:"rotate_min_angle_deg"`

	// TargetLatencyMS sets the frame budget target. Zero keeps the
	// 60fps default.
	TargetLatencyMS float64 `koanf:"target_latency_ms"`

	// MaxPreloadedAnimations bounds the preload cache.
	MaxPreloadedAnimations int `koanf:"max_preloaded_animations"`
}

// New creates a Config using provided options. Context is accepted first to
// satisfy the project-wide convention; it is reserved for future use (e.g.,
// loading from env/files) and is currently unused.
func New(_ context.Context) *Config {
	c := &Config{
		LogLevel:               "info",
		Addr:                   ":9080",
		EventQueueSize:         100_000,
		WorkerCount:            runtime.NumCPU() * 4,
		SessionShards:          16,
		Enabled:                true,
		Mode:                   "balanced",
		HistorySize:            20,
		PredictionHorizonMS:    100,
		MaxPreloadedAnimations: 8,
	}
	return c
}
