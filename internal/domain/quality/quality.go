// Package quality maps latency modes and environment signals to concrete
// rendering/audio quality profiles. Both the rendering and the audio variant
// share one quality ladder so the tier-stepping logic exists exactly once.
package quality

import "github.com/okian/presage/internal/domain/latency"

// Tier is a rung on the quality ladder.
type Tier string

// Quality tiers, best first. The ladder never steps below ultra-low.
const (
	TierHigh     Tier = "high"
	TierMedium   Tier = "medium"
	TierLow      Tier = "low"
	TierUltraLow Tier = "ultra-low"
)

// ladder is the fixed step-down ordering.
var ladder = []Tier{TierHigh, TierMedium, TierLow, TierUltraLow}

// ParseTier converts a string to a Tier. The second return is false for
// unrecognized values.
func ParseTier(s string) (Tier, bool) {
	switch Tier(s) {
	case TierHigh, TierMedium, TierLow, TierUltraLow:
		return Tier(s), true
	}
	return "", false
}

// StepDown moves a tier down the ladder by n rungs, clamped at the floor.
// Negative n is a no-op.
func StepDown(from Tier, n int) Tier {
	if n <= 0 {
		return from
	}
	pos := 0
	for i, t := range ladder {
		if t == from {
			pos = i
			break
		}
	}
	pos += n
	if pos >= len(ladder) {
		pos = len(ladder) - 1
	}
	return ladder[pos]
}

// DeviceTier grades the host device's performance class.
type DeviceTier string

// Device performance tiers.
const (
	DeviceHigh     DeviceTier = "high"
	DeviceMedium   DeviceTier = "medium"
	DeviceLow      DeviceTier = "low"
	DeviceCritical DeviceTier = "critical"
)

// ConnectionQuality grades the effective network condition.
type ConnectionQuality string

// Connection quality classes.
const (
	ConnExcellent ConnectionQuality = "excellent"
	ConnGood      ConnectionQuality = "good"
	ConnFair      ConnectionQuality = "fair"
	ConnPoor      ConnectionQuality = "poor"
	ConnOffline   ConnectionQuality = "offline"
)

// EnvironmentSnapshot is the polled summary of device/network/battery
// conditions. Absent telemetry must be reported as its most favorable value
// (battery not critical, no memory pressure, online) so missing data
// degrades toward higher, not lower, quality.
type EnvironmentSnapshot struct {
	DeviceTier      DeviceTier        `json:"device_tier"`
	IsMobile        bool              `json:"is_mobile"`
	IsOnline        bool              `json:"is_online"`
	RTTMS           float64           `json:"rtt_ms"`
	Connection      ConnectionQuality `json:"connection"`
	SaveData        bool              `json:"save_data"`
	BatteryLevel    float64           `json:"battery_level"`
	BatteryCritical bool              `json:"battery_critical"`
	MemoryPressure  bool              `json:"memory_pressure"`
}

// DefaultEnvironment assumes the most favorable conditions, matching the
// absent-telemetry bias.
func DefaultEnvironment() EnvironmentSnapshot {
	return EnvironmentSnapshot{
		DeviceTier:   DeviceHigh,
		IsOnline:     true,
		Connection:   ConnExcellent,
		BatteryLevel: 1.0,
	}
}

// RenderSettings is the rendering quality profile.
type RenderSettings struct {
	FPS            int    `json:"fps"`
	TextureQuality string `json:"texture_quality"`
	Particles      bool   `json:"particles"`
	Blur           bool   `json:"blur"`
	Shadows        bool   `json:"shadows"`
	MaxBlendShapes int    `json:"max_blend_shapes"`
}

// AudioSettings is the audio quality profile.
type AudioSettings struct {
	SampleRate       int  `json:"sample_rate"`
	BitDepth         int  `json:"bit_depth"`
	Channels         int  `json:"channels"`
	BufferMS         int  `json:"buffer_ms"`
	CompressionLevel int  `json:"compression_level"`
	FFTSize          int  `json:"fft_size"`
	VAD              bool `json:"vad"`
	EchoCancel       bool `json:"echo_cancel"`
	NoiseSuppress    bool `json:"noise_suppress"`
	AGC              bool `json:"agc"`
}

// renderTable fully determines render settings per tier; profiles are never
// partially stale.
var renderTable = map[Tier]RenderSettings{
	TierHigh:     {FPS: 60, TextureQuality: "high", Particles: true, Blur: true, Shadows: true, MaxBlendShapes: 52},
	TierMedium:   {FPS: 45, TextureQuality: "medium", Particles: true, Blur: false, Shadows: true, MaxBlendShapes: 32},
	TierLow:      {FPS: 30, TextureQuality: "low", Particles: false, Blur: false, Shadows: false, MaxBlendShapes: 16},
	TierUltraLow: {FPS: 24, TextureQuality: "minimal", Particles: false, Blur: false, Shadows: false, MaxBlendShapes: 8},
}

// audioTable fully determines audio settings per tier.
var audioTable = map[Tier]AudioSettings{
	TierHigh:     {SampleRate: 48000, BitDepth: 24, Channels: 2, BufferMS: 40, CompressionLevel: 0, FFTSize: 2048, VAD: true, EchoCancel: true, NoiseSuppress: true, AGC: true},
	TierMedium:   {SampleRate: 44100, BitDepth: 16, Channels: 2, BufferMS: 60, CompressionLevel: 3, FFTSize: 1024, VAD: true, EchoCancel: true, NoiseSuppress: true, AGC: true},
	TierLow:      {SampleRate: 24000, BitDepth: 16, Channels: 1, BufferMS: 100, CompressionLevel: 6, FFTSize: 512, VAD: true, EchoCancel: false, NoiseSuppress: true, AGC: false},
	TierUltraLow: {SampleRate: 16000, BitDepth: 16, Channels: 1, BufferMS: 160, CompressionLevel: 9, FFTSize: 256, VAD: true, EchoCancel: false, NoiseSuppress: false, AGC: false},
}

// RenderSettingsFor returns the render profile for a tier.
func RenderSettingsFor(t Tier) RenderSettings {
	if s, ok := renderTable[t]; ok {
		return s
	}
	return renderTable[TierUltraLow]
}

// AudioSettingsFor returns the audio profile for a tier.
func AudioSettingsFor(t Tier) AudioSettings {
	if s, ok := audioTable[t]; ok {
		return s
	}
	return audioTable[TierUltraLow]
}

// TierForMode positions a latency mode on the quality ladder: normal runs at
// full quality and instant at the floor.
func TierForMode(m latency.Mode) Tier {
	switch m {
	case latency.ModeNormal:
		return TierHigh
	case latency.ModeLow:
		return TierMedium
	case latency.ModeUltraLow:
		return TierLow
	default:
		return TierUltraLow
	}
}
