package quality

import (
	"fmt"
	"sync"

	"github.com/okian/presage/internal/domain/latency"
)

// Underruns beyond this count cost one quality step in automatic mode.
const underrunDowngradeThreshold = 5

// Auto is the forced-quality sentinel that re-enables automatic computation.
const Auto = "auto"

// Profile is the combined quality output consumed by rendering/audio
// configuration.
type Profile struct {
	LatencyMode latency.Mode   `json:"latency_mode"`
	RenderTier  Tier           `json:"render_tier"`
	Render      RenderSettings `json:"render"`
	AudioTier   Tier           `json:"audio_tier"`
	Audio       AudioSettings  `json:"audio"`
	Forced      bool           `json:"forced"`
}

// Controller derives the quality profile from the latency mode, the
// environment snapshot, and the buffer-underrun count. A forced tier, when
// set, is returned verbatim for both variants until cleared with Auto.
type Controller struct {
	mu sync.Mutex

	mode      latency.Mode
	env       EnvironmentSnapshot
	underruns int
	forced    *Tier

	onChange func(Profile)
}

// ControllerOption applies a configuration option to the Controller.
type ControllerOption func(*Controller)

// WithProfileChange registers a callback fired (with the controller
// unlocked) whenever the derived profile changes.
func WithProfileChange(fn func(Profile)) ControllerOption {
	return func(c *Controller) {
		c.onChange = fn
	}
}

// NewController creates a controller assuming normal mode and favorable
// environment.
func NewController(opts ...ControllerOption) *Controller {
	c := &Controller{
		mode: latency.ModeNormal,
		env:  DefaultEnvironment(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetMode feeds the latency mode derived by the monitor.
func (c *Controller) SetMode(m latency.Mode) {
	if !m.Valid() {
		return
	}
	c.update(func() { c.mode = m })
}

// SetEnvironment feeds a fresh environment snapshot.
func (c *Controller) SetEnvironment(env EnvironmentSnapshot) {
	c.update(func() { c.env = env })
}

// RecordUnderrun counts one buffer underrun.
func (c *Controller) RecordUnderrun() {
	c.update(func() { c.underruns++ })
}

// ResetUnderruns clears the underrun counter, typically after the buffer
// has been resized.
func (c *Controller) ResetUnderruns() {
	c.update(func() { c.underruns = 0 })
}

// Underruns returns the current underrun count.
func (c *Controller) Underruns() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.underruns
}

// SetForced pins the quality tier. The value Auto clears the override and
// re-enables automatic computation; anything else must name a tier.
func (c *Controller) SetForced(value string) error {
	if value == Auto {
		c.update(func() { c.forced = nil })
		return nil
	}
	t, ok := ParseTier(value)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownTier, value)
	}
	c.update(func() { c.forced = &t })
	return nil
}

// Profile returns the current quality profile.
func (c *Controller) Profile() Profile {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.profileLocked()
}

// update applies a mutation and fires the change callback when the derived
// profile moved.
func (c *Controller) update(mutate func()) {
	c.mu.Lock()
	before := c.profileLocked()
	mutate()
	after := c.profileLocked()
	changed := before != after
	c.mu.Unlock()

	if changed && c.onChange != nil {
		c.onChange(after)
	}
}

// profileLocked computes the profile. Called with the mutex held.
func (c *Controller) profileLocked() Profile {
	p := Profile{LatencyMode: c.mode}

	if c.forced != nil {
		p.Forced = true
		p.RenderTier = *c.forced
		p.AudioTier = *c.forced
	} else {
		p.RenderTier = TierForMode(c.mode)
		p.AudioTier = c.audioTier()
	}

	p.Render = RenderSettingsFor(p.RenderTier)
	p.Audio = AudioSettingsFor(p.AudioTier)
	return p
}

// audioTier composes the audio quality from device tier and the ordered
// downgrade sequence. Each step follows the fixed ladder and never drops
// below ultra-low. Called with the mutex held.
func (c *Controller) audioTier() Tier {
	// Offline short-circuits everything.
	if !c.env.IsOnline || c.env.Connection == ConnOffline {
		return TierUltraLow
	}

	tier := baseTier(c.env.DeviceTier, c.env.IsMobile)

	switch c.env.Connection {
	case ConnPoor:
		tier = StepDown(tier, 2)
	case ConnFair:
		tier = StepDown(tier, 1)
	}
	if c.env.SaveData {
		tier = StepDown(tier, 1)
	}
	if c.env.BatteryCritical {
		tier = StepDown(tier, 1)
	}
	if c.underruns > underrunDowngradeThreshold {
		tier = StepDown(tier, 1)
	}
	return tier
}

// baseTier maps the device performance tier to a starting quality: a
// high-tier mobile device still starts at medium.
func baseTier(d DeviceTier, mobile bool) Tier {
	switch d {
	case DeviceHigh:
		if mobile {
			return TierMedium
		}
		return TierHigh
	case DeviceMedium:
		return TierMedium
	case DeviceLow:
		return TierLow
	default:
		return TierUltraLow
	}
}
