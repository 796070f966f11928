package replay

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	"github.com/okian/presage/pkg/logger"
)

// LatencyResponse is the body of GET /latency.
type LatencyResponse struct {
	AverageMS     float64 `json:"average_ms"`
	P95MS         float64 `json:"p95_ms"`
	DroppedFrames int     `json:"dropped_frames"`
	Mode          string  `json:"mode"`
}

// QualityResponse is the body of GET /quality.
type QualityResponse struct {
	LatencyMode string `json:"latency_mode"`
	RenderTier  string `json:"render_tier"`
	AudioTier   string `json:"audio_tier"`
	Forced      bool   `json:"forced"`
}

// startFrameFeed posts synthetic frame timestamps at the configured rate
// until ctx is canceled. It simulates the render loop the service would
// observe on a real device.
func startFrameFeed(ctx context.Context, config *Config, stats *Stats) (stop func()) {
	if config.FrameRate <= 0 {
		return func() {}
	}

	feedCtx, cancel := context.WithCancel(ctx)
	client := newHTTPClient(config.Timeout)
	interval := time.Second / time.Duration(config.FrameRate)

	var frames int64
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-feedCtx.Done():
				return
			case t := <-ticker.C:
				body := map[string]string{"ts": t.UTC().Format(time.RFC3339Nano)}
				resp, err := client.Post(feedCtx, config.BaseURL+"/frames", body)
				if err != nil {
					continue
				}
				_, _ = readResponseBody(resp)
				atomic.AddInt64(&frames, 1)
			}
		}
	}()

	return func() {
		cancel()
		stats.FramesSubmitted = int(atomic.LoadInt64(&frames))
	}
}

// fetchLatency reads the service's latency snapshot.
func fetchLatency(ctx context.Context, config *Config) (*LatencyResponse, error) {
	client := newHTTPClient(config.Timeout)
	resp, err := client.Get(ctx, config.BaseURL+"/latency")
	if err != nil {
		return nil, err
	}
	body, err := readResponseBody(resp)
	if err != nil {
		return nil, err
	}
	var snap LatencyResponse
	if err := json.Unmarshal(body, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// fetchQuality reads the service's current quality profile.
func fetchQuality(ctx context.Context, config *Config) (*QualityResponse, error) {
	client := newHTTPClient(config.Timeout)
	resp, err := client.Get(ctx, config.BaseURL+"/quality")
	if err != nil {
		return nil, err
	}
	body, err := readResponseBody(resp)
	if err != nil {
		return nil, err
	}
	var profile QualityResponse
	if err := json.Unmarshal(body, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// reportAdaptiveState logs the post-replay latency and quality view.
func reportAdaptiveState(ctx context.Context, config *Config) {
	if snap, err := fetchLatency(ctx, config); err == nil {
		logger.Get().Info(ctx, "latency snapshot",
			logger.Float64("averageMS", snap.AverageMS),
			logger.Float64("p95MS", snap.P95MS),
			logger.Int("droppedFrames", snap.DroppedFrames),
			logger.String("mode", snap.Mode))
	} else {
		logger.Get().Warn(ctx, "failed to fetch latency snapshot", logger.Error(err))
	}

	if profile, err := fetchQuality(ctx, config); err == nil {
		logger.Get().Info(ctx, "quality profile",
			logger.String("latencyMode", profile.LatencyMode),
			logger.String("renderTier", profile.RenderTier),
			logger.String("audioTier", profile.AudioTier))
	} else {
		logger.Get().Warn(ctx, "failed to fetch quality profile", logger.Error(err))
	}
}
