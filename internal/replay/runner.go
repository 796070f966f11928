package replay

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/okian/presage/pkg/logger"
)

// File permission constants.
const (
	directoryPermission = 0750
)

// Run executes a complete replay: generate traces, feed them through the
// HTTP API, and compare predictions against the generated labels.
func Run(ctx context.Context, config *Config) error {
	stats := &Stats{
		StartTime: time.Now(),
	}

	logger.Get().Info(ctx, "starting touch replay",
		logger.String("baseURL", config.BaseURL),
		logger.Int("sessions", config.NumSessions),
		logger.Int("gesturesPerSession", config.Gestures),
		logger.Int("workers", config.Workers),
		logger.Int("frameRate", config.FrameRate),
		logger.String("timeout", config.Timeout.String()),
		logger.Any("verbose", config.Verbose))

	// Step 1: Check service health
	if err := checkServiceHealth(ctx, config); err != nil {
		return fmt.Errorf("service health check failed: %w", err)
	}

	// Step 2: Generate gesture traces
	traces, err := generateTraces(ctx, config, stats)
	if err != nil {
		return fmt.Errorf("trace generation failed: %w", err)
	}

	// Step 3: Start the synthetic frame feed
	stopFrames := startFrameFeed(ctx, config, stats)

	// Step 4: Replay traces concurrently
	if err := replayTraces(ctx, config, traces, stats); err != nil {
		stopFrames()
		return fmt.Errorf("trace replay failed: %w", err)
	}
	stopFrames()

	// Step 5: Report latency and quality state after the run
	reportAdaptiveState(ctx, config)

	// Step 6: Verify prediction accuracy against the generated labels
	if err := verifyResults(ctx, config, stats); err != nil {
		return fmt.Errorf("result verification failed: %w", err)
	}

	// Step 7: Save traces to file
	if err := saveTracesToFile(ctx, config, traces); err != nil {
		logger.Get().Warn(ctx, "failed to save traces to file", logger.Error(err))
	}

	// Final statistics
	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)

	displayFinalStats(stats)

	logger.Get().Info(ctx, "replay completed successfully")
	return nil
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, config *Config) error {
	logger.Get().Info(ctx, "checking service health")

	client := newHTTPClient(config.Timeout)
	url := config.BaseURL + "/healthz"

	resp, err := client.Get(ctx, url)
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Get().Error(context.Background(), "failed to close response body", logger.Error(err))
		}
	}()

	if resp.StatusCode != StatusOK {
		return fmt.Errorf("service health check failed with status: %d", resp.StatusCode)
	}

	logger.Get().Info(ctx, "service is healthy")
	return nil
}

// saveTracesToFile saves the generated traces to a JSON file.
func saveTracesToFile(ctx context.Context, config *Config, traces []Trace) error {
	if len(traces) == 0 {
		return fmt.Errorf("no traces to save")
	}

	// Determine output filename
	filename := config.OutputFile
	if filename == "" {
		timestamp := time.Now().Format("20060102_150405")
		filename = "generated_traces_" + timestamp + ".json"
	}

	// Ensure the directory exists
	dir := filepath.Dir(filename)
	if dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			logger.Get().Error(context.Background(), "failed to close file", logger.Error(err))
		}
	}()

	if _, err := file.WriteString("[\n"); err != nil {
		return fmt.Errorf("failed to write opening bracket: %w", err)
	}

	for i, trace := range traces {
		jsonData, err := marshalTrace(trace)
		if err != nil {
			return fmt.Errorf("failed to marshal trace %d: %w", i, err)
		}

		if _, err := file.Write(jsonData); err != nil {
			return fmt.Errorf("failed to write trace %d: %w", i, err)
		}

		// Add comma except for last trace
		if i < len(traces)-1 {
			if _, err := file.WriteString(","); err != nil {
				return fmt.Errorf("failed to write comma: %w", err)
			}
		}
		_, _ = file.WriteString("\n")
	}

	if _, err := file.WriteString("]\n"); err != nil {
		return fmt.Errorf("failed to write closing bracket: %w", err)
	}

	logger.Get().Info(ctx, "traces saved to file", logger.String("filename", filename))
	return nil
}

// displayFinalStats prints the final replay statistics.
func displayFinalStats(stats *Stats) {
	var matchRate, touchesPerSecond float64

	if stats.PredictionsObserved > 0 {
		matchRate = float64(stats.PredictionsMatched) / float64(stats.PredictionsObserved) * PercentageMultiplier
	}

	if stats.Duration > 0 {
		touchesPerSecond = float64(stats.TouchesSubmitted) / stats.Duration.Seconds()
	}

	logger.Get().Info(context.Background(), "final statistics",
		logger.Int("gesturesGenerated", stats.GesturesGenerated),
		logger.Int("sessionsCreated", stats.SessionsCreated),
		logger.Int("gesturesReplayed", stats.GesturesReplayed),
		logger.Int("touchesSubmitted", stats.TouchesSubmitted),
		logger.Int("touchesAccepted", stats.TouchesAccepted),
		logger.Int("touchesRejected", stats.TouchesRejected),
		logger.Int("predictionsObserved", stats.PredictionsObserved),
		logger.Int("predictionsMatched", stats.PredictionsMatched),
		logger.Int("framesSubmitted", stats.FramesSubmitted),
		logger.String("duration", stats.Duration.String()),
		logger.Float64("matchRate", matchRate),
		logger.Float64("touchesPerSecond", touchesPerSecond))
}
