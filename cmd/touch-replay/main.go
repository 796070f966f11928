package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/okian/presage/internal/replay"
)

// Default configuration constants.
const (
	defaultSessions    = 10
	defaultGestures    = 20
	defaultWorkers     = 2 // multiplier for runtime.NumCPU()
	defaultFrameRate   = 60
	defaultTimeout     = 30 * time.Second
	defaultTestTimeout = 10 * time.Minute
)

func main() {
	var (
		baseURL    = flag.String("url", "http://localhost:9080", "Base URL of the service")
		sessions   = flag.Int("sessions", defaultSessions, "Number of sessions to create")
		gestures   = flag.Int("gestures", defaultGestures, "Number of gestures to replay per session")
		workers    = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent workers")
		frameRate  = flag.Int("fps", defaultFrameRate, "Synthetic frame feed rate; 0 disables the feed")
		timeout    = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		outputFile = flag.String("output", "", "Output file for generated traces (default: generated_traces_TIMESTAMP.json)")
		logFile    = flag.String("log", "", "Log file for replay output (default: replay_log_TIMESTAMP.log)")
		verbose    = flag.Bool("verbose", false, "Enable verbose logging")
		help       = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		replay.ShowHelp()
		return
	}

	// Setup logging
	if err := replay.SetupLogging(*logFile); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		return
	}

	// Create context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), defaultTestTimeout)
	defer cancel()

	// Create replay configuration
	config := &replay.Config{
		BaseURL:     *baseURL,
		NumSessions: *sessions,
		Gestures:    *gestures,
		Workers:     *workers,
		FrameRate:   *frameRate,
		Timeout:     *timeout,
		OutputFile:  *outputFile,
		LogFile:     *logFile,
		Verbose:     *verbose,
	}

	// Run the replay
	if err := replay.Run(ctx, config); err != nil {
		os.Stderr.WriteString("Replay failed: " + err.Error() + "\n")
		return
	}
}
