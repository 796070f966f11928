package replay

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/okian/presage/pkg/logger"
)

// File permission constants.
const (
	logFilePermission = 0600
)

// SetupLogging configures logging to both console and file.
// If logFile is empty, a timestamped filename is generated.
func SetupLogging(logFile string) error {
	// Initialize the logger first
	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	if logFile == "" {
		timestamp := time.Now().Format("20060102_150405")
		logFile = "replay_log_" + timestamp + ".log"
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}

	multiWriter := io.MultiWriter(os.Stdout, file)
	log.SetOutput(multiWriter)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	logger.Get().Info(context.Background(), "logging to file", logger.String("logFile", logFile))
	return nil
}

// ShowHelp prints usage information for the touch replay tool.
func ShowHelp() {
	os.Stdout.WriteString(`Presage Touch Replay Tool
=========================

A concurrent tool for exercising the gesture prediction service with
synthetic touch traces.

Usage:
  go run cmd/touch-replay/main.go [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:9080")
  -sessions int
        Number of sessions to create (default 10)
  -gestures int
        Number of gestures to replay per session (default 20)
  -workers int
        Number of concurrent workers (default CPU cores * 2)
  -fps int
        Synthetic frame feed rate; 0 disables the feed (default 60)
  -timeout duration
        HTTP request timeout (default 30s)
  -output string
        Output file for generated traces (default: generated_traces_TIMESTAMP.json)
  -log string
        Log file for replay output (default: replay_log_TIMESTAMP.log)
  -verbose
        Enable verbose logging
  -help
        Show this help message

Examples:
  # Replay with default settings
  go run cmd/touch-replay/main.go

  # Heavier run against a different host
  go run cmd/touch-replay/main.go -sessions 100 -gestures 50 -url http://localhost:8080

  # Replay without the frame feed
  go run cmd/touch-replay/main.go -fps 0 -verbose
`)
}
