package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/okian/presage/internal/adapters/http/api"
	"github.com/okian/presage/internal/adapters/ws"
	app "github.com/okian/presage/internal/app"
	"github.com/okian/presage/internal/config"
	"github.com/okian/presage/internal/domain/confidence"
	"github.com/okian/presage/internal/domain/gesture"
	"github.com/okian/presage/pkg/logger"
	"github.com/okian/presage/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout               = 10 * time.Second
	writeTimeout              = 10 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	shutdownTimeout           = 30 * time.Second
	systemMetricsInterval     = 10 * time.Second
	serviceMetricsInterval    = 5 * time.Second
	nanosecondsPerMillisecond = 1e6
)

func main() {
	// Disable default Go metrics collection to avoid duplicate metrics
	// We collect our own custom system metrics instead
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// Initialize logging
	if err := logger.Init(); err != nil {
		// Use stderr for initialization errors since logger isn't available yet
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	defer func() {
		if err := logger.Sync(); err != nil {
			logger.Error(err)
		}
	}()

	loggerInstance := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return
	}

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		loggerInstance.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	// Websocket hub for the live event stream.
	hub := ws.NewHub()

	// Create and start the service with configuration options
	svc := app.New(
		app.WithLogger(loggerInstance),
		app.WithWorkerCount(cfg.WorkerCount),
		app.WithQueueSize(cfg.EventQueueSize),
		app.WithSessionShards(cfg.SessionShards),
		app.WithMode(confidence.Mode(cfg.Mode)),
		app.WithMinConfidenceToAct(confidence.Level(cfg.MinConfidenceToAct)),
		app.WithThresholds(thresholdsFromConfig(cfg)),
		app.WithHistorySize(cfg.HistorySize),
		app.WithPredictionHorizon(cfg.PredictionHorizonMS),
		app.WithEnabled(cfg.Enabled),
		app.WithTargetLatency(cfg.TargetLatencyMS),
		app.WithPreloadCapacity(cfg.MaxPreloadedAnimations),
		app.WithHub(hub),
	)
	if err := svc.Start(ctx); err != nil {
		os.Stderr.WriteString("failed to start service: " + err.Error() + "\n")
		return
	}
	defer svc.Stop()

	// Start system metrics updater
	go startSystemMetricsUpdater(ctx)

	// Start service metrics updater
	go startServiceMetricsUpdater(ctx, svc)

	// HTTP mux and routes.
	mux := http.NewServeMux()

	// Register business API routes with the service dependency.
	apiServer := api.NewServer(svc, svc)
	apiServer.Register(ctx, mux)

	// Live event stream.
	mux.HandleFunc("/events", hub.HandleEvents)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	// Start the HTTP server
	go func() {
		loggerInstance.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			os.Stderr.WriteString("HTTP server failed: " + err.Error() + "\n")
			return
		}
	}()

	// Wait for shutdown signal
	<-ctx.Done()
	loggerInstance.Info(ctx, "shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		loggerInstance.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	loggerInstance.Info(ctx, "server stopped")
}

// thresholdsFromConfig builds the classifier thresholds, falling back to the
// stock value for any threshold the config leaves at zero.
func thresholdsFromConfig(cfg *config.Config) gesture.Thresholds {
	th := gesture.DefaultThresholds()
	if cfg.TapMaxDurationMS > 0 {
		th.TapMaxDurationMS = cfg.TapMaxDurationMS
	}
	if cfg.TapMaxDistancePx > 0 {
		th.TapMaxDistancePx = cfg.TapMaxDistancePx
	}
	if cfg.DoubleTapMaxIntervalMS > 0 {
		th.DoubleTapMaxIntervalMS = cfg.DoubleTapMaxIntervalMS
	}
	if cfg.LongPressMinDurationMS > 0 {
		th.LongPressMinDurationMS = cfg.LongPressMinDurationMS
	}
	if cfg.SwipeMinVelocity > 0 {
		th.SwipeMinVelocity = cfg.SwipeMinVelocity
	}
	if cfg.SwipeMinDistancePx > 0 {
		th.SwipeMinDistancePx = cfg.SwipeMinDistancePx
	}
	if cfg.PinchMinScale > 0 {
		th.PinchMinScale = cfg.PinchMinScale
	}
	if cfg.RotateMinAngleDeg > 0 {
		th.RotateMinAngleDeg = cfg.RotateMinAngleDeg
	}
	return th
}

// startSystemMetricsUpdater starts a background goroutine that updates system metrics.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

// startServiceMetricsUpdater starts a background goroutine that updates service metrics.
func startServiceMetricsUpdater(ctx context.Context, svc *app.Service) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// GetStats refreshes the service-level gauges as a side effect.
			_ = svc.GetStats()
		}
	}
}

// updateSystemMetrics updates system-level metrics.
func updateSystemMetrics() {
	// Update memory usage
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)

	// Update goroutine count
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())

	// Update GC pause time
	if m.NumGC > 0 {
		// Calculate average GC pause time
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}
