// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"

	eventqueue "github.com/okian/presage/internal/adapters/mq/queue"
	workerpool "github.com/okian/presage/internal/adapters/mq/worker"
	"github.com/okian/presage/internal/adapters/sessionstore"
	"github.com/okian/presage/internal/adapters/ws"
	"github.com/okian/presage/internal/domain/confidence"
	"github.com/okian/presage/internal/domain/gesture"
	"github.com/okian/presage/internal/domain/latency"
	"github.com/okian/presage/internal/domain/preload"
	"github.com/okian/presage/internal/domain/quality"
	"github.com/okian/presage/internal/domain/session"
	"github.com/okian/presage/internal/domain/touch"
	"github.com/okian/presage/pkg/logger"
	"github.com/okian/presage/pkg/metrics"
)

// Service implements the API dependencies for the prediction system.
type Service struct {
	mu sync.RWMutex

	// Core components
	store      *sessionstore.ShardedStore
	eventQueue eventqueue.Queue
	workerPool *workerpool.Pool
	monitor    *latency.Monitor
	controller *quality.Controller
	preloads   *preload.Cache
	hub        *ws.Hub

	// Configuration
	workerCount     int
	queueSize       int
	sessionShards   int
	mode            confidence.Mode
	minConfidence   confidence.Level
	thresholds      gesture.Thresholds
	historySize     int
	horizonMS       float64
	enabled         bool
	targetLatencyMS float64
	preloadCapacity int

	// State
	started bool
	cancel  context.CancelFunc

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of dispatch lanes.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum size of the touch event queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithSessionShards sets the session store shard count.
func WithSessionShards(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.sessionShards = n
		}
	}
}

// WithMode sets the confidence mode for new sessions.
func WithMode(m confidence.Mode) Option {
	return func(s *Service) {
		if m.Valid() {
			s.mode = m
		}
	}
}

// WithMinConfidenceToAct adds a qualitative confidence floor on action
// triggering for new sessions.
func WithMinConfidenceToAct(l confidence.Level) Option {
	return func(s *Service) {
		s.minConfidence = l
	}
}

// WithThresholds sets the gesture thresholds for new sessions.
func WithThresholds(th gesture.Thresholds) Option {
	return func(s *Service) {
		s.thresholds = th
	}
}

// WithHistorySize bounds the per-touch sample history for new sessions.
func WithHistorySize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.historySize = n
		}
	}
}

// WithPredictionHorizon sets the end-point extrapolation horizon in
// milliseconds for new sessions.
func WithPredictionHorizon(ms float64) Option {
	return func(s *Service) {
		if ms > 0 {
			s.horizonMS = ms
		}
	}
}

// WithEnabled toggles prediction for new sessions.
func WithEnabled(enabled bool) Option {
	return func(s *Service) {
		s.enabled = enabled
	}
}

// WithTargetLatency sets the frame budget target in milliseconds.
func WithTargetLatency(ms float64) Option {
	return func(s *Service) {
		if ms > 0 {
			s.targetLatencyMS = ms
		}
	}
}

// WithPreloadCapacity bounds the preload cache.
func WithPreloadCapacity(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.preloadCapacity = n
		}
	}
}

// WithHub attaches a websocket hub that receives the event stream.
func WithHub(hub *ws.Hub) Option {
	return func(s *Service) {
		s.hub = hub
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:   runtime.NumCPU() * 4,
		queueSize:     100000,
		sessionShards: 16,
		mode:          confidence.Balanced,
		thresholds:    gesture.DefaultThresholds(),
		historySize:   20,
		horizonMS:     100,
		enabled:       true,
	}

	// Apply all options
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	s.logger.Info(ctx, "starting prediction service...")

	runCtx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	s.controller = quality.NewController(
		quality.WithProfileChange(s.onProfileChange),
	)

	monitorOpts := []latency.Option{
		latency.WithModeChange(s.onModeChange),
	}
	if s.targetLatencyMS > 0 {
		monitorOpts = append(monitorOpts, latency.WithTargetLatency(s.targetLatencyMS))
	}
	s.monitor = latency.NewMonitor(monitorOpts...)

	preloadOpts := []preload.Option{}
	if s.preloadCapacity > 0 {
		preloadOpts = append(preloadOpts, preload.WithCapacity(s.preloadCapacity))
	}
	s.preloads = preload.NewCache(preloadOpts...)

	sessionOpts := []session.Option{
		session.WithMode(s.mode),
		session.WithMinConfidenceToAct(s.minConfidence),
		session.WithThresholds(s.thresholds),
		session.WithHistorySize(s.historySize),
		session.WithPredictionHorizon(s.horizonMS),
		session.WithEnabled(s.enabled),
		session.WithObserver(s.observer()),
	}
	if s.hub != nil {
		sessionOpts = append(sessionOpts, session.WithObserver(s.hub))
	}

	s.store = sessionstore.New(
		sessionstore.WithShardCount(s.sessionShards),
		sessionstore.WithSessionOptions(sessionOpts...),
	)
	s.store.StartMetricsUpdater(runCtx)

	s.eventQueue = eventqueue.NewInMemoryQueue(
		eventqueue.WithCapacity(s.queueSize),
		eventqueue.WithBufferSize(s.queueSize),
	)

	s.workerPool = workerpool.NewPool(s.workerCount, s.eventQueue, s.store)
	s.workerPool.Start(runCtx)

	if s.hub != nil {
		go s.hub.Run(runCtx)
	}

	s.started = true
	s.logger.Info(ctx, "prediction service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("sessionShards", s.sessionShards),
		logger.String("mode", string(s.mode)),
	)

	return nil
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx := context.Background()
	s.logger.Info(ctx, "stopping prediction service...")

	// Closes the queue and drains every lane.
	if s.workerPool != nil {
		_ = s.workerPool.Shutdown(ctx)
	}

	if s.cancel != nil {
		s.cancel()
	}

	s.started = false
	s.logger.Info(ctx, "prediction service stopped")
}

// onModeChange feeds latency mode transitions into the quality controller
// and the event stream.
func (s *Service) onModeChange(m latency.Mode) {
	metrics.RecordLatencyModeChange(string(m))
	if s.controller != nil {
		s.controller.SetMode(m)
	}
	if s.hub != nil {
		s.hub.BroadcastLatencyMode(m)
	}
}

// onProfileChange publishes derived quality profile transitions.
func (s *Service) onProfileChange(p quality.Profile) {
	metrics.RecordQualityProfileChange(string(p.RenderTier), string(p.AudioTier))
	if s.hub != nil {
		s.hub.BroadcastQualityProfile(p)
	}
}

// CreateSession registers a new session and returns its id.
func (s *Service) CreateSession(ctx context.Context) (string, error) {
	id := uuid.NewString()
	if _, err := s.store.Create(ctx, id); err != nil {
		return "", err
	}
	return id, nil
}

// DeleteSession tears down a session.
func (s *Service) DeleteSession(ctx context.Context, id string) error {
	return s.store.Delete(ctx, id)
}

// HasSession reports whether a session id is live.
func (s *Service) HasSession(ctx context.Context, id string) bool {
	_, err := s.store.Get(ctx, id)
	return err == nil
}

// Enqueue submits a touch event for asynchronous processing.
func (s *Service) Enqueue(ctx context.Context, e touch.Event) bool {
	ok := s.eventQueue.Enqueue(ctx, e)
	if ok {
		metrics.UpdateQueueSize(s.eventQueue.Len(ctx))
	}
	return ok
}

// LastPrediction returns the latest prediction for a session.
func (s *Service) LastPrediction(ctx context.Context, id string) (session.Prediction, bool, error) {
	sess, err := s.store.Get(ctx, id)
	if err != nil {
		return session.Prediction{}, false, err
	}
	p, ok := sess.LastPrediction()
	return p, ok, nil
}

// SessionMetrics returns accuracy counters for a session.
func (s *Service) SessionMetrics(ctx context.Context, id string) (session.Metrics, error) {
	sess, err := s.store.Get(ctx, id)
	if err != nil {
		return session.Metrics{}, err
	}
	return sess.Metrics(), nil
}

// ConfirmGesture reports the gesture the client actually observed.
func (s *Service) ConfirmGesture(ctx context.Context, id string, g gesture.Gesture) error {
	sess, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	sess.ConfirmGesture(g)
	return nil
}

// RejectPrediction reports that the current prediction was wrong.
func (s *Service) RejectPrediction(ctx context.Context, id string) error {
	sess, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	sess.RejectPrediction()
	return nil
}

// ResetSession clears tracking state but keeps accuracy counters.
func (s *Service) ResetSession(ctx context.Context, id string) error {
	sess, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	sess.Reset()
	return nil
}

// RecordFrame feeds one frame timestamp into the latency monitor.
func (s *Service) RecordFrame(ctx context.Context, ts time.Time) {
	s.monitor.RecordFrame(ts)
	metrics.RecordFrameObserved()

	snap := s.monitor.Snapshot()
	metrics.UpdateFrameLatencyAverage(snap.AverageMS)
	metrics.UpdateFrameLatencyP95(snap.P95MS)
}

// LatencySnapshot returns the monitor's current read state.
func (s *Service) LatencySnapshot(ctx context.Context) latency.Stats {
	return s.monitor.Snapshot()
}

// QualityProfile returns the current derived quality profile.
func (s *Service) QualityProfile(ctx context.Context) quality.Profile {
	return s.controller.Profile()
}

// ForceQuality pins a quality tier; "auto" clears the override.
func (s *Service) ForceQuality(ctx context.Context, forced string) error {
	return s.controller.SetForced(forced)
}

// SetEnvironment feeds a fresh environment snapshot into the controller.
func (s *Service) SetEnvironment(ctx context.Context, env quality.EnvironmentSnapshot) {
	s.controller.SetEnvironment(env)
}

// RecordUnderrun counts one audio buffer underrun.
func (s *Service) RecordUnderrun(ctx context.Context) {
	s.controller.RecordUnderrun()
	metrics.UpdateAudioUnderruns(s.controller.Underruns())
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":       s.started,
		"workerCount":   s.workerCount,
		"queueSize":     s.queueSize,
		"sessionShards": s.sessionShards,
		"mode":          string(s.mode),
	}

	if s.started {
		queueLen := s.eventQueue.Len(ctx)
		sessions := s.store.Count(ctx)
		profile := s.controller.Profile()
		snap := s.monitor.Snapshot()

		stats["queueLength"] = queueLen
		stats["sessions"] = sessions
		stats["preloadedAnimations"] = s.preloads.Len()
		stats["latencyMode"] = string(snap.Mode)
		stats["droppedFrames"] = snap.DroppedFrames
		stats["renderTier"] = string(profile.RenderTier)
		stats["audioTier"] = string(profile.AudioTier)
		if s.hub != nil {
			stats["eventClients"] = s.hub.ClientCount()
		}

		// Update metrics
		metrics.UpdateQueueSize(queueLen)
		metrics.UpdateSessionsLive(sessions)
		metrics.UpdateWorkerCount(s.workerCount)
	}

	return stats
}
