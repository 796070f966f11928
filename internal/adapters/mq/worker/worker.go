// Package worker defines the fan-out stage between the ingest queue and
// prediction sessions. Events for the same session must be applied in
// arrival order, so the pool routes each event to a fixed lane chosen by
// hashing the session ID; every lane is drained by exactly one worker.
package worker

import (
	"context"
	"fmt"
	"hash/fnv"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/okian/presage/internal/adapters/mq/queue"
	"github.com/okian/presage/pkg/logger"
	"github.com/okian/presage/pkg/metrics"
)

// Default worker configuration constants.
const (
	defaultLaneMultiplier = 4 // multiplier for runtime.NumCPU()
	defaultLaneBuffer     = 1024
	metricsUpdateInterval = 5 * time.Second
	laneShutdownTimeout   = 5 * time.Second
	poolShutdownTimeout   = 30 * time.Second
)

// Event abstracts what workers read off the queue.
type Event = queue.Event

// Dispatcher applies a touch event to its prediction session.
type Dispatcher interface {
	Dispatch(ctx context.Context, e Event) error
}

// Queue defines how the pool receives events.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Event
}

// Lane processes the events routed to it, one at a time, in order.
type Lane struct {
	in         chan Event
	dispatcher Dispatcher
	name       string

	done chan struct{}

	logger logger.Logger
}

// NewLane creates a lane with configuration options.
func NewLane(dispatcher Dispatcher, opts ...Option) *Lane {
	l := &Lane{
		in:         make(chan Event, defaultLaneBuffer),
		dispatcher: dispatcher,
		name:       "lane",
		done:       make(chan struct{}),
		logger:     logger.Get().Named("worker"),
	}

	for _, opt := range opts {
		opt(l)
	}

	if l.name != "lane" {
		l.logger = l.logger.Named(l.name)
	}

	return l
}

// Push hands an event to the lane. It blocks when the lane buffer is full
// so the caller cannot reorder a session's samples by skipping ahead.
func (l *Lane) Push(e Event) {
	l.in <- e
}

// Run drains the lane until its channel is closed or ctx is canceled.
func (l *Lane) Run(ctx context.Context) {
	defer close(l.done)

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-l.in:
			if !ok {
				return
			}
			if err := l.processEvent(ctx, event); err != nil {
				l.logger.Error(ctx, "error processing touch event", logger.Error(err))
			}
		}
	}
}

// processEvent applies a single event to its session.
func (l *Lane) processEvent(ctx context.Context, event Event) error {
	start := time.Now()
	defer func() {
		latency := time.Since(start).Milliseconds()
		metrics.RecordWorkerProcessingLatency(float64(latency))
	}()

	if err := l.dispatcher.Dispatch(ctx, event); err != nil {
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "dispatch_error")
		metrics.RecordErrorByType("dispatch_error", "high")
		l.logger.Error(ctx, "dispatch failed for touch event",
			logger.String("sessionID", event.SessionID),
			logger.Int("touchID", event.Sample.ID),
			logger.Error(err),
		)
		return fmt.Errorf("failed to dispatch event for session %s: %w", event.SessionID, err)
	}

	metrics.RecordEventProcessed()
	return nil
}

// Pool routes queued events across a fixed set of lanes.
type Pool struct {
	lanes      []*Lane
	queue      Queue
	dispatcher Dispatcher

	// Shutdown control
	shutdown   chan struct{}
	routerDone chan struct{}

	// Metrics tracking
	processedCount    atomic.Int64
	lastProcessedTime time.Time

	// Logging
	logger logger.Logger
}

// NewPool creates a pool with laneCount lanes. Values below 1 derive the
// lane count from the CPU count.
func NewPool(laneCount int, q Queue, dispatcher Dispatcher) *Pool {
	if laneCount < 1 {
		laneCount = runtime.NumCPU() * defaultLaneMultiplier
	}

	pool := &Pool{
		lanes:             make([]*Lane, laneCount),
		queue:             q,
		dispatcher:        dispatcher,
		shutdown:          make(chan struct{}),
		routerDone:        make(chan struct{}),
		lastProcessedTime: time.Now(),
		logger:            logger.Get().Named("worker-pool"),
	}

	for i := 0; i < laneCount; i++ {
		pool.lanes[i] = NewLane(
			dispatcher,
			WithName("lane-"+strconv.Itoa(i)),
		)
	}

	metrics.UpdateWorkerActiveCount(laneCount)
	metrics.UpdateWorkerIdleCount(0)
	metrics.UpdateWorkerMessagesPerSecond(0.0)

	return pool
}

// Start starts the router and all lanes.
func (p *Pool) Start(ctx context.Context) {
	for _, lane := range p.lanes {
		go lane.Run(ctx)
	}

	go p.route(ctx)
	go p.startMetricsUpdater(ctx)
}

// route pulls events off the queue and forwards each to the lane owning
// its session. The blocking send is deliberate: dropping or re-routing
// here would reorder a session's samples.
func (p *Pool) route(ctx context.Context) {
	defer func() {
		for _, lane := range p.lanes {
			close(lane.in)
		}
		close(p.routerDone)
	}()

	// Shutdown is signaled by the queue closing, not by p.shutdown: exiting
	// on the shutdown channel here could abandon a drained-but-unrouted
	// backlog.
	eventChan := p.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-eventChan:
			if !ok {
				return
			}
			lane := p.lanes[p.laneFor(event.SessionID)]
			select {
			case lane.in <- event:
				p.processedCount.Add(1)
			case <-ctx.Done():
				return
			}
		}
	}
}

// laneFor maps a session ID to its lane index.
func (p *Pool) laneFor(sessionID string) int {
	h := fnv.New32a()
	h.Write([]byte(sessionID)) //nolint:errcheck // fnv writes never fail
	return int(h.Sum32() % uint32(len(p.lanes)))
}

// startMetricsUpdater starts a background goroutine that updates worker metrics.
func (p *Pool) startMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(metricsUpdateInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-p.shutdown:
			return
		case <-ticker.C:
			p.updateMetrics()
		}
	}
}

// updateMetrics refreshes throughput gauges.
func (p *Pool) updateMetrics() {
	now := time.Now()
	timeDiff := now.Sub(p.lastProcessedTime).Seconds()
	if timeDiff > 0 {
		messagesPerSecond := float64(p.processedCount.Swap(0)) / timeDiff
		metrics.UpdateWorkerMessagesPerSecond(messagesPerSecond)
	}
	p.lastProcessedTime = now
}

// Shutdown gracefully shuts down the pool: the queue stops accepting,
// the router drains, then every lane finishes its backlog.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	close(p.shutdown)

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	select {
	case <-p.routerDone:
	case <-shutdownCtx.Done():
		p.logger.Warn(ctx, "router shutdown timed out")
		return fmt.Errorf("router shutdown timed out: %w", shutdownCtx.Err())
	}

	for i, lane := range p.lanes {
		select {
		case <-lane.done:
		case <-shutdownCtx.Done():
			p.logger.Warn(ctx, "lane shutdown timed out", logger.Int("lane_id", i))
		}
	}

	return nil
}
