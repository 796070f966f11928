// Package sessionstore keeps the live prediction sessions.
//
// Sessions are spread over a fixed set of shards keyed by FNV hash of the
// session ID, so concurrent ingest for different sessions rarely contends
// on the same lock.
package sessionstore

import (
	"context"
	"hash/fnv"
	"strconv"
	"sync"
	"time"

	"github.com/okian/presage/internal/adapters/mq/worker"
	"github.com/okian/presage/internal/domain/session"
	"github.com/okian/presage/pkg/logger"
	"github.com/okian/presage/pkg/metrics"
)

// Default store configuration constants.
const (
	defaultShardCount            = 16
	defaultMetricsUpdateInterval = 10 * time.Second
)

// Store provides access to live prediction sessions.
type Store interface {
	// Create registers a new session under id.
	// Returns ErrAlreadyExists if the id is taken.
	Create(ctx context.Context, id string) (*session.Session, error)

	// Get returns the session for id, or ErrNotFound.
	Get(ctx context.Context, id string) (*session.Session, error)

	// Delete closes and removes the session for id, or ErrNotFound.
	Delete(ctx context.Context, id string) error

	// Count returns the number of live sessions.
	Count(ctx context.Context) int
}

type shard struct {
	mu       sync.RWMutex
	sessions map[string]*session.Session
}

// ShardedStore implements Store over hash-partitioned shards. It also
// implements worker.Dispatcher so queued touch events land on their
// session directly.
type ShardedStore struct {
	shards      []*shard
	sessionOpts []session.Option

	metricsUpdateInterval time.Duration

	logger logger.Logger
}

var _ worker.Dispatcher = (*ShardedStore)(nil)

// New creates a sharded store with configuration options.
func New(opts ...Option) *ShardedStore {
	s := &ShardedStore{
		metricsUpdateInterval: defaultMetricsUpdateInterval,
		logger:                logger.Get().Named("sessionstore"),
	}
	for _, opt := range opts {
		opt(s)
	}

	if len(s.shards) == 0 {
		s.setShardCount(defaultShardCount)
	}

	metrics.UpdateSessionShardCount(len(s.shards))
	metrics.UpdateSessionsTotal(0)

	return s
}

func (s *ShardedStore) setShardCount(n int) {
	s.shards = make([]*shard, n)
	for i := range s.shards {
		s.shards[i] = &shard{sessions: make(map[string]*session.Session)}
	}
}

func (s *ShardedStore) shardFor(id string) *shard {
	h := fnv.New32a()
	h.Write([]byte(id)) //nolint:errcheck // fnv writes never fail
	return s.shards[h.Sum32()%uint32(len(s.shards))]
}

// Create registers a new session under id.
func (s *ShardedStore) Create(ctx context.Context, id string) (*session.Session, error) {
	start := time.Now()
	defer func() {
		metrics.RecordSessionUpdateLatency(float64(time.Since(start).Milliseconds()))
	}()

	sh := s.shardFor(id)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	if _, ok := sh.sessions[id]; ok {
		return nil, ErrAlreadyExists
	}

	sess := session.New(id, s.sessionOpts...)
	sh.sessions[id] = sess
	s.logger.Debug(ctx, "session created", logger.String("sessionID", id))
	return sess, nil
}

// Get returns the session for id.
func (s *ShardedStore) Get(ctx context.Context, id string) (*session.Session, error) {
	start := time.Now()
	defer func() {
		metrics.RecordSessionQueryLatency(float64(time.Since(start).Milliseconds()))
	}()

	sh := s.shardFor(id)
	sh.mu.RLock()
	defer sh.mu.RUnlock()

	sess, ok := sh.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return sess, nil
}

// Delete closes and removes the session for id.
func (s *ShardedStore) Delete(ctx context.Context, id string) error {
	sh := s.shardFor(id)
	sh.mu.Lock()
	sess, ok := sh.sessions[id]
	if ok {
		delete(sh.sessions, id)
	}
	sh.mu.Unlock()

	if !ok {
		return ErrNotFound
	}

	sess.Close()
	s.logger.Debug(ctx, "session deleted", logger.String("sessionID", id))
	return nil
}

// Count returns the number of live sessions.
func (s *ShardedStore) Count(ctx context.Context) int {
	total := 0
	for _, sh := range s.shards {
		sh.mu.RLock()
		total += len(sh.sessions)
		sh.mu.RUnlock()
	}
	return total
}

// Dispatch applies a queued touch event to its session.
// Events for sessions deleted mid-flight return ErrNotFound.
func (s *ShardedStore) Dispatch(ctx context.Context, e worker.Event) error {
	sess, err := s.Get(ctx, e.SessionID)
	if err != nil {
		return err
	}
	sess.Handle(e)
	return nil
}

// StartMetricsUpdater starts a background goroutine that refreshes
// store gauges until ctx is canceled.
func (s *ShardedStore) StartMetricsUpdater(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(s.metricsUpdateInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.updateMetrics(ctx)
			}
		}
	}()
}

func (s *ShardedStore) updateMetrics(ctx context.Context) {
	total := 0
	for i, sh := range s.shards {
		sh.mu.RLock()
		n := len(sh.sessions)
		sh.mu.RUnlock()
		total += n
		metrics.UpdateSessionsPerShard(strconv.Itoa(i), n)
	}
	metrics.UpdateSessionsTotal(total)
	s.logger.Debug(ctx, "session gauges refreshed", logger.Int("sessions", total))
}
