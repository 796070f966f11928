// Package sessionstore keeps the live prediction sessions.
package sessionstore

import (
	"time"

	"github.com/okian/presage/internal/domain/session"
)

// Option applies a configuration option to the ShardedStore.
type Option func(*ShardedStore)

// WithShardCount sets the number of shards. Values below 1 keep the default.
func WithShardCount(n int) Option {
	return func(s *ShardedStore) {
		if n > 0 {
			s.setShardCount(n)
		}
	}
}

// WithSessionOptions sets the options applied to every session the store
// creates (mode, thresholds, horizon, observers).
func WithSessionOptions(opts ...session.Option) Option {
	return func(s *ShardedStore) {
		s.sessionOpts = append(s.sessionOpts, opts...)
	}
}

// WithMetricsUpdateInterval sets the interval for background metrics updates.
func WithMetricsUpdateInterval(interval time.Duration) Option {
	return func(s *ShardedStore) {
		if interval > 0 {
			s.metricsUpdateInterval = interval
		}
	}
}
