// Package worker defines the fan-out stage between the ingest queue and
// prediction sessions.
package worker

import (
	"github.com/okian/presage/pkg/logger"
)

// Option applies a configuration option to a Lane.
type Option func(*Lane)

// WithName sets the lane name for identification and logging.
func WithName(name string) Option {
	return func(l *Lane) {
		if name != "" {
			l.name = name
		}
	}
}

// WithLogger sets a custom logger for the lane.
func WithLogger(logger logger.Logger) Option {
	return func(l *Lane) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithBuffer sets the lane channel buffer size.
func WithBuffer(size int) Option {
	return func(l *Lane) {
		if size > 0 {
			l.in = make(chan Event, size)
		}
	}
}
