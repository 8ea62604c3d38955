package opqueue

import (
	"log/slog"
	"time"

	"github.com/xraph/opqueue/backoff"
	"github.com/xraph/opqueue/ext"
)

// Option configures a Queue.
type Option func(*Queue) error

// WithConfig replaces the default configuration.
func WithConfig(cfg Config) Option {
	return func(q *Queue) error {
		q.cfg = cfg
		return nil
	}
}

// WithLogger sets the structured logger for the queue.
func WithLogger(l *slog.Logger) Option {
	return func(q *Queue) error {
		q.logger = l
		return nil
	}
}

// WithBackoff sets the retry delay strategy. The same strategy gates
// readiness checks, so tests that need deterministic gating should use
// a strategy without jitter.
func WithBackoff(s backoff.Strategy) Option {
	return func(q *Queue) error {
		q.strategy = s
		return nil
	}
}

// WithExtensions sets the lifecycle extension registry.
func WithExtensions(r *ext.Registry) Option {
	return func(q *Queue) error {
		q.extensions = r
		return nil
	}
}

// WithClock overrides the queue's time source. Intended for tests that
// need to advance simulated time past a retry gate.
func WithClock(now func() time.Time) Option {
	return func(q *Queue) error {
		q.now = now
		return nil
	}
}
