package op

import "time"

// Options configures per-operation behavior at enqueue time.
type Options struct {
	// Priority determines consumption ordering.
	Priority Priority

	// MaxRetries is the retry budget before the operation is dead-lettered.
	MaxRetries int

	// Timeout is the maximum duration a replay attempt may run before its
	// context is cancelled. Zero means no per-operation deadline.
	Timeout time.Duration
}

// DefaultOptions returns Options with sensible defaults.
func DefaultOptions() Options {
	return Options{
		Priority:   PriorityNormal,
		MaxRetries: DefaultMaxRetries,
	}
}

// Option is a functional option for configuring an enqueued operation.
type Option func(*Options)

// WithPriority sets the consumption priority.
func WithPriority(p Priority) Option {
	return func(o *Options) {
		o.Priority = p
	}
}

// WithMaxRetries sets the retry budget.
func WithMaxRetries(n int) Option {
	return func(o *Options) {
		o.MaxRetries = n
	}
}

// WithTimeout sets the maximum duration for a single replay attempt.
func WithTimeout(d time.Duration) Option {
	return func(o *Options) {
		o.Timeout = d
	}
}
