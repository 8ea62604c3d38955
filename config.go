package opqueue

import (
	"time"

	"github.com/xraph/opqueue/op"
)

// Config holds configuration for a Queue.
type Config struct {
	// MaxQueueSize is the ceiling on the number of active operations.
	// Enqueue fails with ErrQueueFull once the ceiling is reached and an
	// opportunistic cleanup of stale completed entries frees no room.
	MaxQueueSize int

	// MaxDeadLetterSize is the independent ceiling on the dead-letter
	// store. Inserting beyond it evicts the oldest dead-letter entries.
	MaxDeadLetterSize int

	// MaxRetries is the default retry budget applied to operations that
	// do not set their own via op.WithMaxRetries.
	MaxRetries int

	// CleanupInterval is how often the janitor removes old completed
	// operations.
	CleanupInterval time.Duration

	// CompletedRetention is how long completed operations are kept
	// before the janitor (or a near-capacity enqueue) removes them.
	CompletedRetention time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		MaxQueueSize:       1000,
		MaxDeadLetterSize:  100,
		MaxRetries:         op.DefaultMaxRetries,
		CleanupInterval:    5 * time.Minute,
		CompletedRetention: time.Hour,
	}
}
