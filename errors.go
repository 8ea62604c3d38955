package opqueue

import "errors"

var (
	// Construction errors.
	ErrNoStore = errors.New("opqueue: no store configured")

	// Capacity errors.
	ErrQueueFull = errors.New("opqueue: queue at capacity")

	// Not found errors.
	ErrOperationNotFound = errors.New("opqueue: operation not found")
)
