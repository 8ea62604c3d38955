// Package ext defines the extension system for the offline queue.
// Extensions are notified of lifecycle events (operation enqueued,
// completed, dead-lettered, etc.) and can react to them — logging,
// metrics, audit trails.
//
// Each lifecycle hook is a separate interface so extensions opt in only
// to the events they care about.
package ext

import (
	"context"
	"time"

	"github.com/xraph/opqueue/op"
)

// Extension is the base interface all extensions must implement.
type Extension interface {
	// Name returns a unique human-readable name for the extension.
	Name() string
}

// ──────────────────────────────────────────────────
// Operation lifecycle hooks
// ──────────────────────────────────────────────────

// OperationEnqueued is called after an operation is accepted into the queue.
type OperationEnqueued interface {
	OnOperationEnqueued(ctx context.Context, o *op.Operation) error
}

// OperationStarted is called when a worker begins replaying an operation.
type OperationStarted interface {
	OnOperationStarted(ctx context.Context, o *op.Operation) error
}

// OperationCompleted is called after an operation is replayed successfully.
type OperationCompleted interface {
	OnOperationCompleted(ctx context.Context, o *op.Operation, elapsed time.Duration) error
}

// OperationRetrying is called when a replay fails but the operation is
// scheduled for retry.
type OperationRetrying interface {
	OnOperationRetrying(ctx context.Context, o *op.Operation, attempt int, delay time.Duration) error
}

// OperationDeadLettered is called when an operation exhausts its retry
// budget and is moved to the dead-letter store.
type OperationDeadLettered interface {
	OnOperationDeadLettered(ctx context.Context, o *op.Operation) error
}

// OperationRequeued is called when a dead-letter entry is requeued into
// the active queue.
type OperationRequeued interface {
	OnOperationRequeued(ctx context.Context, o *op.Operation) error
}

// Shutdown is called during graceful shutdown.
type Shutdown interface {
	OnShutdown(ctx context.Context) error
}
