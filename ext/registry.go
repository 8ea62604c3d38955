package ext

import (
	"context"
	"log/slog"
	"time"

	"github.com/xraph/opqueue/op"
)

// Named entry types pair a hook implementation with the extension name
// captured at registration time. This avoids type-asserting back to
// Extension inside the emit methods.
type enqueuedEntry struct {
	name string
	hook OperationEnqueued
}

type startedEntry struct {
	name string
	hook OperationStarted
}

type completedEntry struct {
	name string
	hook OperationCompleted
}

type retryingEntry struct {
	name string
	hook OperationRetrying
}

type deadLetteredEntry struct {
	name string
	hook OperationDeadLettered
}

type requeuedEntry struct {
	name string
	hook OperationRequeued
}

type shutdownEntry struct {
	name string
	hook Shutdown
}

// Registry holds registered extensions and dispatches lifecycle events
// to them. It type-caches extensions at registration time so emit calls
// iterate only over extensions that implement the relevant hook.
type Registry struct {
	extensions []Extension
	logger     *slog.Logger

	// Type-cached slices for each lifecycle hook.
	enqueued     []enqueuedEntry
	started      []startedEntry
	completed    []completedEntry
	retrying     []retryingEntry
	deadLettered []deadLetteredEntry
	requeued     []requeuedEntry
	shutdown     []shutdownEntry
}

// NewRegistry creates an extension registry with the given logger.
func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{logger: logger}
}

// Register adds an extension and type-asserts it into all applicable
// hook caches. Extensions are notified in registration order.
func (r *Registry) Register(e Extension) {
	r.extensions = append(r.extensions, e)
	name := e.Name()

	if h, ok := e.(OperationEnqueued); ok {
		r.enqueued = append(r.enqueued, enqueuedEntry{name, h})
	}
	if h, ok := e.(OperationStarted); ok {
		r.started = append(r.started, startedEntry{name, h})
	}
	if h, ok := e.(OperationCompleted); ok {
		r.completed = append(r.completed, completedEntry{name, h})
	}
	if h, ok := e.(OperationRetrying); ok {
		r.retrying = append(r.retrying, retryingEntry{name, h})
	}
	if h, ok := e.(OperationDeadLettered); ok {
		r.deadLettered = append(r.deadLettered, deadLetteredEntry{name, h})
	}
	if h, ok := e.(OperationRequeued); ok {
		r.requeued = append(r.requeued, requeuedEntry{name, h})
	}
	if h, ok := e.(Shutdown); ok {
		r.shutdown = append(r.shutdown, shutdownEntry{name, h})
	}
}

// Extensions returns all registered extensions.
func (r *Registry) Extensions() []Extension { return r.extensions }

// ──────────────────────────────────────────────────
// Event emitters
// ──────────────────────────────────────────────────

// EmitOperationEnqueued notifies all extensions that implement OperationEnqueued.
func (r *Registry) EmitOperationEnqueued(ctx context.Context, o *op.Operation) {
	for _, e := range r.enqueued {
		if err := e.hook.OnOperationEnqueued(ctx, o); err != nil {
			r.logHookError("OnOperationEnqueued", e.name, err)
		}
	}
}

// EmitOperationStarted notifies all extensions that implement OperationStarted.
func (r *Registry) EmitOperationStarted(ctx context.Context, o *op.Operation) {
	for _, e := range r.started {
		if err := e.hook.OnOperationStarted(ctx, o); err != nil {
			r.logHookError("OnOperationStarted", e.name, err)
		}
	}
}

// EmitOperationCompleted notifies all extensions that implement OperationCompleted.
func (r *Registry) EmitOperationCompleted(ctx context.Context, o *op.Operation, elapsed time.Duration) {
	for _, e := range r.completed {
		if err := e.hook.OnOperationCompleted(ctx, o, elapsed); err != nil {
			r.logHookError("OnOperationCompleted", e.name, err)
		}
	}
}

// EmitOperationRetrying notifies all extensions that implement OperationRetrying.
func (r *Registry) EmitOperationRetrying(ctx context.Context, o *op.Operation, attempt int, delay time.Duration) {
	for _, e := range r.retrying {
		if err := e.hook.OnOperationRetrying(ctx, o, attempt, delay); err != nil {
			r.logHookError("OnOperationRetrying", e.name, err)
		}
	}
}

// EmitOperationDeadLettered notifies all extensions that implement OperationDeadLettered.
func (r *Registry) EmitOperationDeadLettered(ctx context.Context, o *op.Operation) {
	for _, e := range r.deadLettered {
		if err := e.hook.OnOperationDeadLettered(ctx, o); err != nil {
			r.logHookError("OnOperationDeadLettered", e.name, err)
		}
	}
}

// EmitOperationRequeued notifies all extensions that implement OperationRequeued.
func (r *Registry) EmitOperationRequeued(ctx context.Context, o *op.Operation) {
	for _, e := range r.requeued {
		if err := e.hook.OnOperationRequeued(ctx, o); err != nil {
			r.logHookError("OnOperationRequeued", e.name, err)
		}
	}
}

// EmitShutdown notifies all extensions that implement Shutdown.
func (r *Registry) EmitShutdown(ctx context.Context) {
	for _, e := range r.shutdown {
		if err := e.hook.OnShutdown(ctx); err != nil {
			r.logHookError("OnShutdown", e.name, err)
		}
	}
}

// logHookError records a hook failure without interrupting the fan-out.
func (r *Registry) logHookError(hook, extension string, err error) {
	if r.logger == nil {
		return
	}
	r.logger.Warn("extension hook failed",
		slog.String("hook", hook),
		slog.String("extension", extension),
		slog.String("error", err.Error()),
	)
}
