// Package worker replays queued operations. Executor runs a single
// operation through the middleware chain and drives the retry state
// machine; Pool runs a fixed set of goroutines that claim and execute
// ready operations until stopped.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/xraph/opqueue"
	"github.com/xraph/opqueue/middleware"
	"github.com/xraph/opqueue/op"
)

// Executor replays one operation at a time. It owns no goroutines; Pool
// (or application code) decides when and how concurrently to call it.
type Executor struct {
	queue    *opqueue.Queue
	registry *op.Registry
	chain    middleware.Middleware
	limiter  *Limiter
	logger   *slog.Logger
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithMiddleware sets the middleware chain applied around every handler
// call, outermost first.
func WithMiddleware(mws ...middleware.Middleware) ExecutorOption {
	return func(e *Executor) {
		e.chain = middleware.Chain(mws...)
	}
}

// WithLimiter throttles attempts per operation type.
func WithLimiter(l *Limiter) ExecutorOption {
	return func(e *Executor) {
		e.limiter = l
	}
}

// NewExecutor creates an Executor replaying operations from q with
// handlers resolved from registry.
func NewExecutor(q *opqueue.Queue, registry *op.Registry, opts ...ExecutorOption) *Executor {
	e := &Executor{
		queue:    q,
		registry: registry,
		chain:    middleware.Chain(middleware.Recover(q.Logger())),
		logger:   q.Logger(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute replays a claimed operation once and settles the outcome:
// completed on success, retry scheduling on failure, dead-letter when
// the queue decides the budget is spent. The returned error is the
// handler's error (nil on success); settlement has already happened
// either way.
func (e *Executor) Execute(ctx context.Context, o *op.Operation) error {
	if e.limiter != nil {
		if err := e.limiter.Wait(ctx, o.Type); err != nil {
			// Context cancelled while throttled. Put the operation back to
			// pending so another worker picks it up later.
			e.queue.UpdateStatus(ctx, o.ID, op.StatusPending, "")
			return err
		}
	}

	handler, ok := e.registry.Get(o.Type)
	if !ok {
		err := fmt.Errorf("no handler registered for operation type %q", o.Type)
		e.settleFailure(ctx, o, err)
		return err
	}

	e.queue.Extensions().EmitOperationStarted(ctx, o.Clone())

	start := time.Now()
	err := e.chain(ctx, o, func(ctx context.Context) error {
		return handler(ctx, o.Payload)
	})
	elapsed := time.Since(start)

	if err != nil {
		e.settleFailure(ctx, o, err)
		return err
	}

	e.queue.UpdateStatus(ctx, o.ID, op.StatusCompleted, "")
	e.queue.Extensions().EmitOperationCompleted(ctx, o.Clone(), elapsed)
	e.logger.Debug("operation completed",
		slog.String("op_id", o.ID.String()),
		slog.String("op_type", o.Type),
		slog.Duration("elapsed", elapsed),
	)
	return nil
}

// settleFailure records the failure and schedules the retry. When the
// budget is exhausted the failed-status update dead-letters the
// operation and the subsequent IncrementRetry reports not-found, which
// is the expected terminal path.
func (e *Executor) settleFailure(ctx context.Context, o *op.Operation, cause error) {
	e.queue.UpdateStatus(ctx, o.ID, op.StatusFailed, cause.Error())

	delay, err := e.queue.IncrementRetry(ctx, o.ID)
	if err != nil {
		if !errors.Is(err, opqueue.ErrOperationNotFound) {
			e.logger.Error("failed to schedule retry",
				slog.String("op_id", o.ID.String()),
				slog.String("error", err.Error()),
			)
		}
		return
	}

	attempt := o.RetryCount + 1
	e.queue.Extensions().EmitOperationRetrying(ctx, o.Clone(), attempt, delay)
	e.logger.Info("operation failed, retry scheduled",
		slog.String("op_id", o.ID.String()),
		slog.String("op_type", o.Type),
		slog.Int("attempt", attempt),
		slog.Duration("delay", delay),
		slog.String("error", cause.Error()),
	)
}
