package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/xraph/opqueue/op"
)

// Recover returns middleware that recovers from panics in the handler
// chain. Panics are converted to errors and logged with a stack trace so
// a misbehaving handler degrades into an ordinary retry instead of
// killing the worker.
func Recover(logger *slog.Logger) Middleware {
	return func(ctx context.Context, o *op.Operation, next Handler) (retErr error) {
		defer func() {
			if r := recover(); r != nil {
				stack := string(debug.Stack())
				logger.Error("operation handler panicked",
					slog.String("op_type", o.Type),
					slog.String("op_id", o.ID.String()),
					slog.Any("panic", r),
					slog.String("stack", stack),
				)
				retErr = fmt.Errorf("panic in operation %s: %v", o.Type, r)
			}
		}()
		return next(ctx)
	}
}
