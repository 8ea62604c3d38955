package middleware

import (
	"context"
	"log/slog"

	"github.com/xraph/opqueue/op"
)

// Timeout returns middleware that enforces a per-operation replay
// deadline. If the operation has a non-zero Timeout, a
// context.WithTimeout wraps the handler call. When the deadline is
// exceeded the context is cancelled and the handler should return
// context.DeadlineExceeded.
func Timeout(logger *slog.Logger) Middleware {
	return func(ctx context.Context, o *op.Operation, next Handler) error {
		if o.Timeout > 0 {
			logger.Debug("operation timeout set",
				slog.String("op_id", o.ID.String()),
				slog.Duration("timeout", o.Timeout),
			)
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, o.Timeout)
			defer cancel()
		}
		return next(ctx)
	}
}
