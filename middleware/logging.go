package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/xraph/opqueue/op"
)

// Logging returns middleware that logs replay start and completion.
func Logging(logger *slog.Logger) Middleware {
	return func(ctx context.Context, o *op.Operation, next Handler) error {
		logger.Info("operation replay started",
			slog.String("op_type", o.Type),
			slog.String("op_id", o.ID.String()),
			slog.String("priority", string(o.Priority)),
		)

		start := time.Now()
		err := next(ctx)
		elapsed := time.Since(start)

		if err != nil {
			logger.Error("operation replay failed",
				slog.String("op_type", o.Type),
				slog.String("op_id", o.ID.String()),
				slog.Duration("elapsed", elapsed),
				slog.String("error", err.Error()),
			)
		} else {
			logger.Info("operation replay completed",
				slog.String("op_type", o.Type),
				slog.String("op_id", o.ID.String()),
				slog.Duration("elapsed", elapsed),
			)
		}

		return err
	}
}
