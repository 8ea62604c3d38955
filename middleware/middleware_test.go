package middleware_test

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/xraph/opqueue/id"
	"github.com/xraph/opqueue/middleware"
	"github.com/xraph/opqueue/op"
)

func testOperation() *op.Operation {
	return &op.Operation{
		ID:       id.NewOperationID(),
		Type:     "share_create",
		Priority: op.PriorityNormal,
		Status:   op.StatusProcessing,
	}
}

func TestChain_Empty(t *testing.T) {
	chained := middleware.Chain()

	called := false
	err := chained(context.Background(), testOperation(), func(_ context.Context) error {
		called = true
		return nil
	})
	if err != nil {
		t.Fatalf("empty chain returned error: %v", err)
	}
	if !called {
		t.Error("terminal handler was not called")
	}
}

func TestChain_OrderIsLeftToRightOutermostFirst(t *testing.T) {
	var order []string

	mk := func(name string) middleware.Middleware {
		return func(ctx context.Context, _ *op.Operation, next middleware.Handler) error {
			order = append(order, name+"-before")
			err := next(ctx)
			order = append(order, name+"-after")
			return err
		}
	}

	chained := middleware.Chain(mk("outer"), mk("inner"))
	err := chained(context.Background(), testOperation(), func(_ context.Context) error {
		order = append(order, "handler")
		return nil
	})
	if err != nil {
		t.Fatalf("chain returned error: %v", err)
	}

	want := "outer-before inner-before handler inner-after outer-after"
	if got := strings.Join(order, " "); got != want {
		t.Errorf("execution order = %q, want %q", got, want)
	}
}

func TestChain_PropagatesHandlerError(t *testing.T) {
	wantErr := errors.New("replay failed")
	chained := middleware.Chain(middleware.Logging(slog.Default()))

	err := chained(context.Background(), testOperation(), func(_ context.Context) error {
		return wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Errorf("chain error = %v, want %v", err, wantErr)
	}
}

func TestRecover_ConvertsPanicToError(t *testing.T) {
	rec := middleware.Recover(slog.Default())

	err := rec(context.Background(), testOperation(), func(_ context.Context) error {
		panic("handler blew up")
	})
	if err == nil {
		t.Fatal("expected error from recovered panic")
	}
	if !strings.Contains(err.Error(), "handler blew up") {
		t.Errorf("error %q does not mention the panic value", err.Error())
	}
}

func TestRecover_PassesThroughOnSuccess(t *testing.T) {
	rec := middleware.Recover(slog.Default())

	if err := rec(context.Background(), testOperation(), func(_ context.Context) error {
		return nil
	}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestTimeout_CancelsSlowHandler(t *testing.T) {
	o := testOperation()
	o.Timeout = 10 * time.Millisecond

	tm := middleware.Timeout(slog.Default())
	err := tm(context.Background(), o, func(ctx context.Context) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Second):
			return nil
		}
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("error = %v, want context.DeadlineExceeded", err)
	}
}

func TestTimeout_NoDeadlineWhenZero(t *testing.T) {
	tm := middleware.Timeout(slog.Default())

	err := tm(context.Background(), testOperation(), func(ctx context.Context) error {
		if _, ok := ctx.Deadline(); ok {
			t.Error("context has a deadline for a zero-timeout operation")
		}
		return nil
	})
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
