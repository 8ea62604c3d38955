package ext_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/xraph/opqueue/ext"
	"github.com/xraph/opqueue/id"
	"github.com/xraph/opqueue/op"
)

// recordingExtension opts in to every hook and counts calls.
type recordingExtension struct {
	enqueued     int
	started      int
	completed    int
	retrying     int
	deadLettered int
	requeued     int
	shutdown     int
}

func (x *recordingExtension) Name() string { return "recording" }

func (x *recordingExtension) OnOperationEnqueued(_ context.Context, _ *op.Operation) error {
	x.enqueued++
	return nil
}

func (x *recordingExtension) OnOperationStarted(_ context.Context, _ *op.Operation) error {
	x.started++
	return nil
}

func (x *recordingExtension) OnOperationCompleted(_ context.Context, _ *op.Operation, _ time.Duration) error {
	x.completed++
	return nil
}

func (x *recordingExtension) OnOperationRetrying(_ context.Context, _ *op.Operation, _ int, _ time.Duration) error {
	x.retrying++
	return nil
}

func (x *recordingExtension) OnOperationDeadLettered(_ context.Context, _ *op.Operation) error {
	x.deadLettered++
	return nil
}

func (x *recordingExtension) OnOperationRequeued(_ context.Context, _ *op.Operation) error {
	x.requeued++
	return nil
}

func (x *recordingExtension) OnShutdown(_ context.Context) error {
	x.shutdown++
	return nil
}

// enqueueOnlyExtension opts in to a single hook.
type enqueueOnlyExtension struct {
	calls int
}

func (x *enqueueOnlyExtension) Name() string { return "enqueue-only" }

func (x *enqueueOnlyExtension) OnOperationEnqueued(_ context.Context, _ *op.Operation) error {
	x.calls++
	return nil
}

// failingExtension always errors; emits must keep going.
type failingExtension struct{}

func (x *failingExtension) Name() string { return "failing" }

func (x *failingExtension) OnOperationEnqueued(_ context.Context, _ *op.Operation) error {
	return errors.New("hook exploded")
}

func testOperation() *op.Operation {
	return &op.Operation{
		ID:       id.NewOperationID(),
		Type:     "automation_execute",
		Priority: op.PriorityNormal,
		Status:   op.StatusPending,
	}
}

func TestRegistry_FansOutAllHooks(t *testing.T) {
	r := ext.NewRegistry(slog.Default())
	x := &recordingExtension{}
	r.Register(x)

	ctx := context.Background()
	o := testOperation()

	r.EmitOperationEnqueued(ctx, o)
	r.EmitOperationStarted(ctx, o)
	r.EmitOperationCompleted(ctx, o, time.Millisecond)
	r.EmitOperationRetrying(ctx, o, 1, time.Second)
	r.EmitOperationDeadLettered(ctx, o)
	r.EmitOperationRequeued(ctx, o)
	r.EmitShutdown(ctx)

	if x.enqueued != 1 || x.started != 1 || x.completed != 1 ||
		x.retrying != 1 || x.deadLettered != 1 || x.requeued != 1 || x.shutdown != 1 {
		t.Errorf("hook counts: %+v, want 1 each", *x)
	}
}

func TestRegistry_OptInHooksOnly(t *testing.T) {
	r := ext.NewRegistry(slog.Default())
	x := &enqueueOnlyExtension{}
	r.Register(x)

	ctx := context.Background()
	o := testOperation()

	// These must not panic even though the extension doesn't implement them.
	r.EmitOperationCompleted(ctx, o, time.Millisecond)
	r.EmitShutdown(ctx)

	r.EmitOperationEnqueued(ctx, o)
	r.EmitOperationEnqueued(ctx, o)

	if x.calls != 2 {
		t.Errorf("enqueued calls = %d, want 2", x.calls)
	}
}

func TestRegistry_HookErrorDoesNotStopFanOut(t *testing.T) {
	r := ext.NewRegistry(slog.Default())
	failing := &failingExtension{}
	counting := &enqueueOnlyExtension{}
	r.Register(failing)
	r.Register(counting)

	r.EmitOperationEnqueued(context.Background(), testOperation())

	if counting.calls != 1 {
		t.Errorf("extension after the failing one was not notified: calls = %d", counting.calls)
	}
}

func TestRegistry_Extensions(t *testing.T) {
	r := ext.NewRegistry(slog.Default())
	r.Register(&recordingExtension{})
	r.Register(&enqueueOnlyExtension{})

	if got := len(r.Extensions()); got != 2 {
		t.Errorf("Extensions() length = %d, want 2", got)
	}
}
