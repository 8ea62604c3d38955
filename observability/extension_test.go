package observability_test

import (
	"context"
	"testing"
	"time"

	gu "github.com/xraph/go-utils/metrics"

	"github.com/xraph/opqueue/ext"
	"github.com/xraph/opqueue/id"
	"github.com/xraph/opqueue/observability"
	"github.com/xraph/opqueue/op"
)

func newTestExtension() *observability.MetricsExtension {
	return observability.NewMetricsExtensionWithFactory(gu.NewMetricsCollector("test"))
}

func newTestOperation() *op.Operation {
	return &op.Operation{
		ID:   id.NewOperationID(),
		Type: "sync.push",
	}
}

func TestMetricsExtension_Name(t *testing.T) {
	e := newTestExtension()
	if e.Name() != "observability-metrics" {
		t.Errorf("expected name %q, got %q", "observability-metrics", e.Name())
	}
}

func TestMetricsExtension_OperationEnqueued(t *testing.T) {
	e := newTestExtension()
	if err := e.OnOperationEnqueued(context.Background(), newTestOperation()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.Enqueued.Value() != 1 {
		t.Errorf("Enqueued: want 1, got %v", e.Enqueued.Value())
	}
}

func TestMetricsExtension_OperationCompleted(t *testing.T) {
	e := newTestExtension()
	if err := e.OnOperationCompleted(context.Background(), newTestOperation(), 100*time.Millisecond); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.Completed.Value() != 1 {
		t.Errorf("Completed: want 1, got %v", e.Completed.Value())
	}
}

func TestMetricsExtension_OperationRetrying(t *testing.T) {
	e := newTestExtension()
	if err := e.OnOperationRetrying(context.Background(), newTestOperation(), 1, time.Second); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.Retried.Value() != 1 {
		t.Errorf("Retried: want 1, got %v", e.Retried.Value())
	}
}

func TestMetricsExtension_OperationDeadLettered(t *testing.T) {
	e := newTestExtension()
	if err := e.OnOperationDeadLettered(context.Background(), newTestOperation()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.DeadLettered.Value() != 1 {
		t.Errorf("DeadLettered: want 1, got %v", e.DeadLettered.Value())
	}
}

func TestMetricsExtension_OperationRequeued(t *testing.T) {
	e := newTestExtension()
	if err := e.OnOperationRequeued(context.Background(), newTestOperation()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.Requeued.Value() != 1 {
		t.Errorf("Requeued: want 1, got %v", e.Requeued.Value())
	}
}

func TestMetricsExtension_ViaRegistry(t *testing.T) {
	e := newTestExtension()

	reg := ext.NewRegistry(nil)
	reg.Register(e)

	ctx := context.Background()
	o := newTestOperation()

	reg.EmitOperationEnqueued(ctx, o)
	reg.EmitOperationCompleted(ctx, o, 50*time.Millisecond)
	reg.EmitOperationRetrying(ctx, o, 1, time.Second)
	reg.EmitOperationDeadLettered(ctx, o)
	reg.EmitOperationRequeued(ctx, o)

	checks := []struct {
		name  string
		value float64
	}{
		{"Enqueued", e.Enqueued.Value()},
		{"Completed", e.Completed.Value()},
		{"Retried", e.Retried.Value()},
		{"DeadLettered", e.DeadLettered.Value()},
		{"Requeued", e.Requeued.Value()},
	}

	for _, c := range checks {
		if c.value != 1 {
			t.Errorf("%s: want 1, got %v", c.name, c.value)
		}
	}
}
