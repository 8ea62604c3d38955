// Package observability ships a metrics extension that counts queue
// lifecycle events via the go-utils MetricFactory.
package observability

import (
	"context"
	"time"

	gu "github.com/xraph/go-utils/metrics"

	"github.com/xraph/opqueue/ext"
	"github.com/xraph/opqueue/op"
)

// Compile-time interface checks.
var (
	_ ext.Extension             = (*MetricsExtension)(nil)
	_ ext.OperationEnqueued     = (*MetricsExtension)(nil)
	_ ext.OperationCompleted    = (*MetricsExtension)(nil)
	_ ext.OperationRetrying     = (*MetricsExtension)(nil)
	_ ext.OperationDeadLettered = (*MetricsExtension)(nil)
	_ ext.OperationRequeued     = (*MetricsExtension)(nil)
)

// MetricsExtension records queue lifecycle metrics via go-utils
// MetricFactory. Register it as an extension to automatically track
// enqueue rates, completion counts, retries, dead-letter entries, and
// requeues.
type MetricsExtension struct {
	Enqueued     gu.Counter
	Completed    gu.Counter
	Retried      gu.Counter
	DeadLettered gu.Counter
	Requeued     gu.Counter
}

// NewMetricsExtension creates a MetricsExtension using a default
// metrics collector.
func NewMetricsExtension() *MetricsExtension {
	return NewMetricsExtensionWithFactory(gu.NewMetricsCollector("opqueue/observability"))
}

// NewMetricsExtensionWithFactory creates a MetricsExtension with the
// provided MetricFactory.
func NewMetricsExtensionWithFactory(factory gu.MetricFactory) *MetricsExtension {
	return &MetricsExtension{
		Enqueued:     factory.Counter("opqueue.operation.enqueued"),
		Completed:    factory.Counter("opqueue.operation.completed"),
		Retried:      factory.Counter("opqueue.operation.retried"),
		DeadLettered: factory.Counter("opqueue.operation.dead_lettered"),
		Requeued:     factory.Counter("opqueue.operation.requeued"),
	}
}

// Name implements ext.Extension.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// OnOperationEnqueued implements ext.OperationEnqueued.
func (m *MetricsExtension) OnOperationEnqueued(_ context.Context, _ *op.Operation) error {
	m.Enqueued.Inc()
	return nil
}

// OnOperationCompleted implements ext.OperationCompleted.
func (m *MetricsExtension) OnOperationCompleted(_ context.Context, _ *op.Operation, _ time.Duration) error {
	m.Completed.Inc()
	return nil
}

// OnOperationRetrying implements ext.OperationRetrying.
func (m *MetricsExtension) OnOperationRetrying(_ context.Context, _ *op.Operation, _ int, _ time.Duration) error {
	m.Retried.Inc()
	return nil
}

// OnOperationDeadLettered implements ext.OperationDeadLettered.
func (m *MetricsExtension) OnOperationDeadLettered(_ context.Context, _ *op.Operation) error {
	m.DeadLettered.Inc()
	return nil
}

// OnOperationRequeued implements ext.OperationRequeued.
func (m *MetricsExtension) OnOperationRequeued(_ context.Context, _ *op.Operation) error {
	m.Requeued.Inc()
	return nil
}
