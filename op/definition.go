package op

import "context"

// Definition is a typed operation definition with a handler function.
// T is the payload type (must be JSON-serializable).
type Definition[T any] struct {
	// Type is the operation kind this handler replays
	// (e.g. "automation_execute", "share_create", "qr_generate").
	Type string

	// Handler replays the operation payload against the live backend.
	Handler func(ctx context.Context, payload T) error

	// Opts configures priority, retries, and timeout.
	Opts Options
}

// NewDefinition creates a typed operation definition.
func NewDefinition[T any](opType string, handler func(ctx context.Context, payload T) error, opts ...Option) *Definition[T] {
	def := &Definition[T]{
		Type:    opType,
		Handler: handler,
		Opts:    DefaultOptions(),
	}
	for _, opt := range opts {
		opt(&def.Opts)
	}
	return def
}
