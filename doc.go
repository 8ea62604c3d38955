// Package opqueue provides a durable, priority-ordered queue for deferred
// operations — work that was requested while a backend was unreachable and
// must be replayed later.
//
// Opqueue is a library, not a service. Construct a Queue with a snapshot
// store, load the persisted state, and either drive it yourself or attach
// a worker pool with registered handlers.
//
// # Quick Start
//
//	st := memory.New()
//	q, err := opqueue.New(st, opqueue.WithLogger(logger))
//	if err != nil { ... }
//	q.Load(ctx)
//	q.StartJanitor()
//	defer q.Close(ctx)
//
//	opID, err := opqueue.Enqueue(ctx, q, "share_create", payload,
//	    op.WithPriority(op.PriorityHigh))
//
// # Semantics
//
// The in-memory list is the source of truth for the lifetime of the
// process. Every mutation persists a snapshot to the store on a
// best-effort basis: persistence failures are logged and never surfaced
// to callers, so the queue keeps operating in memory and the next
// successful write reconciles the durable copy.
//
// Operations move through a small state machine: pending → processing →
// completed, or back to pending via retry with exponential backoff.
// When the retry budget is exhausted the operation moves to a bounded
// dead-letter store, from which it can be inspected and requeued.
//
// All entity IDs use TypeID — type-prefixed, K-sortable, UUIDv7-based
// identifiers.
package opqueue
