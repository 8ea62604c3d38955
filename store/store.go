// Package store defines the snapshot persistence contract for the offline
// queue. The durable copy is a crash-recovery snapshot: two logical
// records (the active queue and the dead-letter queue), each written and
// read as a whole document. There are no partial or row-level updates —
// the in-memory queue is the source of truth during a process's lifetime
// and the last successful write reflects some valid historical state.
//
// Backends: Memory (tests/dev), Redis, and Postgres via Bun.
package store

import (
	"context"

	"github.com/xraph/opqueue/op"
)

// Record names for the two logical snapshot documents. Backends map
// these onto their native keyspace (Redis keys, table rows, map keys).
const (
	RecordActive     = "offline_queue"
	RecordDeadLetter = "dead_letter_queue"
)

// Store is the snapshot persistence contract.
//
// Load methods return an empty (nil) slice when the record does not
// exist; a missing record is not an error. Save methods replace the
// record wholesale. DeleteActive removes the active record entirely
// rather than writing an empty document.
type Store interface {
	// LoadActive reads the active-queue snapshot.
	LoadActive(ctx context.Context) ([]*op.Operation, error)

	// SaveActive replaces the active-queue snapshot.
	SaveActive(ctx context.Context, ops []*op.Operation) error

	// DeleteActive removes the active-queue record.
	DeleteActive(ctx context.Context) error

	// LoadDeadLetter reads the dead-letter snapshot.
	LoadDeadLetter(ctx context.Context) ([]*op.Operation, error)

	// SaveDeadLetter replaces the dead-letter snapshot.
	SaveDeadLetter(ctx context.Context, ops []*op.Operation) error

	// Ping checks backend connectivity.
	Ping(ctx context.Context) error

	// Close releases backend resources held by the store.
	Close() error
}
