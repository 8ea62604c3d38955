// Package memory implements store.Store entirely in memory. Snapshots
// are serialized to JSON on write and decoded on read, so tests exercise
// the same round-trip a durable backend would. Intended for unit testing
// and development.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/xraph/opqueue/op"
	"github.com/xraph/opqueue/store"
)

// Ensure Store implements store.Store at compile time.
var _ store.Store = (*Store)(nil)

// Store holds snapshot records keyed by record name. Safe for
// concurrent access.
type Store struct {
	mu      sync.RWMutex
	records map[string][]byte
}

// New returns a new empty Store.
func New() *Store {
	return &Store{
		records: make(map[string][]byte),
	}
}

// Ping always succeeds for the memory store.
func (m *Store) Ping(_ context.Context) error { return nil }

// Close is a no-op for the memory store.
func (m *Store) Close() error { return nil }

// LoadActive reads the active-queue snapshot.
func (m *Store) LoadActive(ctx context.Context) ([]*op.Operation, error) {
	return m.load(ctx, store.RecordActive)
}

// SaveActive replaces the active-queue snapshot.
func (m *Store) SaveActive(ctx context.Context, ops []*op.Operation) error {
	return m.save(ctx, store.RecordActive, ops)
}

// DeleteActive removes the active-queue record.
func (m *Store) DeleteActive(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.records, store.RecordActive)
	return nil
}

// LoadDeadLetter reads the dead-letter snapshot.
func (m *Store) LoadDeadLetter(ctx context.Context) ([]*op.Operation, error) {
	return m.load(ctx, store.RecordDeadLetter)
}

// SaveDeadLetter replaces the dead-letter snapshot.
func (m *Store) SaveDeadLetter(ctx context.Context, ops []*op.Operation) error {
	return m.save(ctx, store.RecordDeadLetter, ops)
}

// HasRecord reports whether a snapshot record exists. Exposed so tests
// can distinguish a deleted record from an empty one.
func (m *Store) HasRecord(record string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.records[record]
	return ok
}

func (m *Store) load(_ context.Context, record string) ([]*op.Operation, error) {
	m.mu.RLock()
	data, ok := m.records[record]
	m.mu.RUnlock()

	if !ok {
		return nil, nil
	}

	var ops []*op.Operation
	if err := json.Unmarshal(data, &ops); err != nil {
		return nil, fmt.Errorf("opqueue/memory: decode record %q: %w", record, err)
	}
	return ops, nil
}

func (m *Store) save(_ context.Context, record string, ops []*op.Operation) error {
	if ops == nil {
		ops = []*op.Operation{}
	}
	data, err := json.Marshal(ops)
	if err != nil {
		return fmt.Errorf("opqueue/memory: encode record %q: %w", record, err)
	}

	m.mu.Lock()
	m.records[record] = data
	m.mu.Unlock()
	return nil
}
