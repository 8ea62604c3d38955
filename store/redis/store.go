// Package redis implements store.Store using Redis. Each snapshot record
// is a single JSON document under an "opqueue:"-prefixed key, written
// wholesale — matching the whole-document semantics of the contract.
//
// Usage:
//
//	client := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
//	s := redisstore.New(client)
//	if err := s.Ping(ctx); err != nil { ... }
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	goredis "github.com/redis/go-redis/v9"

	"github.com/xraph/opqueue/op"
	"github.com/xraph/opqueue/store"
)

// Compile-time interface check.
var _ store.Store = (*Store)(nil)

const keyPrefix = "opqueue:"

// recordKey maps a logical record name onto the Redis keyspace.
func recordKey(record string) string { return keyPrefix + record }

// Option configures the Store.
type Option func(*Store)

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// Store implements store.Store backed by Redis.
type Store struct {
	client goredis.Cmdable
	logger *slog.Logger
}

// New creates a new Redis-backed store. The caller owns the Redis client
// lifecycle.
func New(client goredis.Cmdable, opts ...Option) *Store {
	s := &Store{client: client, logger: slog.Default()}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Client returns the underlying Redis client.
func (s *Store) Client() goredis.Cmdable { return s.client }

// Ping verifies the Redis connection is alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close is a no-op — the caller owns the Redis client lifecycle.
func (s *Store) Close() error { return nil }

// LoadActive reads the active-queue snapshot.
func (s *Store) LoadActive(ctx context.Context) ([]*op.Operation, error) {
	return s.load(ctx, store.RecordActive)
}

// SaveActive replaces the active-queue snapshot.
func (s *Store) SaveActive(ctx context.Context, ops []*op.Operation) error {
	return s.save(ctx, store.RecordActive, ops)
}

// DeleteActive removes the active-queue record.
func (s *Store) DeleteActive(ctx context.Context) error {
	if err := s.client.Del(ctx, recordKey(store.RecordActive)).Err(); err != nil {
		return fmt.Errorf("opqueue/redis: delete record %q: %w", store.RecordActive, err)
	}
	return nil
}

// LoadDeadLetter reads the dead-letter snapshot.
func (s *Store) LoadDeadLetter(ctx context.Context) ([]*op.Operation, error) {
	return s.load(ctx, store.RecordDeadLetter)
}

// SaveDeadLetter replaces the dead-letter snapshot.
func (s *Store) SaveDeadLetter(ctx context.Context, ops []*op.Operation) error {
	return s.save(ctx, store.RecordDeadLetter, ops)
}

func (s *Store) load(ctx context.Context, record string) ([]*op.Operation, error) {
	data, err := s.client.Get(ctx, recordKey(record)).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("opqueue/redis: load record %q: %w", record, err)
	}

	var ops []*op.Operation
	if err := json.Unmarshal(data, &ops); err != nil {
		return nil, fmt.Errorf("opqueue/redis: decode record %q: %w", record, err)
	}
	return ops, nil
}

func (s *Store) save(ctx context.Context, record string, ops []*op.Operation) error {
	if ops == nil {
		ops = []*op.Operation{}
	}
	data, err := json.Marshal(ops)
	if err != nil {
		return fmt.Errorf("opqueue/redis: encode record %q: %w", record, err)
	}

	if err := s.client.Set(ctx, recordKey(record), data, 0).Err(); err != nil {
		return fmt.Errorf("opqueue/redis: save record %q: %w", record, err)
	}
	return nil
}
