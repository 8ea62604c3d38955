// Package bunstore implements store.Store on PostgreSQL via the Bun ORM.
// Each snapshot record occupies one row in a single record table and is
// replaced wholesale on save — whole-document read-modify-write, no
// row-level updates of individual operations.
//
// Usage:
//
//	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
//	db := bun.NewDB(sqldb, pgdialect.New())
//	s := bunstore.New(db)
//	if err := s.Migrate(ctx); err != nil { ... }
package bunstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/uptrace/bun"

	"github.com/xraph/opqueue/op"
	"github.com/xraph/opqueue/store"
)

// Compile-time interface check.
var _ store.Store = (*Store)(nil)

// recordModel is the single-table snapshot row.
type recordModel struct {
	bun.BaseModel `bun:"table:opqueue_records"`

	Record    string    `bun:"record,pk"`
	Data      []byte    `bun:"data,notnull,type:bytea"`
	UpdatedAt time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}

// Option configures the Store.
type Option func(*Store)

// WithLogger sets the logger for the store.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// Store is a Bun implementation of store.Store using PostgreSQL dialect.
// The caller owns the *bun.DB lifecycle; Store never closes it.
type Store struct {
	db     *bun.DB
	logger *slog.Logger
}

// New creates a new Bun store. The caller owns the db lifecycle — the
// Store will not close it on Close().
func New(db *bun.DB, opts ...Option) *Store {
	s := &Store{
		db:     db,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DB returns the underlying *bun.DB for advanced usage.
func (s *Store) DB() *bun.DB {
	return s.db
}

// Migrate creates the record table if it does not exist.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS opqueue_records (
			record TEXT PRIMARY KEY,
			data BYTEA NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`)
	if err != nil {
		return fmt.Errorf("opqueue/bun: create records table: %w", err)
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close is a no-op — the caller owns the db lifecycle.
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
	_, err := s.db.NewDelete().
		Model((*recordModel)(nil)).
		Where("record = ?", store.RecordActive).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("opqueue/bun: delete record %q: %w", store.RecordActive, err)
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
	m := new(recordModel)
	err := s.db.NewSelect().
		Model(m).
		Where("record = ?", record).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("opqueue/bun: load record %q: %w", record, err)
	}

	var ops []*op.Operation
	if err := json.Unmarshal(m.Data, &ops); err != nil {
		return nil, fmt.Errorf("opqueue/bun: decode record %q: %w", record, err)
	}
	return ops, nil
}

func (s *Store) save(ctx context.Context, record string, ops []*op.Operation) error {
	if ops == nil {
		ops = []*op.Operation{}
	}
	data, err := json.Marshal(ops)
	if err != nil {
		return fmt.Errorf("opqueue/bun: encode record %q: %w", record, err)
	}

	m := &recordModel{
		Record:    record,
		Data:      data,
		UpdatedAt: time.Now().UTC(),
	}

	_, err = s.db.NewInsert().
		Model(m).
		On("CONFLICT (record) DO UPDATE").
		Set("data = EXCLUDED.data").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("opqueue/bun: save record %q: %w", record, err)
	}
	return nil
}
