// Package badgerstore is the embedded store backend. Every repository shares
// one badger.DB; a read-write transaction carried in the context makes a
// series of repository calls atomic.
package badgerstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/decoflow/production-service/internal/domain"
	"github.com/decoflow/production-service/pkg/cloudevents"
	"github.com/decoflow/production-service/pkg/logging"
	"github.com/decoflow/production-service/pkg/metrics"
)

const backendName = "badger"

// Options configures Open
type Options struct {
	Path     string
	InMemory bool
	Logger   *logging.Logger
	Metrics  *metrics.Metrics
	Events   *cloudevents.EventFactory
}

// Store owns the badger database
type Store struct {
	db      *badger.DB
	logger  *logging.Logger
	metrics *metrics.Metrics
	events  *cloudevents.EventFactory
}

type txnKey struct{}

// Open opens (or creates) the database
func Open(opts Options) (*Store, error) {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}

	bopts := badger.DefaultOptions(opts.Path).WithLogger(newBadgerLogger(logger))
	if opts.InMemory {
		bopts = bopts.WithInMemory(true).WithDir("").WithValueDir("")
	}

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("opening badger: %w", err)
	}

	events := opts.Events
	if events == nil {
		events = cloudevents.NewEventFactory("/production-service")
	}

	return &Store{db: db, logger: logger, metrics: opts.Metrics, events: events}, nil
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

// DB exposes the underlying database
func (s *Store) DB() *badger.DB {
	return s.db
}

// HealthCheck reports whether the database is open
func (s *Store) HealthCheck(_ context.Context) error {
	if s.db.IsClosed() {
		return errors.New("badger database is closed")
	}
	return nil
}

// WithinTransaction runs fn in a read-write transaction. Nested calls join
// the outer transaction. A commit conflict is reported as
// domain.ErrVersionConflict.
func (s *Store) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := txnFrom(ctx); ok {
		return fn(ctx)
	}

	txn := s.db.NewTransaction(true)
	defer txn.Discard()

	if err := fn(context.WithValue(ctx, txnKey{}, txn)); err != nil {
		return err
	}
	if err := txn.Commit(); err != nil {
		if errors.Is(err, badger.ErrConflict) {
			return fmt.Errorf("%w: %v", domain.ErrVersionConflict, err)
		}
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func txnFrom(ctx context.Context) (*badger.Txn, bool) {
	txn, ok := ctx.Value(txnKey{}).(*badger.Txn)
	return txn, ok
}

// update runs fn in the context transaction or a new one
func (s *Store) update(ctx context.Context, fn func(txn *badger.Txn) error) error {
	if txn, ok := txnFrom(ctx); ok {
		return fn(txn)
	}
	return s.WithinTransaction(ctx, func(ctx context.Context) error {
		txn, _ := txnFrom(ctx)
		return fn(txn)
	})
}

// view runs fn in the context transaction or a new read-only one
func (s *Store) view(ctx context.Context, fn func(txn *badger.Txn) error) error {
	if txn, ok := txnFrom(ctx); ok {
		return fn(txn)
	}
	return s.db.View(fn)
}

func (s *Store) observe(ctx context.Context, collection, operation string, start time.Time, err error) {
	success := err == nil || errors.Is(err, domain.ErrNotFound)
	duration := time.Since(start)
	if s.metrics != nil {
		s.metrics.RecordStoreOperation(backendName, collection, operation, success, duration)
	}
	s.logger.StoreOperation(ctx, backendName, collection, operation, duration, success)
}

func getJSON(txn *badger.Txn, key []byte, v any) error {
	item, err := txn.Get(key)
	if err != nil {
		return err
	}
	return item.Value(func(val []byte) error {
		return json.Unmarshal(val, v)
	})
}

func setJSON(txn *badger.Txn, key []byte, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return txn.Set(key, data)
}

func exists(txn *badger.Txn, key []byte) (bool, error) {
	_, err := txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	return err == nil, err
}

// scan decodes every value under prefix in key order. fn returns false to stop.
func scan[T any](txn *badger.Txn, prefix []byte, fn func(v *T) bool) error {
	it := txn.NewIterator(badger.DefaultIteratorOptions)
	defer it.Close()

	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		v := new(T)
		if err := it.Item().Value(func(val []byte) error {
			return json.Unmarshal(val, v)
		}); err != nil {
			return err
		}
		if !fn(v) {
			return nil
		}
	}
	return nil
}
