package badgerstore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/decoflow/production-service/pkg/outbox"
)

const (
	outboxPrefix        = "outbox:"
	outboxPendingPrefix = "outbox-pending:"
)

func outboxKey(id string) []byte { return []byte(outboxPrefix + id) }

// pendingKey orders the relay queue by creation time
func pendingKey(e *outbox.OutboxEvent) []byte {
	return []byte(fmt.Sprintf("%s%020d:%s", outboxPendingPrefix, e.CreatedAt.UnixNano(), e.ID))
}

// OutboxRepository implements outbox.Repository on badger
type OutboxRepository struct {
	store *Store
}

// NewOutboxRepository creates an OutboxRepository
func NewOutboxRepository(store *Store) *OutboxRepository {
	return &OutboxRepository{store: store}
}

// SaveAll joins the transaction in ctx when there is one
func (r *OutboxRepository) SaveAll(ctx context.Context, events []*outbox.OutboxEvent) (err error) {
	defer func(start time.Time) { r.store.observe(ctx, "outbox_events", "insert", start, err) }(time.Now())

	return r.store.update(ctx, func(txn *badger.Txn) error {
		return r.saveAll(txn, events)
	})
}

func (r *OutboxRepository) saveAll(txn *badger.Txn, events []*outbox.OutboxEvent) error {
	for _, e := range events {
		if err := setJSON(txn, outboxKey(e.ID), e); err != nil {
			return err
		}
		if err := txn.Set(pendingKey(e), nil); err != nil {
			return err
		}
	}
	return nil
}

// FindUnpublished returns retryable unpublished events, oldest first
func (r *OutboxRepository) FindUnpublished(ctx context.Context, limit int) (events []*outbox.OutboxEvent, err error) {
	defer func(start time.Time) { r.store.observe(ctx, "outbox_events", "find", start, err) }(time.Now())

	events = make([]*outbox.OutboxEvent, 0)
	err = r.store.view(ctx, func(txn *badger.Txn) error {
		ids := pendingIDs(txn, limit)
		for _, id := range ids {
			var e outbox.OutboxEvent
			if err := getJSON(txn, outboxKey(id), &e); err != nil {
				return err
			}
			if e.ShouldRetry() {
				events = append(events, &e)
			}
		}
		return nil
	})
	return events, err
}

func pendingIDs(txn *badger.Txn, limit int) []string {
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	it := txn.NewIterator(opts)
	defer it.Close()

	prefix := []byte(outboxPendingPrefix)
	ids := make([]string, 0)
	for it.Seek(prefix); it.ValidForPrefix(prefix) && (limit <= 0 || len(ids) < limit); it.Next() {
		key := string(it.Item().Key())
		// prefix, 20 digit timestamp, separator
		ids = append(ids, key[len(outboxPendingPrefix)+21:])
	}
	return ids
}

// MarkPublished stamps the event and removes it from the relay queue
func (r *OutboxRepository) MarkPublished(ctx context.Context, eventID string) (err error) {
	defer func(start time.Time) { r.store.observe(ctx, "outbox_events", "update", start, err) }(time.Now())

	return r.modify(ctx, eventID, func(e *outbox.OutboxEvent) bool {
		now := time.Now().UTC()
		e.PublishedAt = &now
		return false
	})
}

// IncrementRetry records a failed attempt. Events out of retries leave the queue.
func (r *OutboxRepository) IncrementRetry(ctx context.Context, eventID string, errorMsg string) (err error) {
	defer func(start time.Time) { r.store.observe(ctx, "outbox_events", "update", start, err) }(time.Now())

	return r.modify(ctx, eventID, func(e *outbox.OutboxEvent) bool {
		e.RetryCount++
		e.LastError = errorMsg
		return e.ShouldRetry()
	})
}

// modify applies fn; fn reports whether the event stays queued
func (r *OutboxRepository) modify(ctx context.Context, eventID string, fn func(e *outbox.OutboxEvent) bool) error {
	return r.store.update(ctx, func(txn *badger.Txn) error {
		var e outbox.OutboxEvent
		if err := getJSON(txn, outboxKey(eventID), &e); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return fmt.Errorf("outbox event %s not found", eventID)
			}
			return err
		}
		queued := fn(&e)
		if err := setJSON(txn, outboxKey(eventID), &e); err != nil {
			return err
		}
		if !queued {
			return txn.Delete(pendingKey(&e))
		}
		return nil
	})
}

// FindByAggregateID returns all events of an aggregate, oldest first
func (r *OutboxRepository) FindByAggregateID(ctx context.Context, aggregateID string) (events []*outbox.OutboxEvent, err error) {
	defer func(start time.Time) { r.store.observe(ctx, "outbox_events", "find", start, err) }(time.Now())

	events = make([]*outbox.OutboxEvent, 0)
	err = r.store.view(ctx, func(txn *badger.Txn) error {
		return scan(txn, []byte(outboxPrefix), func(e *outbox.OutboxEvent) bool {
			if e.AggregateID == aggregateID {
				events = append(events, e)
			}
			return true
		})
	})
	sort.SliceStable(events, func(i, j int) bool { return events[i].CreatedAt.Before(events[j].CreatedAt) })
	return events, err
}
