package badgerstore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/decoflow/production-service/internal/domain"
	"github.com/decoflow/production-service/internal/infrastructure/outboxevents"
)

const (
	jobPrefix      = "job:"
	lineItemPrefix = "lineitems:"
)

func jobKey(id string) []byte      { return []byte(jobPrefix + id) }
func lineItemKey(id string) []byte { return []byte(lineItemPrefix + id) }

// JobRepository stores jobs and their line items
type JobRepository struct {
	store  *Store
	outbox *OutboxRepository
}

// NewJobRepository creates a JobRepository writing domain events to the outbox
func NewJobRepository(store *Store, outbox *OutboxRepository) *JobRepository {
	return &JobRepository{store: store, outbox: outbox}
}

// Create stores a new job at version 1
func (r *JobRepository) Create(ctx context.Context, job *domain.Job, items []domain.LineItem) (err error) {
	defer func(start time.Time) { r.store.observe(ctx, "jobs", "insert", start, err) }(time.Now())

	return r.store.update(ctx, func(txn *badger.Txn) error {
		found, err := exists(txn, jobKey(job.ID))
		if err != nil {
			return err
		}
		if found {
			return fmt.Errorf("job %s: %w", job.ID, domain.ErrAlreadyExists)
		}

		job.Version = 1
		if err := setJSON(txn, jobKey(job.ID), job); err != nil {
			return err
		}
		if items == nil {
			items = []domain.LineItem{}
		}
		if err := setJSON(txn, lineItemKey(job.ID), items); err != nil {
			return err
		}
		return r.saveEvents(ctx, txn, job)
	})
}

// FindByID returns the job or domain.ErrNotFound
func (r *JobRepository) FindByID(ctx context.Context, jobID string) (job *domain.Job, err error) {
	defer func(start time.Time) { r.store.observe(ctx, "jobs", "find", start, err) }(time.Now())

	job = &domain.Job{}
	err = r.store.view(ctx, func(txn *badger.Txn) error {
		return getJSON(txn, jobKey(jobID), job)
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("job %s: %w", jobID, domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return job, nil
}

// Update writes job if the stored version still equals job.Version
func (r *JobRepository) Update(ctx context.Context, job *domain.Job) (err error) {
	defer func(start time.Time) { r.store.observe(ctx, "jobs", "update", start, err) }(time.Now())

	return r.store.update(ctx, func(txn *badger.Txn) error {
		var current domain.Job
		if err := getJSON(txn, jobKey(job.ID), &current); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return fmt.Errorf("job %s: %w", job.ID, domain.ErrNotFound)
			}
			return err
		}
		if current.Version != job.Version {
			return fmt.Errorf("job %s at version %d, expected %d: %w",
				job.ID, current.Version, job.Version, domain.ErrVersionConflict)
		}

		stored := *job
		stored.Version = job.Version + 1
		if err := setJSON(txn, jobKey(job.ID), &stored); err != nil {
			return err
		}
		if err := r.saveEvents(ctx, txn, job); err != nil {
			return err
		}
		job.Version = stored.Version
		return nil
	})
}

func (r *JobRepository) saveEvents(ctx context.Context, txn *badger.Txn, job *domain.Job) error {
	events, err := outboxevents.FromJob(ctx, r.store.events, job)
	if err != nil {
		return err
	}
	if err := r.outbox.saveAll(txn, events); err != nil {
		return fmt.Errorf("failed to save outbox events: %w", err)
	}
	job.ClearDomainEvents()
	return nil
}

// List returns jobs matching filter, priority jobs first, then oldest first
func (r *JobRepository) List(ctx context.Context, filter domain.JobFilter) (jobs []*domain.Job, err error) {
	defer func(start time.Time) { r.store.observe(ctx, "jobs", "list", start, err) }(time.Now())

	jobs = make([]*domain.Job, 0)
	err = r.store.view(ctx, func(txn *badger.Txn) error {
		return scan(txn, []byte(jobPrefix), func(job *domain.Job) bool {
			if filter.Matches(job) {
				jobs = append(jobs, job)
			}
			return true
		})
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(jobs, func(i, j int) bool {
		if jobs[i].Priority != jobs[j].Priority {
			return jobs[i].Priority
		}
		return jobs[i].CreatedAt.Before(jobs[j].CreatedAt)
	})
	if filter.Limit > 0 && len(jobs) > filter.Limit {
		jobs = jobs[:filter.Limit]
	}
	return jobs, nil
}

// GetLineItems implements domain.LineItemSource
func (r *JobRepository) GetLineItems(ctx context.Context, jobID string) (items []domain.LineItem, err error) {
	defer func(start time.Time) { r.store.observe(ctx, "line_items", "find", start, err) }(time.Now())

	err = r.store.view(ctx, func(txn *badger.Txn) error {
		return getJSON(txn, lineItemKey(jobID), &items)
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("line items of job %s: %w", jobID, domain.ErrNotFound)
	}
	return items, err
}
