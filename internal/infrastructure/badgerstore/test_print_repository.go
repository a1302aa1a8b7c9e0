package badgerstore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/decoflow/production-service/internal/domain"
)

const testPrintPrefix = "testprint:"

func testPrintKey(id string) []byte { return []byte(testPrintPrefix + id) }

// TestPrintRepository stores test print approvals
type TestPrintRepository struct {
	store *Store
}

// NewTestPrintRepository creates a TestPrintRepository
func NewTestPrintRepository(store *Store) *TestPrintRepository {
	return &TestPrintRepository{store: store}
}

// Save inserts a new approval or replaces the previous version of one
func (r *TestPrintRepository) Save(ctx context.Context, approval *domain.TestPrintApproval) (err error) {
	defer func(start time.Time) { r.store.observe(ctx, "test_prints", "save", start, err) }(time.Now())

	return r.store.update(ctx, func(txn *badger.Txn) error {
		var current domain.TestPrintApproval
		err := getJSON(txn, testPrintKey(approval.ID), &current)
		switch {
		case errors.Is(err, badger.ErrKeyNotFound):
			if approval.Version != 1 {
				return fmt.Errorf("test print %s: %w", approval.ID, domain.ErrNotFound)
			}
		case err != nil:
			return err
		case approval.Version == 1:
			return fmt.Errorf("test print %s: %w", approval.ID, domain.ErrAlreadyExists)
		case current.Version != approval.Version-1:
			return fmt.Errorf("test print %s at version %d: %w", approval.ID, current.Version, domain.ErrVersionConflict)
		}
		return setJSON(txn, testPrintKey(approval.ID), approval)
	})
}

// FindByID returns the approval or domain.ErrNotFound
func (r *TestPrintRepository) FindByID(ctx context.Context, approvalID string) (approval *domain.TestPrintApproval, err error) {
	defer func(start time.Time) { r.store.observe(ctx, "test_prints", "find", start, err) }(time.Now())

	approval = &domain.TestPrintApproval{}
	err = r.store.view(ctx, func(txn *badger.Txn) error {
		return getJSON(txn, testPrintKey(approvalID), approval)
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("test print %s: %w", approvalID, domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return approval, nil
}

// FindPendingByJobID returns the pending approval of a job or domain.ErrNotFound
func (r *TestPrintRepository) FindPendingByJobID(ctx context.Context, jobID string) (approval *domain.TestPrintApproval, err error) {
	defer func(start time.Time) { r.store.observe(ctx, "test_prints", "find", start, err) }(time.Now())

	err = r.store.view(ctx, func(txn *badger.Txn) error {
		return scan(txn, []byte(testPrintPrefix), func(a *domain.TestPrintApproval) bool {
			if a.JobID == jobID && a.IsPending() {
				approval = a
				return false
			}
			return true
		})
	})
	if err != nil {
		return nil, err
	}
	if approval == nil {
		return nil, fmt.Errorf("pending test print for job %s: %w", jobID, domain.ErrNotFound)
	}
	return approval, nil
}

// List returns approvals in submission order. An empty status matches all.
func (r *TestPrintRepository) List(ctx context.Context, status domain.TestPrintStatus, limit int) (approvals []*domain.TestPrintApproval, err error) {
	defer func(start time.Time) { r.store.observe(ctx, "test_prints", "list", start, err) }(time.Now())

	approvals = make([]*domain.TestPrintApproval, 0)
	err = r.store.view(ctx, func(txn *badger.Txn) error {
		return scan(txn, []byte(testPrintPrefix), func(a *domain.TestPrintApproval) bool {
			if status == "" || a.Status == status {
				approvals = append(approvals, a)
			}
			return true
		})
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(approvals, func(i, j int) bool {
		return approvals[i].SubmittedAt.Before(approvals[j].SubmittedAt)
	})
	if limit > 0 && len(approvals) > limit {
		approvals = approvals[:limit]
	}
	return approvals, nil
}
