package badgerstore

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/decoflow/production-service/internal/domain"
)

const inspectionPrefix = "inspection:"

func inspectionKey(jobID, id string) []byte {
	return []byte(inspectionPrefix + jobID + ":" + id)
}

// InspectionRepository stores QC inspection records, keyed under their job
type InspectionRepository struct {
	store *Store
}

// NewInspectionRepository creates an InspectionRepository
func NewInspectionRepository(store *Store) *InspectionRepository {
	return &InspectionRepository{store: store}
}

func (r *InspectionRepository) Insert(ctx context.Context, record *domain.QCInspectionRecord) (err error) {
	defer func(start time.Time) { r.store.observe(ctx, "qc_inspections", "insert", start, err) }(time.Now())

	return r.store.update(ctx, func(txn *badger.Txn) error {
		key := inspectionKey(record.JobID, record.ID)
		found, err := exists(txn, key)
		if err != nil {
			return err
		}
		if found {
			return fmt.Errorf("inspection %s: %w", record.ID, domain.ErrAlreadyExists)
		}
		return setJSON(txn, key, record)
	})
}

func (r *InspectionRepository) FindByJobID(ctx context.Context, jobID string) (records []*domain.QCInspectionRecord, err error) {
	defer func(start time.Time) { r.store.observe(ctx, "qc_inspections", "find", start, err) }(time.Now())

	records = make([]*domain.QCInspectionRecord, 0)
	err = r.store.view(ctx, func(txn *badger.Txn) error {
		return scan(txn, []byte(inspectionPrefix+jobID+":"), func(rec *domain.QCInspectionRecord) bool {
			records = append(records, rec)
			return true
		})
	})
	sort.SliceStable(records, func(i, j int) bool { return records[i].CreatedAt.Before(records[j].CreatedAt) })
	return records, err
}
