package domain

import (
	"context"
	"time"
)

// JobFilter narrows ListJobs. Zero values match everything.
type JobFilter struct {
	Statuses   []Status
	Department Department
	Priority   *bool
	OperatorID string
	Limit      int
}

// Matches reports whether job satisfies the filter
func (f JobFilter) Matches(job *Job) bool {
	if len(f.Statuses) > 0 {
		found := false
		for _, s := range f.Statuses {
			if job.Status == s {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.Department != "" && job.Department != f.Department {
		return false
	}
	if f.Priority != nil && job.Priority != *f.Priority {
		return false
	}
	if f.OperatorID != "" && job.OperatorID != f.OperatorID {
		return false
	}
	return true
}

// JobRepository stores jobs. Update is a compare-and-swap on Version: it
// fails with ErrVersionConflict when the stored version differs from
// job.Version and increments job.Version on success.
type JobRepository interface {
	Create(ctx context.Context, job *Job, items []LineItem) error
	FindByID(ctx context.Context, jobID string) (*Job, error)
	Update(ctx context.Context, job *Job) error
	List(ctx context.Context, filter JobFilter) ([]*Job, error)
}

// LineItemSource serves the line items of a job
type LineItemSource interface {
	GetLineItems(ctx context.Context, jobID string) ([]LineItem, error)
}

// TestPrintRepository stores test print approvals
type TestPrintRepository interface {
	Save(ctx context.Context, approval *TestPrintApproval) error
	FindByID(ctx context.Context, approvalID string) (*TestPrintApproval, error)
	FindPendingByJobID(ctx context.Context, jobID string) (*TestPrintApproval, error)
	List(ctx context.Context, status TestPrintStatus, limit int) ([]*TestPrintApproval, error)
}

// InspectionRepository stores QC records. Records are insert only.
type InspectionRepository interface {
	Insert(ctx context.Context, record *QCInspectionRecord) error
	FindByJobID(ctx context.Context, jobID string) ([]*QCInspectionRecord, error)
}

// Transactor runs fn as one atomic unit against the store. Repository calls
// made with the context passed to fn join the transaction.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// PhotoStore persists captured evidence and returns its URI
type PhotoStore interface {
	Store(ctx context.Context, data []byte, contentType string) (string, error)
}

// OperatorDirectory verifies operator PINs
type OperatorDirectory interface {
	Verify(ctx context.Context, pin, machineID string) (*OperatorSession, error)
}

// NotificationKind names the situations that notify a channel
type NotificationKind string

const (
	NotificationJobHeld    NotificationKind = "job_held"
	NotificationQCDecision NotificationKind = "qc_decision"
)

// Notification is a best effort message to people outside the floor
type Notification struct {
	Kind    NotificationKind  `json:"kind"`
	JobID   string            `json:"jobId"`
	Summary string            `json:"summary"`
	Fields  map[string]string `json:"fields"`
	SentAt  time.Time         `json:"sentAt"`
}

// Notifier delivers notifications. Callers ignore failures beyond logging.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}
