package application

import (
	"time"

	"github.com/decoflow/production-service/internal/domain"
)

// Photo is raw evidence captured on the floor. It is stored before the job
// is locked and replaced by its URI.
type Photo struct {
	ContentType string
	Data        []byte
}

// AuthenticateCommand checks an operator PIN at a machine
type AuthenticateCommand struct {
	PIN       string
	MachineID string
}

// CreateJobCommand creates a new job
type CreateJobCommand struct {
	JobID        string
	OrderNumber  string
	CustomerName string
	Department   domain.Department
	Quantity     int
	Priority     bool
	Source       domain.Source
	DueDate      *time.Time
	Notes        string
	LineItems    []domain.LineItem
}

// ListJobsQuery filters ListJobs
type ListJobsQuery struct {
	Statuses   []domain.Status
	Department domain.Department
	Priority   *bool
	OperatorID string
	Limit      int
}

// RequestTestPrintCommand submits a test print photo for a NEW job
type RequestTestPrintCommand struct {
	JobID   string
	Session domain.OperatorSession
	Photo   *Photo
}

// StartProductionCommand starts a job, or requests its test print first
type StartProductionCommand struct {
	JobID   string
	Session domain.OperatorSession
	Photo   *Photo
}

// DecideTestPrintCommand approves or denies a pending test print
type DecideTestPrintCommand struct {
	ApprovalID   string
	Approve      bool
	SupervisorID string
	Notes        string
}

// ReportProductionCommand pauses or completes a job. ExpectedVersion, when
// set, is the job version the operator acted on.
type ReportProductionCommand struct {
	JobID           string
	Actor           string
	Notes           string
	Photos          []Photo
	Spoilage        []domain.SpoilageEntry
	ExpectedVersion *int64
}

// ResumeCommand resumes a paused job
type ResumeCommand struct {
	JobID           string
	Actor           string
	ExpectedVersion *int64
}

// HoldCommand puts a job on hold
type HoldCommand struct {
	JobID    string
	Reason   domain.HoldReason
	Notes    string
	Photos   []Photo
	PlacedBy string
}

// ReleaseHoldCommand releases a hold with a manager override code
type ReleaseHoldCommand struct {
	JobID        string
	OverrideCode string
	Actor        string
}

// RequestQCCommand queues a completed job for inspection
type RequestQCCommand struct {
	JobID string
	Actor string
}

// QCPhoto is a photo taken during one phase of an inspection
type QCPhoto struct {
	Phase domain.PhotoPhase
	Photo Photo
}

// RecordInspectionCommand records a QC decision
type RecordInspectionCommand struct {
	JobID            string
	InspectorID      string
	Mode             domain.InspectionMode
	ServicesChecked  []string
	ChecklistResults map[string]bool
	SpoilageEntries  []domain.SpoilageEntry
	FailReasons      []string
	Decision         domain.QCDecision
	Notes            string
	Photos           []QCPhoto
}

// ConfirmShipmentCommand validates a shipment plan and ships the job
type ConfirmShipmentCommand struct {
	JobID string
	Plan  domain.ShipmentPlan
	Actor string
}
