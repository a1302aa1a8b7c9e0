package domain

import (
	"fmt"
	"time"
)

// TestPrintStatus is the review state of a test print
type TestPrintStatus string

const (
	TestPrintPending  TestPrintStatus = "pending"
	TestPrintApproved TestPrintStatus = "approved"
	TestPrintDenied   TestPrintStatus = "denied"
)

// TestPrintApproval is a request for a supervisor to approve the first print
// of a job before the press runs
type TestPrintApproval struct {
	ID              string          `bson:"_id" json:"id"`
	JobID           string          `bson:"jobId" json:"jobId"`
	OrderNumber     string          `bson:"orderNumber" json:"orderNumber"`
	OperatorID      string          `bson:"operatorId" json:"operatorId"`
	MachineID       string          `bson:"machineId" json:"machineId"`
	SupervisorID    string          `bson:"supervisorId,omitempty" json:"supervisorId,omitempty"`
	SupervisorNotes string          `bson:"supervisorNotes,omitempty" json:"supervisorNotes,omitempty"`
	PhotoURI        string          `bson:"photoUri" json:"photoUri"`
	Status          TestPrintStatus `bson:"status" json:"status"`
	SubmittedAt     time.Time       `bson:"submittedAt" json:"submittedAt"`
	ReviewedAt      *time.Time      `bson:"reviewedAt,omitempty" json:"reviewedAt,omitempty"`
	Version         int64           `bson:"version" json:"version"`
}

// NewTestPrintApproval creates a pending approval for job
func NewTestPrintApproval(id string, job *Job, session OperatorSession, photoURI string) (*TestPrintApproval, error) {
	if photoURI == "" {
		return nil, NewValidationError("photo", "a test print photo is required")
	}
	if !session.Valid() {
		return nil, fmt.Errorf("%w: operator session required", ErrAuth)
	}
	return &TestPrintApproval{
		ID:          id,
		JobID:       job.ID,
		OrderNumber: job.OrderNumber,
		OperatorID:  session.OperatorID,
		MachineID:   session.MachineID,
		PhotoURI:    photoURI,
		Status:      TestPrintPending,
		SubmittedAt: clock().UTC(),
		Version:     1,
	}, nil
}

// IsPending reports whether the approval still waits for review
func (a *TestPrintApproval) IsPending() bool {
	return a.Status == TestPrintPending
}

// Approve records a supervisor approval
func (a *TestPrintApproval) Approve(supervisorID, notes string) error {
	if supervisorID == "" {
		return NewValidationError("supervisorId", "supervisor id is required")
	}
	return a.review(TestPrintApproved, supervisorID, notes)
}

// Deny records a denial. supervisorID is empty when the system denies the
// request, for example when the job is put on hold.
func (a *TestPrintApproval) Deny(supervisorID, notes string) error {
	return a.review(TestPrintDenied, supervisorID, notes)
}

func (a *TestPrintApproval) review(status TestPrintStatus, supervisorID, notes string) error {
	if !a.IsPending() {
		return fmt.Errorf("%w: test print %s is already %s", ErrInvalidTransition, a.ID, a.Status)
	}
	now := clock().UTC()
	a.Status = status
	a.SupervisorID = supervisorID
	a.SupervisorNotes = notes
	a.ReviewedAt = &now
	a.Version++
	return nil
}
