package domain

import (
	"fmt"
	"strings"
	"time"
)

// Department that decorates the job
type Department string

const (
	DepartmentScreenPrint Department = "Screen Print"
	DepartmentEmbroidery  Department = "Embroidery"
	DepartmentFulfillment Department = "Fulfillment"
)

// IsValid reports whether d is a known department
func (d Department) IsValid() bool {
	switch d {
	case DepartmentScreenPrint, DepartmentEmbroidery, DepartmentFulfillment:
		return true
	}
	return false
}

// Source is the order system the job came from
type Source string

const (
	SourcePrintavo  Source = "Printavo"
	SourceCustomInk Source = "Custom Ink"
)

// IsValid reports whether s is a known source
func (s Source) IsValid() bool {
	return s == SourcePrintavo || s == SourceCustomInk
}

// HoldReason classifies why production was stopped
type HoldReason string

const (
	HoldEquipment HoldReason = "Equipment"
	HoldMaterial  HoldReason = "Material"
	HoldArtwork   HoldReason = "Artwork"
	HoldQuality   HoldReason = "Quality"
	HoldCustomer  HoldReason = "Customer"
	HoldOther     HoldReason = "Other"
)

// IsValid reports whether r is a known hold reason
func (r HoldReason) IsValid() bool {
	switch r {
	case HoldEquipment, HoldMaterial, HoldArtwork, HoldQuality, HoldCustomer, HoldOther:
		return true
	}
	return false
}

// HoldInfo describes an active hold
type HoldInfo struct {
	Reason         HoldReason `bson:"reason" json:"reason"`
	Notes          string     `bson:"notes" json:"notes"`
	Photos         []string   `bson:"photos,omitempty" json:"photos,omitempty"`
	PlacedBy       string     `bson:"placedBy,omitempty" json:"placedBy,omitempty"`
	PreviousStatus Status     `bson:"previousStatus" json:"previousStatus"`
	PlacedAt       time.Time  `bson:"placedAt" json:"placedAt"`
}

// ActivityEntry is one line of the job's activity log
type ActivityEntry struct {
	Event  Event     `bson:"event" json:"event"`
	From   Status    `bson:"from" json:"from"`
	To     Status    `bson:"to" json:"to"`
	Actor  string    `bson:"actor,omitempty" json:"actor,omitempty"`
	Notes  string    `bson:"notes,omitempty" json:"notes,omitempty"`
	Photos []string  `bson:"photos,omitempty" json:"photos,omitempty"`
	At     time.Time `bson:"at" json:"at"`
}

// Job is the aggregate root of the production bounded context. Status only
// changes through Transition.
type Job struct {
	ID              string          `bson:"_id" json:"id"`
	OrderNumber     string          `bson:"orderNumber" json:"orderNumber"`
	CustomerName    string          `bson:"customerName" json:"customerName"`
	Department      Department      `bson:"department" json:"department"`
	Status          Status          `bson:"status" json:"status"`
	ProductionState ProductionState `bson:"productionState" json:"productionState"`
	Quantity        int             `bson:"quantity" json:"quantity"`
	Priority        bool            `bson:"priority" json:"priority"`
	Source          Source          `bson:"source" json:"source"`
	DueDate         *time.Time      `bson:"dueDate,omitempty" json:"dueDate,omitempty"`
	MachineID       string          `bson:"machineId,omitempty" json:"machineId,omitempty"`
	OperatorID      string          `bson:"operatorId,omitempty" json:"operatorId,omitempty"`
	QCInspectorID   string          `bson:"qcInspectorId,omitempty" json:"qcInspectorId,omitempty"`
	BoxCount        int             `bson:"boxCount,omitempty" json:"boxCount,omitempty"`
	Weight          float64         `bson:"weight,omitempty" json:"weight,omitempty"`
	Notes           string          `bson:"notes,omitempty" json:"notes,omitempty"`
	ShippingCarrier Carrier         `bson:"shippingCarrier,omitempty" json:"shippingCarrier,omitempty"`
	TrackingNumber  string          `bson:"trackingNumber,omitempty" json:"trackingNumber,omitempty"`
	ShippedAt       *time.Time      `bson:"shippedAt,omitempty" json:"shippedAt,omitempty"`
	Hold            *HoldInfo       `bson:"hold,omitempty" json:"hold,omitempty"`
	Spoilage        []SpoilageEntry `bson:"spoilage" json:"spoilage"`
	Activity        []ActivityEntry `bson:"activity" json:"activity"`
	Version         int64           `bson:"version" json:"version"`
	CreatedAt       time.Time       `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time       `bson:"updatedAt" json:"updatedAt"`
	DomainEvents    []DomainEvent   `bson:"-" json:"-"`
}

// NewJobParams holds the fields of a new job
type NewJobParams struct {
	ID           string
	OrderNumber  string
	CustomerName string
	Department   Department
	Quantity     int
	Priority     bool
	Source       Source
	DueDate      *time.Time
	Notes        string
	LineItems    []LineItem
}

var clock = time.Now

// NewJob creates a job in status NEW
func NewJob(p NewJobParams) (*Job, error) {
	switch {
	case p.ID == "":
		return nil, NewValidationError("id", "id is required")
	case strings.TrimSpace(p.OrderNumber) == "":
		return nil, NewValidationError("orderNumber", "order number is required")
	case strings.TrimSpace(p.CustomerName) == "":
		return nil, NewValidationError("customerName", "customer name is required")
	case !p.Department.IsValid():
		return nil, NewValidationError("department", fmt.Sprintf("unknown department %q", p.Department))
	case p.Quantity <= 0:
		return nil, NewValidationError("quantity", "quantity must be greater than zero")
	case !p.Source.IsValid():
		return nil, NewValidationError("source", fmt.Sprintf("unknown source %q", p.Source))
	}
	for _, item := range p.LineItems {
		if err := item.Validate(); err != nil {
			return nil, err
		}
	}

	now := clock().UTC().Truncate(time.Millisecond)
	job := &Job{
		ID:              p.ID,
		OrderNumber:     strings.TrimSpace(p.OrderNumber),
		CustomerName:    strings.TrimSpace(p.CustomerName),
		Department:      p.Department,
		Status:          StatusNew,
		ProductionState: ProductionStopped,
		Quantity:        p.Quantity,
		Priority:        p.Priority,
		Source:          p.Source,
		DueDate:         p.DueDate,
		Notes:           p.Notes,
		Spoilage:        make([]SpoilageEntry, 0),
		Activity:        make([]ActivityEntry, 0),
		CreatedAt:       now,
		UpdatedAt:       now,
		DomainEvents:    make([]DomainEvent, 0),
	}

	job.AddDomainEvent(&JobCreatedEvent{
		JobID:        job.ID,
		OrderNumber:  job.OrderNumber,
		CustomerName: job.CustomerName,
		Department:   job.Department,
		Quantity:     job.Quantity,
		Priority:     job.Priority,
		Source:       job.Source,
		CreatedAt:    now,
	})

	return job, nil
}

// ProductionReport is what an operator submits when pausing or completing
type ProductionReport struct {
	Actor    string
	Notes    string
	Photos   []string
	Spoilage []SpoilageEntry
}

// HoldRequest is what is submitted when putting a job on hold
type HoldRequest struct {
	Reason   HoldReason
	Notes    string
	Photos   []string
	PlacedBy string
}

type change struct {
	event  Event
	tc     TransitionContext
	actor  string
	notes  string
	photos []string
}

// apply runs the state machine and, only when it accepts, mutates the job
func (j *Job) apply(c change) (from Status, at time.Time, err error) {
	next, err := Transition(j.Status, c.event, c.tc)
	if err != nil {
		return j.Status, time.Time{}, err
	}

	from = j.Status
	at = j.nextTimestamp()
	j.Status = next
	j.ProductionState = next.ProductionState()
	j.UpdatedAt = at
	j.Activity = append(j.Activity, ActivityEntry{
		Event:  c.event,
		From:   from,
		To:     next,
		Actor:  c.actor,
		Notes:  c.notes,
		Photos: c.photos,
		At:     at,
	})

	if from != next {
		j.AddDomainEvent(&JobStatusChangedEvent{
			JobID:           j.ID,
			OrderNumber:     j.OrderNumber,
			Event:           c.event,
			FromStatus:      from,
			ToStatus:        next,
			ProductionState: j.ProductionState,
			Actor:           c.actor,
			ChangedAt:       at,
		})
	}
	return from, at, nil
}

// nextTimestamp returns a millisecond timestamp strictly after UpdatedAt
func (j *Job) nextTimestamp() time.Time {
	now := clock().UTC().Truncate(time.Millisecond)
	if !now.After(j.UpdatedAt) {
		now = j.UpdatedAt.UTC().Truncate(time.Millisecond).Add(time.Millisecond)
	}
	return now
}

// ExpectVersion rejects a change the caller decided on against an older
// version of the job. Nil skips the check.
func (j *Job) ExpectVersion(expected *int64) error {
	if expected == nil || *expected == j.Version {
		return nil
	}
	return &StaleStateError{Expected: *expected, Actual: j.Version}
}

// RequestTestPrint moves a NEW job to TEST_PRINT_PENDING
func (j *Job) RequestTestPrint(session OperatorSession) error {
	_, _, err := j.apply(change{
		event: EventRequestTestPrint,
		tc:    TransitionContext{OperatorID: session.OperatorID},
		actor: session.OperatorID,
	})
	if err != nil {
		return err
	}
	j.OperatorID = session.OperatorID
	j.MachineID = session.MachineID
	return nil
}

// ApproveTestPrint records a supervisor approval of the pending test print
func (j *Job) ApproveTestPrint(supervisorID, notes string) error {
	_, _, err := j.apply(change{
		event: EventApproveTestPrint,
		tc:    TransitionContext{SupervisorID: supervisorID},
		actor: supervisorID,
		notes: notes,
	})
	return err
}

// DenyTestPrint sends the job back to NEW
func (j *Job) DenyTestPrint(supervisorID, notes string) error {
	_, _, err := j.apply(change{
		event: EventDenyTestPrint,
		actor: supervisorID,
		notes: notes,
	})
	return err
}

// StartProduction starts the press. Only NEW and TEST_PRINT_APPROVED jobs
// accept it; callers route NEW jobs through the test print first.
func (j *Job) StartProduction(session OperatorSession) error {
	_, _, err := j.apply(change{
		event: EventStartProduction,
		tc:    TransitionContext{OperatorID: session.OperatorID},
		actor: session.OperatorID,
	})
	if err != nil {
		return err
	}
	j.OperatorID = session.OperatorID
	if session.MachineID != "" {
		j.MachineID = session.MachineID
	}
	return nil
}

// Pause pauses a running job and records any spoilage
func (j *Job) Pause(report ProductionReport, items []LineItem) error {
	return j.report(EventPause, report, items)
}

// Complete stops production for good and records any spoilage
func (j *Job) Complete(report ProductionReport, items []LineItem) error {
	return j.report(EventComplete, report, items)
}

func (j *Job) report(event Event, report ProductionReport, items []LineItem) error {
	if _, err := Transition(j.Status, event, TransitionContext{}); err != nil {
		return err
	}
	if err := ValidateSpoilage(report.Spoilage, items); err != nil {
		return err
	}
	_, at, err := j.apply(change{
		event:  event,
		actor:  report.Actor,
		notes:  report.Notes,
		photos: report.Photos,
	})
	if err != nil {
		return err
	}
	j.recordSpoilage(report.Spoilage, SpoilageSourceProduction, at)
	return nil
}

func (j *Job) recordSpoilage(entries []SpoilageEntry, source SpoilageSource, at time.Time) {
	if len(entries) == 0 {
		return
	}
	recorded := make([]SpoilageEntry, len(entries))
	for i, e := range entries {
		e.Source = source
		e.RecordedAt = at
		recorded[i] = e
	}
	j.Spoilage = append(j.Spoilage, recorded...)

	j.AddDomainEvent(&SpoilageRecordedEvent{
		JobID:       j.ID,
		OrderNumber: j.OrderNumber,
		Source:      source,
		Entries:     recorded,
		TotalUnits:  TotalSpoiled(recorded),
		RecordedAt:  at,
	})
}

// Resume restarts a paused job
func (j *Job) Resume(actor string) error {
	_, _, err := j.apply(change{event: EventResume, actor: actor})
	return err
}

// PlaceHold stops the job until a manager releases it
func (j *Job) PlaceHold(req HoldRequest) error {
	if strings.TrimSpace(req.Notes) == "" {
		return NewValidationError("notes", "notes are required to place a hold")
	}
	if !req.Reason.IsValid() {
		return NewValidationError("reason", fmt.Sprintf("unknown hold reason %q", req.Reason))
	}

	from, at, err := j.apply(change{
		event:  EventHold,
		actor:  req.PlacedBy,
		notes:  req.Notes,
		photos: req.Photos,
	})
	if err != nil {
		return err
	}

	j.Hold = &HoldInfo{
		Reason:         req.Reason,
		Notes:          req.Notes,
		Photos:         req.Photos,
		PlacedBy:       req.PlacedBy,
		PreviousStatus: from,
		PlacedAt:       at,
	}
	j.AddDomainEvent(&JobHeldEvent{
		JobID:          j.ID,
		OrderNumber:    j.OrderNumber,
		Reason:         req.Reason,
		Notes:          req.Notes,
		PlacedBy:       req.PlacedBy,
		PreviousStatus: from,
		HeldAt:         at,
	})
	return nil
}

// ReleaseHold returns the job to NEW when overrideCode matches managerCode.
// A wrong code leaves the job untouched.
func (j *Job) ReleaseHold(overrideCode, managerCode, actor string) error {
	_, _, err := j.apply(change{
		event: EventReleaseHold,
		tc:    TransitionContext{OverrideCode: overrideCode, ManagerCode: managerCode},
		actor: actor,
	})
	if err != nil {
		return err
	}
	j.Hold = nil
	return nil
}

// RequestQC queues a completed job for inspection
func (j *Job) RequestQC(actor string) error {
	_, _, err := j.apply(change{event: EventRequestQC, actor: actor})
	return err
}

// RecordInspection folds a QC decision into the job status. A hold decision
// keeps the job in QC_PENDING.
func (j *Job) RecordInspection(rec *QCInspectionRecord) error {
	photos := make([]string, 0, len(rec.PhotoRefs))
	for _, p := range rec.PhotoRefs {
		photos = append(photos, p.URI)
	}

	_, at, err := j.apply(change{
		event:  EventRecordQC,
		tc:     TransitionContext{Decision: rec.Decision},
		actor:  rec.InspectorID,
		notes:  rec.Notes,
		photos: photos,
	})
	if err != nil {
		return err
	}

	j.QCInspectorID = rec.InspectorID
	j.recordSpoilage(rec.SpoilageEntries, SpoilageSourceQC, at)
	j.AddDomainEvent(&InspectionRecordedEvent{
		JobID:           j.ID,
		InspectionID:    rec.ID,
		InspectorID:     rec.InspectorID,
		Decision:        rec.Decision,
		Mode:            rec.Mode,
		ServicesChecked: rec.ServicesChecked,
		FailReasons:     rec.FailReasons,
		TotalSpoiled:    rec.TotalSpoiled,
		RecordedAt:      at,
	})
	return nil
}

// ConfirmShipment validates plan against items and marks the job shipped
func (j *Job) ConfirmShipment(plan ShipmentPlan, items []LineItem, actor string) error {
	if j.Status != StatusReadyToShip {
		return &TransitionError{From: j.Status, Event: EventConfirmShipment}
	}
	if err := ValidatePacking(plan, items); err != nil {
		return err
	}

	_, at, err := j.apply(change{
		event: EventConfirmShipment,
		tc:    TransitionContext{PackingValidated: true},
		actor: actor,
	})
	if err != nil {
		return err
	}

	j.ShippingCarrier = plan.Carrier
	j.TrackingNumber = plan.PrimaryTrackingNumber()
	j.BoxCount = len(plan.Boxes)
	j.Weight = plan.TotalWeight()
	j.ShippedAt = &at

	j.AddDomainEvent(&JobShippedEvent{
		JobID:          j.ID,
		OrderNumber:    j.OrderNumber,
		Carrier:        plan.Carrier,
		TrackingNumber: j.TrackingNumber,
		BoxCount:       j.BoxCount,
		TotalWeight:    j.Weight,
		ShippedAt:      at,
	})
	return nil
}

// AllowedEvents returns the events the job currently accepts
func (j *Job) AllowedEvents() []Event {
	return AllowedEvents(j.Status)
}

// AddDomainEvent adds a domain event
func (j *Job) AddDomainEvent(event DomainEvent) {
	j.DomainEvents = append(j.DomainEvents, event)
}

// ClearDomainEvents clears all domain events
func (j *Job) ClearDomainEvents() {
	j.DomainEvents = make([]DomainEvent, 0)
}

// GetDomainEvents returns all domain events
func (j *Job) GetDomainEvents() []DomainEvent {
	return j.DomainEvents
}
