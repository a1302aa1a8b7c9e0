package domain

import "time"

// DomainEvent is the interface for all domain events
type DomainEvent interface {
	EventType() string
	OccurredAt() time.Time
}

// Event types published on production.jobs.events
const (
	EventTypeJobCreated         = "production.job.created"
	EventTypeJobStatusChanged   = "production.job.status-changed"
	EventTypeJobHeld            = "production.job.held"
	EventTypeSpoilageRecorded   = "production.job.spoilage-recorded"
	EventTypeInspectionRecorded = "production.qc.inspection-recorded"
	EventTypeJobShipped         = "production.job.shipped"
)

// JobCreatedEvent is published when a job enters the pipeline
type JobCreatedEvent struct {
	JobID        string     `json:"jobId"`
	OrderNumber  string     `json:"orderNumber"`
	CustomerName string     `json:"customerName"`
	Department   Department `json:"department"`
	Quantity     int        `json:"quantity"`
	Priority     bool       `json:"priority"`
	Source       Source     `json:"source"`
	CreatedAt    time.Time  `json:"createdAt"`
}

func (e *JobCreatedEvent) EventType() string    { return EventTypeJobCreated }
func (e *JobCreatedEvent) OccurredAt() time.Time { return e.CreatedAt }

// JobStatusChangedEvent is published for every accepted transition
type JobStatusChangedEvent struct {
	JobID           string          `json:"jobId"`
	OrderNumber     string          `json:"orderNumber"`
	Event           Event           `json:"event"`
	FromStatus      Status          `json:"fromStatus"`
	ToStatus        Status          `json:"toStatus"`
	ProductionState ProductionState `json:"productionState"`
	Actor           string          `json:"actor,omitempty"`
	ChangedAt       time.Time       `json:"changedAt"`
}

func (e *JobStatusChangedEvent) EventType() string    { return EventTypeJobStatusChanged }
func (e *JobStatusChangedEvent) OccurredAt() time.Time { return e.ChangedAt }

// JobHeldEvent is published when a job is put on hold
type JobHeldEvent struct {
	JobID          string     `json:"jobId"`
	OrderNumber    string     `json:"orderNumber"`
	Reason         HoldReason `json:"reason"`
	Notes          string     `json:"notes"`
	PlacedBy       string     `json:"placedBy,omitempty"`
	PreviousStatus Status     `json:"previousStatus"`
	HeldAt         time.Time  `json:"heldAt"`
}

func (e *JobHeldEvent) EventType() string    { return EventTypeJobHeld }
func (e *JobHeldEvent) OccurredAt() time.Time { return e.HeldAt }

// SpoilageRecordedEvent is published when units are reported lost
type SpoilageRecordedEvent struct {
	JobID       string          `json:"jobId"`
	OrderNumber string          `json:"orderNumber"`
	Source      SpoilageSource  `json:"source"`
	Entries     []SpoilageEntry `json:"entries"`
	TotalUnits  int             `json:"totalUnits"`
	RecordedAt  time.Time       `json:"recordedAt"`
}

func (e *SpoilageRecordedEvent) EventType() string    { return EventTypeSpoilageRecorded }
func (e *SpoilageRecordedEvent) OccurredAt() time.Time { return e.RecordedAt }

// InspectionRecordedEvent is published when a QC decision is recorded
type InspectionRecordedEvent struct {
	JobID           string         `json:"jobId"`
	InspectionID    string         `json:"inspectionId"`
	InspectorID     string         `json:"inspectorId"`
	Decision        QCDecision     `json:"decision"`
	Mode            InspectionMode `json:"mode"`
	ServicesChecked []string       `json:"servicesChecked"`
	FailReasons     []string       `json:"failReasons,omitempty"`
	TotalSpoiled    int            `json:"totalSpoiled"`
	RecordedAt      time.Time      `json:"recordedAt"`
}

func (e *InspectionRecordedEvent) EventType() string    { return EventTypeInspectionRecorded }
func (e *InspectionRecordedEvent) OccurredAt() time.Time { return e.RecordedAt }

// JobShippedEvent is published when the shipping gate confirms a shipment
type JobShippedEvent struct {
	JobID          string    `json:"jobId"`
	OrderNumber    string    `json:"orderNumber"`
	Carrier        Carrier   `json:"carrier"`
	TrackingNumber string    `json:"trackingNumber,omitempty"`
	BoxCount       int       `json:"boxCount"`
	TotalWeight    float64   `json:"totalWeight"`
	ShippedAt      time.Time `json:"shippedAt"`
}

func (e *JobShippedEvent) EventType() string    { return EventTypeJobShipped }
func (e *JobShippedEvent) OccurredAt() time.Time { return e.ShippedAt }
