package domain

import (
	"crypto/subtle"
	"fmt"
	"sort"
)

// Status is the lifecycle status of a job
type Status string

const (
	StatusNew               Status = "NEW"
	StatusTestPrintPending  Status = "TEST_PRINT_PENDING"
	StatusTestPrintApproved Status = "TEST_PRINT_APPROVED"
	StatusInProduction      Status = "IN_PRODUCTION"
	StatusPaused            Status = "PAUSED"
	StatusOnHold            Status = "ON_HOLD"
	StatusCompleted         Status = "COMPLETED"
	StatusQCPending         Status = "QC_PENDING"
	StatusQCPassed          Status = "QC_PASSED"
	StatusQCFailed          Status = "QC_FAILED"
	StatusReadyToShip       Status = "READY_TO_SHIP"
	StatusShipped           Status = "SHIPPED"
)

// AllStatuses lists the closed status enum in pipeline order
var AllStatuses = []Status{
	StatusNew,
	StatusTestPrintPending,
	StatusTestPrintApproved,
	StatusInProduction,
	StatusPaused,
	StatusOnHold,
	StatusCompleted,
	StatusQCPending,
	StatusQCPassed,
	StatusQCFailed,
	StatusReadyToShip,
	StatusShipped,
}

// IsValid reports whether s belongs to the enum
func (s Status) IsValid() bool {
	for _, candidate := range AllStatuses {
		if s == candidate {
			return true
		}
	}
	return false
}

// IsHoldable reports whether a hold may be placed from s
func (s Status) IsHoldable() bool {
	switch s {
	case StatusNew, StatusTestPrintPending, StatusTestPrintApproved, StatusInProduction, StatusPaused:
		return true
	}
	return false
}

// ProductionState is the state of the press for a job. It is derived from
// Status and stored alongside it.
type ProductionState string

const (
	ProductionStopped ProductionState = "Stopped"
	ProductionRunning ProductionState = "Running"
	ProductionPaused  ProductionState = "Paused"
)

// ProductionState returns the production state paired with s
func (s Status) ProductionState() ProductionState {
	switch s {
	case StatusInProduction:
		return ProductionRunning
	case StatusPaused:
		return ProductionPaused
	default:
		return ProductionStopped
	}
}

// Event is a lifecycle event requested against a job
type Event string

const (
	EventRequestTestPrint Event = "RequestTestPrint"
	EventApproveTestPrint Event = "ApproveTestPrint"
	EventDenyTestPrint    Event = "DenyTestPrint"
	EventStartProduction  Event = "StartProduction"
	EventPause            Event = "Pause"
	EventResume           Event = "Resume"
	EventComplete         Event = "Complete"
	EventRequestQC        Event = "RequestQC"
	EventRecordQC         Event = "RecordQC"
	EventHold             Event = "Hold"
	EventReleaseHold      Event = "ReleaseHold"
	EventConfirmShipment  Event = "ConfirmShipment"
)

// QCDecision is the outcome of a QC inspection
type QCDecision string

const (
	QCPass QCDecision = "pass"
	QCFail QCDecision = "fail"
	QCHold QCDecision = "hold"
)

// IsValid reports whether d is a known decision
func (d QCDecision) IsValid() bool {
	return d == QCPass || d == QCFail || d == QCHold
}

// TransitionContext carries the inputs the guards look at
type TransitionContext struct {
	OperatorID       string
	SupervisorID     string
	Decision         QCDecision
	OverrideCode     string
	ManagerCode      string
	PackingValidated bool
}

type transitionFunc func(tc TransitionContext) (Status, error)

type guard func(tc TransitionContext) error

func to(next Status, guards ...guard) transitionFunc {
	return func(tc TransitionContext) (Status, error) {
		for _, g := range guards {
			if err := g(tc); err != nil {
				return "", err
			}
		}
		return next, nil
	}
}

func operatorSession(tc TransitionContext) error {
	if tc.OperatorID == "" {
		return fmt.Errorf("%w: operator session required", ErrAuth)
	}
	return nil
}

func supervisorPresent(tc TransitionContext) error {
	if tc.SupervisorID == "" {
		return NewValidationError("supervisorId", "supervisor id is required")
	}
	return nil
}

func managerOverride(tc TransitionContext) error {
	if tc.ManagerCode == "" || subtle.ConstantTimeCompare([]byte(tc.OverrideCode), []byte(tc.ManagerCode)) != 1 {
		return fmt.Errorf("%w: invalid override code", ErrAuth)
	}
	return nil
}

func packingValidated(tc TransitionContext) error {
	if !tc.PackingValidated {
		return NewValidationError("plan", "packing has not been validated")
	}
	return nil
}

func recordQC(tc TransitionContext) (Status, error) {
	switch tc.Decision {
	case QCPass:
		return StatusReadyToShip, nil
	case QCFail:
		return StatusQCFailed, nil
	case QCHold:
		return StatusQCPending, nil
	default:
		return "", NewValidationError("decision", fmt.Sprintf("unknown QC decision %q", tc.Decision))
	}
}

// transitions is the complete table. Statuses missing from the map, or
// events missing for a status, are rejected.
var transitions = map[Status]map[Event]transitionFunc{
	StatusNew: {
		EventRequestTestPrint: to(StatusTestPrintPending, operatorSession),
		EventStartProduction:  to(StatusInProduction, operatorSession),
		EventHold:             to(StatusOnHold),
	},
	StatusTestPrintPending: {
		EventApproveTestPrint: to(StatusTestPrintApproved, supervisorPresent),
		EventDenyTestPrint:    to(StatusNew),
		EventHold:             to(StatusOnHold),
	},
	StatusTestPrintApproved: {
		EventStartProduction: to(StatusInProduction, operatorSession),
		EventHold:            to(StatusOnHold),
	},
	StatusInProduction: {
		EventPause:    to(StatusPaused),
		EventComplete: to(StatusCompleted),
		EventHold:     to(StatusOnHold),
	},
	StatusPaused: {
		EventResume:   to(StatusInProduction),
		EventComplete: to(StatusCompleted),
		EventHold:     to(StatusOnHold),
	},
	StatusOnHold: {
		EventReleaseHold: to(StatusNew, managerOverride),
	},
	StatusCompleted: {
		EventRequestQC: to(StatusQCPending),
	},
	StatusQCPending: {
		EventRecordQC: recordQC,
	},
	StatusReadyToShip: {
		EventConfirmShipment: to(StatusShipped, packingValidated),
	},
}

// Transition computes the status that follows current when event is applied.
// It has no side effects.
func Transition(current Status, event Event, tc TransitionContext) (Status, error) {
	fn, ok := transitions[current][event]
	if !ok {
		return current, &TransitionError{From: current, Event: event}
	}
	next, err := fn(tc)
	if err != nil {
		return current, err
	}
	return next, nil
}

// AllowedEvents returns the events defined for s, sorted by name
func AllowedEvents(s Status) []Event {
	events := make([]Event, 0, len(transitions[s]))
	for e := range transitions[s] {
		events = append(events, e)
	}
	sort.Slice(events, func(i, j int) bool { return events[i] < events[j] })
	return events
}
