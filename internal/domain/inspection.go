package domain

import (
	"fmt"
	"time"
)

// InspectionMode distinguishes a first inspection from a recheck
type InspectionMode string

const (
	InspectionLive    InspectionMode = "live"
	InspectionRecheck InspectionMode = "recheck"
)

// QCService is a decoration service an inspector signs off on
type QCService string

const (
	ServiceScreenPrinting QCService = "Screen Printing"
	ServiceEmbroidery     QCService = "Embroidery"
	ServiceDTG            QCService = "DTG"
	ServiceTransfers      QCService = "Transfers"
	ServiceFullOrder      QCService = "Full Order"
)

// IsValid reports whether s is a known service
func (s QCService) IsValid() bool {
	switch s {
	case ServiceScreenPrinting, ServiceEmbroidery, ServiceDTG, ServiceTransfers, ServiceFullOrder:
		return true
	}
	return false
}

// PhotoPhase labels what a QC photo shows
type PhotoPhase string

const (
	PhaseGoodPiece    PhotoPhase = "Good Piece"
	PhaseFailedPieces PhotoPhase = "Failed Pieces"
	PhaseCorrections  PhotoPhase = "Corrections"
	PhaseBoxLabels    PhotoPhase = "Box Labels"
)

// PhotoRef points at evidence held by the photo store
type PhotoRef struct {
	Phase PhotoPhase `bson:"phase" json:"phase"`
	URI   string     `bson:"uri" json:"uri"`
}

// QCInspectionRecord is written once and never edited
type QCInspectionRecord struct {
	ID               string          `bson:"_id" json:"id"`
	JobID            string          `bson:"jobId" json:"jobId"`
	OrderNumber      string          `bson:"orderNumber" json:"orderNumber"`
	InspectorID      string          `bson:"inspectorId" json:"inspectorId"`
	Mode             InspectionMode  `bson:"mode" json:"mode"`
	ServicesChecked  []string        `bson:"servicesChecked" json:"servicesChecked"`
	ChecklistResults map[string]bool `bson:"checklistResults" json:"checklistResults"`
	SpoilageEntries  []SpoilageEntry `bson:"spoilageEntries" json:"spoilageEntries"`
	FailReasons      []string        `bson:"failReasons" json:"failReasons"`
	Decision         QCDecision      `bson:"decision" json:"decision"`
	Notes            string          `bson:"notes,omitempty" json:"notes,omitempty"`
	PhotoRefs        []PhotoRef      `bson:"photoRefs" json:"photoRefs"`
	TotalSpoiled     int             `bson:"totalSpoiled" json:"totalSpoiled"`
	CreatedAt        time.Time       `bson:"createdAt" json:"createdAt"`
}

// InspectionInput holds the caller supplied part of an inspection
type InspectionInput struct {
	InspectorID      string
	Mode             InspectionMode
	ServicesChecked  []string
	ChecklistResults map[string]bool
	SpoilageEntries  []SpoilageEntry
	FailReasons      []string
	Decision         QCDecision
	Notes            string
	PhotoRefs        []PhotoRef
}

// NewQCInspectionRecord validates in and builds the record. TotalSpoiled is
// always computed from the entries.
func NewQCInspectionRecord(id string, job *Job, in InspectionInput) (*QCInspectionRecord, error) {
	if in.InspectorID == "" {
		return nil, NewValidationError("inspectorId", "inspector id is required")
	}
	if !in.Decision.IsValid() {
		return nil, NewValidationError("decision", fmt.Sprintf("unknown QC decision %q", in.Decision))
	}

	mode := in.Mode
	if mode == "" {
		mode = InspectionLive
	}
	if mode != InspectionLive && mode != InspectionRecheck {
		return nil, NewValidationError("mode", fmt.Sprintf("unknown inspection mode %q", mode))
	}
	for _, svc := range in.ServicesChecked {
		if !QCService(svc).IsValid() {
			return nil, NewValidationError("servicesChecked", fmt.Sprintf("unknown QC service %q", svc))
		}
	}

	now := clock().UTC()
	entries := make([]SpoilageEntry, len(in.SpoilageEntries))
	for i, entry := range in.SpoilageEntries {
		if err := entry.Validate(); err != nil {
			return nil, err
		}
		entry.Source = SpoilageSourceQC
		entry.RecordedAt = now
		entries[i] = entry
	}

	checklist := make(map[string]bool, len(in.ChecklistResults))
	for item, ok := range in.ChecklistResults {
		checklist[item] = ok
	}

	return &QCInspectionRecord{
		ID:               id,
		JobID:            job.ID,
		OrderNumber:      job.OrderNumber,
		InspectorID:      in.InspectorID,
		Mode:             mode,
		ServicesChecked:  append([]string{}, in.ServicesChecked...),
		ChecklistResults: checklist,
		SpoilageEntries:  entries,
		FailReasons:      append([]string{}, in.FailReasons...),
		Decision:         in.Decision,
		Notes:            in.Notes,
		PhotoRefs:        append([]PhotoRef{}, in.PhotoRefs...),
		TotalSpoiled:     TotalSpoiled(entries),
		CreatedAt:        now,
	}, nil
}
