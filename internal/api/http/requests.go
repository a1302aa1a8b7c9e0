package http

import (
	"time"

	"github.com/decoflow/production-service/internal/application"
	"github.com/decoflow/production-service/internal/domain"
)

// PhotoRequest carries a base64 encoded image
type PhotoRequest struct {
	ContentType string `json:"contentType" binding:"omitempty,max=100"`
	Data        []byte `json:"data" binding:"required"`
}

func (p PhotoRequest) toPhoto() application.Photo {
	contentType := p.ContentType
	if contentType == "" {
		contentType = "image/jpeg"
	}
	return application.Photo{ContentType: contentType, Data: p.Data}
}

func toPhotos(reqs []PhotoRequest) []application.Photo {
	if len(reqs) == 0 {
		return nil
	}
	photos := make([]application.Photo, len(reqs))
	for i, r := range reqs {
		photos[i] = r.toPhoto()
	}
	return photos
}

// AuthenticateRequest is the body of POST /operators/authenticate
type AuthenticateRequest struct {
	PIN       string `json:"pin" binding:"required,pin"`
	MachineID string `json:"machineId" binding:"required,machine_id"`
}

// LineItemRequest is one ordered garment variant
type LineItemRequest struct {
	SKU         string `json:"sku" binding:"required,safe_string"`
	Size        string `json:"size" binding:"omitempty,max=20"`
	Color       string `json:"color" binding:"omitempty,max=50"`
	Quantity    int    `json:"quantity" binding:"required,min=1"`
	Description string `json:"description" binding:"omitempty,max=500"`
}

// CreateJobRequest is the body of POST /jobs
type CreateJobRequest struct {
	ID           string            `json:"id" binding:"omitempty,max=64"`
	OrderNumber  string            `json:"orderNumber" binding:"required,order_number"`
	CustomerName string            `json:"customerName" binding:"required,max=200"`
	Department   string            `json:"department" binding:"required,department"`
	Quantity     int               `json:"quantity" binding:"required,min=1"`
	Priority     bool              `json:"priority"`
	Source       string            `json:"source" binding:"required,job_source"`
	DueDate      *time.Time        `json:"dueDate"`
	Notes        string            `json:"notes" binding:"omitempty,max=2000"`
	LineItems    []LineItemRequest `json:"lineItems" binding:"omitempty,dive"`
}

func (r CreateJobRequest) toCommand() application.CreateJobCommand {
	items := make([]domain.LineItem, len(r.LineItems))
	for i, li := range r.LineItems {
		items[i] = domain.LineItem{
			SKU:         li.SKU,
			Size:        li.Size,
			Color:       li.Color,
			Quantity:    li.Quantity,
			Description: li.Description,
		}
	}
	return application.CreateJobCommand{
		JobID:        r.ID,
		OrderNumber:  r.OrderNumber,
		CustomerName: r.CustomerName,
		Department:   domain.Department(r.Department),
		Quantity:     r.Quantity,
		Priority:     r.Priority,
		Source:       domain.Source(r.Source),
		DueDate:      r.DueDate,
		Notes:        r.Notes,
		LineItems:    items,
	}
}

// ListJobsRequest holds the query of GET /jobs
type ListJobsRequest struct {
	Status     []string `form:"status"`
	Department string   `form:"department"`
	Priority   *bool    `form:"priority"`
	OperatorID string   `form:"operatorId"`
	Limit      int      `form:"limit" binding:"omitempty,min=0,max=500"`
}

// OperatorActionRequest is the body of the start and test-print requests.
// The operator authenticates with every request.
type OperatorActionRequest struct {
	PIN       string        `json:"pin" binding:"required,pin"`
	MachineID string        `json:"machineId" binding:"required,machine_id"`
	Photo     *PhotoRequest `json:"photo"`
}

// SpoilageRequest is one spoilage line
type SpoilageRequest struct {
	SKU      string `json:"sku" binding:"required"`
	Size     string `json:"size"`
	Color    string `json:"color"`
	Quantity int    `json:"quantity" binding:"required,min=1"`
	Reason   string `json:"reason" binding:"required,spoilage_reason"`
	Notes    string `json:"notes" binding:"omitempty,max=500"`
}

func toSpoilage(reqs []SpoilageRequest) []domain.SpoilageEntry {
	if len(reqs) == 0 {
		return nil
	}
	entries := make([]domain.SpoilageEntry, len(reqs))
	for i, r := range reqs {
		entries[i] = domain.SpoilageEntry{
			SKU:      r.SKU,
			Size:     r.Size,
			Color:    r.Color,
			Quantity: r.Quantity,
			Reason:   domain.SpoilageReason(r.Reason),
			Notes:    r.Notes,
		}
	}
	return entries
}

// ProductionReportRequest is the body of the pause and complete requests
type ProductionReportRequest struct {
	Actor    string            `json:"actor" binding:"omitempty,max=64"`
	Notes    string            `json:"notes" binding:"omitempty,max=2000"`
	Photos   []PhotoRequest    `json:"photos" binding:"omitempty,dive"`
	Spoilage []SpoilageRequest `json:"spoilage" binding:"omitempty,dive"`
}

// ActorRequest is the optional body of requests that only record who acted
type ActorRequest struct {
	Actor string `json:"actor" binding:"omitempty,max=64"`
}

// HoldRequest is the body of POST /jobs/:jobId/hold
type HoldRequest struct {
	Reason   string         `json:"reason" binding:"required,hold_reason"`
	Notes    string         `json:"notes" binding:"required,max=2000"`
	PlacedBy string         `json:"placedBy" binding:"omitempty,max=64"`
	Photos   []PhotoRequest `json:"photos" binding:"omitempty,dive"`
}

// ReleaseHoldRequest is the body of POST /jobs/:jobId/release
type ReleaseHoldRequest struct {
	OverrideCode string `json:"overrideCode" binding:"required"`
	Actor        string `json:"actor" binding:"omitempty,max=64"`
}

// QCPhotoRequest is a photo taken during one inspection phase
type QCPhotoRequest struct {
	Phase string `json:"phase" binding:"required,oneof='Good Piece' 'Failed Pieces' Corrections 'Box Labels'"`
	PhotoRequest
}

// InspectionRequest is the body of POST /jobs/:jobId/qc/inspections
type InspectionRequest struct {
	InspectorID      string            `json:"inspectorId" binding:"required,max=64"`
	Mode             string            `json:"mode" binding:"omitempty,oneof=live recheck"`
	ServicesChecked  []string          `json:"servicesChecked"`
	ChecklistResults map[string]bool   `json:"checklistResults"`
	SpoilageEntries  []SpoilageRequest `json:"spoilageEntries" binding:"omitempty,dive"`
	FailReasons      []string          `json:"failReasons"`
	Decision         string            `json:"decision" binding:"required,oneof=pass fail hold"`
	Notes            string            `json:"notes" binding:"omitempty,max=2000"`
	Photos           []QCPhotoRequest  `json:"photos" binding:"omitempty,dive"`
}

func (r InspectionRequest) toCommand(jobID string) application.RecordInspectionCommand {
	photos := make([]application.QCPhoto, len(r.Photos))
	for i, p := range r.Photos {
		photos[i] = application.QCPhoto{Phase: domain.PhotoPhase(p.Phase), Photo: p.toPhoto()}
	}
	return application.RecordInspectionCommand{
		JobID:            jobID,
		InspectorID:      r.InspectorID,
		Mode:             domain.InspectionMode(r.Mode),
		ServicesChecked:  r.ServicesChecked,
		ChecklistResults: r.ChecklistResults,
		SpoilageEntries:  toSpoilage(r.SpoilageEntries),
		FailReasons:      r.FailReasons,
		Decision:         domain.QCDecision(r.Decision),
		Notes:            r.Notes,
		Photos:           photos,
	}
}

// BoxRequest is one packed box
type BoxRequest struct {
	Type           string  `json:"type" binding:"required,box_type"`
	Weight         float64 `json:"weight" binding:"min=0"`
	ServiceLevel   string  `json:"serviceLevel" binding:"omitempty,max=50"`
	TrackingNumber string  `json:"trackingNumber" binding:"omitempty,max=64"`
	LabelURL       string  `json:"labelUrl" binding:"omitempty,max=2048"`
	LabelGenerated bool    `json:"labelGenerated"`
}

// ShipmentRequest is the body of POST /jobs/:jobId/shipment/confirm
type ShipmentRequest struct {
	JobID           string                  `json:"jobId"`
	Carrier         string                  `json:"carrier" binding:"required,carrier"`
	Boxes           []BoxRequest            `json:"boxes" binding:"omitempty,dive"`
	TrackingNumber  string                  `json:"trackingNumber" binding:"omitempty,max=64"`
	PickupSignature *domain.PickupSignature `json:"pickupSignature"`
	Actor           string                  `json:"actor" binding:"omitempty,max=64"`
}

func (r ShipmentRequest) toCommand(jobID string) application.ConfirmShipmentCommand {
	boxes := make([]domain.Box, len(r.Boxes))
	for i, b := range r.Boxes {
		boxes[i] = domain.Box{
			Type:           domain.BoxType(b.Type),
			Weight:         b.Weight,
			ServiceLevel:   b.ServiceLevel,
			TrackingNumber: b.TrackingNumber,
			LabelURL:       b.LabelURL,
			LabelGenerated: b.LabelGenerated,
		}
	}
	return application.ConfirmShipmentCommand{
		JobID: jobID,
		Plan: domain.ShipmentPlan{
			JobID:           r.JobID,
			Carrier:         domain.Carrier(r.Carrier),
			Boxes:           boxes,
			TrackingNumber:  r.TrackingNumber,
			PickupSignature: r.PickupSignature,
		},
		Actor: r.Actor,
	}
}

// TestPrintDecisionRequest is the body of POST /test-prints/:approvalId/decision
type TestPrintDecisionRequest struct {
	Approve      *bool  `json:"approve" binding:"required"`
	SupervisorID string `json:"supervisorId" binding:"required,max=64"`
	Notes        string `json:"notes" binding:"omitempty,max=2000"`
}

// ListTestPrintsRequest holds the query of GET /test-prints
type ListTestPrintsRequest struct {
	Status string `form:"status" binding:"omitempty,oneof=pending approved denied"`
	Limit  int    `form:"limit" binding:"omitempty,min=0,max=500"`
}
