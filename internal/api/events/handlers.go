// Package events consumes inbound production events from Kafka
package events

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/decoflow/production-service/internal/application"
	"github.com/decoflow/production-service/internal/domain"
	"github.com/decoflow/production-service/pkg/cloudevents"
	apperrors "github.com/decoflow/production-service/pkg/errors"
	"github.com/decoflow/production-service/pkg/kafka"
	"github.com/decoflow/production-service/pkg/logging"
	"github.com/decoflow/production-service/pkg/middleware"
)

// Inbound event types
const (
	EventTypeJobImport        = "production.job.import"
	EventTypeTestPrintDecided = "production.testprint.decided"
)

const testPrintDecisionApproved = "approved"

// JobImportData is the payload of production.job.import
type JobImportData struct {
	ID           string         `json:"id" validate:"required,max=64"`
	OrderNumber  string         `json:"orderNumber" validate:"required,order_number"`
	CustomerName string         `json:"customerName" validate:"required,max=200"`
	Department   string         `json:"department" validate:"required"`
	Quantity     int            `json:"quantity" validate:"required,min=1"`
	Priority     bool           `json:"priority"`
	Source       string         `json:"source" validate:"required"`
	DueDate      *time.Time     `json:"dueDate,omitempty"`
	Notes        string         `json:"notes,omitempty"`
	LineItems    []ImportedItem `json:"lineItems" validate:"omitempty,dive"`
}

// ImportedItem is one line item of an imported job
type ImportedItem struct {
	SKU         string `json:"sku" validate:"required"`
	Size        string `json:"size"`
	Color       string `json:"color"`
	Quantity    int    `json:"quantity" validate:"required,min=1"`
	Description string `json:"description"`
}

// TestPrintDecidedData is the payload of production.testprint.decided
type TestPrintDecidedData struct {
	ApprovalID   string `json:"approvalId" validate:"required"`
	Decision     string `json:"decision" validate:"required,oneof=approved denied"`
	SupervisorID string `json:"supervisorId" validate:"required"`
	Notes        string `json:"notes,omitempty"`
}

// Handlers turns inbound events into application commands
type Handlers struct {
	services *application.Services
	logger   *logging.Logger
}

// NewHandlers creates event handlers
func NewHandlers(services *application.Services, logger *logging.Logger) *Handlers {
	return &Handlers{
		services: services,
		logger:   logger.WithComponent("event-handlers"),
	}
}

// Register subscribes the handlers on consumer
func (h *Handlers) Register(consumer *kafka.Consumer) {
	consumer.Subscribe(kafka.Topics.JobsInbound, EventTypeJobImport, h.ImportJob)
	consumer.Subscribe(kafka.Topics.TestPrintDecisions, EventTypeTestPrintDecided, h.TestPrintDecided)
}

// ImportJob creates a job from an order system import. A replayed import
// of an existing job is acknowledged without changes.
func (h *Handlers) ImportJob(ctx context.Context, event *cloudevents.Event) error {
	var data JobImportData
	if err := event.DecodeData(&data); err != nil {
		return kafka.Permanent(err)
	}
	if appErr := middleware.ValidateStruct(&data); appErr != nil {
		return kafka.Permanent(appErr)
	}

	items := make([]domain.LineItem, len(data.LineItems))
	for i, li := range data.LineItems {
		items[i] = domain.LineItem{
			SKU:         li.SKU,
			Size:        li.Size,
			Color:       li.Color,
			Quantity:    li.Quantity,
			Description: li.Description,
		}
	}

	_, err := h.services.Jobs.CreateJob(ctx, application.CreateJobCommand{
		JobID:        data.ID,
		OrderNumber:  data.OrderNumber,
		CustomerName: data.CustomerName,
		Department:   domain.Department(data.Department),
		Quantity:     data.Quantity,
		Priority:     data.Priority,
		Source:       domain.Source(data.Source),
		DueDate:      data.DueDate,
		Notes:        data.Notes,
		LineItems:    items,
	})
	if errors.Is(err, domain.ErrAlreadyExists) {
		h.logger.InfoContext(ctx, "Job already imported", "jobId", data.ID, "eventId", event.ID)
		return nil
	}
	return classify(err)
}

// TestPrintDecided applies a supervisor decision made in another system
func (h *Handlers) TestPrintDecided(ctx context.Context, event *cloudevents.Event) error {
	var data TestPrintDecidedData
	if err := event.DecodeData(&data); err != nil {
		return kafka.Permanent(err)
	}
	if appErr := middleware.ValidateStruct(&data); appErr != nil {
		return kafka.Permanent(appErr)
	}

	_, err := h.services.Production.DecideTestPrint(ctx, application.DecideTestPrintCommand{
		ApprovalID:   data.ApprovalID,
		Approve:      data.Decision == testPrintDecisionApproved,
		SupervisorID: data.SupervisorID,
		Notes:        data.Notes,
	})
	return classify(err)
}

// classify marks business rejections permanent so they are not redelivered.
// Store failures stay transient.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if appErr, ok := apperrors.AsAppError(err); ok && appErr.HTTPStatus < http.StatusInternalServerError {
		return kafka.Permanent(err)
	}
	return err
}
