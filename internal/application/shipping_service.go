package application

import (
	"context"

	"github.com/decoflow/production-service/internal/domain"
	"github.com/decoflow/production-service/pkg/logging"
)

// ShippingService validates packing and ships jobs
type ShippingService struct {
	runner    *jobRunner
	jobs      domain.JobRepository
	lineItems domain.LineItemSource
	logger    *logging.Logger
}

// EstimatePacking classifies a job's units and estimates its box count
func (s *ShippingService) EstimatePacking(ctx context.Context, jobID string) (*PackingEstimateDTO, error) {
	const op = "estimate_packing"

	if _, err := s.jobs.FindByID(ctx, jobID); err != nil {
		return nil, s.runner.fail(ctx, op, jobID, err)
	}
	items, err := s.lineItems.GetLineItems(ctx, jobID)
	if err != nil {
		return nil, s.runner.fail(ctx, op, jobID, err)
	}

	est := domain.EstimatePacking(items)
	levels := make(map[string][]string)
	for _, c := range []domain.Carrier{
		domain.CarrierUPS, domain.CarrierFedEx, domain.CarrierUSPS, domain.CarrierDHL, domain.CarrierPickup,
	} {
		levels[string(c)] = domain.ServiceLevels(c)
	}

	return &PackingEstimateDTO{
		JobID:                jobID,
		ShirtUnits:           est.ShirtUnits,
		HoodieUnits:          est.HoodieUnits,
		EstimatedBoxesNeeded: est.EstimatedBoxesNeeded,
		ShirtsPerBox:         domain.ShirtsPerBox,
		HoodiesPerBox:        domain.HoodiesPerBox,
		ServiceLevels:        levels,
	}, nil
}

// ValidateAndConfirmShipment checks the plan against the job's line items
// and, when it passes, ships the job. A failed check leaves the job READY_TO_SHIP.
func (s *ShippingService) ValidateAndConfirmShipment(ctx context.Context, cmd ConfirmShipmentCommand) (*JobDTO, error) {
	const op = "confirm_shipment"

	plan := cmd.Plan
	if plan.JobID != "" && plan.JobID != cmd.JobID {
		return nil, s.runner.fail(ctx, op, cmd.JobID, domain.NewValidationError("jobId", "plan belongs to another job"))
	}
	plan.JobID = cmd.JobID

	items, err := s.lineItems.GetLineItems(ctx, cmd.JobID)
	if err != nil {
		return nil, s.runner.fail(ctx, op, cmd.JobID, err)
	}

	job, err := s.runner.mutate(ctx, op, cmd.JobID, func(_ context.Context, job *domain.Job) error {
		return job.ConfirmShipment(plan, items, cmd.Actor)
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "Job shipped",
		"jobId", job.ID,
		"carrier", string(job.ShippingCarrier),
		"trackingNumber", job.TrackingNumber,
		"boxCount", job.BoxCount,
	)
	return ToJobDTO(job), nil
}
