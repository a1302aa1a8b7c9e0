package application

import (
	"context"

	"github.com/google/uuid"

	"github.com/decoflow/production-service/internal/domain"
	"github.com/decoflow/production-service/pkg/logging"
)

// JobService handles job intake and the read side
type JobService struct {
	jobs        domain.JobRepository
	lineItems   domain.LineItemSource
	testPrints  domain.TestPrintRepository
	inspections domain.InspectionRepository
	runner      *jobRunner
	logger      *logging.Logger
}

// CreateJob validates and stores a new job with its line items
func (s *JobService) CreateJob(ctx context.Context, cmd CreateJobCommand) (*JobDTO, error) {
	id := cmd.JobID
	if id == "" {
		id = uuid.New().String()
	}

	job, err := domain.NewJob(domain.NewJobParams{
		ID:           id,
		OrderNumber:  cmd.OrderNumber,
		CustomerName: cmd.CustomerName,
		Department:   cmd.Department,
		Quantity:     cmd.Quantity,
		Priority:     cmd.Priority,
		Source:       cmd.Source,
		DueDate:      cmd.DueDate,
		Notes:        cmd.Notes,
		LineItems:    cmd.LineItems,
	})
	if err != nil {
		return nil, s.runner.fail(ctx, "create_job", id, err)
	}

	if err := s.jobs.Create(ctx, job, cmd.LineItems); err != nil {
		return nil, s.runner.fail(ctx, "create_job", id, err)
	}

	s.logger.LogBusinessEvent(ctx, logging.BusinessEvent{
		EventType:  domain.EventTypeJobCreated,
		EntityType: "job",
		EntityID:   job.ID,
		Action:     "created",
		Attributes: map[string]any{
			"orderNumber": job.OrderNumber,
			"department":  string(job.Department),
			"source":      string(job.Source),
			"quantity":    job.Quantity,
		},
	})

	return ToJobDTO(job), nil
}

// GetJob returns a job. Reads take no lock and may be stale.
func (s *JobService) GetJob(ctx context.Context, jobID string) (*JobDTO, error) {
	job, err := s.jobs.FindByID(ctx, jobID)
	if err != nil {
		return nil, toAppError(err)
	}
	return ToJobDTO(job), nil
}

// ListJobs returns jobs matching the query, priority jobs first
func (s *JobService) ListJobs(ctx context.Context, query ListJobsQuery) ([]*JobDTO, error) {
	for _, status := range query.Statuses {
		if !status.IsValid() {
			return nil, toAppError(domain.NewValidationError("status", "unknown status "+string(status)))
		}
	}

	jobs, err := s.jobs.List(ctx, domain.JobFilter{
		Statuses:   query.Statuses,
		Department: query.Department,
		Priority:   query.Priority,
		OperatorID: query.OperatorID,
		Limit:      query.Limit,
	})
	if err != nil {
		s.logger.WithError(err).ErrorContext(ctx, "Failed to list jobs")
		return nil, toAppError(err)
	}

	dtos := make([]*JobDTO, 0, len(jobs))
	for _, job := range jobs {
		dtos = append(dtos, ToJobDTO(job))
	}
	return dtos, nil
}

// GetLineItems returns the line items of a job
func (s *JobService) GetLineItems(ctx context.Context, jobID string) ([]LineItemDTO, error) {
	items, err := s.lineItems.GetLineItems(ctx, jobID)
	if err != nil {
		return nil, toAppError(err)
	}
	return ToLineItemDTOs(items), nil
}

// ListTestPrints returns approvals in submission order. An empty status
// returns all of them.
func (s *JobService) ListTestPrints(ctx context.Context, status domain.TestPrintStatus, limit int) ([]*TestPrintDTO, error) {
	switch status {
	case "", domain.TestPrintPending, domain.TestPrintApproved, domain.TestPrintDenied:
	default:
		return nil, toAppError(domain.NewValidationError("status", "unknown test print status "+string(status)))
	}

	approvals, err := s.testPrints.List(ctx, status, limit)
	if err != nil {
		return nil, toAppError(err)
	}
	dtos := make([]*TestPrintDTO, 0, len(approvals))
	for _, a := range approvals {
		dtos = append(dtos, ToTestPrintDTO(a))
	}
	return dtos, nil
}

// ListInspections returns the QC history of a job, oldest first
func (s *JobService) ListInspections(ctx context.Context, jobID string) ([]*InspectionDTO, error) {
	if _, err := s.jobs.FindByID(ctx, jobID); err != nil {
		return nil, toAppError(err)
	}
	records, err := s.inspections.FindByJobID(ctx, jobID)
	if err != nil {
		return nil, toAppError(err)
	}
	dtos := make([]*InspectionDTO, 0, len(records))
	for _, r := range records {
		dtos = append(dtos, ToInspectionDTO(r))
	}
	return dtos, nil
}
