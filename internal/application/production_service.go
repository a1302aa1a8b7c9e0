package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/decoflow/production-service/internal/domain"
	"github.com/decoflow/production-service/pkg/logging"
	"github.com/decoflow/production-service/pkg/metrics"
)

// ProductionService drives a job from intake to COMPLETED: test prints,
// running, pausing, holds and QC requests
type ProductionService struct {
	runner      *jobRunner
	lineItems   domain.LineItemSource
	testPrints  domain.TestPrintRepository
	directory   domain.OperatorDirectory
	photos      *photoUploader
	dispatcher  *Dispatcher
	managerCode string
	logger      *logging.Logger
	metrics     *metrics.Metrics
}

// Authenticate verifies an operator PIN at a machine
func (s *ProductionService) Authenticate(ctx context.Context, cmd AuthenticateCommand) (*domain.OperatorSession, error) {
	if s.directory == nil {
		return nil, s.runner.fail(ctx, "authenticate", "", errors.New("no operator directory configured"))
	}
	session, err := s.directory.Verify(ctx, cmd.PIN, cmd.MachineID)
	if err != nil {
		return nil, s.runner.fail(ctx, "authenticate", "", err)
	}
	s.logger.InfoContext(ctx, "Operator authenticated", "operatorId", session.OperatorID, "machineId", session.MachineID)
	return session, nil
}

// RequestTestPrint submits the first print of a NEW job for supervisor
// approval. The photo is stored before the job is locked; the approval is
// created in the same atomic unit as the status change.
func (s *ProductionService) RequestTestPrint(ctx context.Context, cmd RequestTestPrintCommand) (*StartProductionResult, error) {
	const op = "request_test_print"

	if !cmd.Session.Valid() {
		return nil, s.runner.fail(ctx, op, cmd.JobID, fmt.Errorf("%w: operator session required", domain.ErrAuth))
	}
	if cmd.Photo == nil || len(cmd.Photo.Data) == 0 {
		return nil, s.runner.fail(ctx, op, cmd.JobID, domain.NewValidationError("photo", "a test print photo is required"))
	}

	// lock-free pre-check so a photo is not stored for a job that cannot take it
	current, err := s.runner.jobs.FindByID(ctx, cmd.JobID)
	if err != nil {
		return nil, s.runner.fail(ctx, op, cmd.JobID, err)
	}
	if current.Status != domain.StatusNew {
		return nil, s.runner.fail(ctx, op, cmd.JobID, &domain.TransitionError{From: current.Status, Event: domain.EventRequestTestPrint})
	}

	uri, err := s.photos.upload(ctx, *cmd.Photo)
	if err != nil {
		return nil, s.runner.fail(ctx, op, cmd.JobID, err)
	}

	var approval *domain.TestPrintApproval
	job, err := s.runner.mutate(ctx, op, cmd.JobID, func(txCtx context.Context, job *domain.Job) error {
		if err := job.RequestTestPrint(cmd.Session); err != nil {
			return err
		}
		a, err := domain.NewTestPrintApproval(uuid.New().String(), job, cmd.Session, uri)
		if err != nil {
			return err
		}
		if err := s.testPrints.Save(txCtx, a); err != nil {
			return err
		}
		approval = a
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "Test print submitted",
		"jobId", job.ID, "approvalId", approval.ID, "operatorId", cmd.Session.OperatorID)
	return &StartProductionResult{Job: ToJobDTO(job), PendingApproval: ToTestPrintDTO(approval)}, nil
}

// StartProduction starts an approved job. A NEW job is routed through the
// test print request instead and comes back with a pending approval.
func (s *ProductionService) StartProduction(ctx context.Context, cmd StartProductionCommand) (*StartProductionResult, error) {
	const op = "start_production"

	if !cmd.Session.Valid() {
		return nil, s.runner.fail(ctx, op, cmd.JobID, fmt.Errorf("%w: operator session required", domain.ErrAuth))
	}

	current, err := s.runner.jobs.FindByID(ctx, cmd.JobID)
	if err != nil {
		return nil, s.runner.fail(ctx, op, cmd.JobID, err)
	}
	if current.Status == domain.StatusNew {
		return s.RequestTestPrint(ctx, RequestTestPrintCommand(cmd))
	}

	job, err := s.runner.mutate(ctx, op, cmd.JobID, func(_ context.Context, job *domain.Job) error {
		if job.Status == domain.StatusNew {
			return &domain.TransitionError{From: job.Status, Event: domain.EventStartProduction}
		}
		return job.StartProduction(cmd.Session)
	})
	if err != nil {
		return nil, err
	}
	return &StartProductionResult{Job: ToJobDTO(job)}, nil
}

// DecideTestPrint approves or denies a pending approval and moves its job
// in the same atomic unit
func (s *ProductionService) DecideTestPrint(ctx context.Context, cmd DecideTestPrintCommand) (*TestPrintDecisionResult, error) {
	const op = "decide_test_print"

	found, err := s.testPrints.FindByID(ctx, cmd.ApprovalID)
	if err != nil {
		return nil, s.runner.fail(ctx, op, "", err)
	}

	var approval *domain.TestPrintApproval
	job, err := s.runner.mutate(ctx, op, found.JobID, func(txCtx context.Context, job *domain.Job) error {
		a, err := s.testPrints.FindByID(txCtx, cmd.ApprovalID)
		if err != nil {
			return err
		}
		if cmd.Approve {
			if err := a.Approve(cmd.SupervisorID, cmd.Notes); err != nil {
				return err
			}
			if err := job.ApproveTestPrint(cmd.SupervisorID, cmd.Notes); err != nil {
				return err
			}
		} else {
			if err := a.Deny(cmd.SupervisorID, cmd.Notes); err != nil {
				return err
			}
			if err := job.DenyTestPrint(cmd.SupervisorID, cmd.Notes); err != nil {
				return err
			}
		}
		if err := s.testPrints.Save(txCtx, a); err != nil {
			return err
		}
		approval = a
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.RecordTestPrintDecision(string(approval.Status))
	}
	s.logger.InfoContext(ctx, "Test print decided",
		"approvalId", approval.ID, "jobId", job.ID, "decision", string(approval.Status), "supervisorId", cmd.SupervisorID)

	return &TestPrintDecisionResult{Approval: ToTestPrintDTO(approval), Job: ToJobDTO(job)}, nil
}

// Pause pauses a running job, recording spoilage reported so far
func (s *ProductionService) Pause(ctx context.Context, cmd ReportProductionCommand) (*JobDTO, error) {
	return s.report(ctx, "pause", cmd, (*domain.Job).Pause)
}

// Complete finishes production of a running or paused job
func (s *ProductionService) Complete(ctx context.Context, cmd ReportProductionCommand) (*JobDTO, error) {
	return s.report(ctx, "complete", cmd, (*domain.Job).Complete)
}

func (s *ProductionService) report(
	ctx context.Context,
	op string,
	cmd ReportProductionCommand,
	apply func(*domain.Job, domain.ProductionReport, []domain.LineItem) error,
) (*JobDTO, error) {
	var items []domain.LineItem
	if len(cmd.Spoilage) > 0 {
		var err error
		if items, err = s.lineItems.GetLineItems(ctx, cmd.JobID); err != nil {
			return nil, s.runner.fail(ctx, op, cmd.JobID, err)
		}
	}
	photos, err := s.photos.uploadAll(ctx, cmd.Photos)
	if err != nil {
		return nil, s.runner.fail(ctx, op, cmd.JobID, err)
	}

	job, err := s.runner.mutate(ctx, op, cmd.JobID, func(_ context.Context, job *domain.Job) error {
		if err := job.ExpectVersion(cmd.ExpectedVersion); err != nil {
			return err
		}
		return apply(job, domain.ProductionReport{
			Actor:    cmd.Actor,
			Notes:    cmd.Notes,
			Photos:   photos,
			Spoilage: cmd.Spoilage,
		}, items)
	})
	if err != nil {
		return nil, err
	}
	return ToJobDTO(job), nil
}

// Resume restarts a paused job
func (s *ProductionService) Resume(ctx context.Context, cmd ResumeCommand) (*JobDTO, error) {
	job, err := s.runner.mutate(ctx, "resume", cmd.JobID, func(_ context.Context, job *domain.Job) error {
		if err := job.ExpectVersion(cmd.ExpectedVersion); err != nil {
			return err
		}
		return job.Resume(cmd.Actor)
	})
	if err != nil {
		return nil, err
	}
	return ToJobDTO(job), nil
}

// Hold stops a job. A pending test print is denied in the same atomic unit
// and the hold is announced on the notification channel.
func (s *ProductionService) Hold(ctx context.Context, cmd HoldCommand) (*JobDTO, error) {
	const op = "hold"

	photos, err := s.photos.uploadAll(ctx, cmd.Photos)
	if err != nil {
		return nil, s.runner.fail(ctx, op, cmd.JobID, err)
	}

	job, err := s.runner.mutate(ctx, op, cmd.JobID, func(txCtx context.Context, job *domain.Job) error {
		if err := job.PlaceHold(domain.HoldRequest{
			Reason:   cmd.Reason,
			Notes:    cmd.Notes,
			Photos:   photos,
			PlacedBy: cmd.PlacedBy,
		}); err != nil {
			return err
		}

		pending, err := s.testPrints.FindPendingByJobID(txCtx, job.ID)
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := pending.Deny("", "job placed on hold"); err != nil {
			return err
		}
		return s.testPrints.Save(txCtx, pending)
	})
	if err != nil {
		return nil, err
	}

	s.dispatcher.Dispatch(ctx, domain.Notification{
		Kind:    domain.NotificationJobHeld,
		JobID:   job.ID,
		Summary: fmt.Sprintf("**Order #%s** placed on hold", job.OrderNumber),
		Fields: map[string]string{
			"Reason":          string(job.Hold.Reason),
			"Notes":           job.Hold.Notes,
			"Placed By":       job.Hold.PlacedBy,
			"Previous Status": string(job.Hold.PreviousStatus),
		},
	})
	return ToJobDTO(job), nil
}

// ReleaseHold returns a held job to NEW when the override code matches.
// Failed attempts are audited and counted; there is no lockout.
func (s *ProductionService) ReleaseHold(ctx context.Context, cmd ReleaseHoldCommand) (*JobDTO, error) {
	job, err := s.runner.mutate(ctx, "release_hold", cmd.JobID, func(_ context.Context, job *domain.Job) error {
		return job.ReleaseHold(cmd.OverrideCode, s.managerCode, cmd.Actor)
	})
	if err != nil {
		if errors.Is(err, domain.ErrAuth) {
			if s.metrics != nil {
				s.metrics.RecordOverrideFailure()
			}
			s.logger.WarnContext(ctx, "Hold release refused", "jobId", cmd.JobID, "actor", cmd.Actor)
			s.logger.Audit(ctx, "release_hold", "job", cmd.JobID, cmd.Actor, map[string]any{"success": false})
		}
		return nil, err
	}

	s.logger.Audit(ctx, "release_hold", "job", cmd.JobID, cmd.Actor, map[string]any{"success": true})
	return ToJobDTO(job), nil
}

// RequestQC queues a completed job for inspection
func (s *ProductionService) RequestQC(ctx context.Context, cmd RequestQCCommand) (*JobDTO, error) {
	job, err := s.runner.mutate(ctx, "request_qc", cmd.JobID, func(_ context.Context, job *domain.Job) error {
		return job.RequestQC(cmd.Actor)
	})
	if err != nil {
		return nil, err
	}
	return ToJobDTO(job), nil
}
