package application

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/decoflow/production-service/internal/domain"
	apperrors "github.com/decoflow/production-service/pkg/errors"
	"github.com/decoflow/production-service/pkg/logging"
	"github.com/decoflow/production-service/pkg/metrics"
	"github.com/decoflow/production-service/pkg/resilience"
	"github.com/decoflow/production-service/pkg/tracing"
)

// DefaultConflictRetries is how often a lost compare-and-swap is retried
const DefaultConflictRetries = 5

// jobRunner executes every read-then-write on a job as one atomic unit:
// an in-process lock on the job id, then a store transaction that re-reads
// the job, applies the change and writes it back with a version check. A
// lost version check (another process won) re-runs the whole unit.
type jobRunner struct {
	jobs    domain.JobRepository
	tx      domain.Transactor
	locks   *keyedMutex
	retries int
	logger  *logging.Logger
	metrics *metrics.Metrics
}

// mutateFunc changes job. It may use ctx for other repository calls that
// must commit together with the job.
type mutateFunc func(ctx context.Context, job *domain.Job) error

func (r *jobRunner) mutate(ctx context.Context, op, jobID string, fn mutateFunc) (_ *domain.Job, err error) {
	ctx, span := tracing.StartOperation(ctx, "job."+op,
		attribute.String("production.job_id", jobID))
	defer func() { tracing.EndOperation(span, err) }()

	unlock := r.locks.Lock(jobID)
	defer unlock()

	var (
		result *domain.Job
		events []domain.DomainEvent
	)

	retry := &resilience.RetryConfig{
		MaxAttempts:   r.retries,
		InitialDelay:  10 * time.Millisecond,
		MaxDelay:      200 * time.Millisecond,
		BackoffFactor: 2,
		RetryableErrors: func(err error) bool {
			return errors.Is(err, domain.ErrVersionConflict)
		},
		OnRetry: func(attempt int, err error) {
			if r.metrics != nil {
				r.metrics.RecordVersionConflict()
			}
			r.logger.DebugContext(ctx, "Retrying after version conflict",
				"operation", op, "jobId", jobID, "attempt", attempt)
		},
	}

	err = resilience.Retry(ctx, retry, func() error {
		return r.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
			job, err := r.jobs.FindByID(txCtx, jobID)
			if err != nil {
				return err
			}
			if err := fn(txCtx, job); err != nil {
				return err
			}
			pending := append([]domain.DomainEvent(nil), job.GetDomainEvents()...)
			if err := r.jobs.Update(txCtx, job); err != nil {
				return err
			}
			result, events = job, pending
			return nil
		})
	})
	if err != nil {
		return nil, r.fail(ctx, op, jobID, err)
	}

	r.record(ctx, events)
	return result, nil
}

// fail maps err, counts business rejections and logs infrastructure errors
func (r *jobRunner) fail(ctx context.Context, op, jobID string, err error) *apperrors.AppError {
	appErr := toAppError(err)
	if isRejection(appErr) {
		if r.metrics != nil {
			r.metrics.RecordRejection(op, appErr.Code)
		}
		r.logger.InfoContext(ctx, "Operation rejected",
			"operation", op, "jobId", jobID, "code", appErr.Code, "reason", err.Error())
		return appErr
	}
	r.logger.WithError(err).ErrorContext(ctx, "Operation failed", "operation", op, "jobId", jobID)
	return appErr
}

// record turns committed domain events into metrics and business log lines
func (r *jobRunner) record(ctx context.Context, events []domain.DomainEvent) {
	for _, event := range events {
		switch e := event.(type) {
		case *domain.JobStatusChangedEvent:
			if r.metrics != nil {
				r.metrics.RecordTransition(string(e.Event), string(e.FromStatus), string(e.ToStatus))
			}
			r.logger.LogBusinessEvent(ctx, logging.BusinessEvent{
				EventType:  e.EventType(),
				EntityType: "job",
				EntityID:   e.JobID,
				Action:     string(e.Event),
				Attributes: map[string]any{
					"orderNumber": e.OrderNumber,
					"from":        string(e.FromStatus),
					"to":          string(e.ToStatus),
					"actor":       e.Actor,
				},
			})
		case *domain.SpoilageRecordedEvent:
			if r.metrics != nil {
				for _, entry := range e.Entries {
					r.metrics.RecordSpoilage(string(e.Source), string(entry.Reason), entry.Quantity)
				}
			}
		case *domain.InspectionRecordedEvent:
			if r.metrics != nil {
				r.metrics.RecordQCDecision(string(e.Decision), string(e.Mode))
			}
			r.logger.LogBusinessEvent(ctx, logging.BusinessEvent{
				EventType:  e.EventType(),
				EntityType: "job",
				EntityID:   e.JobID,
				Action:     "qc_" + string(e.Decision),
				Attributes: map[string]any{
					"inspectionId": e.InspectionID,
					"inspectorId":  e.InspectorID,
					"totalSpoiled": e.TotalSpoiled,
				},
			})
		case *domain.JobShippedEvent:
			if r.metrics != nil {
				r.metrics.RecordShipment(string(e.Carrier))
			}
		}
	}
}
