package application

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/decoflow/production-service/internal/domain"
	"github.com/decoflow/production-service/pkg/logging"
)

// QCService records inspections of completed jobs
type QCService struct {
	runner      *jobRunner
	inspections domain.InspectionRepository
	photos      *photoUploader
	dispatcher  *Dispatcher
	logger      *logging.Logger
}

// RecordInspection stores an inspection record and applies its decision to
// the job as one atomic unit. Anything but a pass notifies the QC channel.
func (s *QCService) RecordInspection(ctx context.Context, cmd RecordInspectionCommand) (*InspectionResult, error) {
	const op = "record_inspection"

	refs := make([]domain.PhotoRef, 0, len(cmd.Photos))
	for _, p := range cmd.Photos {
		uri, err := s.photos.upload(ctx, p.Photo)
		if err != nil {
			return nil, s.runner.fail(ctx, op, cmd.JobID, err)
		}
		refs = append(refs, domain.PhotoRef{Phase: p.Phase, URI: uri})
	}

	var record *domain.QCInspectionRecord
	job, err := s.runner.mutate(ctx, op, cmd.JobID, func(txCtx context.Context, job *domain.Job) error {
		if job.Status != domain.StatusQCPending {
			return fmt.Errorf("%w: job %s is not awaiting QC", domain.ErrNotFound, job.ID)
		}
		rec, err := domain.NewQCInspectionRecord(uuid.New().String(), job, domain.InspectionInput{
			InspectorID:      cmd.InspectorID,
			Mode:             cmd.Mode,
			ServicesChecked:  cmd.ServicesChecked,
			ChecklistResults: cmd.ChecklistResults,
			SpoilageEntries:  cmd.SpoilageEntries,
			FailReasons:      cmd.FailReasons,
			Decision:         cmd.Decision,
			Notes:            cmd.Notes,
			PhotoRefs:        refs,
		})
		if err != nil {
			return err
		}
		if err := job.RecordInspection(rec); err != nil {
			return err
		}
		if err := s.inspections.Insert(txCtx, rec); err != nil {
			return err
		}
		record = rec
		return nil
	})
	if err != nil {
		return nil, err
	}

	if record.Decision != domain.QCPass {
		s.dispatcher.Dispatch(ctx, domain.Notification{
			Kind:    domain.NotificationQCDecision,
			JobID:   job.ID,
			Summary: fmt.Sprintf("**Order #%s** QC %s", job.OrderNumber, strings.ToUpper(string(record.Decision))),
			Fields: map[string]string{
				"Inspector":     record.InspectorID,
				"Services":      strings.Join(record.ServicesChecked, ", "),
				"Spoiled Units": strconv.Itoa(record.TotalSpoiled),
				"Decision":      string(record.Decision),
				"Fail Reasons":  strings.Join(record.FailReasons, ", "),
			},
		})
	}

	return &InspectionResult{Inspection: ToInspectionDTO(record), Job: ToJobDTO(job)}, nil
}
