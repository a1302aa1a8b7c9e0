package application

import "github.com/decoflow/production-service/internal/domain"

// ToJobDTO converts a domain Job to JobDTO
func ToJobDTO(job *domain.Job) *JobDTO {
	if job == nil {
		return nil
	}

	activity := make([]ActivityDTO, 0, len(job.Activity))
	for _, a := range job.Activity {
		activity = append(activity, ActivityDTO{
			Event:  string(a.Event),
			From:   string(a.From),
			To:     string(a.To),
			Actor:  a.Actor,
			Notes:  a.Notes,
			Photos: a.Photos,
			At:     a.At,
		})
	}

	allowed := job.AllowedEvents()
	events := make([]string, 0, len(allowed))
	for _, e := range allowed {
		events = append(events, string(e))
	}

	dto := &JobDTO{
		ID:              job.ID,
		OrderNumber:     job.OrderNumber,
		CustomerName:    job.CustomerName,
		Department:      string(job.Department),
		Status:          string(job.Status),
		ProductionState: string(job.ProductionState),
		Quantity:        job.Quantity,
		Priority:        job.Priority,
		Source:          string(job.Source),
		DueDate:         job.DueDate,
		MachineID:       job.MachineID,
		OperatorID:      job.OperatorID,
		QCInspectorID:   job.QCInspectorID,
		BoxCount:        job.BoxCount,
		Weight:          job.Weight,
		Notes:           job.Notes,
		ShippingCarrier: string(job.ShippingCarrier),
		TrackingNumber:  job.TrackingNumber,
		ShippedAt:       job.ShippedAt,
		Spoilage:        toSpoilageDTOs(job.Spoilage),
		TotalSpoiled:    domain.TotalSpoiled(job.Spoilage),
		Activity:        activity,
		AllowedEvents:   events,
		Version:         job.Version,
		CreatedAt:       job.CreatedAt,
		UpdatedAt:       job.UpdatedAt,
	}

	if job.Hold != nil {
		dto.Hold = &HoldDTO{
			Reason:         string(job.Hold.Reason),
			Notes:          job.Hold.Notes,
			Photos:         job.Hold.Photos,
			PlacedBy:       job.Hold.PlacedBy,
			PreviousStatus: string(job.Hold.PreviousStatus),
			PlacedAt:       job.Hold.PlacedAt,
		}
	}

	return dto
}

func toSpoilageDTOs(entries []domain.SpoilageEntry) []SpoilageEntryDTO {
	out := make([]SpoilageEntryDTO, 0, len(entries))
	for _, e := range entries {
		out = append(out, SpoilageEntryDTO{
			SKU:        e.SKU,
			Size:       e.Size,
			Color:      e.Color,
			Quantity:   e.Quantity,
			Reason:     string(e.Reason),
			Notes:      e.Notes,
			Source:     string(e.Source),
			RecordedAt: e.RecordedAt,
		})
	}
	return out
}

// ToLineItemDTOs converts line items
func ToLineItemDTOs(items []domain.LineItem) []LineItemDTO {
	out := make([]LineItemDTO, 0, len(items))
	for _, item := range items {
		out = append(out, LineItemDTO{
			SKU:         item.SKU,
			Size:        item.Size,
			Color:       item.Color,
			Quantity:    item.Quantity,
			Description: item.Description,
			Hoodie:      item.IsHoodie(),
		})
	}
	return out
}

// ToOperatorSessionDTO converts an operator session
func ToOperatorSessionDTO(s *domain.OperatorSession) *OperatorSessionDTO {
	if s == nil {
		return nil
	}
	return &OperatorSessionDTO{
		OperatorID:      s.OperatorID,
		Name:            s.Name,
		Role:            string(s.Role),
		MachineID:       s.MachineID,
		AuthenticatedAt: s.AuthenticatedAt,
	}
}

// ToTestPrintDTO converts a test print approval
func ToTestPrintDTO(a *domain.TestPrintApproval) *TestPrintDTO {
	if a == nil {
		return nil
	}
	return &TestPrintDTO{
		ID:              a.ID,
		JobID:           a.JobID,
		OrderNumber:     a.OrderNumber,
		OperatorID:      a.OperatorID,
		MachineID:       a.MachineID,
		SupervisorID:    a.SupervisorID,
		SupervisorNotes: a.SupervisorNotes,
		PhotoURI:        a.PhotoURI,
		Status:          string(a.Status),
		SubmittedAt:     a.SubmittedAt,
		ReviewedAt:      a.ReviewedAt,
	}
}

// ToInspectionDTO converts a QC inspection record
func ToInspectionDTO(r *domain.QCInspectionRecord) *InspectionDTO {
	if r == nil {
		return nil
	}

	refs := make([]PhotoRefDTO, 0, len(r.PhotoRefs))
	for _, p := range r.PhotoRefs {
		refs = append(refs, PhotoRefDTO{Phase: string(p.Phase), URI: p.URI})
	}

	return &InspectionDTO{
		ID:               r.ID,
		JobID:            r.JobID,
		OrderNumber:      r.OrderNumber,
		InspectorID:      r.InspectorID,
		Mode:             string(r.Mode),
		ServicesChecked:  r.ServicesChecked,
		ChecklistResults: r.ChecklistResults,
		SpoilageEntries:  toSpoilageDTOs(r.SpoilageEntries),
		FailReasons:      r.FailReasons,
		Decision:         string(r.Decision),
		Notes:            r.Notes,
		PhotoRefs:        refs,
		TotalSpoiled:     r.TotalSpoiled,
		CreatedAt:        r.CreatedAt,
	}
}
