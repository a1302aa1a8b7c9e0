// Package outboxevents turns the domain events raised on a job into outbox
// records. Both store backends call it inside the transaction that saves the
// job.
package outboxevents

import (
	"context"
	"fmt"

	"github.com/decoflow/production-service/internal/domain"
	"github.com/decoflow/production-service/pkg/cloudevents"
	"github.com/decoflow/production-service/pkg/kafka"
	"github.com/decoflow/production-service/pkg/outbox"
)

// AggregateType is recorded on every outbox event
const AggregateType = "Job"

// FromJob converts the pending domain events of job. The events are left on
// the job; callers clear them once the transaction succeeds.
func FromJob(ctx context.Context, factory *cloudevents.EventFactory, job *domain.Job) ([]*outbox.OutboxEvent, error) {
	domainEvents := job.GetDomainEvents()
	if len(domainEvents) == 0 {
		return nil, nil
	}

	out := make([]*outbox.OutboxEvent, 0, len(domainEvents))
	for _, event := range domainEvents {
		ce, err := factory.CreateEvent(ctx, event.EventType(), "job/"+job.ID, event)
		if err != nil {
			return nil, err
		}
		ce.JobID = job.ID

		oe, err := outbox.NewOutboxEventFromCloudEvent(job.ID, AggregateType, kafka.Topics.JobsEvents, ce)
		if err != nil {
			return nil, fmt.Errorf("failed to create outbox event: %w", err)
		}
		out = append(out, oe)
	}
	return out, nil
}
