package outbox

import "context"

// Repository persists outbox events. SaveAll must join the transaction
// carried by ctx so events commit atomically with the state change.
type Repository interface {
	SaveAll(ctx context.Context, events []*OutboxEvent) error

	// FindUnpublished returns retryable unpublished events, oldest first
	FindUnpublished(ctx context.Context, limit int) ([]*OutboxEvent, error)

	MarkPublished(ctx context.Context, eventID string) error

	// IncrementRetry increments the retry count and records the last error
	IncrementRetry(ctx context.Context, eventID string, errorMsg string) error

	// FindByAggregateID returns all events of an aggregate, oldest first
	FindByAggregateID(ctx context.Context, aggregateID string) ([]*OutboxEvent, error)
}
