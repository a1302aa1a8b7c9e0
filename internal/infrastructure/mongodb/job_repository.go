package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/decoflow/production-service/internal/domain"
	"github.com/decoflow/production-service/internal/infrastructure/outboxevents"
	"github.com/decoflow/production-service/pkg/cloudevents"
	outboxMongo "github.com/decoflow/production-service/pkg/outbox/mongodb"
)

const (
	jobsCollection      = "jobs"
	lineItemsCollection = "job_line_items"
)

type lineItemsDocument struct {
	JobID string            `bson:"_id"`
	Items []domain.LineItem `bson:"items"`
}

// JobRepository stores jobs and writes their domain events to the outbox
// collection in the same transaction
type JobRepository struct {
	collection   *mongo.Collection
	lineItems    *mongo.Collection
	transactor   *Transactor
	outboxRepo   *outboxMongo.OutboxRepository
	eventFactory *cloudevents.EventFactory
}

func NewJobRepository(db *mongo.Database, transactor *Transactor, eventFactory *cloudevents.EventFactory) *JobRepository {
	outboxRepo := outboxMongo.NewOutboxRepository(db)
	repo := &JobRepository{
		collection:   db.Collection(jobsCollection),
		lineItems:    db.Collection(lineItemsCollection),
		transactor:   transactor,
		outboxRepo:   outboxRepo,
		eventFactory: eventFactory,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	repo.ensureIndexes(ctx)
	_ = outboxRepo.EnsureIndexes(ctx)

	return repo
}

func (r *JobRepository) ensureIndexes(ctx context.Context) {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "priority", Value: -1}, {Key: "createdAt", Value: 1}}},
		{Keys: bson.D{{Key: "orderNumber", Value: 1}}},
		{Keys: bson.D{{Key: "department", Value: 1}}},
		{Keys: bson.D{{Key: "operatorId", Value: 1}}},
	}
	_, _ = r.collection.Indexes().CreateMany(ctx, indexes)
}

// OutboxRepository exposes the outbox used for the job events
func (r *JobRepository) OutboxRepository() *outboxMongo.OutboxRepository {
	return r.outboxRepo
}

func (r *JobRepository) Create(ctx context.Context, job *domain.Job, items []domain.LineItem) error {
	return r.transactor.WithinTransaction(ctx, func(txCtx context.Context) error {
		job.Version = 1
		if _, err := r.collection.InsertOne(txCtx, job); err != nil {
			if isDuplicateKey(err) {
				return fmt.Errorf("job %s: %w", job.ID, domain.ErrAlreadyExists)
			}
			return fmt.Errorf("failed to insert job: %w", err)
		}

		if items == nil {
			items = []domain.LineItem{}
		}
		if _, err := r.lineItems.InsertOne(txCtx, lineItemsDocument{JobID: job.ID, Items: items}); err != nil {
			return fmt.Errorf("failed to insert line items: %w", err)
		}
		return r.saveEvents(txCtx, job)
	})
}

func (r *JobRepository) FindByID(ctx context.Context, jobID string) (*domain.Job, error) {
	var job domain.Job
	err := r.collection.FindOne(ctx, bson.M{"_id": jobID}).Decode(&job)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("job %s: %w", jobID, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find job: %w", err)
	}
	return &job, nil
}

// Update replaces the document only if its version is unchanged
func (r *JobRepository) Update(ctx context.Context, job *domain.Job) error {
	return r.transactor.WithinTransaction(ctx, func(txCtx context.Context) error {
		stored := *job
		stored.Version = job.Version + 1

		result, err := r.collection.ReplaceOne(txCtx, bson.M{"_id": job.ID, "version": job.Version}, &stored)
		if err != nil {
			return fmt.Errorf("failed to update job: %w", err)
		}
		if result.MatchedCount == 0 {
			return fmt.Errorf("job %s at version %d: %w", job.ID, job.Version, domain.ErrVersionConflict)
		}

		if err := r.saveEvents(txCtx, job); err != nil {
			return err
		}
		job.Version = stored.Version
		return nil
	})
}

func (r *JobRepository) saveEvents(ctx context.Context, job *domain.Job) error {
	events, err := outboxevents.FromJob(ctx, r.eventFactory, job)
	if err != nil {
		return err
	}
	if len(events) > 0 {
		if err := r.outboxRepo.SaveAll(ctx, events); err != nil {
			return err
		}
	}
	job.ClearDomainEvents()
	return nil
}

func (r *JobRepository) List(ctx context.Context, filter domain.JobFilter) ([]*domain.Job, error) {
	query := bson.M{}
	if len(filter.Statuses) > 0 {
		query["status"] = bson.M{"$in": filter.Statuses}
	}
	if filter.Department != "" {
		query["department"] = filter.Department
	}
	if filter.Priority != nil {
		query["priority"] = *filter.Priority
	}
	if filter.OperatorID != "" {
		query["operatorId"] = filter.OperatorID
	}

	opts := options.Find().SetSort(bson.D{{Key: "priority", Value: -1}, {Key: "createdAt", Value: 1}})
	if filter.Limit > 0 {
		opts.SetLimit(int64(filter.Limit))
	}

	cursor, err := r.collection.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	defer cursor.Close(ctx)

	jobs := make([]*domain.Job, 0)
	if err := cursor.All(ctx, &jobs); err != nil {
		return nil, fmt.Errorf("failed to decode jobs: %w", err)
	}
	return jobs, nil
}

func (r *JobRepository) GetLineItems(ctx context.Context, jobID string) ([]domain.LineItem, error) {
	var doc lineItemsDocument
	err := r.lineItems.FindOne(ctx, bson.M{"_id": jobID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("line items of job %s: %w", jobID, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find line items: %w", err)
	}
	return doc.Items, nil
}
