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
)

const testPrintsCollection = "test_prints"

type TestPrintRepository struct {
	collection *mongo.Collection
}

func NewTestPrintRepository(db *mongo.Database) *TestPrintRepository {
	repo := &TestPrintRepository{collection: db.Collection(testPrintsCollection)}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_, _ = repo.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "jobId", Value: 1}, {Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "submittedAt", Value: 1}}},
	})
	return repo
}

// Save inserts version 1 and otherwise replaces the previous version
func (r *TestPrintRepository) Save(ctx context.Context, approval *domain.TestPrintApproval) error {
	if approval.Version <= 1 {
		if _, err := r.collection.InsertOne(ctx, approval); err != nil {
			if isDuplicateKey(err) {
				return fmt.Errorf("test print %s: %w", approval.ID, domain.ErrAlreadyExists)
			}
			return fmt.Errorf("failed to insert test print: %w", err)
		}
		return nil
	}

	result, err := r.collection.ReplaceOne(ctx,
		bson.M{"_id": approval.ID, "version": approval.Version - 1},
		approval,
	)
	if err != nil {
		return fmt.Errorf("failed to update test print: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("test print %s: %w", approval.ID, domain.ErrVersionConflict)
	}
	return nil
}

func (r *TestPrintRepository) FindByID(ctx context.Context, approvalID string) (*domain.TestPrintApproval, error) {
	return r.findOne(ctx, bson.M{"_id": approvalID}, "test print "+approvalID)
}

func (r *TestPrintRepository) FindPendingByJobID(ctx context.Context, jobID string) (*domain.TestPrintApproval, error) {
	return r.findOne(ctx, bson.M{"jobId": jobID, "status": domain.TestPrintPending}, "pending test print for job "+jobID)
}

func (r *TestPrintRepository) findOne(ctx context.Context, filter bson.M, what string) (*domain.TestPrintApproval, error) {
	var approval domain.TestPrintApproval
	err := r.collection.FindOne(ctx, filter).Decode(&approval)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("%s: %w", what, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find test print: %w", err)
	}
	return &approval, nil
}

func (r *TestPrintRepository) List(ctx context.Context, status domain.TestPrintStatus, limit int) ([]*domain.TestPrintApproval, error) {
	filter := bson.M{}
	if status != "" {
		filter["status"] = status
	}
	opts := options.Find().SetSort(bson.D{{Key: "submittedAt", Value: 1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list test prints: %w", err)
	}
	defer cursor.Close(ctx)

	approvals := make([]*domain.TestPrintApproval, 0)
	if err := cursor.All(ctx, &approvals); err != nil {
		return nil, fmt.Errorf("failed to decode test prints: %w", err)
	}
	return approvals, nil
}
