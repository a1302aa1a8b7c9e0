package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/decoflow/production-service/internal/domain"
)

const inspectionsCollection = "qc_inspections"

// InspectionRepository is insert only
type InspectionRepository struct {
	collection *mongo.Collection
}

func NewInspectionRepository(db *mongo.Database) *InspectionRepository {
	repo := &InspectionRepository{collection: db.Collection(inspectionsCollection)}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_, _ = repo.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "jobId", Value: 1}, {Key: "createdAt", Value: 1}},
	})
	return repo
}

func (r *InspectionRepository) Insert(ctx context.Context, record *domain.QCInspectionRecord) error {
	if _, err := r.collection.InsertOne(ctx, record); err != nil {
		if isDuplicateKey(err) {
			return fmt.Errorf("inspection %s: %w", record.ID, domain.ErrAlreadyExists)
		}
		return fmt.Errorf("failed to insert inspection: %w", err)
	}
	return nil
}

func (r *InspectionRepository) FindByJobID(ctx context.Context, jobID string) ([]*domain.QCInspectionRecord, error) {
	cursor, err := r.collection.Find(ctx,
		bson.M{"jobId": jobID},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to find inspections: %w", err)
	}
	defer cursor.Close(ctx)

	records := make([]*domain.QCInspectionRecord, 0)
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("failed to decode inspections: %w", err)
	}
	return records, nil
}
