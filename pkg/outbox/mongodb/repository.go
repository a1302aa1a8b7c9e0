// Package mongodb stores outbox events in a MongoDB collection next to the
// documents whose changes they describe.
package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/decoflow/production-service/pkg/outbox"
)

const DefaultCollectionName = "outbox_events"

// Relayed events are dropped by a TTL index after this long
const publishedRetention = 7 * 24 * time.Hour

// pending matches events the relay should still try
var pending = bson.M{
	"publishedAt": bson.M{"$exists": false},
	"$expr":       bson.M{"$lt": bson.A{"$retryCount", "$maxRetries"}},
}

var oldestFirst = bson.D{{Key: "createdAt", Value: 1}}

// OutboxRepository implements outbox.Repository
type OutboxRepository struct {
	collection *mongo.Collection
}

func NewOutboxRepository(db *mongo.Database) *OutboxRepository {
	return &OutboxRepository{collection: db.Collection(DefaultCollectionName)}
}

// SaveAll inserts events. With a session context the insert commits or
// aborts together with the job update.
func (r *OutboxRepository) SaveAll(ctx context.Context, events []*outbox.OutboxEvent) error {
	if len(events) == 0 {
		return nil
	}
	docs := make([]any, 0, len(events))
	for _, e := range events {
		docs = append(docs, e)
	}
	if _, err := r.collection.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("saving %d outbox events: %w", len(events), err)
	}
	return nil
}

func (r *OutboxRepository) FindUnpublished(ctx context.Context, limit int) ([]*outbox.OutboxEvent, error) {
	return r.find(ctx, pending, options.Find().SetSort(oldestFirst).SetLimit(int64(limit)))
}

// FindByAggregateID returns every event of one job, relayed or not
func (r *OutboxRepository) FindByAggregateID(ctx context.Context, aggregateID string) ([]*outbox.OutboxEvent, error) {
	return r.find(ctx, bson.M{"aggregateId": aggregateID}, options.Find().SetSort(oldestFirst))
}

func (r *OutboxRepository) MarkPublished(ctx context.Context, eventID string) error {
	return r.updateOne(ctx, eventID, bson.M{"$set": bson.M{"publishedAt": time.Now().UTC()}})
}

func (r *OutboxRepository) IncrementRetry(ctx context.Context, eventID string, errorMsg string) error {
	return r.updateOne(ctx, eventID, bson.M{
		"$inc": bson.M{"retryCount": 1},
		"$set": bson.M{"lastError": errorMsg},
	})
}

func (r *OutboxRepository) find(ctx context.Context, filter any, opts *options.FindOptions) ([]*outbox.OutboxEvent, error) {
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("querying outbox: %w", err)
	}
	defer cursor.Close(ctx)

	var events []*outbox.OutboxEvent
	if err := cursor.All(ctx, &events); err != nil {
		return nil, fmt.Errorf("decoding outbox events: %w", err)
	}
	return events, nil
}

func (r *OutboxRepository) updateOne(ctx context.Context, eventID string, update bson.M) error {
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": eventID}, update)
	if err != nil {
		return fmt.Errorf("updating outbox event %s: %w", eventID, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("outbox event %s not found", eventID)
	}
	return nil
}

// EnsureIndexes creates the relay scan, per-job and TTL indexes
func (r *OutboxRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "publishedAt", Value: 1}, {Key: "createdAt", Value: 1}},
			Options: options.Index().SetName("relay_scan"),
		},
		{
			Keys:    bson.D{{Key: "aggregateId", Value: 1}, {Key: "createdAt", Value: 1}},
			Options: options.Index().SetName("by_job"),
		},
		{
			Keys: bson.D{{Key: "publishedAt", Value: 1}},
			Options: options.Index().
				SetName("published_ttl").
				SetExpireAfterSeconds(int32(publishedRetention.Seconds())),
		},
	})
	if err != nil {
		return fmt.Errorf("creating outbox indexes: %w", err)
	}
	return nil
}
