// Package mongodb connects to the replica set that backs the job store and
// runs multi-document transactions on it.
package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/event"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

const pingTimeout = 5 * time.Second

// Config holds MongoDB connection settings. Transactions need a replica set,
// a standalone server rejects them.
type Config struct {
	URI            string
	Database       string
	ReplicaSet     string
	ConnectTimeout time.Duration
	MaxPoolSize    uint64
	MinPoolSize    uint64

	// Monitor receives command events, usually from NewCommandMonitor
	Monitor *event.CommandMonitor
}

func (c *Config) clientOptions() *options.ClientOptions {
	opts := options.Client().
		ApplyURI(c.URI).
		SetConnectTimeout(c.ConnectTimeout).
		SetMaxPoolSize(c.MaxPoolSize).
		SetMinPoolSize(c.MinPoolSize)
	if c.ReplicaSet != "" {
		opts.SetReplicaSet(c.ReplicaSet)
	}
	if c.Monitor != nil {
		opts.SetMonitor(c.Monitor)
	}
	return opts
}

type Client struct {
	client   *mongo.Client
	database *mongo.Database
	tracer   trace.Tracer
}

// NewClient connects and fails unless the primary answers a ping
func NewClient(ctx context.Context, config *Config) (*Client, error) {
	client, err := mongo.Connect(ctx, config.clientOptions())
	if err != nil {
		return nil, fmt.Errorf("connecting to mongodb: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("pinging mongodb primary: %w", err)
	}

	return &Client{
		client:   client,
		database: client.Database(config.Database),
		tracer:   otel.Tracer("production-service/mongodb"),
	}, nil
}

func (c *Client) Database() *mongo.Database {
	return c.database
}

func (c *Client) Close(ctx context.Context) error {
	return c.client.Disconnect(ctx)
}

// HealthCheck pings the primary
func (c *Client) HealthCheck(ctx context.Context) error {
	return c.client.Ping(ctx, readpref.Primary())
}

// WithTransaction runs fn in a snapshot read, majority write transaction.
// fn must use the context it is given for every operation that belongs to
// the transaction. The driver re-runs fn on transient transaction errors.
func (c *Client) WithTransaction(ctx context.Context, fn func(txCtx context.Context) error) (err error) {
	ctx, span := c.tracer.Start(ctx, "mongodb.transaction",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(semconv.DBSystemMongoDB, semconv.DBNameKey.String(c.database.Name())),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	session, err := c.client.StartSession()
	if err != nil {
		return fmt.Errorf("starting mongodb session: %w", err)
	}
	defer session.EndSession(ctx)

	opts := options.Transaction().
		SetReadConcern(readconcern.Snapshot()).
		SetWriteConcern(writeconcern.Majority())
	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (any, error) {
		return nil, fn(sessCtx)
	}, opts)
	return err
}
