package main

import (
	"context"
	"fmt"

	"github.com/decoflow/production-service/internal/config"
	"github.com/decoflow/production-service/internal/domain"
	"github.com/decoflow/production-service/internal/infrastructure/badgerstore"
	mongoRepo "github.com/decoflow/production-service/internal/infrastructure/mongodb"
	"github.com/decoflow/production-service/pkg/cloudevents"
	"github.com/decoflow/production-service/pkg/logging"
	"github.com/decoflow/production-service/pkg/metrics"
	"github.com/decoflow/production-service/pkg/mongodb"
	"github.com/decoflow/production-service/pkg/outbox"
)

// stores is the persistence side of the service for one backend
type stores struct {
	jobs        domain.JobRepository
	lineItems   domain.LineItemSource
	testPrints  domain.TestPrintRepository
	inspections domain.InspectionRepository
	transactor  domain.Transactor
	photos      domain.PhotoStore
	outbox      outbox.Repository

	healthCheck func(ctx context.Context) error
	close       func(ctx context.Context) error
}

func openStores(ctx context.Context, cfg *config.Config, logger *logging.Logger, m *metrics.Metrics, factory *cloudevents.EventFactory) (*stores, error) {
	switch cfg.Store.Backend {
	case config.BackendBadger:
		return openBadger(cfg, logger, m, factory)
	case config.BackendMongoDB:
		return openMongo(ctx, cfg, logger, m, factory)
	}
	return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
}

func openBadger(cfg *config.Config, logger *logging.Logger, m *metrics.Metrics, factory *cloudevents.EventFactory) (*stores, error) {
	store, err := badgerstore.Open(badgerstore.Options{
		Path:     cfg.Store.BadgerPath,
		InMemory: cfg.Store.BadgerInMemory,
		Logger:   logger.WithComponent("badger"),
		Metrics:  m,
		Events:   factory,
	})
	if err != nil {
		return nil, err
	}

	outboxRepo := badgerstore.NewOutboxRepository(store)
	jobRepo := badgerstore.NewJobRepository(store, outboxRepo)

	return &stores{
		jobs:        jobRepo,
		lineItems:   jobRepo,
		testPrints:  badgerstore.NewTestPrintRepository(store),
		inspections: badgerstore.NewInspectionRepository(store),
		transactor:  store,
		photos:      badgerstore.NewPhotoStore(store),
		outbox:      outboxRepo,
		healthCheck: store.HealthCheck,
		close:       func(context.Context) error { return store.Close() },
	}, nil
}

func openMongo(ctx context.Context, cfg *config.Config, logger *logging.Logger, m *metrics.Metrics, factory *cloudevents.EventFactory) (*stores, error) {
	client, err := mongodb.NewClient(ctx, &mongodb.Config{
		URI:            cfg.MongoDB.URI,
		Database:       cfg.MongoDB.Database,
		ReplicaSet:     cfg.MongoDB.ReplicaSet,
		ConnectTimeout: cfg.MongoDB.ConnectTimeout,
		MaxPoolSize:    cfg.MongoDB.MaxPoolSize,
		MinPoolSize:    cfg.MongoDB.MinPoolSize,
		Monitor:        mongodb.NewCommandMonitor(m, logger.WithComponent("mongodb")),
	})
	if err != nil {
		return nil, err
	}

	db := client.Database()
	photos, err := mongoRepo.NewPhotoStore(db)
	if err != nil {
		_ = client.Close(ctx)
		return nil, err
	}

	transactor := mongoRepo.NewTransactor(client)
	jobRepo := mongoRepo.NewJobRepository(db, transactor, factory)

	return &stores{
		jobs:        jobRepo,
		lineItems:   jobRepo,
		testPrints:  mongoRepo.NewTestPrintRepository(db),
		inspections: mongoRepo.NewInspectionRepository(db),
		transactor:  transactor,
		photos:      photos,
		outbox:      jobRepo.OutboxRepository(),
		healthCheck: client.HealthCheck,
		close:       client.Close,
	}, nil
}
