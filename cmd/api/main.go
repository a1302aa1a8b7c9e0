package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/decoflow/production-service/api"
	"github.com/decoflow/production-service/internal/api/events"
	httpapi "github.com/decoflow/production-service/internal/api/http"
	"github.com/decoflow/production-service/internal/application"
	"github.com/decoflow/production-service/internal/config"
	"github.com/decoflow/production-service/internal/domain"
	"github.com/decoflow/production-service/internal/infrastructure/directory"
	"github.com/decoflow/production-service/internal/infrastructure/notify"
	"github.com/decoflow/production-service/pkg/cloudevents"
	"github.com/decoflow/production-service/pkg/contracts/asyncapi"
	"github.com/decoflow/production-service/pkg/contracts/openapi"
	"github.com/decoflow/production-service/pkg/kafka"
	"github.com/decoflow/production-service/pkg/logging"
	"github.com/decoflow/production-service/pkg/metrics"
	"github.com/decoflow/production-service/pkg/middleware"
	"github.com/decoflow/production-service/pkg/outbox"
	"github.com/decoflow/production-service/pkg/resilience"
	"github.com/decoflow/production-service/pkg/tracing"
)

const serviceName = "production-service"

func main() {
	cfg, err := config.Load("")
	if err != nil {
		// The logger is not configured yet
		logging.New(logging.DefaultConfig(serviceName)).WithError(err).Error("Failed to load configuration")
		os.Exit(1)
	}

	logConfig := logging.DefaultConfig(cfg.ServiceName)
	logConfig.Level = logging.ParseLevel(cfg.Log.Level)
	logConfig.Environment = cfg.Environment
	logger := logging.New(logConfig)
	logger.SetDefault()

	logger.Info("Starting production-service API", "store", cfg.Store.Backend)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize OpenTelemetry tracing
	tracingConfig := tracing.DefaultConfig(cfg.ServiceName)
	tracingConfig.OTLPEndpoint = cfg.Tracing.Endpoint
	tracingConfig.Environment = cfg.Environment
	tracingConfig.SampleRate = cfg.Tracing.SampleRate
	tracingConfig.Enabled = cfg.Tracing.Enabled

	tracerProvider, err := tracing.Initialize(ctx, tracingConfig)
	if err != nil {
		logger.WithError(err).Error("Failed to initialize tracing")
		// Continue without tracing
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
				logger.WithError(err).Error("Failed to shutdown tracer")
			}
		}()
		if cfg.Tracing.Enabled {
			logger.Info("Tracing initialized", "endpoint", cfg.Tracing.Endpoint)
		}
	}

	m := metrics.New(metrics.DefaultConfig(cfg.ServiceName))
	eventFactory := cloudevents.NewEventFactory("/" + cfg.ServiceName)

	st, err := openStores(ctx, cfg, logger, m, eventFactory)
	if err != nil {
		logger.WithError(err).Error("Failed to open store", "backend", cfg.Store.Backend)
		os.Exit(1)
	}
	defer func() {
		if err := st.close(context.Background()); err != nil {
			logger.WithError(err).Error("Failed to close store")
		}
	}()
	logger.Info("Store opened", "backend", cfg.Store.Backend)

	operators, err := directory.LoadFile(cfg.Production.OperatorDirectoryFile)
	if err != nil {
		logger.WithError(err).Error("Failed to load operator directory", "file", cfg.Production.OperatorDirectoryFile)
		os.Exit(1)
	}
	logger.Info("Operator directory loaded", "operators", operators.Len())

	breakers := resilience.NewCircuitBreakerRegistry(logger.Logger, m)

	var notifier domain.Notifier
	if cfg.Notify.TeamsWebhookURL != "" {
		notifier = notify.NewTeamsNotifier(cfg.Notify.TeamsWebhookURL, cfg.Notify.Timeout, breakers.Get("teams-webhook"), logger)
		logger.Info("Teams notifications enabled")
	} else {
		notifier = notify.NewLogNotifier(logger)
	}
	dispatcher := application.NewDispatcher(notifier, cfg.Notify.Timeout, logger, m)

	services := application.NewServices(application.Dependencies{
		Jobs:                st.jobs,
		LineItems:           st.lineItems,
		TestPrints:          st.testPrints,
		Inspections:         st.inspections,
		Transactor:          st.transactor,
		Photos:              st.photos,
		Directory:           operators,
		Dispatcher:          dispatcher,
		Logger:              logger,
		Metrics:             m,
		ManagerOverrideCode: cfg.Production.ManagerOverrideCode,
		ConflictRetries:     cfg.Production.ConflictRetries,
	})

	eventValidator, err := asyncapi.NewEventValidatorFromBytes(api.AsyncAPISpec)
	if err != nil {
		logger.WithError(err).Error("Failed to load AsyncAPI contract")
		os.Exit(1)
	}

	var consumer *kafka.Consumer
	if cfg.Kafka.Enabled {
		kafkaConfig := kafka.DefaultConfig()
		kafkaConfig.Brokers = cfg.Kafka.Brokers
		kafkaConfig.ConsumerGroup = cfg.Kafka.ConsumerGroup
		kafkaConfig.ClientID = cfg.ServiceName

		producer := kafka.NewProducer(kafkaConfig)
		defer producer.Close()
		instrumentedProducer := kafka.NewInstrumentedProducer(producer, breakers.Get("kafka-producer"), m, logger)

		// Initialize and start outbox publisher
		outboxPublisher := outbox.NewPublisher(st.outbox, instrumentedProducer, logger, m, &outbox.PublisherConfig{
			PollInterval: cfg.Outbox.PollInterval,
			BatchSize:    cfg.Outbox.BatchSize,
			Validator:    eventValidator,
		})
		if err := outboxPublisher.Start(ctx); err != nil {
			logger.WithError(err).Error("Failed to start outbox publisher")
			os.Exit(1)
		}
		defer outboxPublisher.Stop()
		logger.Info("Outbox publisher started", "brokers", cfg.Kafka.Brokers)

		consumer = kafka.NewConsumer(kafkaConfig, logger, m)
		events.NewHandlers(services, logger).Register(consumer)
		go func() {
			if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.WithError(err).Error("Kafka consumer stopped")
			}
		}()
		logger.Info("Kafka consumer started", "topics", consumer.Topics())
	} else {
		logger.Warn("Kafka disabled, domain events stay in the outbox")
	}

	if err := httpapi.RegisterValidators(); err != nil {
		logger.WithError(err).Error("Failed to register validators")
		os.Exit(1)
	}

	router := gin.New()
	middleware.Setup(router, middleware.DefaultConfig(cfg.ServiceName, logger.Logger))
	router.Use(middleware.MetricsMiddleware(m))
	router.Use(middleware.TracingMiddleware(middleware.DefaultTracingConfig(cfg.ServiceName)))

	if cfg.ContractValidation {
		contract, err := openapi.NewValidatorFromBytes(api.OpenAPISpec)
		if err != nil {
			logger.WithError(err).Error("Failed to load OpenAPI contract")
			os.Exit(1)
		}
		router.Use(middleware.ContractValidation(contract, "/api/v1", logger.Logger))
		logger.Info("Contract validation enabled", "paths", len(contract.Paths()))
	}

	// Health check endpoints
	router.GET("/health", middleware.HealthCheck(cfg.ServiceName))
	router.GET("/ready", middleware.ReadinessCheck(cfg.ServiceName, func() error {
		checkCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return st.healthCheck(checkCtx)
	}))
	router.GET("/metrics", middleware.MetricsEndpoint(m))

	httpapi.SetupRoutes(router, httpapi.NewHandlers(services, logger))

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Error("Server error")
			stop()
		}
	}()
	logger.Info("Server started", "addr", cfg.Server.Addr)

	<-ctx.Done()
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
	}
	if consumer != nil {
		if err := consumer.Close(); err != nil {
			logger.WithError(err).Error("Failed to close Kafka consumer")
		}
	}

	// Let in-flight notifications finish before the process exits
	dispatcher.Wait()

	logger.Info("Server stopped")
}
