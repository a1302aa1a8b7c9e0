package kafka

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/decoflow/production-service/pkg/cloudevents"
	"github.com/decoflow/production-service/pkg/logging"
	"github.com/decoflow/production-service/pkg/metrics"
)

// EventHandler handles a CloudEvent
type EventHandler func(ctx context.Context, event *cloudevents.Event) error

// PermanentError marks a handler error that redelivery cannot fix. The
// message is committed and the error logged.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }

// Permanent wraps err as a PermanentError
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &PermanentError{Err: err}
}

// Consumer consumes CloudEvents from Kafka topics
type Consumer struct {
	config   *Config
	mu       sync.Mutex
	readers  map[string]*kafka.Reader
	handlers map[string]map[string]EventHandler // topic -> eventType -> handler
	logger   *logging.Logger
	metrics  *metrics.Metrics
	tracer   trace.Tracer
}

// NewConsumer creates a new Kafka consumer
func NewConsumer(config *Config, logger *logging.Logger, m *metrics.Metrics) *Consumer {
	return &Consumer{
		config:   config,
		readers:  make(map[string]*kafka.Reader),
		handlers: make(map[string]map[string]EventHandler),
		logger:   logger.WithComponent("kafka-consumer"),
		metrics:  m,
		tracer:   otel.Tracer("kafka-consumer"),
	}
}

// Subscribe registers a handler for an event type on a topic
func (c *Consumer) Subscribe(topic string, eventType string, handler EventHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.handlers[topic]; !exists {
		c.handlers[topic] = make(map[string]EventHandler)
	}
	c.handlers[topic][eventType] = handler
}

// Topics returns the subscribed topics
func (c *Consumer) Topics() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	topics := make([]string, 0, len(c.handlers))
	for topic := range c.handlers {
		topics = append(topics, topic)
	}
	return topics
}

func (c *Consumer) getReader(topic string) *kafka.Reader {
	c.mu.Lock()
	defer c.mu.Unlock()

	if reader, exists := c.readers[topic]; exists {
		return reader
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        c.config.Brokers,
		GroupID:        c.config.ConsumerGroup,
		Topic:          topic,
		MinBytes:       c.config.MinBytes,
		MaxBytes:       c.config.MaxBytes,
		MaxWait:        c.config.MaxWait,
		CommitInterval: c.config.CommitInterval,
	})

	c.readers[topic] = reader
	return reader
}

// Start consumes all subscribed topics until ctx is cancelled
func (c *Consumer) Start(ctx context.Context) error {
	var wg sync.WaitGroup
	for _, topic := range c.Topics() {
		wg.Add(1)
		go func(topic string) {
			defer wg.Done()
			c.consumeTopic(ctx, topic)
		}(topic)
	}

	wg.Wait()
	return ctx.Err()
}

func (c *Consumer) consumeTopic(ctx context.Context, topic string) {
	reader := c.getReader(topic)
	c.logger.Info("Starting consumer for topic", "topic", topic, "group", c.config.ConsumerGroup)

	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				c.logger.Info("Stopping consumer for topic", "topic", topic)
				return
			}
			c.logger.WithError(err).Error("Error fetching message", "topic", topic)
			continue
		}

		if err := c.process(ctx, topic, msg); err != nil {
			// not committed, the group redelivers after a rebalance or restart
			select {
			case <-ctx.Done():
				return
			case <-time.After(c.config.RetryBackoff):
			}
			continue
		}

		if err := reader.CommitMessages(ctx, msg); err != nil && ctx.Err() == nil {
			c.logger.WithError(err).Error("Error committing message", "topic", topic)
		}
	}
}

// process returns an error only when the message must not be committed
func (c *Consumer) process(ctx context.Context, topic string, msg kafka.Message) error {
	ctx, event, err := fromMessage(ctx, msg)
	if err != nil {
		c.logger.WithError(err).Error("Dropping unparseable message", "topic", topic, "offset", msg.Offset)
		return nil
	}

	if event.CorrelationID != "" {
		ctx = logging.ContextWithCorrelationID(ctx, event.CorrelationID)
	}
	c.logger.KafkaConsume(ctx, topic, event.Type, msg.Partition, msg.Offset)

	err = c.handleEvent(ctx, topic, event)
	if c.metrics != nil {
		c.metrics.RecordKafkaConsume(topic, event.Type, err == nil)
	}

	if err == nil {
		return nil
	}

	var permanent *PermanentError
	if errors.As(err, &permanent) {
		c.logger.WithError(err).Warn("Rejected event",
			"topic", topic,
			"eventType", event.Type,
			"eventId", event.ID,
		)
		return nil
	}

	c.logger.WithError(err).Error("Error handling event",
		"topic", topic,
		"eventType", event.Type,
		"eventId", event.ID,
	)
	return err
}

func (c *Consumer) handleEvent(ctx context.Context, topic string, event *cloudevents.Event) error {
	c.mu.Lock()
	handlers := c.handlers[topic]
	handler, ok := handlers[event.Type]
	if !ok {
		handler, ok = handlers["*"]
	}
	c.mu.Unlock()

	if !ok {
		c.logger.Warn("No handler found for event type", "topic", topic, "eventType", event.Type)
		return nil
	}

	ctx, span := c.tracer.Start(ctx, "kafka.consume",
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			semconv.MessagingSystemKey.String("kafka"),
			semconv.MessagingOperationKey.String("process"),
			attribute.String("messaging.source.name", topic),
			attribute.String("messaging.kafka.event_type", event.Type),
			attribute.String("messaging.message_id", event.ID),
		),
	)
	defer span.End()

	if err := handler(ctx, event); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	span.SetStatus(codes.Ok, "")
	return nil
}

// Close closes all readers
func (c *Consumer) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var lastErr error
	for topic, reader := range c.readers {
		if err := reader.Close(); err != nil {
			lastErr = fmt.Errorf("failed to close reader for topic %s: %w", topic, err)
		}
	}
	return lastErr
}
