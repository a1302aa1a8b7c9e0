package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"

	"github.com/decoflow/production-service/pkg/cloudevents"
)

// headerCarrier adapts Kafka message headers to the OTel propagation API
type headerCarrier struct {
	headers *[]kafka.Header
}

func (c headerCarrier) Get(key string) string {
	for _, h := range *c.headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func (c headerCarrier) Set(key, value string) {
	for i, h := range *c.headers {
		if h.Key == key {
			(*c.headers)[i].Value = []byte(value)
			return
		}
	}
	*c.headers = append(*c.headers, kafka.Header{Key: key, Value: []byte(value)})
}

func (c headerCarrier) Keys() []string {
	keys := make([]string, 0, len(*c.headers))
	for _, h := range *c.headers {
		keys = append(keys, h.Key)
	}
	return keys
}

// toMessage encodes event in structured mode, mirrors the context attributes
// into ce-* headers and injects the trace context from ctx.
func toMessage(ctx context.Context, event *cloudevents.Event) (kafka.Message, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("failed to marshal event: %w", err)
	}

	headers := []kafka.Header{
		{Key: "ce-specversion", Value: []byte(event.SpecVersion)},
		{Key: "ce-type", Value: []byte(event.Type)},
		{Key: "ce-source", Value: []byte(event.Source)},
		{Key: "ce-id", Value: []byte(event.ID)},
		{Key: "ce-time", Value: []byte(event.Time.Format(time.RFC3339Nano))},
		{Key: "content-type", Value: []byte("application/cloudevents+json")},
	}
	if event.CorrelationID != "" {
		headers = append(headers, kafka.Header{Key: "ce-" + cloudevents.ExtCorrelationID, Value: []byte(event.CorrelationID)})
	}
	if event.JobID != "" {
		headers = append(headers, kafka.Header{Key: "ce-" + cloudevents.ExtJobID, Value: []byte(event.JobID)})
	}

	otel.GetTextMapPropagator().Inject(ctx, headerCarrier{headers: &headers})

	key := event.Subject
	if event.JobID != "" {
		key = event.JobID
	}

	return kafka.Message{
		Key:     []byte(key),
		Value:   data,
		Headers: headers,
		Time:    event.Time,
	}, nil
}

// fromMessage decodes a structured-mode event and returns a context carrying
// the producer's trace context.
func fromMessage(ctx context.Context, msg kafka.Message) (context.Context, *cloudevents.Event, error) {
	event, err := cloudevents.Parse(msg.Value)
	if err != nil {
		return ctx, nil, err
	}

	headers := msg.Headers
	carrier := headerCarrier{headers: &headers}
	if event.CorrelationID == "" {
		event.CorrelationID = carrier.Get("ce-" + cloudevents.ExtCorrelationID)
	}

	ctx = otel.GetTextMapPropagator().Extract(ctx, carrier)
	return ctx, event, nil
}
