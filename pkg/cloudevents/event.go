package cloudevents

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/decoflow/production-service/pkg/logging"
)

// SpecVersion is the CloudEvents version emitted by this service
const SpecVersion = "1.0"

// Extension attribute names
const (
	ExtCorrelationID = "correlationid"
	ExtJobID         = "productionjobid"
)

// Event is a CloudEvents 1.0 envelope in structured JSON mode
type Event struct {
	SpecVersion     string          `json:"specversion"`
	Type            string          `json:"type"`
	Source          string          `json:"source"`
	Subject         string          `json:"subject,omitempty"`
	ID              string          `json:"id"`
	Time            time.Time       `json:"time"`
	DataContentType string          `json:"datacontenttype"`
	Data            json.RawMessage `json:"data"`

	CorrelationID string `json:"correlationid,omitempty"`
	JobID         string `json:"productionjobid,omitempty"`
}

// Validate checks the required context attributes
func (e *Event) Validate() error {
	switch {
	case e.SpecVersion != SpecVersion:
		return fmt.Errorf("unsupported specversion %q", e.SpecVersion)
	case e.ID == "":
		return fmt.Errorf("event id is required")
	case e.Type == "":
		return fmt.Errorf("event type is required")
	case e.Source == "":
		return fmt.Errorf("event source is required")
	}
	return nil
}

// DecodeData unmarshals the data payload into v
func (e *Event) DecodeData(v any) error {
	if len(e.Data) == 0 {
		return fmt.Errorf("event %s has no data", e.ID)
	}
	return json.Unmarshal(e.Data, v)
}

// Parse decodes and validates a structured-mode event
func Parse(raw []byte) (*Event, error) {
	var e Event
	if err := json.Unmarshal(raw, &e); err != nil {
		return nil, fmt.Errorf("invalid cloudevent: %w", err)
	}
	if err := e.Validate(); err != nil {
		return nil, err
	}
	return &e, nil
}

// EventFactory creates CloudEvents for a single source
type EventFactory struct {
	source string
	now    func() time.Time
}

// NewEventFactory creates a new EventFactory for a specific source
func NewEventFactory(source string) *EventFactory {
	return &EventFactory{source: source, now: time.Now}
}

// CreateEvent builds an event. The correlation ID is taken from ctx when present.
func (f *EventFactory) CreateEvent(ctx context.Context, eventType, subject string, data any) (*Event, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", eventType, err)
	}

	e := &Event{
		SpecVersion:     SpecVersion,
		Type:            eventType,
		Source:          f.source,
		Subject:         subject,
		ID:              uuid.New().String(),
		Time:            f.now().UTC(),
		DataContentType: "application/json",
		Data:            payload,
	}
	if id, ok := ctx.Value(logging.CorrelationIDKey).(string); ok {
		e.CorrelationID = id
	}
	return e, nil
}

// Source returns the factory's source attribute
func (f *EventFactory) Source() string {
	return f.source
}
