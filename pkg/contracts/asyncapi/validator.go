package asyncapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"gopkg.in/yaml.v3"

	"github.com/decoflow/production-service/pkg/cloudevents"
)

// eventTypeKey names the schema extension that binds a schema to a CloudEvent type
const eventTypeKey = "x-event-type"

const documentURI = "asyncapi://document"

// EventValidator validates CloudEvent payloads against the schemas of an
// AsyncAPI document.
type EventValidator struct {
	schemas map[string]*jsonschema.Schema
}

type document struct {
	AsyncAPI   string `yaml:"asyncapi"`
	Components struct {
		Schemas map[string]map[string]any `yaml:"schemas"`
	} `yaml:"components"`
}

// NewEventValidatorFromBytes compiles every component schema that declares
// x-event-type. Schemas may reference each other with #/components/schemas/...
func NewEventValidatorFromBytes(specBytes []byte) (*EventValidator, error) {
	var doc document
	if err := yaml.Unmarshal(specBytes, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse AsyncAPI document: %w", err)
	}

	// Round trip through JSON so the compiler only sees JSON value types.
	rootJSON, err := json.Marshal(map[string]any{
		"components": map[string]any{"schemas": doc.Components.Schemas},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode schemas: %w", err)
	}
	root, err := jsonschema.UnmarshalJSON(bytes.NewReader(rootJSON))
	if err != nil {
		return nil, fmt.Errorf("failed to decode schemas: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(documentURI, root); err != nil {
		return nil, fmt.Errorf("failed to register schemas: %w", err)
	}

	schemas := make(map[string]*jsonschema.Schema)
	for name, raw := range doc.Components.Schemas {
		eventType, _ := raw[eventTypeKey].(string)
		if eventType == "" {
			continue
		}

		compiled, err := compiler.Compile(documentURI + "#/components/schemas/" + name)
		if err != nil {
			return nil, fmt.Errorf("compile schema %s: %w", name, err)
		}
		schemas[eventType] = compiled
	}

	return &EventValidator{schemas: schemas}, nil
}

// Validate checks the event data against the schema registered for its type
func (v *EventValidator) Validate(event *cloudevents.Event) error {
	schema, ok := v.schemas[event.Type]
	if !ok {
		return fmt.Errorf("no schema found for event type: %s", event.Type)
	}
	if len(event.Data) == 0 {
		return fmt.Errorf("event data is required")
	}

	data, err := jsonschema.UnmarshalJSON(bytes.NewReader(event.Data))
	if err != nil {
		return fmt.Errorf("failed to decode event data: %w", err)
	}
	if err := schema.Validate(data); err != nil {
		return fmt.Errorf("event data validation failed for type %s: %w", event.Type, err)
	}
	return nil
}

// SupportedEventTypes returns the event types with a registered schema
func (v *EventValidator) SupportedEventTypes() []string {
	types := make([]string, 0, len(v.schemas))
	for t := range v.schemas {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}
