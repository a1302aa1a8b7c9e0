// Package directory verifies operator PINs against a YAML file
package directory

import (
	"bytes"
	"context"
	"crypto/subtle"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"gopkg.in/yaml.v3"

	"github.com/decoflow/production-service/internal/domain"
)

//go:embed operators.schema.json
var schemaJSON []byte

const schemaURL = "directory://operators.schema.json"

// Operator is one entry of the directory file
type Operator struct {
	ID         string      `yaml:"id" json:"id"`
	Name       string      `yaml:"name" json:"name"`
	Role       domain.Role `yaml:"role" json:"role"`
	PIN        string      `yaml:"pin" json:"pin"`
	MachineIDs []string    `yaml:"machineIds,omitempty" json:"machineIds,omitempty"`
	Active     *bool       `yaml:"active,omitempty" json:"active,omitempty"`
}

func (o Operator) active() bool {
	return o.Active == nil || *o.Active
}

func (o Operator) allowedOn(machineID string) bool {
	return len(o.MachineIDs) == 0 || slices.Contains(o.MachineIDs, machineID)
}

type file struct {
	Operators []Operator `yaml:"operators" json:"operators"`
}

// FileDirectory is an immutable in-memory operator directory
type FileDirectory struct {
	operators []Operator
	now       func() time.Time
}

// LoadFile reads and validates the directory at path
func LoadFile(path string) (*FileDirectory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading operator directory: %w", err)
	}
	return Parse(data)
}

// Parse validates YAML directory content against the embedded schema
func Parse(data []byte) (*FileDirectory, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing operator directory: %w", err)
	}

	// round trip through JSON so the validator sees JSON types
	asJSON, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("parsing operator directory: %w", err)
	}
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(asJSON))
	if err != nil {
		return nil, fmt.Errorf("parsing operator directory: %w", err)
	}

	schema, err := compileSchema()
	if err != nil {
		return nil, err
	}
	if err := schema.Validate(doc); err != nil {
		return nil, fmt.Errorf("invalid operator directory: %w", err)
	}

	var f file
	if err := json.Unmarshal(asJSON, &f); err != nil {
		return nil, fmt.Errorf("parsing operator directory: %w", err)
	}

	seen := make(map[string]bool, len(f.Operators))
	for _, op := range f.Operators {
		if seen[op.ID] {
			return nil, fmt.Errorf("invalid operator directory: duplicate operator id %q", op.ID)
		}
		seen[op.ID] = true
	}

	return &FileDirectory{operators: f.Operators, now: time.Now}, nil
}

func compileSchema() (*jsonschema.Schema, error) {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaJSON))
	if err != nil {
		return nil, fmt.Errorf("loading operator schema: %w", err)
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource(schemaURL, doc); err != nil {
		return nil, fmt.Errorf("loading operator schema: %w", err)
	}
	return c.Compile(schemaURL)
}

// Verify implements domain.OperatorDirectory. Every PIN is compared so the
// time taken does not depend on which entry matches.
func (d *FileDirectory) Verify(_ context.Context, pin, machineID string) (*domain.OperatorSession, error) {
	if pin == "" || machineID == "" {
		return nil, fmt.Errorf("%w: pin and machine id are required", domain.ErrAuth)
	}

	var match *Operator
	for i := range d.operators {
		op := &d.operators[i]
		if subtle.ConstantTimeCompare([]byte(op.PIN), []byte(pin)) == 1 && match == nil {
			match = op
		}
	}

	if match == nil || !match.active() || !match.allowedOn(machineID) {
		return nil, fmt.Errorf("%w: invalid credentials", domain.ErrAuth)
	}

	return &domain.OperatorSession{
		OperatorID:      match.ID,
		Name:            match.Name,
		Role:            match.Role,
		MachineID:       machineID,
		AuthenticatedAt: d.now().UTC(),
	}, nil
}

// Len returns the number of operators
func (d *FileDirectory) Len() int {
	return len(d.operators)
}
