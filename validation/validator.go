// Package validation checks VDA5050 payloads against the protocol JSON schemas.
package validation

import (
	"embed"
	"fmt"
	"sort"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/zeki-aitech/vda5050-client/errors"
	"github.com/zeki-aitech/vda5050-client/message"
)

//go:embed schemas/*.schema.json
var schemaFS embed.FS

// Validator holds the compiled protocol schemas, one per message type.
// Compilation happens once in New; Validate is safe for concurrent use.
type Validator struct {
	schemas map[message.Type]*gojsonschema.Schema
}

// New compiles the embedded schemas for all six message types.
func New() (*Validator, error) {
	v := &Validator{schemas: make(map[message.Type]*gojsonschema.Schema, 6)}
	for _, t := range message.AllTypes() {
		raw, err := schemaFS.ReadFile(fmt.Sprintf("schemas/%s.schema.json", t))
		if err != nil {
			return nil, errors.WrapFatal(err, "Validator", "New", "load "+string(t)+" schema")
		}
		schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(raw))
		if err != nil {
			return nil, errors.WrapFatal(err, "Validator", "New", "compile "+string(t)+" schema")
		}
		v.schemas[t] = schema
	}
	return v, nil
}

// Validate checks a JSON payload against the schema for its message type.
// All violations are reported in one invalid-class error, sorted by field.
func (v *Validator) Validate(t message.Type, payload []byte) error {
	schema, ok := v.schemas[t]
	if !ok {
		return fmt.Errorf("message type %q: %w", t, errors.ErrUnknownMessageType)
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(payload))
	if err != nil {
		// Not valid JSON at all.
		return fmt.Errorf("%s payload: %v: %w", t, err, errors.ErrSchemaViolation)
	}
	if result.Valid() {
		return nil
	}

	violations := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		violations = append(violations, fmt.Sprintf("%s: %s", desc.Field(), desc.Description()))
	}
	sort.Strings(violations)
	return fmt.Errorf("%s payload: %s: %w", t, strings.Join(violations, "; "), errors.ErrSchemaViolation)
}

// ValidateMessage encodes a typed message and validates the result. Handy on
// the publish path, where the payload bytes do not exist yet.
func (v *Validator) ValidateMessage(m message.Message) error {
	payload, err := message.Encode(m)
	if err != nil {
		return err
	}
	return v.Validate(m.MessageType(), payload)
}

// Schema returns the raw embedded schema document for a message type.
func Schema(t message.Type) ([]byte, error) {
	raw, err := schemaFS.ReadFile(fmt.Sprintf("schemas/%s.schema.json", t))
	if err != nil {
		return nil, fmt.Errorf("message type %q: %w", t, errors.ErrUnknownMessageType)
	}
	return raw, nil
}
