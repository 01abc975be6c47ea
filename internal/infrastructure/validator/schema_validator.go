package validator

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

type SchemaName string

const (
	SchemaGenerateRequest SchemaName = "generate_request.json"
	SchemaEchoJSON        SchemaName = "echo_json.json"
)

//go:embed schemas/*.json
var schemaFS embed.FS

var knownSchemas = []SchemaName{SchemaGenerateRequest, SchemaEchoJSON}

// SchemaValidator checks request bodies against the embedded JSON schemas.
// Compiled schemas are immutable and safe for concurrent use.
type SchemaValidator struct {
	schemas map[SchemaName]*jsonschema.Schema
}

func NewSchemaValidator() (*SchemaValidator, error) {
	compiler := jsonschema.NewCompiler()
	for _, name := range knownSchemas {
		data, err := schemaFS.ReadFile("schemas/" + string(name))
		if err != nil {
			return nil, fmt.Errorf("read schema %s: %w", name, err)
		}
		if err := compiler.AddResource(schemaURL(name), bytes.NewReader(data)); err != nil {
			return nil, fmt.Errorf("add schema resource %s: %w", name, err)
		}
	}

	v := &SchemaValidator{schemas: make(map[SchemaName]*jsonschema.Schema, len(knownSchemas))}
	for _, name := range knownSchemas {
		compiled, err := compiler.Compile(schemaURL(name))
		if err != nil {
			return nil, fmt.Errorf("compile schema %s: %w", name, err)
		}
		v.schemas[name] = compiled
	}
	return v, nil
}

// Validate decodes raw as JSON and validates it against the named schema.
func (v *SchemaValidator) Validate(name SchemaName, raw []byte) error {
	schema, ok := v.schemas[name]
	if !ok {
		return fmt.Errorf("unknown schema %s", name)
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var payload any
	if err := dec.Decode(&payload); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}

	if err := schema.Validate(payload); err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}
	return nil
}

func schemaURL(name SchemaName) string {
	return "inmemory://" + string(name)
}
