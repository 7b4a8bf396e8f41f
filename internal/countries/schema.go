// schema.go - JSON Schema for the country configuration document

package countries

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const configSchemaJSON = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "minProperties": 1,
  "additionalProperties": {
    "type": "object",
    "required": ["unique_id_field_name"],
    "properties": {
      "unique_id_field_name": {"type": "string", "minLength": 1},
      "common_fields": {
        "type": "array",
        "items": {"type": "string"}
      },
      "field_mapping": {
        "type": "object",
        "additionalProperties": {"type": ["string", "null"]}
      },
      "gemini_ocr_schema": {
        "type": "object",
        "additionalProperties": {"type": "string"}
      }
    }
  }
}`

func compileConfigSchema() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("country_config.schema.json", bytes.NewReader([]byte(configSchemaJSON))); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("country_config.schema.json")
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return schema, nil
}

// ValidateDocument checks raw configuration JSON against the configuration schema.
func ValidateDocument(data []byte) error {
	schema, err := compileConfigSchema()
	if err != nil {
		return err
	}

	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal configuration: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("configuration does not match schema: %w", err)
	}
	return nil
}

// ParseDocument validates and decodes a configuration document into a Registry.
func ParseDocument(data []byte) (*Registry, error) {
	if err := ValidateDocument(data); err != nil {
		return nil, err
	}

	var entries map[string]CountryConfig
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("decode configuration: %w", err)
	}
	return NewRegistry(entries)
}
