package llm

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// BuildStoresJSONSchema returns a JSON-Schema (draft 2020-12 subset) as a
// generic map for the flat per-store output shape. We pass it to the model
// as a formatting constraint and also use it locally to validate responses.
func BuildStoresJSONSchema() map[string]any {
	return map[string]any{
		"type":          "object",
		"minProperties": 1,
		"additionalProperties": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"items": map[string]any{
					"type":  "array",
					"items": map[string]any{"type": "string"},
				},
				"prices": map[string]any{
					"type":  "array",
					"items": map[string]any{"type": []string{"number", "null"}},
				},
				"purchase_date": map[string]any{
					"type":    []string{"string", "null"},
					"pattern": `^\d{4}-\d{2}-\d{2}$`,
				},
				"transaction_id": map[string]any{"type": []string{"string", "null"}},
			},
			"required": []string{"items"},
		},
	}
}

// ValidateJSONAgainstSchema validates "data" against "schemaMap".
func ValidateJSONAgainstSchema(schemaMap map[string]any, data []byte) error {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", bytes.NewReader(b)); err != nil {
		return fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("schema.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("json does not match schema: %w", err)
	}
	return nil
}
