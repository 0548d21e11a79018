package api

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/cartcompass/cartcompass/internal/common"
)

// comparedItemsSchema constrains the scrapestore payload. The data comes
// from scraping third-party store pages, so its shape is checked before any
// of it reaches the compare view.
func comparedItemsSchema() map[string]any {
	return map[string]any{
		"type": "array",
		"items": map[string]any{
			"type":                 "object",
			"additionalProperties": true,
			"properties": map[string]any{
				"name":          map[string]any{"type": "string", "minLength": 1},
				"productLink":   map[string]any{"type": "string"},
				"price":         map[string]any{"type": "number", "minimum": 0},
				"imgURL":        map[string]any{"type": "string"},
				"rating":        map[string]any{"type": "number", "minimum": 0},
				"reviewsAmount": map[string]any{"type": "integer", "minimum": 0},
			},
			"required": []string{"name", "price"},
		},
	}
}

// ValidateComparedItems validates a raw scrapestore response body.
func ValidateComparedItems(data []byte) error {
	if err := validateAgainstSchema(comparedItemsSchema(), data); err != nil {
		return common.NewAppError("COMPARE_SHAPE", "scraped results have unexpected shape", err)
	}
	return nil
}

func validateAgainstSchema(schemaMap map[string]any, data []byte) error {
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
