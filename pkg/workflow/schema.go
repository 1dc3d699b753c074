package workflow

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// envelopeSchema describes only the parts of an export the sanitizer relies
// on. Parameters stay unconstrained.
var envelopeSchema = map[string]any{
	"type":     "object",
	"required": []any{"nodes"},
	"properties": map[string]any{
		"name": map[string]any{"type": "string"},
		"nodes": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type":     "object",
				"required": []any{"type"},
				"properties": map[string]any{
					"name":       map[string]any{"type": "string"},
					"type":       map[string]any{"type": "string", "minLength": 1},
					"parameters": map[string]any{"type": "object"},
					"notes":      map[string]any{"type": "string"},
					"disabled":   map[string]any{"type": "boolean"},
					"credentials": map[string]any{
						"type": "object",
						"additionalProperties": map[string]any{
							"type": "object",
							"properties": map[string]any{
								"id":   map[string]any{"type": []any{"string", "null"}},
								"name": map[string]any{"type": "string"},
							},
						},
					},
				},
			},
		},
		"connections": map[string]any{"type": "object"},
		"settings":    map[string]any{"type": "object"},
	},
}

func validateEnvelope(data []byte) error {
	schemaLoader := gojsonschema.NewGoLoader(envelopeSchema)
	dataLoader := gojsonschema.NewBytesLoader(data)

	result, err := gojsonschema.Validate(schemaLoader, dataLoader)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidDefinition, err)
	}

	if !result.Valid() {
		var errs []string
		for _, desc := range result.Errors() {
			errs = append(errs, desc.String())
		}
		return fmt.Errorf("%w: %s", ErrInvalidDefinition, strings.Join(errs, "; "))
	}

	return nil
}
