package config

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// actionSchema validates raw action definitions before they are decoded
// into models.Action.
var actionSchema = map[string]any{
	"type":     "object",
	"required": []any{"name", "kind"},
	"properties": map[string]any{
		"name":            map[string]any{"type": "string", "minLength": 1},
		"label":           map[string]any{"type": "string"},
		"icon":            map[string]any{"type": "string"},
		"confirm_message": map[string]any{"type": "string"},
		"kind": map[string]any{
			"type": "string",
			"enum": []any{"event", "webhook"},
		},
		"batch_mode": map[string]any{
			"type": "string",
			"enum": []any{"batch", "individual"},
		},
		"event_name": map[string]any{"type": "string"},
		"url":        map[string]any{"type": "string"},
		"method": map[string]any{
			"type": "string",
			"enum": []any{"GET", "POST", "PUT", "PATCH", "DELETE"},
		},
		"content_type": map[string]any{
			"type": "string",
			"enum": []any{"json", "text", "none"},
		},
		"headers": map[string]any{
			"type": "object",
			"additionalProperties": map[string]any{
				"type": "string",
			},
		},
		"body_template": map[string]any{"type": "string"},
		"condition": map[string]any{
			"type":     "object",
			"required": []any{"kind"},
			"properties": map[string]any{
				"kind": map[string]any{
					"type": "string",
					"enum": []any{"value", "range", "regex", "misc"},
				},
				"value":   map[string]any{"type": "string"},
				"min":     map[string]any{"type": "number"},
				"max":     map[string]any{"type": "number"},
				"pattern": map[string]any{"type": "string"},
				"check": map[string]any{
					"type": "string",
					"enum": []any{"empty", "null", "nan", "true", "false"},
				},
			},
		},
	},
}

// ValidateActionDefinition checks one raw action definition against the
// schema.
func ValidateActionDefinition(definition map[string]any) error {
	schemaLoader := gojsonschema.NewGoLoader(actionSchema)
	definitionLoader := gojsonschema.NewGoLoader(definition)

	result, err := gojsonschema.Validate(schemaLoader, definitionLoader)
	if err != nil {
		return err
	}

	if !result.Valid() {
		details := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			details = append(details, desc.String())
		}

		return fmt.Errorf("validation errors: %s", strings.Join(details, "; "))
	}

	return nil
}
