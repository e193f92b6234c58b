package dispatcher

import (
	"encoding/json"
	"fmt"

	"github.com/dukex/rowactions/pkg/interpolate"
	"github.com/dukex/rowactions/pkg/models"
)

// BuildPayload builds one row's payload: the action's body template
// interpolated against the row with its index and the selection size, then
// variable substitution. Without a template the fallback is a JSON document
// of the row and its identifier. A template that should be JSON but does
// not parse after substitution is passed through as opaque text, with the
// parse error reported as a soft error.
func BuildPayload(sel models.SelectedItem, index, count int, action models.Action, vars map[string]interpolate.Variable) (string, []string) {
	if action.BodyTemplate == "" {
		fallback := map[string]any{
			"id":   sel.ID,
			"data": sel.Item,
		}

		return marshalFallback(fallback)
	}

	result := interpolate.ReplaceDataFields(action.BodyTemplate, sel.Item, interpolate.Options{
		Index:              &index,
		Count:              &count,
		DisableURLEncoding: true,
	})
	result.Text = interpolate.ReplaceVariables(result.Text, vars)

	return checkJSONBody(action, result)
}

// BuildBulkPayload builds the single payload covering every selected row.
// Without a template the fallback wraps the rows in {"items": [...]}.
func BuildBulkPayload(items []models.DataItem, action models.Action, vars map[string]interpolate.Variable) (string, []string) {
	if action.BodyTemplate == "" {
		return marshalFallback(map[string]any{"items": items})
	}

	result := interpolate.ReplaceDataFieldsBatch(action.BodyTemplate, items, interpolate.Options{
		DisableURLEncoding: true,
	})
	result.Text = interpolate.ReplaceVariables(result.Text, vars)

	return checkJSONBody(action, result)
}

func checkJSONBody(action models.Action, result interpolate.Result) (string, []string) {
	errs := result.Errors

	if action.EffectiveContentType() == models.ContentTypeJSON && !json.Valid([]byte(result.Text)) {
		errs = append(errs, fmt.Sprintf("Payload for action %q is not valid JSON", action.Name))
	}

	return result.Text, errs
}

func marshalFallback(payload map[string]any) (string, []string) {
	serialized, err := json.Marshal(payload)
	if err != nil {
		return "", []string{fmt.Sprintf("Failed to serialize fallback payload: %v", err)}
	}

	return string(serialized), nil
}
