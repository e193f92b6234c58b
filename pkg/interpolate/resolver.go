// Package interpolate implements the template grammar used to build action
// payloads and URLs from selected rows.
package interpolate

import (
	"strings"

	"github.com/dukex/rowactions/pkg/models"
)

// ResolveField resolves a field name against a row and reports whether it
// was found. A literal key equal to the full name wins over nested
// traversal, even when the name contains dots. Traversal gives up with
// found=false as soon as an intermediate is missing or not an object. A
// present key holding nil resolves to the empty string but still counts as
// found, so callers can tell "empty value" apart from "no such field".
func ResolveField(item models.DataItem, field string) (string, bool) {
	if value, ok := item[field]; ok {
		return models.ValueString(value), true
	}

	if !strings.Contains(field, ".") {
		return "", false
	}

	parts := strings.Split(field, ".")
	current := item

	for i, part := range parts {
		value, ok := current[part]
		if !ok {
			return "", false
		}

		if i == len(parts)-1 {
			return models.ValueString(value), true
		}

		nested, ok := toDataItem(value)
		if !ok {
			return "", false
		}

		current = nested
	}

	return "", false
}

func toDataItem(value any) (models.DataItem, bool) {
	switch v := value.(type) {
	case models.DataItem:
		return v, true
	case map[string]any:
		return models.DataItem(v), true
	default:
		return nil, false
	}
}
