// Package models defines the data structures shared between the action
// dispatcher, the template interpolator and external callers.
package models

import (
	"encoding/json"
	"strconv"
)

// DataItem is one selected row's field values. Values are strings, numbers,
// booleans, nil or nested DataItems (the shapes produced by decoding JSON).
type DataItem map[string]any

// SelectedItem pairs a caller-defined identifier with its row.
type SelectedItem struct {
	ID   string   `json:"id"   validate:"required"`
	Item DataItem `json:"item" validate:"required"`
}

// SelectionSet is the ordered set of currently selected rows. It is owned by
// the caller; the dispatcher only reads it for the duration of one call.
type SelectionSet []SelectedItem

// Items returns the rows in selection order.
func (s SelectionSet) Items() []DataItem {
	items := make([]DataItem, len(s))
	for i, sel := range s {
		items[i] = sel.Item
	}

	return items
}

// IDs returns the row identifiers in selection order.
func (s SelectionSet) IDs() []string {
	ids := make([]string, len(s))
	for i, sel := range s {
		ids[i] = sel.ID
	}

	return ids
}

// ValueString renders a field value the way JavaScript's String() would:
// numbers without a trailing ".0", booleans as "true"/"false", nil as the
// empty string. Anything non-scalar is JSON-serialized.
func ValueString(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case json.Number:
		return v.String()
	default:
		serialized, err := json.Marshal(v)
		if err != nil {
			return ""
		}

		return string(serialized)
	}
}
