package models_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dukex/rowactions/pkg/models"
)

func float64Ptr(f float64) *float64 {
	return &f
}

func TestCondition_Matches(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		condition models.Condition
		item      models.DataItem
		expected  bool
	}{
		{
			name:      "value matches any field",
			condition: models.Condition{Kind: models.ConditionKindValue, Value: "42"},
			item:      models.DataItem{"name": "Alice", "age": float64(42)},
			expected:  true,
		},
		{
			name:      "value no match",
			condition: models.Condition{Kind: models.ConditionKindValue, Value: "Bob"},
			item:      models.DataItem{"name": "Alice"},
			expected:  false,
		},
		{
			name:      "range min only",
			condition: models.Condition{Kind: models.ConditionKindRange, Min: float64Ptr(10)},
			item:      models.DataItem{"age": float64(42)},
			expected:  true,
		},
		{
			name:      "range max violated",
			condition: models.Condition{Kind: models.ConditionKindRange, Max: float64Ptr(10)},
			item:      models.DataItem{"age": float64(42)},
			expected:  false,
		},
		{
			name:      "range coerces numeric strings",
			condition: models.Condition{Kind: models.ConditionKindRange, Min: float64Ptr(1), Max: float64Ptr(10)},
			item:      models.DataItem{"count": "5"},
			expected:  true,
		},
		{
			name:      "range rejects non-numeric",
			condition: models.Condition{Kind: models.ConditionKindRange, Min: float64Ptr(1)},
			item:      models.DataItem{"name": "Alice"},
			expected:  false,
		},
		{
			name:      "range without bounds matches any number",
			condition: models.Condition{Kind: models.ConditionKindRange},
			item:      models.DataItem{"age": float64(42)},
			expected:  true,
		},
		{
			name:      "range without bounds still needs a number",
			condition: models.Condition{Kind: models.ConditionKindRange},
			item:      models.DataItem{"name": "Alice"},
			expected:  false,
		},
		{
			name:      "regex",
			condition: models.Condition{Kind: models.ConditionKindRegex, Pattern: "^Al"},
			item:      models.DataItem{"name": "Alice"},
			expected:  true,
		},
		{
			name:      "invalid regex degrades to false",
			condition: models.Condition{Kind: models.ConditionKindRegex, Pattern: "("},
			item:      models.DataItem{"name": "Alice"},
			expected:  false,
		},
		{
			name:      "misc empty matches empty string",
			condition: models.Condition{Kind: models.ConditionKindMisc, Check: models.MiscCheckEmpty},
			item:      models.DataItem{"note": ""},
			expected:  true,
		},
		{
			name:      "misc null",
			condition: models.Condition{Kind: models.ConditionKindMisc, Check: models.MiscCheckNull},
			item:      models.DataItem{"note": nil},
			expected:  true,
		},
		{
			name:      "misc nan",
			condition: models.Condition{Kind: models.ConditionKindMisc, Check: models.MiscCheckNaN},
			item:      models.DataItem{"ratio": math.NaN()},
			expected:  true,
		},
		{
			name:      "misc true",
			condition: models.Condition{Kind: models.ConditionKindMisc, Check: models.MiscCheckTrue},
			item:      models.DataItem{"active": true},
			expected:  true,
		},
		{
			name:      "misc false needs a false value",
			condition: models.Condition{Kind: models.ConditionKindMisc, Check: models.MiscCheckFalse},
			item:      models.DataItem{"active": true},
			expected:  false,
		},
		{
			name:      "unknown kind never matches",
			condition: models.Condition{Kind: "weird"},
			item:      models.DataItem{"name": "Alice"},
			expected:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.expected, tt.condition.Matches(tt.item))
		})
	}
}
