package models

import (
	"math"
	"regexp"
	"strconv"
)

// ConditionKind discriminates the visibility condition variants.
type ConditionKind string

const (
	ConditionKindValue ConditionKind = "value"
	ConditionKindRange ConditionKind = "range"
	ConditionKindRegex ConditionKind = "regex"
	ConditionKindMisc  ConditionKind = "misc"
)

// MiscCheck names one of the fixed truthiness tests of a misc condition.
type MiscCheck string

const (
	MiscCheckEmpty MiscCheck = "empty"
	MiscCheckNull  MiscCheck = "null"
	MiscCheckNaN   MiscCheck = "nan"
	MiscCheckTrue  MiscCheck = "true"
	MiscCheckFalse MiscCheck = "false"
)

// Condition controls whether an action is offered for a selection. It is
// evaluated against every field value of a row and matches when any field
// does.
type Condition struct {
	Kind ConditionKind `json:"kind" yaml:"kind" validate:"required,oneof=value range regex misc"`

	// Value variant: exact string equality.
	Value string `json:"value,omitempty" yaml:"value,omitempty"`

	// Range variant: numeric bounds, each optional.
	Min *float64 `json:"min,omitempty" yaml:"min,omitempty"`
	Max *float64 `json:"max,omitempty" yaml:"max,omitempty"`

	// Regex variant.
	Pattern string `json:"pattern,omitempty" yaml:"pattern,omitempty"`

	// Misc variant.
	Check MiscCheck `json:"check,omitempty" yaml:"check,omitempty" validate:"omitempty,oneof=empty null nan true false"`
}

// Matches reports whether any field of the row satisfies the condition.
// Malformed conditions (such as an invalid regex) evaluate to false rather
// than failing, so a bad condition hides the action instead of breaking the
// caller.
func (c *Condition) Matches(item DataItem) bool {
	for _, value := range item {
		if c.matchesValue(value) {
			return true
		}
	}

	return false
}

func (c *Condition) matchesValue(value any) bool {
	switch c.Kind {
	case ConditionKindValue:
		return ValueString(value) == c.Value
	case ConditionKindRange:
		return c.matchesRange(value)
	case ConditionKindRegex:
		re, err := regexp.Compile(c.Pattern)
		if err != nil {
			return false
		}

		return re.MatchString(ValueString(value))
	case ConditionKindMisc:
		return c.matchesMisc(value)
	default:
		return false
	}
}

// matchesRange enforces each bound independently; with both absent any
// numeric value matches.
func (c *Condition) matchesRange(value any) bool {
	number, ok := toFloat(value)
	if !ok {
		return false
	}

	if c.Min != nil && number < *c.Min {
		return false
	}

	if c.Max != nil && number > *c.Max {
		return false
	}

	return true
}

func (c *Condition) matchesMisc(value any) bool {
	switch c.Check {
	case MiscCheckEmpty:
		return value == "" || value == nil
	case MiscCheckNull:
		return value == nil
	case MiscCheckNaN:
		number, ok := value.(float64)

		return ok && math.IsNaN(number)
	case MiscCheckTrue:
		return value == true
	case MiscCheckFalse:
		return value == false
	default:
		return false
	}
}

// toFloat coerces numeric values, and numeric strings the way JavaScript's
// Number() would.
func toFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, !math.IsNaN(v)
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		number, err := strconv.ParseFloat(v, 64)

		return number, err == nil
	default:
		return 0, false
	}
}
