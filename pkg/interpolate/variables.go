package interpolate

import "regexp"

// Variable is one dashboard variable's current state, owned by the caller.
type Variable struct {
	Value   string `json:"value"`
	Loading bool   `json:"loading,omitempty"`
}

// Matches whole tokens only, so $from can never cross-match $__from: the
// name capture is greedy and looked up exactly.
var variableTokenRe = regexp.MustCompile(`\$\{(\w+)\}|\$(\w+)`)

// ReplaceVariables substitutes $name and ${name} tokens against the
// supplied variable map. It runs after field interpolation, on the
// interpolated text. Unknown tokens stay untouched.
func ReplaceVariables(text string, vars map[string]Variable) string {
	return replaceVariables(text, vars, nil)
}

// ReplaceVariablesWithFallback behaves like ReplaceVariables but substitutes
// fallback for tokens that have no entry in the map.
func ReplaceVariablesWithFallback(text string, vars map[string]Variable, fallback string) string {
	return replaceVariables(text, vars, &fallback)
}

func replaceVariables(text string, vars map[string]Variable, fallback *string) string {
	if len(vars) == 0 && fallback == nil {
		return text
	}

	return variableTokenRe.ReplaceAllStringFunc(text, func(match string) string {
		parts := variableTokenRe.FindStringSubmatch(match)
		name := firstNonEmpty(parts[1], parts[2])

		variable, ok := vars[name]
		if !ok {
			if fallback != nil {
				return *fallback
			}

			return match
		}

		return variable.Value
	})
}
