package interpolate_test

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukex/rowactions/pkg/interpolate"
)

func TestEncodeValues(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		values    []string
		format    interpolate.Format
		urlEncode bool
		expected  string
	}{
		{
			name:     "default joins with comma",
			values:   []string{"a", "b", "c"},
			format:   interpolate.FormatDefault,
			expected: "a,b,c",
		},
		{
			name:      "default encodes each value but not the separator",
			values:    []string{"a b", "c"},
			format:    interpolate.FormatDefault,
			urlEncode: true,
			expected:  "a%20b,c",
		},
		{
			name:     "pipe",
			values:   []string{"Alice", "Bob"},
			format:   interpolate.FormatPipe,
			expected: "Alice|Bob",
		},
		{
			name:     "json array",
			values:   []string{"a", "b"},
			format:   interpolate.FormatJSON,
			expected: `["a","b"]`,
		},
		{
			name:     "regex alternation escapes metacharacters",
			values:   []string{"a.b", "c+d"},
			format:   interpolate.FormatRegex,
			expected: `(a\.b|c\+d)`,
		},
		{
			name:      "raw ignores the encoding default",
			values:    []string{"hello world"},
			format:    interpolate.FormatRaw,
			urlEncode: true,
			expected:  "hello world",
		},
		{
			name:      "queryparam encodes exactly once",
			values:    []string{"a b"},
			format:    interpolate.FormatQueryParam,
			urlEncode: true,
			expected:  "a+b",
		},
		{
			name:      "percentencode encodes exactly once",
			values:    []string{"a b&c"},
			format:    interpolate.FormatPercentEncode,
			urlEncode: true,
			expected:  "a%20b%26c",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.expected, interpolate.EncodeValues(tt.values, tt.format, tt.urlEncode))
		})
	}
}

func TestEncodeValues_RegexGroupIsValid(t *testing.T) {
	t.Parallel()

	group := interpolate.EncodeValues([]string{"1.2.3", "x(y)", "z|w"}, interpolate.FormatRegex, false)

	re, err := regexp.Compile("^" + group + "$")
	require.NoError(t, err)

	assert.True(t, re.MatchString("1.2.3"))
	assert.True(t, re.MatchString("x(y)"))
	assert.True(t, re.MatchString("z|w"))
	assert.False(t, re.MatchString("1x2x3"))
}

func TestParseFormat(t *testing.T) {
	t.Parallel()

	format, ok := interpolate.ParseFormat("pipe")
	assert.True(t, ok)
	assert.Equal(t, interpolate.FormatPipe, format)

	format, ok = interpolate.ParseFormat("bogus")
	assert.False(t, ok)
	assert.Equal(t, interpolate.FormatDefault, format)
}
