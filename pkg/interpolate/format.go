package interpolate

import (
	"encoding/json"
	"net/url"
	"regexp"
	"strings"
)

// Format is the optional ":name" suffix of a template pattern. It controls
// both how multiple values are joined and how the result is escaped.
type Format string

const (
	// FormatDefault is the absence of a suffix: comma-joined, subject to
	// the caller's URL-encoding default.
	FormatDefault Format = ""
	// FormatRaw joins with commas and opts out of URL-encoding entirely.
	FormatRaw Format = "raw"
	FormatCSV Format = "csv"
	// FormatPipe joins with "|".
	FormatPipe Format = "pipe"
	// FormatJSON renders a JSON array of the values.
	FormatJSON Format = "json"
	// FormatRegex renders an alternation group with every value escaped.
	FormatRegex Format = "regex"
	// FormatQueryParam percent-encodes each value for use in a query string.
	FormatQueryParam Format = "queryparam"
	// FormatPercentEncode strictly percent-encodes each value.
	FormatPercentEncode Format = "percentencode"
)

// ParseFormat maps a suffix to its Format. Unknown suffixes fall back to
// FormatDefault so a typo degrades to the default join instead of failing.
func ParseFormat(s string) (Format, bool) {
	switch Format(s) {
	case FormatRaw, FormatCSV, FormatPipe, FormatJSON, FormatRegex, FormatQueryParam, FormatPercentEncode:
		return Format(s), true
	case FormatDefault:
		return FormatDefault, true
	default:
		return FormatDefault, false
	}
}

// EncodeValues renders resolved values into the requested format. urlEncode
// is the caller's URL-encoding default; formats that percent-encode on
// their own, or explicitly opt out, ignore it so values are encoded at
// most once.
func EncodeValues(values []string, format Format, urlEncode bool) string {
	switch format {
	case FormatRaw:
		return strings.Join(values, ",")
	case FormatPipe:
		return joinEncoded(values, "|", urlEncode)
	case FormatJSON:
		serialized, err := json.Marshal(values)
		if err != nil {
			return ""
		}

		if urlEncode {
			return encodeURIComponent(string(serialized))
		}

		return string(serialized)
	case FormatRegex:
		// Output must stay a usable alternation group, so the URL-encoding
		// default does not apply.
		escaped := make([]string, len(values))
		for i, value := range values {
			escaped[i] = regexp.QuoteMeta(value)
		}

		return "(" + strings.Join(escaped, "|") + ")"
	case FormatQueryParam:
		encoded := make([]string, len(values))
		for i, value := range values {
			encoded[i] = url.QueryEscape(value)
		}

		return strings.Join(encoded, ",")
	case FormatPercentEncode:
		encoded := make([]string, len(values))
		for i, value := range values {
			encoded[i] = encodeURIComponent(value)
		}

		return strings.Join(encoded, ",")
	case FormatCSV, FormatDefault:
		return joinEncoded(values, ",", urlEncode)
	default:
		return joinEncoded(values, ",", urlEncode)
	}
}

func joinEncoded(values []string, separator string, urlEncode bool) string {
	if !urlEncode {
		return strings.Join(values, separator)
	}

	encoded := make([]string, len(values))
	for i, value := range values {
		encoded[i] = encodeURIComponent(value)
	}

	return strings.Join(encoded, separator)
}

// encodeURIComponent matches the JavaScript function of the same name:
// everything but A-Za-z0-9 and -_.!~*'() is percent-encoded, so a space
// becomes %20 rather than "+".
func encodeURIComponent(s string) string {
	var b strings.Builder

	for _, c := range []byte(s) {
		switch {
		case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c >= '0' && c <= '9':
			b.WriteByte(c)
		case c == '-' || c == '_' || c == '.' || c == '!' || c == '~' ||
			c == '*' || c == '\'' || c == '(' || c == ')':
			b.WriteByte(c)
		default:
			b.WriteString(upperHex(c))
		}
	}

	return b.String()
}

const hexDigits = "0123456789ABCDEF"

func upperHex(c byte) string {
	return "%" + string(hexDigits[c>>4]) + string(hexDigits[c&0xf])
}
