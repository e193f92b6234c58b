package interpolate

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/dukex/rowactions/pkg/models"
)

// The grammar is parsed with regular expressions for bit-for-bit
// compatibility with existing templates. Callers only see Result values, so
// the parser could be swapped out without touching them.
var (
	fieldPatternRe   = regexp.MustCompile(`\$\{__data\.fields(?:\[(?:"([^"]+)"|'([^']+)')\]|\.([A-Za-z_][A-Za-z0-9_]*))(?::([A-Za-z]+))?\}`)
	indexedPatternRe = regexp.MustCompile(`\$\{__data\[(\d+)\]\.fields(?:\[(?:"([^"]+)"|'([^']+)')\]|\.([A-Za-z_][A-Za-z0-9_]*))(?::([A-Za-z]+))?\}`)
	wholeDataRe      = regexp.MustCompile(`("?)\$\{__data(?::([A-Za-z]+))?\}("?)`)
)

const (
	indexPattern = "${__data.index}"
	countPattern = "${__data.count}"
)

// Result is the outcome of one interpolation pass: best-effort text plus
// the soft errors collected along the way. Errors is nil when there are
// none. Interpolation never fails outright.
type Result struct {
	Text   string   `json:"text"`
	Errors []string `json:"errors,omitempty"`
}

// Options tunes a single interpolation pass. Index and Count are only
// substituted when set; otherwise their patterns stay verbatim.
type Options struct {
	Index *int
	Count *int

	// DisableURLEncoding turns off the default per-field URL-encoding.
	// Formats that encode themselves, or raw, are unaffected either way.
	DisableURLEncoding bool
}

// ReplaceDataFields interpolates a template against a single row.
func ReplaceDataFields(template string, item models.DataItem, opts Options) Result {
	var errs []string

	urlEncode := !opts.DisableURLEncoding

	text := fieldPatternRe.ReplaceAllStringFunc(template, func(match string) string {
		parts := fieldPatternRe.FindStringSubmatch(match)
		field := firstNonEmpty(parts[1], parts[2], parts[3])
		format, _ := ParseFormat(parts[4])

		value, found := ResolveField(item, field)
		if !found {
			errs = append(errs, fmt.Sprintf("Field %q not found in data", field))

			return match
		}

		return EncodeValues([]string{value}, format, urlEncode)
	})

	text = replaceIndexCount(text, opts)
	text = replaceWholeData(text, func() ([]byte, error) {
		return json.Marshal(item)
	}, urlEncode)

	return Result{Text: text, Errors: errs}
}

// ReplaceDataFieldsBatch interpolates a template against all rows at once.
// Un-indexed field patterns aggregate across every row, defaulting to csv
// joining; ${__data[N].fields[...]} pins row N and records an out-of-bounds
// error, leaving the pattern untouched, when N does not address a row.
func ReplaceDataFieldsBatch(template string, items []models.DataItem, opts Options) Result {
	var errs []string

	urlEncode := !opts.DisableURLEncoding
	count := len(items)

	text := indexedPatternRe.ReplaceAllStringFunc(template, func(match string) string {
		parts := indexedPatternRe.FindStringSubmatch(match)
		index, _ := strconv.Atoi(parts[1])
		field := firstNonEmpty(parts[2], parts[3], parts[4])
		format, _ := ParseFormat(parts[5])

		if index >= count {
			errs = append(errs, fmt.Sprintf("Index %d out of bounds (0-%d)", index, count-1))

			return match
		}

		value, found := ResolveField(items[index], field)
		if !found {
			errs = append(errs, fmt.Sprintf("Field %q not found in data[%d]", field, index))

			return match
		}

		return EncodeValues([]string{value}, format, urlEncode)
	})

	text = fieldPatternRe.ReplaceAllStringFunc(text, func(match string) string {
		parts := fieldPatternRe.FindStringSubmatch(match)
		field := firstNonEmpty(parts[1], parts[2], parts[3])
		format, _ := ParseFormat(parts[4])

		values := make([]string, 0, count)

		for i, item := range items {
			value, found := ResolveField(item, field)
			if !found {
				errs = append(errs, fmt.Sprintf("Field %q not found in data[%d]", field, i))

				continue
			}

			values = append(values, value)
		}

		return EncodeValues(values, format, urlEncode)
	})

	text = replaceWholeData(text, func() ([]byte, error) {
		return json.Marshal(items)
	}, urlEncode)

	return Result{Text: text, Errors: errs}
}

// SelectionIndividual builds the final text for one row of a selection:
// field interpolation with the row's index and the selection size, then
// dashboard-variable substitution on the interpolated text.
func SelectionIndividual(template string, item models.DataItem, index, count int, vars map[string]Variable) Result {
	result := ReplaceDataFields(template, item, Options{Index: &index, Count: &count})
	result.Text = ReplaceVariables(result.Text, vars)

	return result
}

// SelectionBatch builds the final text covering a whole selection at once.
func SelectionBatch(template string, items []models.DataItem, vars map[string]Variable) Result {
	result := ReplaceDataFieldsBatch(template, items, Options{})
	result.Text = ReplaceVariables(result.Text, vars)

	return result
}

func replaceIndexCount(text string, opts Options) string {
	if opts.Index != nil {
		text = strings.ReplaceAll(text, indexPattern, strconv.Itoa(*opts.Index))
	}

	if opts.Count != nil {
		text = strings.ReplaceAll(text, countPattern, strconv.Itoa(*opts.Count))
	}

	return text
}

// replaceWholeData substitutes ${__data} and ${__data:format} with the
// serialized record or record array. Quotes hugging the pattern on both
// sides are stripped so `"${__data}"` embeds as a JSON value rather than a
// quoted blob; quotes that are part of surrounding text stay.
func replaceWholeData(text string, serialize func() ([]byte, error), urlEncode bool) string {
	return wholeDataRe.ReplaceAllStringFunc(text, func(match string) string {
		parts := wholeDataRe.FindStringSubmatch(match)
		lead, trail := parts[1], parts[3]
		format, _ := ParseFormat(parts[2])

		serialized, err := serialize()
		if err != nil {
			return match
		}

		var rendered string

		switch format {
		case FormatJSON:
			// The record is already JSON.
			rendered = string(serialized)
			if urlEncode {
				rendered = encodeURIComponent(rendered)
			}
		default:
			rendered = EncodeValues([]string{string(serialized)}, format, urlEncode)
		}

		if lead == `"` && trail == `"` {
			return rendered
		}

		return lead + rendered + trail
	})
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}

	return ""
}
