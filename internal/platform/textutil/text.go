package textutil

import (
	"html"
	"strings"
	"unicode"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var labelPolicy = bluemonday.StrictPolicy()

// FoldDiacritics decomposes accented characters and drops the combining marks, so "Café"
// becomes "Cafe". Characters without a decomposition are returned untouched.
func FoldDiacritics(value string) string {
	if value == "" {
		return ""
	}
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, value)
	if err != nil {
		return value
	}
	return out
}

// CollapseWhitespace trims the value and replaces every internal whitespace run with sep.
func CollapseWhitespace(value, sep string) string {
	return strings.Join(strings.Fields(value), sep)
}

// SanitizeLabel strips markup from free-text labels and normalises whitespace. Entities
// escaped by the sanitiser are decoded again because labels are plain text.
func SanitizeLabel(value string) string {
	if strings.TrimSpace(value) == "" {
		return ""
	}
	cleaned := html.UnescapeString(labelPolicy.Sanitize(value))
	return CollapseWhitespace(cleaned, " ")
}
