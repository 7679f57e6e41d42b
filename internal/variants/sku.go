package variants

import (
	"strings"
	"unicode"

	"github.com/hanko-field/product-editor/internal/platform/textutil"
)

const (
	// DefaultSKUTokenLimit caps the length of every SKU segment.
	DefaultSKUTokenLimit = 15

	skuPrefix    = "SKU"
	unknownToken = "UNKNOWN"
)

// SKUSynthesizer derives readable SKUs such as SKU-TEDDY-BEAR-RED-S from a product name and the
// display names of a combination's values.
type SKUSynthesizer struct {
	TokenLimit int
}

// NewSKUSynthesizer returns a synthesizer truncating tokens at limit characters. Non-positive
// limits fall back to DefaultSKUTokenLimit.
func NewSKUSynthesizer(limit int) SKUSynthesizer {
	if limit <= 0 {
		limit = DefaultSKUTokenLimit
	}
	return SKUSynthesizer{TokenLimit: limit}
}

func (s SKUSynthesizer) limit() int {
	if s.TokenLimit <= 0 {
		return DefaultSKUTokenLimit
	}
	return s.TokenLimit
}

// Synthesize builds SKU-{product}[-{value}...]. Re-applying it to one of its own results
// (passed as the product name, without values) returns that result unchanged.
func (s SKUSynthesizer) Synthesize(productName string, values []string) string {
	if len(values) == 0 && IsSynthesizedSKU(productName) {
		return productName
	}
	parts := make([]string, 0, len(values)+2)
	parts = append(parts, skuPrefix, s.token(productName))
	for _, value := range values {
		parts = append(parts, s.token(value))
	}
	return strings.Join(parts, "-")
}

// NormalizeToken folds diacritics, uppercases, drops everything except A-Z, 0-9, whitespace
// and hyphens, then turns whitespace runs into single hyphens. Leading and trailing hyphens are
// removed. The result may be empty.
func NormalizeToken(value string) string {
	upper := strings.ToUpper(textutil.FoldDiacritics(value))

	var b strings.Builder
	b.Grow(len(upper))
	for _, r := range upper {
		switch {
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-':
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		}
	}

	token := textutil.CollapseWhitespace(b.String(), "-")
	for strings.Contains(token, "--") {
		token = strings.ReplaceAll(token, "--", "-")
	}
	return strings.Trim(token, "-")
}

// IsSynthesizedSKU reports whether value already has the canonical SKU shape.
func IsSynthesizedSKU(value string) bool {
	if !strings.HasPrefix(value, skuPrefix+"-") {
		return false
	}
	return NormalizeToken(value) == value
}

func (s SKUSynthesizer) token(value string) string {
	token := NormalizeToken(value)
	if token == "" {
		token = unknownToken
	}
	if limit := s.limit(); len(token) > limit {
		token = strings.TrimRight(token[:limit], "-")
	}
	return token
}
