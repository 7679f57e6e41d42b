package variants

import (
	"sort"
	"strings"

	"github.com/hanko-field/product-editor/internal/domain"
)

// KeySeparator joins value ids inside a combination key. Identifiers never contain it.
const KeySeparator = "|"

// CombinationKey returns the identity of a combination: its attribute-value ids sorted
// lexicographically and joined with KeySeparator. Attribute ids and selection order do not
// participate, so reordering attributes never changes the key.
func CombinationKey(selections []domain.AttributeSelection) string {
	if len(selections) == 0 {
		return ""
	}
	ids := make([]string, 0, len(selections))
	for _, selection := range selections {
		ids = append(ids, selection.AttributeValueID)
	}
	sort.Strings(ids)
	return strings.Join(ids, KeySeparator)
}

// KeyOf returns the stored key of the combination, deriving it from the selections when the
// combination was loaded without one.
func KeyOf(combo domain.Combination) string {
	if combo.Key != "" {
		return combo.Key
	}
	return CombinationKey(combo.Selections)
}
