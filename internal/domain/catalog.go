package domain

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
)

// PredefinedValue is a catalog-supplied attribute value.
type PredefinedValue struct {
	ID            string
	DisplayName   string
	ColorHex      *string
	PriceModifier *decimal.Decimal
}

// Clone returns a deep copy of the catalog value.
func (p PredefinedValue) Clone() PredefinedValue {
	out := p
	out.ColorHex = cloneString(p.ColorHex)
	out.PriceModifier = cloneDecimal(p.PriceModifier)
	return out
}

// CatalogLookup lists the known attribute names and the predefined values available under each.
// A nil *CatalogLookup means the catalog is unavailable.
type CatalogLookup struct {
	AttributeNames   []string
	PredefinedByName map[string][]PredefinedValue
}

// Casers are stateful, so each call builds its own.
func foldName(name string) string {
	return cases.Fold().String(strings.Join(strings.Fields(name), " "))
}

// CanonicalName resolves a user-supplied attribute name to the catalog spelling. Matching
// ignores case and surrounding or repeated whitespace.
func (c *CatalogLookup) CanonicalName(name string) (string, bool) {
	if c == nil {
		return "", false
	}
	folded := foldName(name)
	if folded == "" {
		return "", false
	}
	for _, known := range c.AttributeNames {
		if foldName(known) == folded {
			return known, true
		}
	}
	return "", false
}

// Values returns the predefined values registered under the attribute name.
func (c *CatalogLookup) Values(name string) []PredefinedValue {
	if c == nil {
		return nil
	}
	if values, ok := c.PredefinedByName[name]; ok {
		return values
	}
	canonical, ok := c.CanonicalName(name)
	if !ok {
		return nil
	}
	return c.PredefinedByName[canonical]
}

// FindPredefined looks up a catalog value by id under the attribute name.
func (c *CatalogLookup) FindPredefined(name, id string) (PredefinedValue, bool) {
	if id == "" {
		return PredefinedValue{}, false
	}
	for _, value := range c.Values(name) {
		if value.ID == id {
			return value, true
		}
	}
	return PredefinedValue{}, false
}

// CategoryNode is one node of the externally supplied category tree.
type CategoryNode struct {
	ID       string
	Key      string
	Children []CategoryNode
}

// MediaReference identifies an uploaded (or uploading) media item. Only ID and Title take part
// in reconciliation.
type MediaReference struct {
	ID    string
	Title string
}
