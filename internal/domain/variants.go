package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// AttributeKind classifies a variant attribute for display and SKU purposes.
type AttributeKind string

const (
	// AttributeKindColor marks colour attributes; their values may carry a hex swatch.
	AttributeKindColor AttributeKind = "color"
	// AttributeKindSize marks size attributes.
	AttributeKindSize AttributeKind = "size"
	// AttributeKindMaterial marks material attributes.
	AttributeKindMaterial AttributeKind = "material"
	// AttributeKindStyle marks style attributes.
	AttributeKindStyle AttributeKind = "style"
	// AttributeKindCustom is used for every name without a dedicated kind.
	AttributeKindCustom AttributeKind = "custom"
)

var attributeKindsByName = map[string]AttributeKind{
	"color":    AttributeKindColor,
	"colour":   AttributeKindColor,
	"size":     AttributeKindSize,
	"material": AttributeKindMaterial,
	"style":    AttributeKindStyle,
}

// KindForName infers the attribute kind from its canonical name, defaulting to custom.
func KindForName(name string) AttributeKind {
	if kind, ok := attributeKindsByName[strings.ToLower(strings.TrimSpace(name))]; ok {
		return kind
	}
	return AttributeKindCustom
}

// StockStatus reports the sellable state of a combination.
type StockStatus string

const (
	StockStatusInStock    StockStatus = "in_stock"
	StockStatusOutOfStock StockStatus = "out_of_stock"
	StockStatusLowStock   StockStatus = "low_stock"
	StockStatusBackorder  StockStatus = "backorder"
)

// Valid reports whether the status is one of the known values.
func (s StockStatus) Valid() bool {
	switch s {
	case StockStatusInStock, StockStatusOutOfStock, StockStatusLowStock, StockStatusBackorder:
		return true
	}
	return false
}

// SelectionKind discriminates the ValueSelection union.
type SelectionKind int

const (
	// SelectionUnselected means the merchandiser has not picked anything yet.
	SelectionUnselected SelectionKind = iota
	// SelectionPredefined references a catalog value.
	SelectionPredefined
	// SelectionCustom means the value is defined inline through DisplayName.
	SelectionCustom
)

// ValueSelection is the three-way choice behind an attribute value: a catalog reference,
// an inline custom value, or nothing yet.
type ValueSelection struct {
	Kind       SelectionKind
	Predefined *PredefinedValue
}

// Unselected returns the empty selection.
func Unselected() ValueSelection {
	return ValueSelection{Kind: SelectionUnselected}
}

// Predefined returns a selection referencing the supplied catalog value. A nil reference
// yields an unselected value.
func Predefined(ref *PredefinedValue) ValueSelection {
	if ref == nil {
		return Unselected()
	}
	copied := ref.Clone()
	return ValueSelection{Kind: SelectionPredefined, Predefined: &copied}
}

// Custom returns the inline-value marker.
func Custom() ValueSelection {
	return ValueSelection{Kind: SelectionCustom}
}

// AttributeValue is one candidate value of a variant attribute.
type AttributeValue struct {
	ID            string
	TempID        string
	Selection     ValueSelection
	DisplayName   string
	ColorHex      *string
	PriceModifier *decimal.Decimal
	IsAvailable   bool
}

// IsComplete reports whether the value carries enough information to take part in matrix
// generation: a custom value with a non-blank name, or a non-nil catalog reference.
func (v AttributeValue) IsComplete() bool {
	switch v.Selection.Kind {
	case SelectionCustom:
		return strings.TrimSpace(v.DisplayName) != ""
	case SelectionPredefined:
		return v.Selection.Predefined != nil
	default:
		return false
	}
}

// Identifier returns the id used for combination identity. Catalog references use the
// catalog id; custom values use the persisted id when known and the temp id otherwise.
func (v AttributeValue) Identifier() string {
	if v.Selection.Kind == SelectionPredefined && v.Selection.Predefined != nil {
		return v.Selection.Predefined.ID
	}
	if v.ID != "" {
		return v.ID
	}
	return v.TempID
}

// Label returns the display name shown for the value. Catalog references mirror the catalog
// display name; DisplayName is only authoritative for custom values.
func (v AttributeValue) Label() string {
	if v.Selection.Kind == SelectionPredefined && v.Selection.Predefined != nil {
		return v.Selection.Predefined.DisplayName
	}
	return v.DisplayName
}

// Modifier returns the price modifier applied by this value, zero when absent.
func (v AttributeValue) Modifier() decimal.Decimal {
	if v.Selection.Kind == SelectionPredefined && v.Selection.Predefined != nil && v.Selection.Predefined.PriceModifier != nil {
		return *v.Selection.Predefined.PriceModifier
	}
	if v.PriceModifier != nil {
		return *v.PriceModifier
	}
	return decimal.Zero
}

// Clone returns a deep copy of the value.
func (v AttributeValue) Clone() AttributeValue {
	out := v
	if v.Selection.Predefined != nil {
		ref := v.Selection.Predefined.Clone()
		out.Selection.Predefined = &ref
	}
	out.ColorHex = cloneString(v.ColorHex)
	out.PriceModifier = cloneDecimal(v.PriceModifier)
	return out
}

// AttributeDefinition is a variant attribute (e.g. Color) with its ordered candidate values.
type AttributeDefinition struct {
	ID         string
	TempID     string
	Name       string
	Kind       AttributeKind
	IsRequired bool
	Values     []AttributeValue
}

// Identifier returns the persisted id when known and the temp id otherwise.
func (a AttributeDefinition) Identifier() string {
	if a.ID != "" {
		return a.ID
	}
	return a.TempID
}

// CompleteValues returns the values eligible for matrix generation, in declaration order.
func (a AttributeDefinition) CompleteValues() []AttributeValue {
	out := make([]AttributeValue, 0, len(a.Values))
	for _, value := range a.Values {
		if value.IsComplete() {
			out = append(out, value)
		}
	}
	return out
}

// Clone returns a deep copy of the attribute.
func (a AttributeDefinition) Clone() AttributeDefinition {
	out := a
	if a.Values != nil {
		out.Values = make([]AttributeValue, len(a.Values))
		for i, value := range a.Values {
			out.Values[i] = value.Clone()
		}
	}
	return out
}

// CloneAttributes deep-copies an attribute sequence.
func CloneAttributes(in []AttributeDefinition) []AttributeDefinition {
	if in == nil {
		return nil
	}
	out := make([]AttributeDefinition, len(in))
	for i, attr := range in {
		out[i] = attr.Clone()
	}
	return out
}

// AttributeSelection links a combination to one attribute value.
type AttributeSelection struct {
	AttributeID      string
	AttributeValueID string
}

// Combination is one purchasable variant: one value pick per attribute plus the
// merchandiser-editable commercial fields.
type Combination struct {
	Key           string
	SKU           string
	Price         decimal.Decimal
	OriginalPrice *decimal.Decimal
	StockQuantity int
	StockStatus   StockStatus
	IsActive      bool
	IsDefault     bool
	MediaIDs      []string
	Selections    []AttributeSelection
	Labels        []string
}

// Clone returns a deep copy of the combination.
func (c Combination) Clone() Combination {
	out := c
	out.OriginalPrice = cloneDecimal(c.OriginalPrice)
	out.MediaIDs = cloneStrings(c.MediaIDs)
	if c.Selections != nil {
		out.Selections = make([]AttributeSelection, len(c.Selections))
		copy(out.Selections, c.Selections)
	}
	out.Labels = cloneStrings(c.Labels)
	return out
}

// CloneCombinations deep-copies a combination sequence.
func CloneCombinations(in []Combination) []Combination {
	if in == nil {
		return nil
	}
	out := make([]Combination, len(in))
	for i, combo := range in {
		out[i] = combo.Clone()
	}
	return out
}

func cloneString(in *string) *string {
	if in == nil {
		return nil
	}
	v := *in
	return &v
}

func cloneDecimal(in *decimal.Decimal) *decimal.Decimal {
	if in == nil {
		return nil
	}
	v := *in
	return &v
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
