package variants

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/hanko-field/product-editor/internal/domain"
)

const defaultStockQuantity = 10

var defaultMinimumPrice = decimal.RequireFromString("0.01")

// EngineOptions sets the defaults used for combinations that have no prior edits.
// Zero values select the package defaults.
type EngineOptions struct {
	DefaultStockQuantity int
	MinimumPrice         decimal.Decimal
	DefaultStockStatus   domain.StockStatus
	SKU                  SKUSynthesizer
}

// DefaultEngineOptions returns stock 10, minimum price 0.01, in-stock status and 15-character
// SKU tokens.
func DefaultEngineOptions() EngineOptions {
	return EngineOptions{
		DefaultStockQuantity: defaultStockQuantity,
		MinimumPrice:         defaultMinimumPrice,
		DefaultStockStatus:   domain.StockStatusInStock,
		SKU:                  NewSKUSynthesizer(DefaultSKUTokenLimit),
	}
}

// Engine regenerates the combination matrix.
type Engine struct {
	opts EngineOptions
}

// NewEngine constructs an engine, replacing unset options with defaults.
func NewEngine(opts EngineOptions) *Engine {
	defaults := DefaultEngineOptions()
	if opts.DefaultStockQuantity <= 0 {
		opts.DefaultStockQuantity = defaults.DefaultStockQuantity
	}
	if !opts.MinimumPrice.IsPositive() {
		opts.MinimumPrice = defaults.MinimumPrice
	}
	if !opts.DefaultStockStatus.Valid() {
		opts.DefaultStockStatus = defaults.DefaultStockStatus
	}
	opts.SKU = NewSKUSynthesizer(opts.SKU.TokenLimit)
	return &Engine{opts: opts}
}

// Options returns the effective engine options.
func (e *Engine) Options() EngineOptions {
	return e.opts
}

// RegenerateInput is the snapshot a regeneration pass works on. A nil Catalog means the
// catalog lookup is unavailable.
type RegenerateInput struct {
	Attributes  []domain.AttributeDefinition
	Existing    []domain.Combination
	BasePrice   decimal.Decimal
	ProductName string
	Catalog     *domain.CatalogLookup
}

type pick struct {
	attributeID string
	valueID     string
	label       string
	modifier    decimal.Decimal
}

// Regenerate rebuilds the matrix from the current attributes. Editable fields of combinations
// that keep the same key are carried over from in.Existing; new combinations get defaults.
// The result always has exactly one default combination unless it is empty: the first
// surviving prior default wins, otherwise the first combination is marked.
func (e *Engine) Regenerate(in RegenerateInput) []domain.Combination {
	if in.Catalog == nil {
		return []domain.Combination{}
	}

	columns := make([][]pick, 0, len(in.Attributes))
	for _, attr := range in.Attributes {
		values := attr.CompleteValues()
		if len(values) == 0 {
			continue
		}
		name := attr.Name
		if canonical, ok := in.Catalog.CanonicalName(name); ok {
			name = canonical
		}
		column := make([]pick, 0, len(values))
		for _, value := range values {
			value = refreshPredefined(in.Catalog, name, value)
			column = append(column, pick{
				attributeID: attr.Identifier(),
				valueID:     value.Identifier(),
				label:       value.Label(),
				modifier:    value.Modifier(),
			})
		}
		columns = append(columns, column)
	}

	rows := Expand(columns)
	if len(rows) == 0 {
		return []domain.Combination{}
	}

	prior := indexByKey(in.Existing)
	out := make([]domain.Combination, 0, len(rows))
	defaultIndex := -1
	for i, row := range rows {
		selections := make([]domain.AttributeSelection, len(row))
		labels := make([]string, len(row))
		total := in.BasePrice
		for j, p := range row {
			selections[j] = domain.AttributeSelection{AttributeID: p.attributeID, AttributeValueID: p.valueID}
			labels[j] = p.label
			total = total.Add(p.modifier)
		}

		combo := domain.Combination{
			Key:        CombinationKey(selections),
			Selections: selections,
			Labels:     labels,
		}
		if old, ok := prior[combo.Key]; ok {
			carryEditable(&combo, old)
			if old.IsDefault && defaultIndex < 0 {
				combo.IsDefault = true
				defaultIndex = i
			}
		} else {
			e.applyDefaults(&combo, in.ProductName, total)
		}
		out = append(out, combo)
	}

	if defaultIndex < 0 {
		out[0].IsDefault = true
	}
	return out
}

// FillMissingSKUs returns a copy of combos where blank SKUs are synthesised from the product
// name and the combination's value labels. Labels missing on loaded combinations are resolved
// through attributes.
func (e *Engine) FillMissingSKUs(productName string, attributes []domain.AttributeDefinition, combos []domain.Combination) []domain.Combination {
	out := domain.CloneCombinations(combos)
	var labels map[string]string
	for i := range out {
		if strings.TrimSpace(out[i].SKU) != "" {
			continue
		}
		names := out[i].Labels
		if len(names) != len(out[i].Selections) {
			if labels == nil {
				labels = labelsByValueID(attributes)
			}
			names = make([]string, 0, len(out[i].Selections))
			for _, selection := range out[i].Selections {
				names = append(names, labels[selection.AttributeValueID])
			}
		}
		out[i].SKU = e.opts.SKU.Synthesize(productName, names)
	}
	return out
}

// DefaultPrice returns base plus modifiers, floored at the configured minimum when the sum is
// not strictly positive.
func (e *Engine) DefaultPrice(total decimal.Decimal) decimal.Decimal {
	if !total.IsPositive() {
		return e.opts.MinimumPrice
	}
	return total
}

func (e *Engine) applyDefaults(combo *domain.Combination, productName string, total decimal.Decimal) {
	combo.SKU = e.opts.SKU.Synthesize(productName, combo.Labels)
	combo.Price = e.DefaultPrice(total)
	combo.StockQuantity = e.opts.DefaultStockQuantity
	combo.StockStatus = e.opts.DefaultStockStatus
	combo.IsActive = true
	combo.MediaIDs = []string{}
}

func carryEditable(combo *domain.Combination, old domain.Combination) {
	previous := old.Clone()
	combo.SKU = previous.SKU
	combo.Price = previous.Price
	combo.OriginalPrice = previous.OriginalPrice
	combo.StockQuantity = previous.StockQuantity
	combo.StockStatus = previous.StockStatus
	if !combo.StockStatus.Valid() {
		combo.StockStatus = domain.StockStatusInStock
	}
	combo.IsActive = previous.IsActive
	combo.MediaIDs = previous.MediaIDs
	if combo.MediaIDs == nil {
		combo.MediaIDs = []string{}
	}
}

func indexByKey(combos []domain.Combination) map[string]domain.Combination {
	index := make(map[string]domain.Combination, len(combos))
	for _, combo := range combos {
		key := KeyOf(combo)
		if key == "" {
			continue
		}
		if _, exists := index[key]; exists {
			continue
		}
		index[key] = combo
	}
	return index
}

func refreshPredefined(catalog *domain.CatalogLookup, attributeName string, value domain.AttributeValue) domain.AttributeValue {
	if value.Selection.Kind != domain.SelectionPredefined || value.Selection.Predefined == nil {
		return value
	}
	current, ok := catalog.FindPredefined(attributeName, value.Selection.Predefined.ID)
	if !ok {
		return value
	}
	value.Selection = domain.Predefined(&current)
	return value
}

func labelsByValueID(attributes []domain.AttributeDefinition) map[string]string {
	labels := make(map[string]string)
	for _, attr := range attributes {
		for _, value := range attr.Values {
			if !value.IsComplete() {
				continue
			}
			labels[value.Identifier()] = value.Label()
		}
	}
	return labels
}
