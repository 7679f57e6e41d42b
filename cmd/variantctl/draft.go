package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/hanko-field/product-editor/internal/domain"
	"github.com/hanko-field/product-editor/internal/services"
)

// draftFile is one scripted editing session: an optional persisted product followed by the
// interactive edits applied on top of it.
type draftFile struct {
	Product *productEntry `yaml:"product"`
	Edit    editEntry     `yaml:"edit"`
}

type productEntry struct {
	ID           string             `yaml:"id"`
	Name         string             `yaml:"name"`
	Description  string             `yaml:"description"`
	BasePrice    string             `yaml:"basePrice"`
	CategoryIDs  []string           `yaml:"categoryIds"`
	MediaIDs     []string           `yaml:"mediaIds"`
	Attributes   []attributeEntry   `yaml:"attributes"`
	Combinations []combinationEntry `yaml:"combinations"`
}

type editEntry struct {
	Name        string           `yaml:"name"`
	Description string           `yaml:"description"`
	BasePrice   string           `yaml:"basePrice"`
	Attributes  []attributeEntry `yaml:"attributes"`
	Categories  []string         `yaml:"categories"`
	Media       []mediaStep      `yaml:"media"`
	Default     string           `yaml:"default"`
}

type attributeEntry struct {
	ID       string       `yaml:"id"`
	Name     string       `yaml:"name"`
	Required bool         `yaml:"required"`
	Values   []valueEntry `yaml:"values"`
}

// valueEntry sets either Predefined (a catalog value id) or Custom (an inline display name).
// Neither leaves the value unselected.
type valueEntry struct {
	ID            string `yaml:"id"`
	Predefined    string `yaml:"predefined"`
	Custom        string `yaml:"custom"`
	ColorHex      string `yaml:"colorHex"`
	PriceModifier string `yaml:"priceModifier"`
	Unavailable   bool   `yaml:"unavailable"`
}

type combinationEntry struct {
	SKU           string            `yaml:"sku"`
	Price         string            `yaml:"price"`
	OriginalPrice string            `yaml:"originalPrice"`
	StockQuantity int               `yaml:"stockQuantity"`
	StockStatus   string            `yaml:"stockStatus"`
	Inactive      bool              `yaml:"inactive"`
	Default       bool              `yaml:"default"`
	MediaIDs      []string          `yaml:"mediaIds"`
	Selections    map[string]string `yaml:"selections"`
}

type mediaStep struct {
	Previous []mediaEntry `yaml:"previous"`
	Current  []mediaEntry `yaml:"current"`
}

type mediaEntry struct {
	ID    string `yaml:"id"`
	Title string `yaml:"title"`
}

func parseDraft(data []byte) (draftFile, error) {
	var draft draftFile
	if err := yaml.Unmarshal(data, &draft); err != nil {
		return draftFile{}, fmt.Errorf("draft: decode: %w", err)
	}
	if strings.TrimSpace(draft.Edit.Name) == "" && draft.Product == nil {
		return draftFile{}, errors.New("draft: edit.name is required when no product is loaded")
	}
	return draft, nil
}

func (p productEntry) toSnapshot(catalog *domain.CatalogLookup) (domain.ProductSnapshot, error) {
	basePrice, err := parseMoney("product.basePrice", p.BasePrice)
	if err != nil {
		return domain.ProductSnapshot{}, err
	}
	attributes, err := toAttributes(p.Attributes, catalog)
	if err != nil {
		return domain.ProductSnapshot{}, err
	}

	combos := make([]domain.Combination, 0, len(p.Combinations))
	for i, entry := range p.Combinations {
		combo, err := entry.toDomain(attributes)
		if err != nil {
			return domain.ProductSnapshot{}, fmt.Errorf("draft: product.combinations[%d]: %w", i, err)
		}
		combos = append(combos, combo)
	}

	return domain.ProductSnapshot{
		ID:           p.ID,
		Name:         p.Name,
		Description:  p.Description,
		BasePrice:    basePrice,
		CategoryIDs:  p.CategoryIDs,
		MediaIDs:     p.MediaIDs,
		Attributes:   attributes,
		Combinations: combos,
	}, nil
}

// requested reports whether the edit touches the matrix fields at all.
func (e editEntry) requested() bool {
	return strings.TrimSpace(e.Name) != "" || strings.TrimSpace(e.BasePrice) != "" || e.Attributes != nil
}

// toMatrixInput builds the interactive edit. Fields left blank in the draft keep the values of
// current, so a draft can change only the attributes of a loaded product.
func (e editEntry) toMatrixInput(catalog *domain.CatalogLookup, current services.EditorState) (services.MatrixInput, error) {
	input := services.MatrixInput{
		Name:        current.Name,
		Description: current.Description,
		BasePrice:   current.BasePrice,
		Attributes:  current.Attributes,
	}
	if strings.TrimSpace(e.Name) != "" {
		input.Name = e.Name
	}
	if strings.TrimSpace(e.Description) != "" {
		input.Description = e.Description
	}
	if strings.TrimSpace(e.BasePrice) != "" {
		basePrice, err := parseMoney("edit.basePrice", e.BasePrice)
		if err != nil {
			return services.MatrixInput{}, err
		}
		input.BasePrice = basePrice
	}
	if e.Attributes != nil {
		attributes, err := toAttributes(e.Attributes, catalog)
		if err != nil {
			return services.MatrixInput{}, err
		}
		input.Attributes = attributes
	}
	return input, nil
}

func toAttributes(entries []attributeEntry, catalog *domain.CatalogLookup) ([]domain.AttributeDefinition, error) {
	out := make([]domain.AttributeDefinition, 0, len(entries))
	for i, entry := range entries {
		attr := domain.AttributeDefinition{
			ID:         entry.ID,
			Name:       entry.Name,
			IsRequired: entry.Required,
			Values:     make([]domain.AttributeValue, 0, len(entry.Values)),
		}
		for j, v := range entry.Values {
			value, err := v.toDomain(entry.Name, catalog)
			if err != nil {
				return nil, fmt.Errorf("draft: attributes[%d].values[%d]: %w", i, j, err)
			}
			attr.Values = append(attr.Values, value)
		}
		out = append(out, attr)
	}
	return out, nil
}

// A catalog id missing from the catalog is kept as a bare reference; the engine leaves such
// values unrefreshed.
func (v valueEntry) toDomain(attributeName string, catalog *domain.CatalogLookup) (domain.AttributeValue, error) {
	value := domain.AttributeValue{
		ID:          v.ID,
		Selection:   domain.Unselected(),
		IsAvailable: !v.Unavailable,
	}
	if v.Predefined != "" && v.Custom != "" {
		return domain.AttributeValue{}, errors.New("predefined and custom are mutually exclusive")
	}
	switch {
	case v.Predefined != "":
		ref, ok := catalog.FindPredefined(attributeName, v.Predefined)
		if !ok {
			ref = domain.PredefinedValue{ID: v.Predefined}
		}
		value.Selection = domain.Predefined(&ref)
		value.DisplayName = ref.DisplayName
	case v.Custom != "":
		value.Selection = domain.Custom()
		value.DisplayName = v.Custom
	}
	if hex := strings.TrimSpace(v.ColorHex); hex != "" {
		value.ColorHex = &hex
	}
	if strings.TrimSpace(v.PriceModifier) != "" {
		modifier, err := decimal.NewFromString(strings.TrimSpace(v.PriceModifier))
		if err != nil {
			return domain.AttributeValue{}, fmt.Errorf("priceModifier %q: %w", v.PriceModifier, err)
		}
		value.PriceModifier = &modifier
	}
	return value, nil
}

// Selections are keyed by attribute id; map order is irrelevant because attribute order comes
// from the product's attribute list.
func (c combinationEntry) toDomain(attributes []domain.AttributeDefinition) (domain.Combination, error) {
	price, err := parseMoney("price", c.Price)
	if err != nil {
		return domain.Combination{}, err
	}
	combo := domain.Combination{
		SKU:           c.SKU,
		Price:         price,
		StockQuantity: c.StockQuantity,
		StockStatus:   domain.StockStatus(strings.ToLower(strings.TrimSpace(c.StockStatus))),
		IsActive:      !c.Inactive,
		IsDefault:     c.Default,
		MediaIDs:      c.MediaIDs,
	}
	if strings.TrimSpace(c.OriginalPrice) != "" {
		original, err := parseMoney("originalPrice", c.OriginalPrice)
		if err != nil {
			return domain.Combination{}, err
		}
		combo.OriginalPrice = &original
	}

	for _, attr := range attributes {
		valueID, ok := c.Selections[attr.ID]
		if !ok {
			continue
		}
		combo.Selections = append(combo.Selections, domain.AttributeSelection{AttributeID: attr.ID, AttributeValueID: valueID})
		for _, value := range attr.Values {
			if value.Identifier() == valueID {
				combo.Labels = append(combo.Labels, value.Label())
				break
			}
		}
	}
	if len(combo.Selections) != len(c.Selections) {
		return domain.Combination{}, errors.New("selections reference unknown attributes")
	}
	return combo, nil
}

func (m mediaStep) references() (previous, current []domain.MediaReference) {
	return toReferences(m.Previous), toReferences(m.Current)
}

func toReferences(entries []mediaEntry) []domain.MediaReference {
	out := make([]domain.MediaReference, 0, len(entries))
	for _, entry := range entries {
		out = append(out, domain.MediaReference{ID: entry.ID, Title: entry.Title})
	}
	return out
}

func parseMoney(field, raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, nil
	}
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("draft: %s %q: %w", field, raw, err)
	}
	return amount, nil
}
