package services

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/hanko-field/product-editor/internal/domain"
)

// MapSavePayload flattens an editor state into the external payload shape. Values that are not
// complete and attributes left without complete values are omitted. Override value ids match
// VariantValuePayload.ID for custom values and PredefinedValueID for catalog values.
func MapSavePayload(state EditorState) domain.SavePayload {
	payload := domain.SavePayload{
		ID:                strings.TrimSpace(state.ProductID),
		Name:              state.Name,
		Description:       state.Description,
		BasePrice:         state.BasePrice.InexactFloat64(),
		CategoryIDs:       nonNil(cloneStrings(state.CategoryIDs)),
		MediaIDs:          nonNil(cloneStrings(state.MediaIDs)),
		VariantAttributes: make([]domain.VariantAttributePayload, 0, len(state.Attributes)),
		VariantOverrides:  make([]domain.VariantOverridePayload, 0, len(state.Combinations)),
	}

	for _, attr := range state.Attributes {
		values := attr.CompleteValues()
		if len(values) == 0 {
			continue
		}
		kind := attr.Kind
		if kind == "" {
			kind = domain.KindForName(attr.Name)
		}
		entry := domain.VariantAttributePayload{
			ID:         attr.Identifier(),
			Name:       attr.Name,
			Kind:       kind,
			IsRequired: attr.IsRequired,
			Values:     make([]domain.VariantValuePayload, 0, len(values)),
		}
		for _, value := range values {
			entry.Values = append(entry.Values, mapValue(value))
		}
		payload.VariantAttributes = append(payload.VariantAttributes, entry)
	}

	for _, combo := range state.Combinations {
		ids := make([]string, 0, len(combo.Selections))
		for _, selection := range combo.Selections {
			ids = append(ids, selection.AttributeValueID)
		}
		status := combo.StockStatus
		if !status.Valid() {
			status = domain.StockStatusInStock
		}
		payload.VariantOverrides = append(payload.VariantOverrides, domain.VariantOverridePayload{
			AttributeValueIDs: ids,
			Price:             combo.Price.InexactFloat64(),
			OriginalPrice:     floatPtr(combo.OriginalPrice),
			StockQuantity:     combo.StockQuantity,
			SKU:               combo.SKU,
			IsDefault:         combo.IsDefault,
			IsActive:          combo.IsActive,
			MediaIDs:          nonNil(cloneStrings(combo.MediaIDs)),
			StockStatus:       status,
		})
	}
	return payload
}

func mapValue(value domain.AttributeValue) domain.VariantValuePayload {
	out := domain.VariantValuePayload{
		DisplayName: value.Label(),
		IsAvailable: value.IsAvailable,
	}
	modifier := value.PriceModifier
	colorHex := value.ColorHex

	if value.Selection.Kind == domain.SelectionPredefined && value.Selection.Predefined != nil {
		ref := value.Selection.Predefined
		out.ID = value.ID
		out.PredefinedValueID = ref.ID
		if ref.PriceModifier != nil {
			modifier = ref.PriceModifier
		}
		if ref.ColorHex != nil {
			colorHex = ref.ColorHex
		}
	} else {
		out.ID = value.Identifier()
		out.IsCustom = true
	}

	if colorHex != nil {
		hex := *colorHex
		out.ColorHex = &hex
	}
	out.PriceModifier = floatPtr(modifier)
	return out
}

func floatPtr(in *decimal.Decimal) *float64 {
	if in == nil {
		return nil
	}
	v := in.InexactFloat64()
	return &v
}
