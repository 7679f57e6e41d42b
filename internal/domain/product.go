package domain

import "github.com/shopspring/decimal"

// ProductSnapshot is the "load existing product" input used to seed an editing session.
// Combinations are taken as-is; no regeneration runs while it is applied.
type ProductSnapshot struct {
	ID           string
	Name         string
	Description  string
	BasePrice    decimal.Decimal
	CategoryIDs  []string
	MediaIDs     []string
	Attributes   []AttributeDefinition
	Combinations []Combination
}

// SavePayload is the flattened product shape handed to the persistence collaborator.
type SavePayload struct {
	ID                string                    `json:"id,omitempty"`
	Name              string                    `json:"name"`
	Description       string                    `json:"description,omitempty"`
	BasePrice         float64                   `json:"basePrice"`
	CategoryIDs       []string                  `json:"categoryIds"`
	MediaIDs          []string                  `json:"mediaIds"`
	VariantAttributes []VariantAttributePayload `json:"variantAttributes"`
	VariantOverrides  []VariantOverridePayload  `json:"variantOverrides"`
}

// VariantAttributePayload is one attribute with its resolved values.
type VariantAttributePayload struct {
	ID         string                `json:"id,omitempty"`
	Name       string                `json:"name"`
	Kind       AttributeKind         `json:"kind"`
	IsRequired bool                  `json:"isRequired"`
	Values     []VariantValuePayload `json:"values"`
}

// VariantValuePayload is one resolved attribute value. PredefinedValueID is set for catalog
// references; custom values carry only their display name and persisted id, if any.
type VariantValuePayload struct {
	ID                string   `json:"id,omitempty"`
	PredefinedValueID string   `json:"predefinedValueId,omitempty"`
	DisplayName       string   `json:"displayName"`
	ColorHex          *string  `json:"colorHex,omitempty"`
	PriceModifier     *float64 `json:"priceModifier,omitempty"`
	IsAvailable       bool     `json:"isAvailable"`
	IsCustom          bool     `json:"isCustom"`
}

// VariantOverridePayload is one combination in the external payload shape.
type VariantOverridePayload struct {
	AttributeValueIDs []string    `json:"attributeValueIds"`
	Price             float64     `json:"price"`
	OriginalPrice     *float64    `json:"originalPrice,omitempty"`
	StockQuantity     int         `json:"stockQuantity"`
	SKU               string      `json:"sku"`
	IsDefault         bool        `json:"isDefault"`
	IsActive          bool        `json:"isActive"`
	MediaIDs          []string    `json:"mediaIds"`
	StockStatus       StockStatus `json:"stockStatus"`
}
