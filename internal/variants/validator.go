package variants

import (
	"strings"

	"github.com/hanko-field/product-editor/internal/domain"
)

const (
	// FieldSKU names the sku field of a combination in field errors.
	FieldSKU = "sku"
	// CodeDuplicate flags a SKU shared by more than one combination.
	CodeDuplicate = "duplicate"
)

// MatrixErrors are the matrix-level validation flags. They are independent of each other.
type MatrixErrors struct {
	NoCombinationsGenerated bool `json:"noCombinationsGenerated"`
	DuplicateSKU            bool `json:"duplicateSku"`
	NoDefaultVariant        bool `json:"noDefaultVariant"`
}

// Any reports whether at least one flag is raised.
func (m MatrixErrors) Any() bool {
	return m.NoCombinationsGenerated || m.DuplicateSKU || m.NoDefaultVariant
}

// FieldError attaches an error code to one field of one combination.
type FieldError struct {
	CombinationIndex int    `json:"combinationIndex"`
	CombinationKey   string `json:"combinationKey"`
	Field            string `json:"field"`
	Code             string `json:"code"`
}

// ValidationResult is the outcome of one validation pass.
type ValidationResult struct {
	Matrix MatrixErrors `json:"matrix"`
	Fields []FieldError `json:"fields,omitempty"`
}

// Valid reports whether the matrix can be saved.
func (r ValidationResult) Valid() bool {
	return !r.Matrix.Any() && len(r.Fields) == 0
}

// FieldErrorsFor returns the field errors attached to the combination at index.
func (r ValidationResult) FieldErrorsFor(index int) []FieldError {
	var out []FieldError
	for _, fieldErr := range r.Fields {
		if fieldErr.CombinationIndex == index {
			out = append(out, fieldErr)
		}
	}
	return out
}

// Validate checks the whole matrix from scratch:
//   - NoCombinationsGenerated: attributes exist but the matrix is empty
//   - DuplicateSKU: a non-blank SKU is used more than once; every holder gets a field error
//   - NoDefaultVariant: the matrix is non-empty and nothing is marked default
func Validate(combos []domain.Combination, attributes []domain.AttributeDefinition) ValidationResult {
	var result ValidationResult

	if len(combos) == 0 {
		result.Matrix.NoCombinationsGenerated = len(attributes) > 0
		return result
	}

	holders := make(map[string][]int, len(combos))
	hasDefault := false
	for i, combo := range combos {
		if combo.IsDefault {
			hasDefault = true
		}
		if strings.TrimSpace(combo.SKU) == "" {
			continue
		}
		holders[combo.SKU] = append(holders[combo.SKU], i)
	}
	result.Matrix.NoDefaultVariant = !hasDefault

	for i, combo := range combos {
		if len(holders[combo.SKU]) < 2 {
			continue
		}
		result.Matrix.DuplicateSKU = true
		result.Fields = append(result.Fields, FieldError{
			CombinationIndex: i,
			CombinationKey:   KeyOf(combo),
			Field:            FieldSKU,
			Code:             CodeDuplicate,
		})
	}
	return result
}
