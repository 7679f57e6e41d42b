package variants

import (
	"github.com/shopspring/decimal"

	"github.com/hanko-field/product-editor/internal/domain"
)

func customValue(id, name string) domain.AttributeValue {
	return domain.AttributeValue{
		TempID:      id,
		Selection:   domain.Custom(),
		DisplayName: name,
		IsAvailable: true,
	}
}

func predefinedValue(tempID string, ref domain.PredefinedValue) domain.AttributeValue {
	return domain.AttributeValue{
		TempID:      tempID,
		Selection:   domain.Predefined(&ref),
		IsAvailable: true,
	}
}

func attribute(id, name string, values ...domain.AttributeValue) domain.AttributeDefinition {
	return domain.AttributeDefinition{
		TempID: id,
		Name:   name,
		Kind:   domain.KindForName(name),
		Values: values,
	}
}

func testCatalog() *domain.CatalogLookup {
	return &domain.CatalogLookup{
		AttributeNames:   []string{"Color", "Size", "Material"},
		PredefinedByName: map[string][]domain.PredefinedValue{},
	}
}

func money(value string) decimal.Decimal {
	return decimal.RequireFromString(value)
}

func findByKey(combos []domain.Combination, key string) (domain.Combination, bool) {
	for _, combo := range combos {
		if combo.Key == key {
			return combo, true
		}
	}
	return domain.Combination{}, false
}

func countDefaults(combos []domain.Combination) int {
	n := 0
	for _, combo := range combos {
		if combo.IsDefault {
			n++
		}
	}
	return n
}
