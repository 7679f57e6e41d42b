package services

import (
	"context"

	"github.com/hanko-field/product-editor/internal/domain"
)

// CatalogSource supplies the attribute catalog used to canonicalise attribute names and resolve
// predefined values.
type CatalogSource interface {
	Lookup(ctx context.Context) (*domain.CatalogLookup, error)
}

// CategoryTreeSource supplies a point-in-time snapshot of the category tree.
type CategoryTreeSource interface {
	CategoryTree(ctx context.Context) (domain.CategoryNode, error)
}

// CatalogSourceFunc adapts ordinary functions to CatalogSource.
type CatalogSourceFunc func(ctx context.Context) (*domain.CatalogLookup, error)

// Lookup calls f.
func (f CatalogSourceFunc) Lookup(ctx context.Context) (*domain.CatalogLookup, error) {
	return f(ctx)
}

// CategoryTreeSourceFunc adapts ordinary functions to CategoryTreeSource.
type CategoryTreeSourceFunc func(ctx context.Context) (domain.CategoryNode, error)

// CategoryTree calls f.
func (f CategoryTreeSourceFunc) CategoryTree(ctx context.Context) (domain.CategoryNode, error) {
	return f(ctx)
}
