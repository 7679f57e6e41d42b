// Package variants builds and checks the variant combination matrix of a product.
//
// The matrix is the cartesian product of every attribute's complete values. Each cell is a
// [domain.Combination] identified by an order-independent [CombinationKey], which lets
// [Engine.Regenerate] carry merchandiser edits (price, stock, SKU, media, flags) across
// regenerations while the structural selections are always rebuilt.
//
// Everything in this package is synchronous and free of side effects: callers pass a snapshot
// in and get fresh slices back.
package variants
