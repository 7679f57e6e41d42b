package services

import (
	"errors"
	"fmt"

	"github.com/hanko-field/product-editor/internal/variants"
)

var (
	// ErrEditorInvalidInput signals bad arguments such as a negative price or stock quantity.
	ErrEditorInvalidInput = errors.New("editor: invalid input")
	// ErrEditorLoadInProgress is returned for operations that are not allowed while a product load
	// is being replayed.
	ErrEditorLoadInProgress = errors.New("editor: load in progress")
	// ErrEditorNotLoading is returned when a load step is invoked outside BeginLoad/CommitLoad.
	ErrEditorNotLoading = errors.New("editor: no load in progress")
	// ErrCombinationNotFound indicates the combination key is not part of the current matrix.
	ErrCombinationNotFound = errors.New("editor: combination not found")
	// ErrEditorValidationFailed blocks the save while matrix or field errors are present.
	ErrEditorValidationFailed = errors.New("editor: validation failed")
)

// ValidationError carries the validation result that blocked a save.
type ValidationError struct {
	Result variants.ValidationResult
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	flags := e.Result.Matrix
	return fmt.Sprintf("%s: noCombinations=%t duplicateSku=%t noDefault=%t fieldErrors=%d",
		ErrEditorValidationFailed, flags.NoCombinationsGenerated, flags.DuplicateSKU, flags.NoDefaultVariant, len(e.Result.Fields))
}

// Unwrap allows errors.Is(err, ErrEditorValidationFailed).
func (e *ValidationError) Unwrap() error { return ErrEditorValidationFailed }
