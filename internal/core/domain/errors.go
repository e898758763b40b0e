package domain

import (
	"errors"
	"fmt"
)

// ============================================================================
// Prediction Errors
// ============================================================================

var (
	ErrValidation   = errors.New("validation failed")
	ErrInference    = errors.New("model inference failed")
	ErrModelMissing = errors.New("model artifact not loaded")
	ErrNoImportance = errors.New("feature importance not published for model")
)

// ============================================================================
// Store Errors
// ============================================================================

var (
	ErrStore            = errors.New("store operation failed")
	ErrModelNotFound    = errors.New("model not found")
	ErrInvalidLimit     = errors.New("limit must be a positive integer")
	ErrUnknownStoreKind = errors.New("unknown database driver")
)

// ============================================================================
// Artifact Errors
// ============================================================================

var (
	ErrInvalidArtifact = errors.New("invalid model artifact")
	ErrFeatureArity    = errors.New("feature vector length does not match model")
)

// ValidationError names the request field that failed validation.
type ValidationError struct {
	Field  string
	Reason string
}

func NewValidationError(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
