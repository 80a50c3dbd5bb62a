package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Not found errors
	ErrNotFound         = errors.New("resource not found")
	ErrAnalysisNotFound = fmt.Errorf("%w: analysis", ErrNotFound)
	ErrColumnNotFound   = fmt.Errorf("%w: column", ErrNotFound)

	// Estimation errors (fatal - abort the pipeline invocation)
	ErrDegenerateModel     = errors.New("degenerate propensity model")
	ErrInsufficientMatches = errors.New("insufficient matched pairs")
	ErrInsufficientData    = errors.New("insufficient data for analysis")

	// Configuration errors
	ErrInvalidConfig = errors.New("invalid engine configuration")

	// Dataset contract errors
	ErrSchemaMismatch = errors.New("confounder schema mismatch")
	ErrMissingValue   = errors.New("missing value in unit record")
)

// Error constructors with context

func NewDegenerateModelError(reason string) error {
	return fmt.Errorf("%w: %s", ErrDegenerateModel, reason)
}

func NewInsufficientMatchesError(got, min int) error {
	return fmt.Errorf("%w: %d matched pairs, minimum %d required", ErrInsufficientMatches, got, min)
}

func NewConfigError(field string, reason string) error {
	return fmt.Errorf("%w: %s %s", ErrInvalidConfig, field, reason)
}

// Error checking helpers

func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsFatalEstimationError reports whether the error aborts a pipeline run
// rather than being returned alongside a usable estimate.
func IsFatalEstimationError(err error) bool {
	return errors.Is(err, ErrDegenerateModel) ||
		errors.Is(err, ErrInsufficientMatches) ||
		errors.Is(err, ErrInsufficientData) ||
		errors.Is(err, ErrInvalidConfig)
}
