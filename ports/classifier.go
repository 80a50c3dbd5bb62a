package ports

import (
	"context"
)

// BinaryClassifier is the capability the propensity model is polymorphic
// over: any probabilistic binary classifier producing calibrated scores.
type BinaryClassifier interface {
	// Fit trains on a row-major feature matrix and {0,1} labels.
	Fit(ctx context.Context, features [][]float64, labels []float64) error

	// PredictProba returns P(label=1 | features) per row, each in (0, 1).
	PredictProba(features [][]float64) ([]float64, error)
}

// ClassifierFactory builds a fresh classifier per pipeline run so
// refutation reruns never share fitted state.
type ClassifierFactory func() BinaryClassifier
