package propensity

import (
	"context"
	"fmt"
	"math"
	"math/rand"
)

// LogisticRegression is a binary classifier with sigmoid output, trained
// by full-batch gradient descent on standardized features. Full-batch
// keeps the fit deterministic for a fixed weight initialization.
type LogisticRegression struct {
	W      []float64 // weights, one per standardized feature
	B      float64   // bias
	Lr     float64
	Epochs int

	means []float64
	stds  []float64
	rng   *rand.Rand
}

// NewLogisticRegression initializes a model with the reference
// hyperparameters. The rng seeds the initial weights; nil means zero
// initialization (the loss is convex, so both converge to the same fit).
func NewLogisticRegression(rng *rand.Rand) *LogisticRegression {
	return &LogisticRegression{
		Lr:     0.5,
		Epochs: 400,
		rng:    rng,
	}
}

// Fit trains on a row-major feature matrix and {0,1} labels.
func (m *LogisticRegression) Fit(ctx context.Context, features [][]float64, labels []float64) error {
	n := len(features)
	if n == 0 || n != len(labels) {
		return fmt.Errorf("feature matrix has %d rows, labels %d", n, len(labels))
	}
	d := len(features[0])
	if d == 0 {
		return fmt.Errorf("feature matrix has no columns")
	}

	m.fitStandardizer(features)
	X := m.standardize(features)

	m.W = make([]float64, d)
	if m.rng != nil {
		for j := range m.W {
			m.W[j] = m.rng.NormFloat64() * 0.01
		}
	}
	m.B = 0

	grad := make([]float64, d)
	for epoch := 0; epoch < m.Epochs; epoch++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		for j := range grad {
			grad[j] = 0
		}
		gradB := 0.0
		for i := 0; i < n; i++ {
			p := sigmoid(m.logit(X[i]))
			e := p - labels[i]
			for j := 0; j < d; j++ {
				grad[j] += e * X[i][j]
			}
			gradB += e
		}
		scale := m.Lr / float64(n)
		for j := 0; j < d; j++ {
			m.W[j] -= scale * grad[j]
		}
		m.B -= scale * gradB
	}
	return nil
}

// PredictProba returns P(label=1 | row) per row.
func (m *LogisticRegression) PredictProba(features [][]float64) ([]float64, error) {
	if m.W == nil {
		return nil, fmt.Errorf("model not fitted")
	}
	X := m.standardize(features)
	out := make([]float64, len(X))
	for i, row := range X {
		if len(row) != len(m.W) {
			return nil, fmt.Errorf("row %d has %d features, model has %d", i, len(row), len(m.W))
		}
		out[i] = sigmoid(m.logit(row))
	}
	return out, nil
}

func (m *LogisticRegression) logit(row []float64) float64 {
	z := m.B
	for j, v := range row {
		z += m.W[j] * v
	}
	return z
}

func (m *LogisticRegression) fitStandardizer(features [][]float64) {
	n := float64(len(features))
	d := len(features[0])
	m.means = make([]float64, d)
	m.stds = make([]float64, d)
	for _, row := range features {
		for j, v := range row {
			m.means[j] += v
		}
	}
	for j := range m.means {
		m.means[j] /= n
	}
	for _, row := range features {
		for j, v := range row {
			diff := v - m.means[j]
			m.stds[j] += diff * diff
		}
	}
	for j := range m.stds {
		m.stds[j] = math.Sqrt(m.stds[j] / n)
		if m.stds[j] == 0 {
			m.stds[j] = 1 // constant column contributes nothing either way
		}
	}
}

func (m *LogisticRegression) standardize(features [][]float64) [][]float64 {
	out := make([][]float64, len(features))
	for i, row := range features {
		std := make([]float64, len(row))
		for j, v := range row {
			std[j] = (v - m.means[j]) / m.stds[j]
		}
		out[i] = std
	}
	return out
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}
