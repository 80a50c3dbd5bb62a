// Package propensity estimates P(treatment=1 | confounders) per unit.
package propensity

import (
	"context"
	"math"
	"math/rand"

	"github.com/montanaflynn/stats"

	"gocausal/domain/causal"
	"gocausal/domain/core"
	"gocausal/ports"
)

// Epsilon is the clipping margin keeping scores strictly inside (0, 1)
// so distance and matching computations stay well-defined.
const Epsilon = 1e-4

// Model attaches a propensity score to every unit via a binary classifier.
type Model struct {
	classifier ports.BinaryClassifier
}

// New creates a propensity model around a classifier. A nil classifier
// gets the reference logistic regression seeded from rng.
func New(classifier ports.BinaryClassifier, rng *rand.Rand) *Model {
	if classifier == nil {
		classifier = NewLogisticRegression(rng)
	}
	return &Model{classifier: classifier}
}

// Scores fits the classifier on the dataset and returns one clipped score
// per unit, aligned with dataset order.
//
// Fails with a degenerate-model error when the confounder set carries no
// variance or when treatment is perfectly separable: in either case
// matching cannot produce meaningful overlap, so aborting beats silently
// reporting a biased estimate.
func (m *Model) Scores(ctx context.Context, ds *causal.Dataset) ([]float64, error) {
	if ds.Len() == 0 {
		return nil, core.ErrInsufficientData
	}
	if err := checkVariance(ds); err != nil {
		return nil, err
	}

	features := ds.ConfounderMatrix()
	labels := make([]float64, ds.Len())
	for i, u := range ds.Units {
		if u.Treatment {
			labels[i] = 1
		}
	}

	if err := m.classifier.Fit(ctx, features, labels); err != nil {
		return nil, err
	}
	scores, err := m.classifier.PredictProba(features)
	if err != nil {
		return nil, err
	}

	for i, s := range scores {
		scores[i] = clip(s)
	}
	if err := checkSeparation(ds, scores); err != nil {
		return nil, err
	}
	return scores, nil
}

// checkVariance rejects datasets where every confounder column is constant.
func checkVariance(ds *causal.Dataset) error {
	width := len(ds.Schema.ConfounderNames)
	if width == 0 {
		return core.NewDegenerateModelError("no confounders declared")
	}
	for j := 0; j < width; j++ {
		col := make([]float64, ds.Len())
		for i, u := range ds.Units {
			col[i] = u.Confounders[j]
		}
		v, err := stats.Variance(col)
		if err != nil {
			return core.NewDegenerateModelError("confounder variance could not be computed")
		}
		if v > 0 {
			return nil
		}
	}
	return core.NewDegenerateModelError("all confounder columns have zero variance")
}

// checkSeparation rejects fits where treated and control score ranges do
// not overlap at all: every control scores strictly below every treated
// unit, so no caliper can produce a valid match.
func checkSeparation(ds *causal.Dataset, scores []float64) error {
	minTreated, maxControl := math.Inf(1), math.Inf(-1)
	nTreated, nControl := 0, 0
	for i, u := range ds.Units {
		if u.Treatment {
			nTreated++
			if scores[i] < minTreated {
				minTreated = scores[i]
			}
		} else {
			nControl++
			if scores[i] > maxControl {
				maxControl = scores[i]
			}
		}
	}
	if nTreated == 0 || nControl == 0 {
		return core.NewDegenerateModelError("dataset lacks both treated and control units")
	}
	if maxControl < minTreated && minTreated-maxControl > Epsilon {
		return core.NewDegenerateModelError("treatment is perfectly separable from confounders")
	}
	return nil
}

func clip(s float64) float64 {
	if s < Epsilon {
		return Epsilon
	}
	if s > 1-Epsilon {
		return 1 - Epsilon
	}
	return s
}
