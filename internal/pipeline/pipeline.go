// Package pipeline sequences the estimation path: propensity model,
// matcher, effect estimator.
package pipeline

import (
	"context"
	"fmt"
	"math/rand"

	"gocausal/domain/causal"
	"gocausal/internal/estimating"
	"gocausal/internal/matching"
	"gocausal/internal/propensity"
	"gocausal/ports"
)

// Pipeline is a fixed, synchronous sequence of components over an
// in-memory dataset. Every run builds fresh per-run state (classifier,
// control availability), so independent runs never share mutable state.
type Pipeline struct {
	classifierFactory ports.ClassifierFactory
	matcher           ports.Matcher
	estimator         *estimating.Estimator
}

// New creates a pipeline. A nil factory gets the reference logistic
// regression; a nil matcher gets the caliper nearest-neighbor matcher.
func New(factory ports.ClassifierFactory, matcher ports.Matcher) *Pipeline {
	if matcher == nil {
		matcher = matching.NewCaliperMatcher()
	}
	return &Pipeline{
		classifierFactory: factory,
		matcher:           matcher,
		estimator:         estimating.NewEstimator(),
	}
}

// Run scores, matches, and estimates. The rng seeds classifier weight
// initialization only; for a fixed dataset, options, and stream the run
// is fully deterministic.
func (p *Pipeline) Run(ctx context.Context, ds *causal.Dataset, opts causal.Options, estimand causal.Estimand, rng *rand.Rand) (*causal.EstimateResult, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	var classifier ports.BinaryClassifier
	if p.classifierFactory != nil {
		classifier = p.classifierFactory()
	}
	model := propensity.New(classifier, rng)
	scores, err := model.Scores(ctx, ds)
	if err != nil {
		return nil, err
	}

	match, err := p.matcher.Match(ds, scores, opts)
	if err != nil {
		return nil, err
	}

	result, err := p.estimator.Estimate(ds, match, opts, estimand)
	if err != nil {
		return nil, err
	}

	if result.UnmatchedFraction > opts.MaxUnmatchedFraction {
		result.Warnings = append(result.Warnings, causal.Warning{
			Kind: causal.WarnPoorOverlap,
			Message: fmt.Sprintf("%.1f%% of treated units unmatched (threshold %.1f%%): insufficient common support, estimate may be unreliable",
				result.UnmatchedFraction*100, opts.MaxUnmatchedFraction*100),
		})
	}
	return result, nil
}

// NaiveDifference exposes the unadjusted mean gap for reporting.
func (p *Pipeline) NaiveDifference(ds *causal.Dataset) float64 {
	return p.estimator.NaiveDifference(ds)
}
