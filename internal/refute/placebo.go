package refute

import (
	"context"
	"fmt"
	"math"
	"math/rand"

	"github.com/montanaflynn/stats"

	"gocausal/domain/causal"
	"gocausal/internal/pipeline"
)

// PlaceboTreatment replaces the real treatment column with a random
// permutation of itself, preserving the original treatment prevalence
// while holding confounders and outcome fixed. A trustworthy estimate
// must collapse toward zero under a fake treatment.
type PlaceboTreatment struct {
	pipe *pipeline.Pipeline
}

// NewPlaceboTreatment creates the placebo refuter around the shared pipeline.
func NewPlaceboTreatment(pipe *pipeline.Pipeline) *PlaceboTreatment {
	return &PlaceboTreatment{pipe: pipe}
}

// Name returns the test identifier.
func (p *PlaceboTreatment) Name() causal.RefutationTest {
	return causal.TestPlaceboTreatment
}

// Refute permutes treatment, re-runs the pipeline, and passes iff the
// perturbed estimate magnitude stays within the tolerance band (a
// fraction of the outcome standard deviation).
func (p *PlaceboTreatment) Refute(ctx context.Context, ds *causal.Dataset, opts causal.Options, original *causal.EstimateResult, rng *rand.Rand) causal.RefutationResult {
	outcomeSD, _ := stats.StandardDeviationSample(ds.Outcomes())
	tolerance := opts.PlaceboTolerance * outcomeSD

	result := causal.RefutationResult{
		Test:             causal.TestPlaceboTreatment,
		OriginalEstimate: original.Estimate,
		Tolerance:        tolerance,
		Seed:             opts.Seed,
	}

	perturbed, err := ds.WithTreatment(permute(treatmentColumn(ds), rng))
	if err != nil {
		result.FailureReason = fmt.Sprintf("could not build placebo dataset: %v", err)
		return result
	}

	estimate, err := rerun(ctx, p.pipe, perturbed, opts, rng)
	if err != nil {
		result.FailureReason = fmt.Sprintf("perturbed run failed: %v", err)
		return result
	}

	result.PerturbedEstimate = estimate.Estimate
	result.Passed = math.Abs(estimate.Estimate) <= tolerance
	if !result.Passed {
		result.FailureReason = fmt.Sprintf(
			"placebo estimate %.4f exceeds tolerance %.4f: the original effect may be an artifact of the modeling choices",
			estimate.Estimate, tolerance)
	}
	return result
}

func treatmentColumn(ds *causal.Dataset) []bool {
	col := make([]bool, ds.Len())
	for i, u := range ds.Units {
		col[i] = u.Treatment
	}
	return col
}

// permute applies a Fisher-Yates shuffle, preserving prevalence exactly.
func permute(col []bool, rng *rand.Rand) []bool {
	out := append([]bool(nil), col...)
	for i := len(out) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		out[i], out[j] = out[j], out[i]
	}
	return out
}
