package refute

import (
	"context"
	"fmt"
	"math"
	"math/rand"

	"gocausal/domain/causal"
	"gocausal/internal/pipeline"
)

// noiseConfounderName must not collide with analyst-declared confounders.
const noiseConfounderName = "__random_common_cause__"

// RandomCommonCause injects one additional independent standard-normal
// confounder, uncorrelated with treatment and outcome by construction,
// and re-fits the whole pipeline. A stable estimate should barely move.
type RandomCommonCause struct {
	pipe *pipeline.Pipeline
}

// NewRandomCommonCause creates the common-cause refuter around the shared pipeline.
func NewRandomCommonCause(pipe *pipeline.Pipeline) *RandomCommonCause {
	return &RandomCommonCause{pipe: pipe}
}

// Name returns the test identifier.
func (r *RandomCommonCause) Name() causal.RefutationTest {
	return causal.TestRandomCommonCause
}

// Refute passes iff the relative shift between the perturbed and original
// estimates stays within the configured tolerance.
func (r *RandomCommonCause) Refute(ctx context.Context, ds *causal.Dataset, opts causal.Options, original *causal.EstimateResult, rng *rand.Rand) causal.RefutationResult {
	result := causal.RefutationResult{
		Test:             causal.TestRandomCommonCause,
		OriginalEstimate: original.Estimate,
		Tolerance:        opts.CommonCauseTolerance,
		Seed:             opts.Seed,
	}

	noise := make([]float64, ds.Len())
	for i := range noise {
		noise[i] = rng.NormFloat64()
	}
	perturbed, err := ds.WithConfounder(noiseConfounderName, noise)
	if err != nil {
		result.FailureReason = fmt.Sprintf("could not inject noise confounder: %v", err)
		return result
	}

	estimate, err := rerun(ctx, r.pipe, perturbed, opts, rng)
	if err != nil {
		result.FailureReason = fmt.Sprintf("perturbed run failed: %v", err)
		return result
	}
	result.PerturbedEstimate = estimate.Estimate

	denom := math.Abs(original.Estimate)
	if denom < 1e-12 {
		// Original effect is already zero; require the perturbed one to be too.
		result.Passed = math.Abs(estimate.Estimate) < 1e-12
	} else {
		result.Passed = math.Abs(estimate.Estimate-original.Estimate)/denom <= opts.CommonCauseTolerance
	}
	if !result.Passed {
		result.FailureReason = fmt.Sprintf(
			"estimate moved from %.4f to %.4f under an independent noise confounder (relative tolerance %.2f): the original estimate is unstable",
			original.Estimate, estimate.Estimate, opts.CommonCauseTolerance)
	}
	return result
}
