// Package refute stress-tests a causal estimate by re-running the full
// pipeline on perturbed copies of the dataset.
package refute

import (
	"context"
	"math/rand"

	"gocausal/domain/causal"
	"gocausal/internal/pipeline"
	"gocausal/ports"
)

// Refuter is one perturbation test. Implementations must not mutate the
// original dataset; they derive independent copies and own their RNG
// stream, so verdicts are reproducible for a fixed seed.
type Refuter interface {
	Name() causal.RefutationTest
	Refute(ctx context.Context, ds *causal.Dataset, opts causal.Options, original *causal.EstimateResult, rng *rand.Rand) causal.RefutationResult
}

// rerun executes the shared pipeline against a perturbed dataset. A fatal
// error inside the perturbed run is surfaced to the caller, which reports
// it as a failed refutation rather than crashing the engine.
func rerun(ctx context.Context, pipe *pipeline.Pipeline, ds *causal.Dataset, opts causal.Options, rng *rand.Rand) (*causal.EstimateResult, error) {
	return pipe.Run(ctx, ds, opts, causal.EstimandATT, rng)
}

// OverallVerdict is robust only when every refutation test passed.
func OverallVerdict(results []causal.RefutationResult) causal.Verdict {
	if len(results) == 0 {
		return causal.VerdictFragile
	}
	for _, r := range results {
		if !r.Passed {
			return causal.VerdictFragile
		}
	}
	return causal.VerdictRobust
}

// streamName returns the RNG stage name for a test, keeping each refuter
// on an independent deterministic stream.
func streamName(test causal.RefutationTest) string {
	return "refute/" + string(test)
}

// Stream derives the refuter's RNG from the shared factory.
func Stream(ctx context.Context, streams ports.RNGPort, runID string, test causal.RefutationTest, seed int64) (*rand.Rand, error) {
	return streams.Stream(ctx, runID, streamName(test), seed)
}
