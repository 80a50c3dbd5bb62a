package refute

import (
	"context"
	"math"
	"math/rand"
	"reflect"
	"strings"
	"testing"

	"gocausal/adapters/rng"
	"gocausal/domain/causal"
	"gocausal/internal/pipeline"
	"gocausal/internal/testkit"
)

func estimatedExperiment(t *testing.T, n int, seed int64) (*causal.Dataset, *causal.EstimateResult, *pipeline.Pipeline) {
	t.Helper()
	cfg := testkit.DefaultExperimentConfig()
	cfg.SampleCount = n
	cfg.Seed = seed
	ds, err := testkit.NewExperimentGenerator(cfg).Generate()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	pipe := pipeline.New(nil, nil)
	original, err := pipe.Run(context.Background(), ds, causal.DefaultOptions(), causal.EstimandATT, nil)
	if err != nil {
		t.Fatalf("original run: %v", err)
	}
	return ds, original, pipe
}

func TestPlaceboTreatment_PassesOnGenuineEffect(t *testing.T) {
	ds, original, pipe := estimatedExperiment(t, 4000, 42)
	opts := causal.DefaultOptions()

	res := NewPlaceboTreatment(pipe).Refute(context.Background(), ds, opts, original, rand.New(rand.NewSource(11)))
	if !res.Passed {
		t.Fatalf("placebo should pass on genuinely causal data: %s", res.FailureReason)
	}
	if math.Abs(res.PerturbedEstimate) > res.Tolerance {
		t.Fatalf("placebo estimate %v outside tolerance %v yet marked passed", res.PerturbedEstimate, res.Tolerance)
	}
	if math.Abs(res.PerturbedEstimate) >= math.Abs(original.Estimate)/2 {
		t.Fatalf("placebo estimate %v did not collapse toward zero (original %v)", res.PerturbedEstimate, original.Estimate)
	}
	if res.Test != causal.TestPlaceboTreatment || res.OriginalEstimate != original.Estimate {
		t.Fatalf("result metadata wrong: %+v", res)
	}
}

func TestPlaceboTreatment_DoesNotMutateInput(t *testing.T) {
	ds, original, pipe := estimatedExperiment(t, 1000, 42)
	before := ds.Hash()

	NewPlaceboTreatment(pipe).Refute(context.Background(), ds, causal.DefaultOptions(), original, rand.New(rand.NewSource(11)))
	if ds.Hash() != before {
		t.Fatal("refuter mutated the original dataset")
	}
}

func TestRandomCommonCause_PassesOnStableEstimate(t *testing.T) {
	ds, original, pipe := estimatedExperiment(t, 4000, 42)
	opts := causal.DefaultOptions()

	res := NewRandomCommonCause(pipe).Refute(context.Background(), ds, opts, original, rand.New(rand.NewSource(13)))
	if !res.Passed {
		t.Fatalf("common-cause should pass on stable data: %s", res.FailureReason)
	}
	rel := math.Abs(res.PerturbedEstimate-original.Estimate) / math.Abs(original.Estimate)
	if rel > opts.CommonCauseTolerance {
		t.Fatalf("relative shift %v exceeds tolerance yet marked passed", rel)
	}
}

func TestRefuters_FatalPerturbedRunFailsRefutation(t *testing.T) {
	ds, original, pipe := estimatedExperiment(t, 400, 42)
	opts := causal.DefaultOptions()
	opts.MinMatches = 100000 // forces the perturbed run to abort

	for _, ref := range []Refuter{NewPlaceboTreatment(pipe), NewRandomCommonCause(pipe)} {
		res := ref.Refute(context.Background(), ds, opts, original, rand.New(rand.NewSource(11)))
		if res.Passed {
			t.Fatalf("%s: a failed perturbed run must fail the refutation", ref.Name())
		}
		if !strings.Contains(res.FailureReason, "perturbed run failed") {
			t.Fatalf("%s: failure reason should surface the perturbed-run error, got %q", ref.Name(), res.FailureReason)
		}
	}
}

func TestPlaceboTreatment_DeterministicForFixedSeed(t *testing.T) {
	ds, original, pipe := estimatedExperiment(t, 800, 7)
	opts := causal.DefaultOptions()

	a := NewPlaceboTreatment(pipe).Refute(context.Background(), ds, opts, original, rand.New(rand.NewSource(5)))
	b := NewPlaceboTreatment(pipe).Refute(context.Background(), ds, opts, original, rand.New(rand.NewSource(5)))
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("same seed produced different refutation results: %+v vs %+v", a, b)
	}
}

func TestDispatcher_RunAllKeepsRefuterOrder(t *testing.T) {
	ds, original, pipe := estimatedExperiment(t, 1000, 42)
	opts := causal.DefaultOptions()

	d := NewDispatcher(rng.NewStreamFactory())
	refuters := []Refuter{NewPlaceboTreatment(pipe), NewRandomCommonCause(pipe)}

	results, err := d.RunAll(context.Background(), "run-1", ds, opts, original, refuters)
	if err != nil {
		t.Fatalf("RunAll: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("want 2 results, got %d", len(results))
	}
	if results[0].Test != causal.TestPlaceboTreatment || results[1].Test != causal.TestRandomCommonCause {
		t.Fatalf("results out of refuter order: %v, %v", results[0].Test, results[1].Test)
	}
}

func TestDispatcher_ParallelMatchesSequential(t *testing.T) {
	ds, original, pipe := estimatedExperiment(t, 800, 42)
	refuters := []Refuter{NewPlaceboTreatment(pipe), NewRandomCommonCause(pipe)}
	d := NewDispatcher(rng.NewStreamFactory())

	seq := causal.DefaultOptions()
	seq.RefuteParallelism = 1
	par := causal.DefaultOptions()
	par.RefuteParallelism = 4

	a, err := d.RunAll(context.Background(), "run-1", ds, seq, original, refuters)
	if err != nil {
		t.Fatalf("RunAll sequential: %v", err)
	}
	b, err := d.RunAll(context.Background(), "run-1", ds, par, original, refuters)
	if err != nil {
		t.Fatalf("RunAll parallel: %v", err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Fatal("parallel execution changed refutation results")
	}
}

func TestOverallVerdict(t *testing.T) {
	pass := causal.RefutationResult{Passed: true}
	fail := causal.RefutationResult{Passed: false}

	if got := OverallVerdict(nil); got != causal.VerdictFragile {
		t.Fatalf("no results should be fragile, got %v", got)
	}
	if got := OverallVerdict([]causal.RefutationResult{pass, pass}); got != causal.VerdictRobust {
		t.Fatalf("all passing should be robust, got %v", got)
	}
	if got := OverallVerdict([]causal.RefutationResult{pass, fail}); got != causal.VerdictFragile {
		t.Fatalf("any failure should be fragile, got %v", got)
	}
}
