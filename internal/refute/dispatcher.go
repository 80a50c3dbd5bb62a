package refute

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/semaphore"

	"gocausal/domain/causal"
	"gocausal/ports"
)

// Dispatcher runs mutually independent refutation tests, optionally in
// parallel across a bounded worker pool. Each test gets its own perturbed
// dataset copy and named RNG stream, so parallel execution is a pure
// throughput optimization: results are identical to sequential execution
// for the same seed.
type Dispatcher struct {
	streams ports.RNGPort
}

// NewDispatcher creates a dispatcher over the given RNG factory.
func NewDispatcher(streams ports.RNGPort) *Dispatcher {
	return &Dispatcher{streams: streams}
}

// RunAll executes every refuter and returns results in refuter order.
func (d *Dispatcher) RunAll(ctx context.Context, runID string, ds *causal.Dataset, opts causal.Options, original *causal.EstimateResult, refuters []Refuter) ([]causal.RefutationResult, error) {
	sem := semaphore.NewWeighted(opts.RefuteParallelism)
	results := make([]causal.RefutationResult, len(refuters))

	var wg sync.WaitGroup
	for i, ref := range refuters {
		rng, err := Stream(ctx, d.streams, runID, ref.Name(), opts.Seed)
		if err != nil {
			return nil, fmt.Errorf("rng stream for %s: %w", ref.Name(), err)
		}
		if err := sem.Acquire(ctx, 1); err != nil {
			return nil, err
		}
		wg.Add(1)
		go func(i int, ref Refuter) {
			defer wg.Done()
			defer sem.Release(1)
			results[i] = ref.Refute(ctx, ds, opts, original, rng)
		}(i, ref)
	}
	wg.Wait()
	return results, nil
}
