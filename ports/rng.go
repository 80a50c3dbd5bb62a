package ports

import (
	"context"
	"math/rand"
)

// RNGPort provides seeded random number generation for deterministic
// operations. Randomness is always an explicitly passed stream, never
// ambient global state, so parallel refutation runs stay reproducible.
type RNGPort interface {
	// SeededStream creates a deterministic random number generator for a
	// named operation.
	SeededStream(ctx context.Context, name string, seed int64) (*rand.Rand, error)

	// Stream creates a deterministic RNG stream scoped to a run and stage.
	// The same (runID, stage, baseSeed) triple always yields the same
	// sequence regardless of dispatch order.
	Stream(ctx context.Context, runID, stage string, baseSeed int64) (*rand.Rand, error)
}
