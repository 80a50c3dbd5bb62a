package ports

import (
	"gocausal/domain/causal"
)

// Matcher pairs treated and control units by propensity-score proximity.
// Implementations must be deterministic for a fixed dataset and options,
// and must own their matching state per call (no shared control pool).
type Matcher interface {
	Match(ds *causal.Dataset, scores []float64, opts causal.Options) (causal.MatchResult, error)
}
