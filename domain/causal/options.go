package causal

import (
	"gocausal/domain/core"
)

// MatchingPolicy is the tagged replacement variant. It changes the
// statistical properties of the estimate, so it is an explicit choice,
// never an internal default.
type MatchingPolicy string

const (
	// WithoutReplacement removes a control from the pool once matched.
	WithoutReplacement MatchingPolicy = "without_replacement"
	// WithReplacement lets a control serve multiple treated units;
	// variance estimation must then weight multiply-matched controls.
	WithReplacement MatchingPolicy = "with_replacement"
)

// Estimand selects which average effect the estimator reports.
type Estimand string

const (
	EstimandATT Estimand = "att"
	EstimandATE Estimand = "ate"
)

// Options is the explicit engine configuration (no ambient state).
type Options struct {
	Caliper              float64        `json:"caliper"`
	Policy               MatchingPolicy `json:"matching_policy"`
	KNeighbors           int            `json:"k_neighbors"`
	MinMatches           int            `json:"min_matches"`
	MaxUnmatchedFraction float64        `json:"max_unmatched_fraction"`
	ConfidenceLevel      float64        `json:"confidence_level"`

	// PlaceboTolerance is a fraction of the outcome standard deviation.
	PlaceboTolerance float64 `json:"placebo_tolerance"`
	// CommonCauseTolerance is relative to the original estimate.
	CommonCauseTolerance float64 `json:"common_cause_tolerance"`

	Seed int64 `json:"random_seed"`

	// RefuteParallelism bounds concurrent refutation runs. Results are
	// identical under sequential execution given the same seed.
	RefuteParallelism int64 `json:"refute_parallelism"`
}

// DefaultOptions returns the reference configuration.
func DefaultOptions() Options {
	return Options{
		Caliper:              0.1,
		Policy:               WithoutReplacement,
		KNeighbors:           1,
		MinMatches:           30,
		MaxUnmatchedFraction: 0.2,
		ConfidenceLevel:      0.95,
		PlaceboTolerance:     0.1,
		CommonCauseTolerance: 0.1,
		Seed:                 42,
		RefuteParallelism:    2,
	}
}

// Validate rejects invalid option combinations before any computation.
func (o Options) Validate() error {
	if o.Caliper <= 0 {
		return core.NewConfigError("caliper", "must be positive")
	}
	if o.Policy != WithoutReplacement && o.Policy != WithReplacement {
		return core.NewConfigError("matching_policy", "must be with_replacement or without_replacement")
	}
	if o.KNeighbors < 1 {
		return core.NewConfigError("k_neighbors", "must be at least 1")
	}
	if o.MinMatches < 2 {
		return core.NewConfigError("min_matches", "must be at least 2 for variance estimation")
	}
	if o.MaxUnmatchedFraction < 0 || o.MaxUnmatchedFraction > 1 {
		return core.NewConfigError("max_unmatched_fraction", "must be within [0, 1]")
	}
	if o.ConfidenceLevel <= 0 || o.ConfidenceLevel >= 1 {
		return core.NewConfigError("confidence_level", "must be within (0, 1)")
	}
	if o.PlaceboTolerance <= 0 {
		return core.NewConfigError("placebo_tolerance", "must be positive")
	}
	if o.CommonCauseTolerance <= 0 {
		return core.NewConfigError("common_cause_tolerance", "must be positive")
	}
	if o.RefuteParallelism < 1 {
		return core.NewConfigError("refute_parallelism", "must be at least 1")
	}
	return nil
}
