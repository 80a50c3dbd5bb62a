package causal

import (
	"time"

	"gocausal/domain/core"
)

// MatchedPair links one treated unit to one matched control with the
// absolute propensity-score distance between them.
type MatchedPair struct {
	TreatedID  string  `json:"treated_id"`
	ControlID  string  `json:"control_id"`
	TreatedIdx int     `json:"-"`
	ControlIdx int     `json:"-"`
	Distance   float64 `json:"distance"`
}

// MatchResult is the matcher output: the pair set plus unmatched accounting.
// Invariant: len(unique treated in Pairs) + len(UnmatchedTreated) equals the
// treated count of the input dataset.
type MatchResult struct {
	Pairs            []MatchedPair `json:"pairs"`
	UnmatchedTreated []string      `json:"unmatched_treated"`
	// ControlUseCount tracks reuse under with-replacement matching; every
	// count is 1 under without-replacement.
	ControlUseCount map[string]int `json:"control_use_count"`
}

// MatchedTreatedCount returns the number of distinct treated units matched.
func (m MatchResult) MatchedTreatedCount() int {
	seen := make(map[string]struct{}, len(m.Pairs))
	for _, p := range m.Pairs {
		seen[p.TreatedID] = struct{}{}
	}
	return len(seen)
}

// WarningKind tags non-fatal conditions returned alongside an estimate.
type WarningKind string

const (
	// WarnPoorOverlap flags insufficient common support between treated
	// and control propensity distributions.
	WarnPoorOverlap WarningKind = "poor_overlap"
)

// Warning is a non-fatal diagnostic; never silently swallowed.
type Warning struct {
	Kind    WarningKind `json:"kind"`
	Message string      `json:"message"`
}

// EstimateResult is the pipeline point estimate with its uncertainty.
type EstimateResult struct {
	Estimand          Estimand  `json:"estimand"`
	Estimate          float64   `json:"estimate"`
	StdErr            float64   `json:"std_err"`
	CILower           float64   `json:"ci_lower"`
	CIUpper           float64   `json:"ci_upper"`
	ConfidenceLevel   float64   `json:"confidence_level"`
	PairCount         int       `json:"pair_count"`
	MatchedTreated    int       `json:"matched_treated"`
	UnmatchedTreated  int       `json:"unmatched_treated"`
	TreatedCount      int       `json:"treated_count"`
	ControlCount      int       `json:"control_count"`
	OutcomeStdDev     float64   `json:"outcome_std_dev"`
	UnmatchedFraction float64   `json:"unmatched_fraction"`
	Warnings          []Warning `json:"warnings,omitempty"`
}

// RefutationTest identifies one perturbation check.
type RefutationTest string

const (
	TestPlaceboTreatment  RefutationTest = "placebo_treatment"
	TestRandomCommonCause RefutationTest = "random_common_cause"
)

// RefutationResult compares the original estimate against a perturbed
// re-estimate. A fatal error inside the perturbed run is reported here as
// a failed refutation, never hidden as a pass.
type RefutationResult struct {
	Test              RefutationTest `json:"test"`
	OriginalEstimate  float64        `json:"original_estimate"`
	PerturbedEstimate float64        `json:"perturbed_estimate"`
	Tolerance         float64        `json:"tolerance"`
	Passed            bool           `json:"passed"`
	FailureReason     string         `json:"failure_reason,omitempty"`
	Seed              int64          `json:"seed"`
}

// Verdict is the overall robustness call across all refutation tests.
type Verdict string

const (
	VerdictRobust  Verdict = "robust"
	VerdictFragile Verdict = "fragile"
)

// SegmentEffect is one per-segment causal estimate from uplift analysis.
type SegmentEffect struct {
	Segment   string          `json:"segment"`
	Value     float64         `json:"value"`
	Estimate  *EstimateResult `json:"estimate,omitempty"`
	Error     string          `json:"error,omitempty"`
	UnitCount int             `json:"unit_count"`
}

// UpliftResult holds the heterogeneous-effect breakdown for one segment
// column plus the delta between the extreme segments.
type UpliftResult struct {
	SegmentColumn string          `json:"segment_column"`
	Segments      []SegmentEffect `json:"segments"`
	UpliftDelta   float64         `json:"uplift_delta"`
}

// AnalysisReport is the full structured output of one analysis run.
type AnalysisReport struct {
	ID            core.AnalysisID    `json:"id"`
	DatasetHash   core.Hash          `json:"dataset_hash"`
	Fingerprint   core.Hash          `json:"fingerprint"`
	Options       Options            `json:"options"`
	NaiveEstimate float64            `json:"naive_estimate"`
	Estimate      EstimateResult     `json:"estimate"`
	Refutations   []RefutationResult `json:"refutations"`
	Verdict       Verdict            `json:"verdict"`
	Uplift        *UpliftResult      `json:"uplift,omitempty"`
	CreatedAt     time.Time          `json:"created_at"`
}

// BiasCorrected returns how much of the naive gap the matching removed.
func (r *AnalysisReport) BiasCorrected() float64 {
	return r.NaiveEstimate - r.Estimate.Estimate
}
