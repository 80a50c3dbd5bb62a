// Package estimating computes treatment effects from matched samples.
package estimating

import (
	"math"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat/distuv"

	"gocausal/domain/causal"
	"gocausal/domain/core"
)

// Estimator turns a matched-pair set into a point estimate with a
// paired-difference standard error and a normal-approximation interval.
type Estimator struct{}

// NewEstimator creates the reference estimator.
func NewEstimator() *Estimator {
	return &Estimator{}
}

// Estimate computes ATT (or ATE) over the matched sample.
//
// Each matched treated unit contributes one paired difference: its outcome
// minus the mean outcome of its matched controls. Under with-replacement
// matching the variance must account for multiply-matched controls, so
// differences are weighted by the inverse matching frequency of their
// controls and the standard error uses the effective sample size.
func (e *Estimator) Estimate(ds *causal.Dataset, match causal.MatchResult, opts causal.Options, estimand causal.Estimand) (*causal.EstimateResult, error) {
	diffs, weights := pairedDifferences(ds, match, opts)
	if len(diffs) < opts.MinMatches {
		return nil, core.NewInsufficientMatchesError(len(diffs), opts.MinMatches)
	}

	var estimate, se float64
	if opts.Policy == causal.WithReplacement && estimand == causal.EstimandATE {
		estimate, se = weightedMeanSE(diffs, weights)
	} else {
		estimate, se = meanSE(diffs)
	}

	z := distuv.Normal{Mu: 0, Sigma: 1}.Quantile(1 - (1-opts.ConfidenceLevel)/2)
	outcomeSD, _ := stats.StandardDeviationSample(ds.Outcomes())

	treatedCount := ds.TreatedCount()
	matchedTreated := match.MatchedTreatedCount()
	unmatched := len(match.UnmatchedTreated)
	unmatchedFrac := 0.0
	if treatedCount > 0 {
		unmatchedFrac = float64(unmatched) / float64(treatedCount)
	}

	return &causal.EstimateResult{
		Estimand:          estimand,
		Estimate:          estimate,
		StdErr:            se,
		CILower:           estimate - z*se,
		CIUpper:           estimate + z*se,
		ConfidenceLevel:   opts.ConfidenceLevel,
		PairCount:         len(match.Pairs),
		MatchedTreated:    matchedTreated,
		UnmatchedTreated:  unmatched,
		TreatedCount:      treatedCount,
		ControlCount:      ds.Len() - treatedCount,
		OutcomeStdDev:     outcomeSD,
		UnmatchedFraction: unmatchedFrac,
	}, nil
}

// NaiveDifference returns the unadjusted treated-minus-control mean gap,
// reported beside the causal estimate to expose the selection bias.
func (e *Estimator) NaiveDifference(ds *causal.Dataset) float64 {
	var sumT, sumC float64
	var nT, nC int
	for _, u := range ds.Units {
		if u.Treatment {
			sumT += u.Outcome
			nT++
		} else {
			sumC += u.Outcome
			nC++
		}
	}
	if nT == 0 || nC == 0 {
		return 0
	}
	return sumT/float64(nT) - sumC/float64(nC)
}

// pairedDifferences groups pairs by treated unit. With k neighbors the
// control outcomes are averaged per treated unit. The weight attached to
// each difference is the mean inverse matching frequency of its controls.
func pairedDifferences(ds *causal.Dataset, match causal.MatchResult, opts causal.Options) (diffs, weights []float64) {
	type group struct {
		treatedIdx int
		controlSum float64
		weightSum  float64
		n          int
	}
	order := make([]string, 0)
	groups := make(map[string]*group)
	for _, p := range match.Pairs {
		g, ok := groups[p.TreatedID]
		if !ok {
			g = &group{treatedIdx: p.TreatedIdx}
			groups[p.TreatedID] = g
			order = append(order, p.TreatedID)
		}
		g.controlSum += ds.Units[p.ControlIdx].Outcome
		g.weightSum += 1 / float64(match.ControlUseCount[p.ControlID])
		g.n++
	}

	diffs = make([]float64, 0, len(order))
	weights = make([]float64, 0, len(order))
	for _, id := range order {
		g := groups[id]
		diffs = append(diffs, ds.Units[g.treatedIdx].Outcome-g.controlSum/float64(g.n))
		weights = append(weights, g.weightSum/float64(g.n))
	}
	return diffs, weights
}

func meanSE(diffs []float64) (float64, float64) {
	mean, _ := stats.Mean(diffs)
	sd, err := stats.StandardDeviationSample(diffs)
	if err != nil {
		return mean, 0
	}
	return mean, sd / math.Sqrt(float64(len(diffs)))
}

// weightedMeanSE computes the reweighted mean and a standard error based
// on the effective sample size (Kish), which shrinks when a few controls
// are reused across many pairs.
func weightedMeanSE(diffs, weights []float64) (float64, float64) {
	var sumW, sumW2, sum float64
	for i, d := range diffs {
		w := weights[i]
		sum += w * d
		sumW += w
		sumW2 += w * w
	}
	if sumW == 0 {
		return 0, 0
	}
	mean := sum / sumW

	var varSum float64
	for i, d := range diffs {
		varSum += weights[i] * (d - mean) * (d - mean)
	}
	variance := varSum / sumW
	ess := sumW * sumW / sumW2
	if ess <= 1 {
		return mean, 0
	}
	return mean, math.Sqrt(variance / ess)
}
