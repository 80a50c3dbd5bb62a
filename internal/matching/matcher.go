// Package matching builds caliper-constrained nearest-neighbor matched
// samples on propensity score.
package matching

import (
	"fmt"
	"math"
	"sort"

	"gocausal/domain/causal"
)

// CaliperMatcher matches each treated unit to its k nearest controls by
// propensity score, subject to a maximum score distance (the caliper).
//
// Controls are sorted by score once so each treated lookup is a binary
// search plus an outward scan, bounding the cost near O(|T| log |C|)
// instead of the naive O(|T|·|C|) pass.
type CaliperMatcher struct{}

// NewCaliperMatcher creates the reference matcher.
func NewCaliperMatcher() *CaliperMatcher {
	return &CaliperMatcher{}
}

type candidate struct {
	idx   int // index into dataset units
	score float64
	id    string
}

// Match pairs treated and control units. Treated units are processed in
// ascending score order with id as tie-break, so matching is reproducible
// across runs on the same input. Treated units with no valid control
// inside the caliper are recorded as unmatched, not treated as an error.
func (m *CaliperMatcher) Match(ds *causal.Dataset, scores []float64, opts causal.Options) (causal.MatchResult, error) {
	if len(scores) != ds.Len() {
		return causal.MatchResult{}, fmt.Errorf("score column length %d, dataset has %d units", len(scores), ds.Len())
	}

	var treated, controls []candidate
	for i, u := range ds.Units {
		c := candidate{idx: i, score: scores[i], id: u.ID}
		if u.Treatment {
			treated = append(treated, c)
		} else {
			controls = append(controls, c)
		}
	}
	sortCandidates(treated)
	sortCandidates(controls)

	result := causal.MatchResult{ControlUseCount: make(map[string]int)}
	available := make([]bool, len(controls))
	for i := range available {
		available[i] = true
	}
	withReplacement := opts.Policy == causal.WithReplacement

	for _, t := range treated {
		neighbors := nearestWithinCaliper(controls, available, t.score, opts.Caliper, opts.KNeighbors, withReplacement)
		if len(neighbors) == 0 {
			result.UnmatchedTreated = append(result.UnmatchedTreated, t.id)
			continue
		}
		for _, ci := range neighbors {
			c := controls[ci]
			result.Pairs = append(result.Pairs, causal.MatchedPair{
				TreatedID:  t.id,
				ControlID:  c.id,
				TreatedIdx: t.idx,
				ControlIdx: c.idx,
				Distance:   math.Abs(t.score - c.score),
			})
			result.ControlUseCount[c.id]++
			if !withReplacement {
				available[ci] = false
			}
		}
	}
	return result, nil
}

// nearestWithinCaliper returns up to k control positions ordered by
// distance from score, all within the caliper. Without replacement only
// still-available controls qualify, and a treated unit gets either its
// full k neighbors or none: partial matches would mix 1:k and 1:j pairs
// in one estimate.
func nearestWithinCaliper(controls []candidate, available []bool, score, caliper float64, k int, withReplacement bool) []int {
	n := len(controls)
	if n == 0 {
		return nil
	}
	// First control with score >= target.
	pos := sort.Search(n, func(i int) bool { return controls[i].score >= score })

	lo, hi := pos-1, pos
	picked := make([]int, 0, k)
	for len(picked) < k {
		lo = retreat(controls, available, lo, withReplacement)
		hi = advance(controls, available, hi, withReplacement)

		loDist, hiDist := math.Inf(1), math.Inf(1)
		if lo >= 0 {
			loDist = score - controls[lo].score
		}
		if hi < n {
			hiDist = controls[hi].score - score
		}
		if loDist > caliper && hiDist > caliper {
			break
		}
		if loDist <= hiDist {
			picked = append(picked, lo)
			lo--
		} else {
			picked = append(picked, hi)
			hi++
		}
	}
	if len(picked) < k {
		return nil
	}
	return picked
}

func retreat(controls []candidate, available []bool, i int, withReplacement bool) int {
	for i >= 0 && !withReplacement && !available[i] {
		i--
	}
	return i
}

func advance(controls []candidate, available []bool, i int, withReplacement bool) int {
	for i < len(controls) && !withReplacement && !available[i] {
		i++
	}
	return i
}

func sortCandidates(cs []candidate) {
	sort.Slice(cs, func(i, j int) bool {
		if cs[i].score != cs[j].score {
			return cs[i].score < cs[j].score
		}
		return cs[i].id < cs[j].id
	})
}
