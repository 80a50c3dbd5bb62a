// Package app orchestrates full analyses: estimation, refutation,
// uplift breakdown, and report assembly.
package app

import (
	"context"
	"fmt"
	"sort"
	"time"

	"gocausal/domain/causal"
	"gocausal/domain/core"
	"gocausal/domain/run"
	"gocausal/internal"
	"gocausal/internal/pipeline"
	"gocausal/internal/refute"
	"gocausal/ports"
)

// CodeVersion participates in the run fingerprint so estimates from
// different engine revisions are never mistaken for replays.
const CodeVersion = "gocausal/1"

// maxSegmentCardinality bounds uplift analysis to low-cardinality
// segment columns; anything wider is a continuous covariate, not a segment.
const maxSegmentCardinality = 10

// AnalysisService runs the estimation pipeline plus the refutation suite
// and assembles the structured report.
type AnalysisService struct {
	pipe       *pipeline.Pipeline
	streams    ports.RNGPort
	dispatcher *refute.Dispatcher
	repo       ports.ReportRepository // nil disables persistence
	logger     *internal.Logger
}

// NewAnalysisService wires the service. repo may be nil.
func NewAnalysisService(pipe *pipeline.Pipeline, streams ports.RNGPort, repo ports.ReportRepository, logger *internal.Logger) *AnalysisService {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &AnalysisService{
		pipe:       pipe,
		streams:    streams,
		dispatcher: refute.NewDispatcher(streams),
		repo:       repo,
		logger:     logger,
	}
}

// RunAnalysis executes the full flow against an immutable dataset:
// naive gap, causal estimate, both refutation tests, overall verdict.
func (s *AnalysisService) RunAnalysis(ctx context.Context, ds *causal.Dataset, opts causal.Options) (*causal.AnalysisReport, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	id := core.AnalysisID(core.NewID())
	fingerprint := run.NewFingerprint(ds.Hash(), opts, CodeVersion)
	s.logger.Info("analysis %s: %d units, %d treated, fingerprint %.12s",
		id, ds.Len(), ds.TreatedCount(), fingerprint.Fingerprint)

	// Streams key off the fingerprint, not the analysis ID, so replays
	// with the same inputs are bit-identical.
	rng, err := s.streams.Stream(ctx, string(fingerprint.Fingerprint), "estimate", opts.Seed)
	if err != nil {
		return nil, err
	}
	estimate, err := s.pipe.Run(ctx, ds, opts, causal.EstimandATT, rng)
	if err != nil {
		return nil, err
	}
	for _, w := range estimate.Warnings {
		s.logger.Warn("analysis %s: %s", id, w.Message)
	}

	naive := s.pipe.NaiveDifference(ds)
	s.logger.Info("analysis %s: naive %.2f, causal %.2f (SE %.2f, %d pairs)",
		id, naive, estimate.Estimate, estimate.StdErr, estimate.PairCount)

	refuters := []refute.Refuter{
		refute.NewPlaceboTreatment(s.pipe),
		refute.NewRandomCommonCause(s.pipe),
	}
	refutations, err := s.dispatcher.RunAll(ctx, string(fingerprint.Fingerprint), ds, opts, estimate, refuters)
	if err != nil {
		return nil, err
	}
	for _, r := range refutations {
		if r.Passed {
			s.logger.Info("analysis %s: refutation %s passed (perturbed %.4f)", id, r.Test, r.PerturbedEstimate)
		} else {
			s.logger.Warn("analysis %s: refutation %s failed: %s", id, r.Test, r.FailureReason)
		}
	}

	report := &causal.AnalysisReport{
		ID:            id,
		DatasetHash:   fingerprint.DatasetHash,
		Fingerprint:   fingerprint.Fingerprint,
		Options:       opts,
		NaiveEstimate: naive,
		Estimate:      *estimate,
		Refutations:   refutations,
		Verdict:       refute.OverallVerdict(refutations),
		CreatedAt:     time.Now().UTC(),
	}

	if s.repo != nil {
		if err := s.repo.Save(ctx, report); err != nil {
			// Persistence is a side concern; the analysis itself succeeded.
			s.logger.Error("analysis %s: persist failed: %v", id, err)
		}
	}
	return report, nil
}

// Uplift estimates the causal effect separately per segment of one
// confounder column, answering "who responds best". The segment column is
// removed from the confounder set of each subset run to avoid
// collinearity with the segmentation itself.
func (s *AnalysisService) Uplift(ctx context.Context, ds *causal.Dataset, opts causal.Options, segmentColumn string) (*causal.UpliftResult, error) {
	idx, err := ds.Schema.Index(segmentColumn)
	if err != nil {
		return nil, err
	}

	values := distinctValues(ds, idx)
	if len(values) < 2 {
		return nil, fmt.Errorf("segment column %q has fewer than 2 distinct values", segmentColumn)
	}
	if len(values) > maxSegmentCardinality {
		return nil, fmt.Errorf("segment column %q has %d distinct values, maximum %d",
			segmentColumn, len(values), maxSegmentCardinality)
	}

	result := &causal.UpliftResult{SegmentColumn: segmentColumn}
	for _, v := range values {
		v := v
		subset := ds.Subset(func(u causal.Unit) bool { return u.Confounders[idx] == v })
		subset, subErr := subset.WithoutConfounder(segmentColumn)
		if subErr != nil {
			return nil, subErr
		}

		effect := causal.SegmentEffect{
			Segment:   fmt.Sprintf("%s=%g", segmentColumn, v),
			Value:     v,
			UnitCount: subset.Len(),
		}
		rng, rngErr := s.streams.SeededStream(ctx, "uplift/"+effect.Segment, opts.Seed)
		if rngErr != nil {
			return nil, rngErr
		}
		estimate, runErr := s.pipe.Run(ctx, subset, opts, causal.EstimandATT, rng)
		if runErr != nil {
			// A segment too small to estimate is reported, not fatal.
			effect.Error = runErr.Error()
			s.logger.Warn("uplift segment %s: %v", effect.Segment, runErr)
		} else {
			effect.Estimate = estimate
		}
		result.Segments = append(result.Segments, effect)
	}

	if first, last := result.Segments[0].Estimate, result.Segments[len(result.Segments)-1].Estimate; first != nil && last != nil {
		result.UpliftDelta = last.Estimate - first.Estimate
	}
	return result, nil
}

// RunAnalysisWithUplift runs the full analysis and attaches the segment
// breakdown when a segment column is given.
func (s *AnalysisService) RunAnalysisWithUplift(ctx context.Context, ds *causal.Dataset, opts causal.Options, segmentColumn string) (*causal.AnalysisReport, error) {
	report, err := s.RunAnalysis(ctx, ds, opts)
	if err != nil {
		return nil, err
	}
	if segmentColumn != "" {
		uplift, err := s.Uplift(ctx, ds, opts, segmentColumn)
		if err != nil {
			return nil, err
		}
		report.Uplift = uplift
		if s.repo != nil {
			if err := s.repo.Save(ctx, report); err != nil {
				s.logger.Error("analysis %s: persist with uplift failed: %v", report.ID, err)
			}
		}
	}
	return report, nil
}

func distinctValues(ds *causal.Dataset, confounderIdx int) []float64 {
	seen := make(map[float64]struct{})
	for _, u := range ds.Units {
		seen[u.Confounders[confounderIdx]] = struct{}{}
	}
	values := make([]float64, 0, len(seen))
	for v := range seen {
		values = append(values, v)
	}
	sort.Float64s(values)
	return values
}
