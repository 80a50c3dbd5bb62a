package app

import (
	"fmt"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"gocausal/domain/causal"
)

// RenderMarkdown assembles the executive summary for one analysis:
// naive vs causal estimate, the bias the matching removed, refutation
// verdicts, and the uplift breakdown when present.
func RenderMarkdown(r *causal.AnalysisReport) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Causal Analysis %s\n\n", r.ID)
	fmt.Fprintf(&b, "Run fingerprint: `%s`\n\n", r.Fingerprint)

	b.WriteString("## Executive Summary\n\n")
	b.WriteString("| Metric | Value |\n|---|---|\n")
	fmt.Fprintf(&b, "| Naive estimate (biased) | $%.2f |\n", r.NaiveEstimate)
	fmt.Fprintf(&b, "| Causal estimate (%s) | $%.2f |\n", strings.ToUpper(string(r.Estimate.Estimand)), r.Estimate.Estimate)
	fmt.Fprintf(&b, "| Bias corrected | $%.2f |\n", r.BiasCorrected())
	fmt.Fprintf(&b, "| %.0f%% confidence interval | [$%.2f, $%.2f] |\n",
		r.Estimate.ConfidenceLevel*100, r.Estimate.CILower, r.Estimate.CIUpper)
	fmt.Fprintf(&b, "| Matched pairs | %d |\n", r.Estimate.PairCount)
	fmt.Fprintf(&b, "| Unmatched treated | %d of %d |\n", r.Estimate.UnmatchedTreated, r.Estimate.TreatedCount)
	fmt.Fprintf(&b, "| Verdict | **%s** |\n\n", r.Verdict)

	for _, w := range r.Estimate.Warnings {
		fmt.Fprintf(&b, "> Warning: %s\n\n", w.Message)
	}

	b.WriteString("## Robustness Checks\n\n")
	b.WriteString("| Test | Perturbed estimate | Tolerance | Verdict |\n|---|---|---|---|\n")
	for _, ref := range r.Refutations {
		verdict := "passed"
		if !ref.Passed {
			verdict = "FAILED"
		}
		fmt.Fprintf(&b, "| %s | %.4f | %.4f | %s |\n",
			refutationLabel(ref.Test), ref.PerturbedEstimate, ref.Tolerance, verdict)
	}
	b.WriteString("\n")
	for _, ref := range r.Refutations {
		if !ref.Passed {
			fmt.Fprintf(&b, "- %s: %s\n", refutationLabel(ref.Test), ref.FailureReason)
		}
	}

	if r.Uplift != nil {
		fmt.Fprintf(&b, "\n## Uplift by %s\n\n", r.Uplift.SegmentColumn)
		b.WriteString("| Segment | Units | Causal impact |\n|---|---|---|\n")
		for _, seg := range r.Uplift.Segments {
			if seg.Estimate != nil {
				fmt.Fprintf(&b, "| %s | %d | $%.2f |\n", seg.Segment, seg.UnitCount, seg.Estimate.Estimate)
			} else {
				fmt.Fprintf(&b, "| %s | %d | unavailable: %s |\n", seg.Segment, seg.UnitCount, seg.Error)
			}
		}
		fmt.Fprintf(&b, "\nUplift delta between extreme segments: $%.2f\n", r.Uplift.UpliftDelta)
	}
	return b.String()
}

// RenderHTML renders the markdown report as a standalone HTML fragment.
func RenderHTML(r *causal.AnalysisReport) []byte {
	md := []byte(RenderMarkdown(r))
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.Tables)
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags})
	return markdown.ToHTML(md, p, renderer)
}

func refutationLabel(t causal.RefutationTest) string {
	switch t {
	case causal.TestPlaceboTreatment:
		return "Placebo treatment"
	case causal.TestRandomCommonCause:
		return "Random common cause"
	default:
		return string(t)
	}
}
