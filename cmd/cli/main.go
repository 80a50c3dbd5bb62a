package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"gocausal/adapters/excel"
	"gocausal/adapters/rng"
	"gocausal/app"
	"gocausal/domain/causal"
	"gocausal/internal"
	"gocausal/internal/pipeline"
	"gocausal/internal/testkit"
)

func main() {
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:   "gocausal",
		Short: "Causal effect estimation with propensity-score matching and refutation tests",
	}

	rootCmd.AddCommand(
		newGenerateCmd(),
		newEstimateCmd(),
		newAnalyzeCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newGenerateCmd() *cobra.Command {
	cfg := testkit.DefaultExperimentConfig()
	var out string

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a synthetic confounded experiment dataset as CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, err := testkit.NewExperimentGenerator(cfg).Generate()
			if err != nil {
				return err
			}
			mapping := excel.Mapping{
				IDColumn:        "id",
				TreatmentColumn: "used_new_feature",
				OutcomeColumn:   "total_spend",
			}
			if err := excel.WriteCSV(out, ds, mapping); err != nil {
				return err
			}
			fmt.Printf("wrote %d units to %s\n", ds.Len(), out)
			return nil
		},
	}

	cmd.Flags().IntVar(&cfg.SampleCount, "samples", cfg.SampleCount, "number of units to generate")
	cmd.Flags().Float64Var(&cfg.TrueEffect, "effect", cfg.TrueEffect, "true causal uplift in dollars")
	cmd.Flags().Int64Var(&cfg.Seed, "seed", cfg.Seed, "random seed")
	cmd.Flags().StringVar(&out, "out", "experiment_data.csv", "output CSV path")
	return cmd
}

type datasetFlags struct {
	file        string
	idCol       string
	treatCol    string
	outcomeCol  string
	confounders []string
}

func (f *datasetFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.file, "file", "", "input dataset (.csv or .xlsx)")
	cmd.Flags().StringVar(&f.idCol, "id-column", "id", "unit identifier column")
	cmd.Flags().StringVar(&f.treatCol, "treatment-column", "used_new_feature", "binary treatment column")
	cmd.Flags().StringVar(&f.outcomeCol, "outcome-column", "total_spend", "continuous outcome column")
	cmd.Flags().StringSliceVar(&f.confounders, "confounders", []string{"account_age", "is_power_user"}, "confounder columns, in schema order")
	cmd.MarkFlagRequired("file")
}

func (f *datasetFlags) load(ctx context.Context) (*causal.Dataset, error) {
	reader := excel.NewDataReader(f.file, excel.Mapping{
		IDColumn:          f.idCol,
		TreatmentColumn:   f.treatCol,
		OutcomeColumn:     f.outcomeCol,
		ConfounderColumns: f.confounders,
	})
	return reader.Load(ctx)
}

type optionFlags struct {
	caliper     float64
	replacement bool
	kNeighbors  int
	minMatches  int
	seed        int64
}

func (f *optionFlags) register(cmd *cobra.Command) {
	defaults := causal.DefaultOptions()
	cmd.Flags().Float64Var(&f.caliper, "caliper", defaults.Caliper, "maximum propensity-score distance for a match")
	cmd.Flags().BoolVar(&f.replacement, "with-replacement", false, "allow controls to be matched multiple times")
	cmd.Flags().IntVar(&f.kNeighbors, "k", defaults.KNeighbors, "controls matched per treated unit")
	cmd.Flags().IntVar(&f.minMatches, "min-matches", defaults.MinMatches, "minimum matched pairs required")
	cmd.Flags().Int64Var(&f.seed, "seed", defaults.Seed, "random seed")
}

func (f *optionFlags) options() causal.Options {
	opts := causal.DefaultOptions()
	opts.Caliper = f.caliper
	if f.replacement {
		opts.Policy = causal.WithReplacement
	}
	opts.KNeighbors = f.kNeighbors
	opts.MinMatches = f.minMatches
	opts.Seed = f.seed
	return opts
}

func newService() *app.AnalysisService {
	return app.NewAnalysisService(pipeline.New(nil, nil), rng.NewStreamFactory(), nil, internal.NewDefaultLogger())
}

func newEstimateCmd() *cobra.Command {
	var dsFlags datasetFlags
	var optFlags optionFlags

	cmd := &cobra.Command{
		Use:   "estimate",
		Short: "Estimate the causal effect without refutation tests",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ds, err := dsFlags.load(ctx)
			if err != nil {
				return err
			}
			opts := optFlags.options()
			if err := opts.Validate(); err != nil {
				return err
			}

			pipe := pipeline.New(nil, nil)
			streams := rng.NewStreamFactory()
			stream, err := streams.SeededStream(ctx, "estimate", opts.Seed)
			if err != nil {
				return err
			}
			estimate, err := pipe.Run(ctx, ds, opts, causal.EstimandATT, stream)
			if err != nil {
				return err
			}

			fmt.Printf("naive estimate:   $%.2f\n", pipe.NaiveDifference(ds))
			fmt.Printf("causal estimate:  $%.2f  (%.0f%% CI [$%.2f, $%.2f], %d pairs)\n",
				estimate.Estimate, estimate.ConfidenceLevel*100,
				estimate.CILower, estimate.CIUpper, estimate.PairCount)
			for _, w := range estimate.Warnings {
				fmt.Printf("warning: %s\n", w.Message)
			}
			return nil
		},
	}
	dsFlags.register(cmd)
	optFlags.register(cmd)
	return cmd
}

func newAnalyzeCmd() *cobra.Command {
	var dsFlags datasetFlags
	var optFlags optionFlags
	var segment, jsonOut, reportOut string

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Run the full analysis: estimate, refutation tests, verdict",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ds, err := dsFlags.load(ctx)
			if err != nil {
				return err
			}

			report, err := newService().RunAnalysisWithUplift(ctx, ds, optFlags.options(), segment)
			if err != nil {
				return err
			}

			if jsonOut != "" {
				payload, err := json.MarshalIndent(report, "", "  ")
				if err != nil {
					return err
				}
				if err := os.WriteFile(jsonOut, payload, 0o644); err != nil {
					return err
				}
			}
			if reportOut != "" {
				if err := os.WriteFile(reportOut, []byte(app.RenderMarkdown(report)), 0o644); err != nil {
					return err
				}
			}

			fmt.Print(app.RenderMarkdown(report))
			return nil
		},
	}
	dsFlags.register(cmd)
	optFlags.register(cmd)
	cmd.Flags().StringVar(&segment, "segment", "", "confounder column for uplift breakdown")
	cmd.Flags().StringVar(&jsonOut, "json-out", "", "write the structured report to this JSON file")
	cmd.Flags().StringVar(&reportOut, "report-out", "", "write the markdown report to this file")
	return cmd
}
