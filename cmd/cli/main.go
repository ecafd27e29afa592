package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"

	"subsetlens/app"
	"subsetlens/internal/config"
	"subsetlens/internal/container"
	"subsetlens/internal/scoring"
	"subsetlens/ports"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "subsetlens",
		Short: "Subset aggregation and feature-selection scoring over CSV/XLSX files",
	}

	opts := &globalOptions{}
	rootCmd.PersistentFlags().StringVar(&opts.sheet, "sheet", "", "Excel sheet to read (default: first sheet)")
	rootCmd.PersistentFlags().IntVar(&opts.workers, "workers", 0, "Parallel scoring workers (default: SEARCH_WORKERS)")

	rootCmd.AddCommand(
		newAggregateCmd(opts),
		newRateCmd(opts),
		newSuggestCmd(opts),
		newSearchCmd(opts),
		newMetricsCmd(opts),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type globalOptions struct {
	sheet   string
	workers int
}

// selectionFlags are shared by every command that takes a selection
type selectionFlags struct {
	selected []string
	metric   string
	minSize  int
}

func (f *selectionFlags) register(cmd *cobra.Command, withMetric bool) {
	cmd.Flags().StringSliceVar(&f.selected, "select", nil, "Selected features, in order (comma separated)")
	if withMetric {
		cmd.Flags().StringVar(&f.metric, "metric", "", "Scoring metric (default: DEFAULT_METRIC)")
		cmd.Flags().IntVar(&f.minSize, "min-size", 0, "Ignore subsets smaller than this")
	}
}

func newAggregateCmd(opts *globalOptions) *cobra.Command {
	var flags selectionFlags
	cmd := &cobra.Command{
		Use:   "aggregate [file]",
		Short: "Split the dataset by the selected features and summarise each subset",
		Long: `Split the dataset into subsets by the bins of the selected features and print
the label and prediction summary of every subset as JSON.

Example: subsetlens aggregate people.csv --select age,income`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := setup(cmd.Context(), opts, args[0])
			if err != nil {
				return err
			}
			resp, err := c.Run(cmd.Context(), app.Request{Op: app.OpAggregate, Aggregate: &ports.AggregateRequest{
				Selection: ports.Selection{Selected: flags.selected},
			}})
			if err != nil {
				return err
			}
			return printJSON(resp.Aggregate)
		},
	}
	flags.register(cmd, false)
	return cmd
}

func newRateCmd(opts *globalOptions) *cobra.Command {
	var flags selectionFlags
	cmd := &cobra.Command{
		Use:   "rate [file]",
		Short: "Rate every unselected feature as the next split",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := setup(cmd.Context(), opts, args[0])
			if err != nil {
				return err
			}
			resp, err := c.Run(cmd.Context(), app.Request{Op: app.OpRatings, Ratings: &ports.RatingsRequest{
				Selection:     ports.Selection{Selected: flags.selected},
				Criterion:     scoring.MetricKind(flags.metric),
				MinSubsetSize: flags.minSize,
			}})
			if err != nil {
				return err
			}
			return printJSON(resp.Ratings)
		},
	}
	flags.register(cmd, true)
	return cmd
}

func newSuggestCmd(opts *globalOptions) *cobra.Command {
	var flags selectionFlags
	var topFeatures int
	var next bool
	cmd := &cobra.Command{
		Use:   "suggest [file]",
		Short: "Suggest single features, pairs and triples to add to the selection",
		Long: `Run the greedy search: score every available feature, keep the best ones and
try the pairs and triples among them that beat the average.

With --next only the best single feature is printed.

Example: subsetlens suggest people.csv --select age --metric errorPercent`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := setup(cmd.Context(), opts, args[0])
			if err != nil {
				return err
			}
			req := ports.SearchRequest{
				Selection:     ports.Selection{Selected: flags.selected},
				Criterion:     scoring.MetricKind(flags.metric),
				MinSubsetSize: flags.minSize,
				TopFeatures:   topFeatures,
			}
			op := app.OpCombinations
			if next {
				op = app.OpSuggestNext
			}
			resp, err := c.Run(cmd.Context(), app.Request{Op: op, Search: &req})
			if err != nil {
				return err
			}
			return printJSON(resp.Search)
		},
	}
	flags.register(cmd, true)
	cmd.Flags().IntVar(&topFeatures, "top", 0, "Number of single features to combine (default: SEARCH_TOP_FEATURES)")
	cmd.Flags().BoolVar(&next, "next", false, "Only print the best next feature")
	return cmd
}

func newSearchCmd(opts *globalOptions) *cobra.Command {
	var flags selectionFlags
	var topFeatures, maxLevels int
	var percent float64
	cmd := &cobra.Command{
		Use:   "search [file]",
		Short: "Find combinations of any size level by level",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := setup(cmd.Context(), opts, args[0])
			if err != nil {
				return err
			}
			resp, err := c.Run(cmd.Context(), app.Request{Op: app.OpSubsets, Search: &ports.SearchRequest{
				Selection:     ports.Selection{Selected: flags.selected},
				Criterion:     scoring.MetricKind(flags.metric),
				MinSubsetSize: flags.minSize,
				TopFeatures:   topFeatures,
				Percent:       percent,
				MaxLevels:     maxLevels,
			}})
			if err != nil {
				return err
			}
			return printJSON(resp.Search)
		},
	}
	flags.register(cmd, true)
	cmd.Flags().IntVar(&topFeatures, "top", 0, "Cap on first-level features (default: SEARCH_TOP_FEATURES)")
	cmd.Flags().Float64Var(&percent, "percent", 0, "Fraction of the previous level's lowest score a candidate must beat (default: SEARCH_PERCENT)")
	cmd.Flags().IntVar(&maxLevels, "levels", 0, "Largest combination size (default: SEARCH_MAX_LEVELS)")
	return cmd
}

func newMetricsCmd(opts *globalOptions) *cobra.Command {
	var chooseNone bool
	cmd := &cobra.Command{
		Use:   "metrics [file]",
		Short: "List the metrics that apply to the dataset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := setup(cmd.Context(), opts, args[0])
			if err != nil {
				return err
			}
			resp, err := c.Run(cmd.Context(), app.Request{Op: app.OpMetrics, Metrics: &ports.MetricsRequest{ChooseNone: chooseNone}})
			if err != nil {
				return err
			}
			return printJSON(resp.Metrics)
		},
	}
	cmd.Flags().BoolVar(&chooseNone, "none", false, "Default to no metric")
	return cmd
}

func setup(ctx context.Context, opts *globalOptions, file string) (*container.Container, error) {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	cfg.Data.File = file
	if opts.sheet != "" {
		cfg.Data.Sheet = opts.sheet
	}
	if opts.workers > 0 {
		cfg.Search.Workers = opts.workers
	}
	return container.New(ctx, cfg)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
