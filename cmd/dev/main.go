package main

import (
	"fmt"
	"os"

	"subsetlens/adapters/tabular"
	"subsetlens/domain/dataset"
	"subsetlens/internal/testkit"

	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "subsetlens-dev",
		Short: "Subsetlens development tools",
	}

	rootCmd.AddCommand(newGenerateCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newGenerateCmd() *cobra.Command {
	config := testkit.DefaultGeneratorConfig()
	var regression bool
	var output string

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Write a synthetic dataset with planted signal features as CSV",
		Long: `Write a synthetic dataset whose labels depend only on the signal_* columns.
Predictions are mostly correct except where signal_1 < 20, so error metrics
have a weak spot to find.

Example: subsetlens-dev generate --rows 2000 --noise 6 -o data.csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			gen := testkit.NewDatasetGenerator(config)
			var table dataset.Table
			if regression {
				table = gen.RegressionTable()
			} else {
				table = gen.ClassificationTable()
			}

			out := os.Stdout
			if output != "" && output != "-" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("failed to create %s: %w", output, err)
				}
				defer f.Close()
				out = f
			}
			if err := tabular.WriteCSV(out, table); err != nil {
				return fmt.Errorf("failed to write CSV: %w", err)
			}
			if out != os.Stdout {
				fmt.Fprintf(os.Stderr, "wrote %d rows to %s\n", len(table.Records), output)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&config.Rows, "rows", config.Rows, "Number of rows")
	cmd.Flags().IntVar(&config.SignalFeatures, "signal", config.SignalFeatures, "Number of features the label depends on")
	cmd.Flags().IntVar(&config.NoiseFeatures, "noise", config.NoiseFeatures, "Number of unrelated numeric features")
	cmd.Flags().IntVar(&config.CategoricalFeatures, "categorical", config.CategoricalFeatures, "Number of unrelated categorical features")
	cmd.Flags().Float64Var(&config.LabelNoise, "label-noise", config.LabelNoise, "Fraction of flipped labels")
	cmd.Flags().BoolVar(&config.WithPredictions, "predictions", config.WithPredictions, "Include a prediction column")
	cmd.Flags().Int64Var(&config.Seed, "seed", config.Seed, "Random seed")
	cmd.Flags().BoolVar(&regression, "regression", false, "Generate numeric labels")
	cmd.Flags().StringVarP(&output, "output", "o", "-", "Output file, - for stdout")
	return cmd
}
