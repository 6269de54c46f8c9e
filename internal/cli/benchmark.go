package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/khanglvm/movie-picker/internal/benchmark"
	"github.com/khanglvm/movie-picker/internal/config"
)

// benchmarkOptions groups the benchmark flags.
type benchmarkOptions struct {
	iterations  int
	profiles    int
	profileSize int
	seed        uint64
	jsonOutput  bool
}

// NewBenchmarkCmd creates the 'benchmark' command for latency testing.
func NewBenchmarkCmd() *cobra.Command {
	opts := benchmarkOptions{}

	cmd := &cobra.Command{
		Use:   "benchmark",
		Short: "Measure recommendation latency against the stored index",
		Long: `Load the index once and score random profiles drawn from its titles.

Every profile is scored --iterations times. The report shows latency
percentiles and throughput of the in-process engine, without HTTP.`,
		Example: `  # Run benchmark with defaults (200 profiles x 5 ratings, 3 iterations)
  moviepicker benchmark

  # Larger profiles, JSON output
  moviepicker benchmark --size 20 --iterations 5 --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return runBenchmark(cmd.Context(), cfg, opts, cmd.OutOrStdout())
		},
	}

	cmd.Flags().IntVarP(&opts.iterations, "iterations", "i", 3, "Passes over the profile set")
	cmd.Flags().IntVarP(&opts.profiles, "profiles", "p", 200, "Number of random profiles")
	cmd.Flags().IntVarP(&opts.profileSize, "size", "s", 5, "Ratings per profile")
	cmd.Flags().Uint64Var(&opts.seed, "seed", 42, "Random seed for profile generation")
	cmd.Flags().BoolVarP(&opts.jsonOutput, "json", "j", false, "Output as JSON")

	return cmd
}

// runBenchmark executes the latency benchmark.
func runBenchmark(ctx context.Context, cfg *config.Config, opts benchmarkOptions, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if opts.profiles < 1 || opts.profileSize < 1 {
		return fmt.Errorf("--profiles and --size must be at least 1")
	}

	engine, meta, err := openEngine(ctx, cfg)
	if err != nil {
		return err
	}

	profiles := benchmark.RandomProfiles(engine.Titles(), opts.profiles, opts.profileSize, opts.seed)
	result, err := benchmark.Run(ctx, engine, profiles, opts.iterations)
	if err != nil {
		return err
	}

	if opts.jsonOutput {
		return printJSON(out, result)
	}

	fmt.Fprintln(out)
	fmt.Fprint(out, benchmark.FormatResult(result))
	fmt.Fprintf(out, "\nIndex %q: %d items, build %s\n\n", meta.Name, meta.Dim, meta.BuildID)
	return nil
}
