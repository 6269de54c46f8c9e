/*
Package main is the entry point for the moviepicker CLI.

moviepicker recommends movies from a handful of rated titles using an
item-item similarity index built offline from MovieLens ratings.

Usage:
  moviepicker [command]

Available Commands:
  build       Build the similarity index from MovieLens CSV files
  serve       Run the recommendation HTTP API
  recommend   Recommend movies for a list of rated titles
  search      Search movie titles by keyword
  export      Export nearest neighbors of every title
  indexes     List stored similarity indexes
  benchmark   Measure recommendation latency
  config      Create or inspect the configuration file
  version     Show version information

Examples:
  # Build the index, then serve it on :5000
  moviepicker build --ratings ratings.csv --movies movies.csv
  moviepicker serve

  # One-shot recommendation
  moviepicker recommend -r "Toy Story (1995)=5" -r "Heat=2"
*/
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/khanglvm/movie-picker/internal/cli"
	"github.com/khanglvm/movie-picker/internal/version"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "moviepicker",
		Short: "Item-item movie recommender",
		Long: `moviepicker turns a short list of (title, rating) pairs into a ranked
list of unseen movies.

The offline 'build' step keeps titles rated by more than a popularity
threshold, builds a title x user rating matrix and stores the pairwise
cosine similarity of its rows. 'serve' and 'recommend' fuzzily match the
rated titles against the index, weight each similarity row by the rating
minus the 2.5 midpoint, sum the rows and return the best unseen titles.

Configuration is read from --config, $MOVIEPICKER_CONFIG, ./moviepicker.yaml
or ~/.moviepicker/config.yaml, then MOVIEPICKER_* environment variables.`,
		Version:       version.GetVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().String("config", "", "Config file (YAML)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Debug logging")

	// Add subcommands
	rootCmd.AddCommand(cli.NewBuildCmd())
	rootCmd.AddCommand(cli.NewServeCmd())
	rootCmd.AddCommand(cli.NewRecommendCmd())
	rootCmd.AddCommand(cli.NewSearchCmd())
	rootCmd.AddCommand(cli.NewExportCmd())
	rootCmd.AddCommand(cli.NewIndexesCmd())
	rootCmd.AddCommand(cli.NewBenchmarkCmd())
	rootCmd.AddCommand(cli.NewConfigCmd())
	rootCmd.AddCommand(cli.NewVersionCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
