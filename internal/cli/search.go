package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/khanglvm/movie-picker/internal/api"
	"github.com/khanglvm/movie-picker/internal/config"
	"github.com/khanglvm/movie-picker/internal/search"
)

// NewSearchCmd creates the 'search' command for catalog keyword lookup.
func NewSearchCmd() *cobra.Command {
	var (
		movies     string
		genre      string
		limit      int
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "search <keyword>...",
		Short: "Search movie titles by keyword",
		Long: `Search the movies CSV by title keyword.

Matching is case-insensitive, tolerates one typo per word and treats the
last word as a prefix, so "toy sto" finds "Toy Story (1995)". Use the
printed titles verbatim with 'moviepicker recommend'.`,
		Example: `  moviepicker search toy story
  moviepicker search alad --limit 3
  moviepicker search love --genre Comedy --json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("movies") {
				cfg.Data.Movies = movies
			}
			return runSearch(cfg, strings.Join(args, " "), genre, limit, jsonOutput, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&movies, "movies", "", "Movies CSV (movieId,title,genres)")
	cmd.Flags().StringVarP(&genre, "genre", "g", "", "Only movies with this genre")
	cmd.Flags().IntVarP(&limit, "limit", "l", search.DefaultLimit, "Maximum number of results")
	cmd.Flags().BoolVarP(&jsonOutput, "json", "j", false, "Output as JSON")

	return cmd
}

func runSearch(cfg *config.Config, keyword, genre string, limit int, jsonOutput bool, out io.Writer) error {
	if limit < 1 {
		return fmt.Errorf("--limit must be at least 1, got %d", limit)
	}

	indexer, err := openSearcher(cfg)
	if err != nil {
		return fmt.Errorf("failed to index movies: %w", err)
	}
	defer indexer.Close()

	var results []search.SearchResult
	if genre != "" {
		results, err = indexer.SearchByGenre(keyword, genre, limit)
	} else {
		results, err = indexer.SearchTitles(keyword, limit)
	}
	if err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(out, api.SearchResponse{Query: keyword, Results: results})
	}

	if len(results) == 0 {
		fmt.Fprintf(out, "No movies match %q.\n", keyword)
		return nil
	}

	fmt.Fprintf(out, "Found %d movies matching %q:\n\n", len(results), keyword)
	for _, r := range results {
		fmt.Fprintf(out, "  %-60s [%d]\n", r.Title, r.ID)
		if len(r.Genres) > 0 {
			fmt.Fprintf(out, "    %s\n", strings.Join(r.Genres, ", "))
		}
	}
	return nil
}
