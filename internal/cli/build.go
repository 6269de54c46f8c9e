package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/khanglvm/movie-picker/internal/config"
	"github.com/khanglvm/movie-picker/internal/dataset"
	"github.com/khanglvm/movie-picker/internal/logging"
	"github.com/khanglvm/movie-picker/internal/matrix"
	"github.com/khanglvm/movie-picker/internal/metrics"
	"github.com/khanglvm/movie-picker/internal/similarity"
	"github.com/khanglvm/movie-picker/internal/storage"
)

// NewBuildCmd creates the 'build' command that computes and stores a
// similarity index.
func NewBuildCmd() *cobra.Command {
	var (
		ratings    string
		movies     string
		maxRatings int
		threshold  int
		mode       string
		workers    int
		maxItems   int
		db         string
		name       string
	)

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build the similarity index from MovieLens CSV files",
		Long: `Build an item-item similarity index and store it in the index database.

Modes:
  cosine   rating co-occurrence: titles with more than --threshold ratings
           become rows of a title x user matrix, compared by cosine similarity
  content  genre overlap between catalog entries, used by the anchor
           fallback recommender

An existing index with the same name is replaced atomically. The build
fails with a nonzero exit code when no title passes the threshold.`,
		Example: `  # Build from the default ratings.csv and movies.csv
  moviepicker build

  # MovieLens small dataset, lower popularity threshold
  moviepicker build --ratings ml-latest-small/ratings.csv \
    --movies ml-latest-small/movies.csv --threshold 50

  # Genre-based fallback index over the first 5000 movies
  moviepicker build --mode content --max-items 5000 --name movies-content`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			flags := cmd.Flags()
			if flags.Changed("ratings") {
				cfg.Data.Ratings = ratings
			}
			if flags.Changed("movies") {
				cfg.Data.Movies = movies
			}
			if flags.Changed("max-ratings") {
				cfg.Data.MaxRatings = maxRatings
			}
			if flags.Changed("threshold") {
				cfg.Build.Threshold = threshold
			}
			if flags.Changed("mode") {
				cfg.Build.Mode = mode
			}
			if flags.Changed("workers") {
				cfg.Build.Workers = workers
			}
			if flags.Changed("max-items") {
				cfg.Build.MaxItems = maxItems
			}
			if flags.Changed("db") {
				cfg.Storage.Path = db
			}
			if flags.Changed("name") {
				cfg.Storage.Index = name
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			return runBuild(cmd.Context(), cfg, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&ratings, "ratings", "", "Ratings CSV (userId,movieId,rating,timestamp)")
	cmd.Flags().StringVar(&movies, "movies", "", "Movies CSV (movieId,title,genres)")
	cmd.Flags().IntVar(&maxRatings, "max-ratings", 0, "Read at most N ratings rows (0 reads all)")
	cmd.Flags().IntVarP(&threshold, "threshold", "t", 0, "Keep titles with more than N ratings")
	cmd.Flags().StringVarP(&mode, "mode", "m", "", "Index mode: cosine or content")
	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "Parallel workers (0 uses all CPUs)")
	cmd.Flags().IntVar(&maxItems, "max-items", 0, "Content mode: index only the first N movies (default 5000, 0 keeps all)")
	cmd.Flags().StringVar(&db, "db", "", "Index database path (default ~/.moviepicker/index.db)")
	cmd.Flags().StringVarP(&name, "name", "n", "", "Index name (default \"movies\")")

	return cmd
}

// runBuild loads the CSV sources, builds the index and saves it.
func runBuild(ctx context.Context, cfg *config.Config, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	logger := logging.Component("build")
	start := time.Now()

	dbPath := config.ExpandPath(cfg.Storage.Path)
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return fmt.Errorf("failed to create index directory: %w", err)
	}

	// Serialize builds writing to the same database
	lockFile, err := acquireFileLock(dbPath)
	if err != nil {
		return err
	}
	defer releaseFileLock(lockFile) //nolint:errcheck // best effort cleanup

	cat, err := dataset.LoadCatalog(cfg.Data.Movies)
	if err != nil {
		return fmt.Errorf("failed to load movies: %w", err)
	}
	fmt.Fprintf(out, "Loaded %d movies from %s\n", cat.Len(), cfg.Data.Movies)

	opts := similarity.BuildOptions{
		Workers:  cfg.Build.Workers,
		MaxItems: cfg.Build.MaxItems,
	}

	var (
		idx       *similarity.Index
		stats     similarity.BuildStats
		threshold int
	)
	switch similarity.Kind(cfg.Build.Mode) {
	case similarity.KindContent:
		threshold = cfg.Build.MaxItems
		idx, stats, err = similarity.BuildContent(ctx, cat, opts)
		if err != nil {
			var tooLarge *similarity.ContentTooLargeError
			if errors.As(err, &tooLarge) {
				return fmt.Errorf("%w\n\n💡 Pass --max-items %d or lower", err, tooLarge.Limit)
			}
			return fmt.Errorf("failed to build content index: %w", err)
		}

	default:
		threshold = cfg.Build.Threshold
		events, err := dataset.LoadRatings(cfg.Data.Ratings, cfg.Data.MaxRatings)
		if err != nil {
			return fmt.Errorf("failed to load ratings: %w", err)
		}
		fmt.Fprintf(out, "Loaded %d ratings from %s\n", len(events), cfg.Data.Ratings)

		m, err := matrix.Build(events, cat, cfg.Build.Threshold)
		if err != nil {
			var empty *matrix.EmptyCatalogError
			if errors.As(err, &empty) {
				return fmt.Errorf("%w\n\n💡 Lower --threshold or read more rows with --max-ratings", err)
			}
			return fmt.Errorf("failed to build interaction matrix: %w", err)
		}
		fmt.Fprintf(out, "Matrix: %d titles x %d users (threshold > %d ratings)\n", m.Rows(), m.Cols(), cfg.Build.Threshold)

		idx, stats, err = similarity.BuildCosine(ctx, m, opts)
		if err != nil {
			return fmt.Errorf("failed to build cosine index: %w", err)
		}
	}

	metrics.RecordIndexBuild(string(idx.Kind()), stats.Duration, stats.Items, len(stats.Degenerate))
	if len(stats.Degenerate) > 0 {
		fmt.Fprintf(out, "Warning: %d items have no signal and score 0 against everything\n", len(stats.Degenerate))
	}

	store := storage.NewStore(dbPath)
	if err := store.Init(); err != nil {
		return err
	}
	defer store.Close()

	meta, err := store.SaveIndex(ctx, idx, storage.Meta{
		Name:      cfg.Storage.Index,
		Threshold: threshold,
	})
	if err != nil {
		return fmt.Errorf("failed to save index: %w", err)
	}

	logger.Info().
		Str("index", meta.Name).
		Str("kind", meta.Kind).
		Int("items", meta.Dim).
		Str("build_id", meta.BuildID).
		Dur("duration", time.Since(start)).
		Msg("index saved")

	fmt.Fprintf(out, "✓ Built %s index %q with %d items in %v\n", meta.Kind, meta.Name, meta.Dim, time.Since(start).Round(time.Millisecond))
	fmt.Fprintf(out, "  Build ID: %s\n", meta.BuildID)
	fmt.Fprintf(out, "  Saved to: %s\n", dbPath)
	return nil
}
