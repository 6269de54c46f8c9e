/*
Package cli implements the moviepicker commands.

Every command loads configuration through loadConfig, so the --config and
--verbose persistent flags of the root command apply everywhere. Command
flags that are set explicitly override the loaded configuration.

Progress messages go to the command's output writer; structured logs go to
stderr through internal/logging.
*/
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/khanglvm/movie-picker/internal/config"
	"github.com/khanglvm/movie-picker/internal/logging"
	"github.com/khanglvm/movie-picker/internal/recommend"
	"github.com/khanglvm/movie-picker/internal/similarity"
	"github.com/khanglvm/movie-picker/internal/storage"
)

// loadConfig reads configuration for cmd and initializes logging.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	var path string
	if f := cmd.Flag("config"); f != nil {
		path = f.Value.String()
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	if f := cmd.Flag("verbose"); f != nil && f.Value.String() == "true" {
		cfg.Logging.Level = "debug"
	}
	logging.Init(cfg.Logging)

	if cfg.Source() != "" {
		logger := logging.Component("cli")
		logger.Debug().Str("path", cfg.Source()).Msg("config loaded")
	}
	return cfg, nil
}

// openStore opens the index database, which must already exist.
func openStore(cfg *config.Config) (*storage.SQLiteStore, error) {
	path := config.ExpandPath(cfg.Storage.Path)
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("index database not found: %s\n\n💡 Run 'moviepicker build' first", path)
		}
		return nil, fmt.Errorf("failed to access index database: %w", err)
	}

	store := storage.NewStore(path)
	if err := store.Init(); err != nil {
		return nil, err
	}
	return store, nil
}

// loadIndex reads the configured index from the database.
func loadIndex(ctx context.Context, cfg *config.Config) (*similarity.Index, storage.Meta, error) {
	store, err := openStore(cfg)
	if err != nil {
		return nil, storage.Meta{}, err
	}
	defer store.Close()

	idx, meta, err := store.LoadIndex(ctx, cfg.Storage.Index)
	if err != nil {
		if errors.Is(err, storage.ErrIndexNotFound) {
			return nil, storage.Meta{}, fmt.Errorf("%w\n\n💡 Run 'moviepicker build --name %s' or list stored indexes with 'moviepicker indexes'", err, cfg.Storage.Index)
		}
		return nil, storage.Meta{}, err
	}
	return idx, meta, nil
}

// openEngine loads the configured index and wraps it in an engine.
func openEngine(ctx context.Context, cfg *config.Config) (*recommend.Engine, storage.Meta, error) {
	idx, meta, err := loadIndex(ctx, cfg)
	if err != nil {
		return nil, storage.Meta{}, err
	}

	strategy, err := recommend.NewStrategy(idx)
	if err != nil {
		return nil, storage.Meta{}, err
	}

	engine, err := recommend.NewEngine(strategy, recommend.Options{
		TopK:     cfg.Recommend.TopK,
		Midpoint: cfg.Recommend.Midpoint,
		Cutoff:   cfg.Recommend.Cutoff,
	}, logging.Logger())
	if err != nil {
		return nil, storage.Meta{}, err
	}

	logger := logging.Component("cli")
	logger.Debug().
		Str("index", meta.Name).
		Str("kind", meta.Kind).
		Int("dim", meta.Dim).
		Str("build_id", meta.BuildID).
		Msg("index loaded")
	return engine, meta, nil
}

// printJSON writes v as indented JSON.
func printJSON(w io.Writer, v interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
