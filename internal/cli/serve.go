package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/khanglvm/movie-picker/internal/api"
	"github.com/khanglvm/movie-picker/internal/config"
	"github.com/khanglvm/movie-picker/internal/dataset"
	"github.com/khanglvm/movie-picker/internal/logging"
	"github.com/khanglvm/movie-picker/internal/search"
)

// NewServeCmd creates the 'serve' command for running the HTTP API.
func NewServeCmd() *cobra.Command {
	var (
		addr string
		db   string
		name string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the recommendation HTTP API",
		Long: `Start the recommendation server.

The similarity index is loaded once at startup and shared read-only by all
requests. The movies CSV, when readable, backs GET /search.

Endpoints:
  POST /recommend  {"ratings": [["Toy Story", 5], ["Heat", 2]]}
  GET  /search     ?q=toy&limit=10
  GET  /health
  GET  /metrics

The server shuts down gracefully on SIGINT or SIGTERM.`,
		Example: `  # Serve the default index on :5000
  moviepicker serve

  # Custom address and index
  moviepicker serve --addr 127.0.0.1:8080 --name movies-content

  # Query it
  curl -s localhost:5000/recommend -d '{"ratings": [["Toy Story", 5]]}'`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			flags := cmd.Flags()
			if flags.Changed("addr") {
				cfg.Serve.Addr = addr
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

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			return runServe(ctx, cfg, cmd.OutOrStdout(), nil)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Listen address (default \":5000\", or $PORT)")
	cmd.Flags().StringVar(&db, "db", "", "Index database path")
	cmd.Flags().StringVarP(&name, "name", "n", "", "Index name")

	return cmd
}

// runServe serves until ctx is cancelled, a signal arrives or the listener
// fails. When ready is non-nil it receives the bound address once the
// listener is open.
func runServe(ctx context.Context, cfg *config.Config, out io.Writer, ready chan<- string) error {
	logger := logging.Component("serve")

	engine, meta, err := openEngine(ctx, cfg)
	if err != nil {
		return err
	}

	// Search is optional: serve recommendations even without the catalog.
	var searcher api.Searcher
	if indexer, err := openSearcher(cfg); err != nil {
		logger.Warn().Err(err).Str("movies", cfg.Data.Movies).Msg("search disabled")
	} else {
		defer indexer.Close()
		searcher = indexer
	}

	server := api.NewServer(engine, searcher, api.Options{
		CORSOrigins: cfg.Serve.CORSOrigins,
		RateLimit:   cfg.Serve.RateLimit,
		RateWindow:  cfg.Serve.RateWindow,
		MinRating:   cfg.Recommend.MinRating,
		MaxRating:   cfg.Recommend.MaxRating,
		IndexName:   meta.Name,
		BuildID:     meta.BuildID,
	}, logging.Logger())

	httpServer := &http.Server{
		Handler:      server.Router(),
		ReadTimeout:  cfg.Serve.ReadTimeout,
		WriteTimeout: cfg.Serve.WriteTimeout,
	}

	listener, err := net.Listen("tcp", cfg.Serve.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", cfg.Serve.Addr, err)
	}
	boundAddr := listener.Addr().String()

	// Setup signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	errChan := make(chan error, 1)
	go func() {
		errChan <- httpServer.Serve(listener)
	}()

	logger.Info().
		Str("addr", boundAddr).
		Str("index", meta.Name).
		Str("mode", string(engine.Mode())).
		Int("items", meta.Dim).
		Bool("search", searcher != nil).
		Msg("server started")
	fmt.Fprintf(out, "✓ Serving %s recommendations from %q (%d items) on %s\n", engine.Mode(), meta.Name, meta.Dim, boundAddr)
	if ready != nil {
		ready <- boundAddr
	}

	select {
	case sig := <-sigChan:
		logger.Info().Str("signal", sig.String()).Msg("shutting down gracefully")
	case <-ctx.Done():
		logger.Info().Msg("context cancelled, shutting down")
	case err := <-errChan:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Serve.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("error during shutdown: %w", err)
	}

	logger.Info().Msg("shutdown complete")
	return nil
}

// openSearcher indexes the movies CSV for keyword search.
func openSearcher(cfg *config.Config) (*search.Indexer, error) {
	cat, err := dataset.LoadCatalog(cfg.Data.Movies)
	if err != nil {
		return nil, err
	}

	indexer, err := search.NewIndexer()
	if err != nil {
		return nil, err
	}
	if err := indexer.IndexCatalog(cat); err != nil {
		indexer.Close()
		return nil, err
	}
	return indexer, nil
}
