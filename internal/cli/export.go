package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/khanglvm/movie-picker/internal/config"
	"github.com/khanglvm/movie-picker/internal/similarity"
)

// NeighborEntry is one exported index row.
type NeighborEntry struct {
	Title     string     `json:"title"`
	Position  int        `json:"position"`
	Neighbors []Neighbor `json:"neighbors"`
}

// Neighbor is a similar title and its similarity.
type Neighbor struct {
	Title string  `json:"title"`
	Score float64 `json:"score"`
}

// NewExportCmd creates the export command.
func NewExportCmd() *cobra.Command {
	var (
		format    string
		output    string
		neighbors int
		name      string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export nearest neighbors of every title for grep/jq",
		Long: `Write the top neighbors of every title in the stored index.

Each record holds a title, its index position and its most similar titles
with their similarity. JSONL (one title per line) is the default so the
file can be searched with grep and jq.

Default output: ~/.moviepicker/<name>-neighbors.jsonl`,
		Example: `  # Export to default location
  moviepicker export

  # Export as JSON array, 5 neighbors per title
  moviepicker export --format json --neighbors 5 --output ./neighbors.json

Grep usage examples:
  # Titles similar to Heat
  grep '"Heat (1995)"' ~/.moviepicker/movies-neighbors.jsonl | head -1 | jq '.neighbors'

  # Every title
  jq -r '.title' ~/.moviepicker/movies-neighbors.jsonl`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("name") {
				cfg.Storage.Index = name
			}
			return runExport(cmd.Context(), cfg, format, output, neighbors, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&format, "format", "jsonl", "Output format: json or jsonl")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output path (default: ~/.moviepicker/<name>-neighbors.jsonl)")
	cmd.Flags().IntVarP(&neighbors, "neighbors", "k", 10, "Neighbors per title")
	cmd.Flags().StringVarP(&name, "name", "n", "", "Index name")

	return cmd
}

// runExport executes the export command.
func runExport(ctx context.Context, cfg *config.Config, format, output string, k int, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if format != "json" && format != "jsonl" {
		return fmt.Errorf("unknown format %q (use json or jsonl)", format)
	}
	if k < 1 {
		return fmt.Errorf("--neighbors must be at least 1, got %d", k)
	}

	idx, meta, err := loadIndex(ctx, cfg)
	if err != nil {
		return err
	}

	// Default output path
	if output == "" {
		dir, err := config.DefaultDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}
		ext := ".jsonl"
		if format == "json" {
			ext = ".json"
		}
		output = filepath.Join(dir, meta.Name+"-neighbors"+ext)
	}
	if err := os.MkdirAll(filepath.Dir(output), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	// Acquire file lock to prevent concurrent writes
	lockFile, err := acquireFileLock(output)
	if err != nil {
		return fmt.Errorf("failed to acquire file lock: %w", err)
	}
	defer releaseFileLock(lockFile) //nolint:errcheck // best effort cleanup

	if err := writeExport(neighborEntries(idx, k), output, format); err != nil {
		return err
	}

	fmt.Fprintf(out, "✓ Exported %d titles from %q to %s\n", idx.Dim(), meta.Name, output)
	return nil
}

func neighborEntries(idx *similarity.Index, k int) []NeighborEntry {
	entries := make([]NeighborEntry, idx.Dim())
	for i := range entries {
		row := idx.Neighbors(i, k)
		ns := make([]Neighbor, len(row))
		for j, n := range row {
			ns[j] = Neighbor{Title: n.Title, Score: n.Score}
		}
		entries[i] = NeighborEntry{Title: idx.Title(i), Position: i, Neighbors: ns}
	}
	return entries
}

// writeExport writes entries to path as a JSON array or as JSONL.
func writeExport(entries []NeighborEntry, path, format string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)

	if format == "json" {
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(entries); err != nil {
			return fmt.Errorf("failed to encode entries: %w", err)
		}
		return nil
	}

	for _, entry := range entries {
		if err := encoder.Encode(entry); err != nil {
			return fmt.Errorf("failed to encode entry: %w", err)
		}
	}
	return nil
}
