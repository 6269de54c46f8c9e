package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/khanglvm/movie-picker/internal/config"
)

// NewIndexesCmd creates the 'indexes' command for listing stored indexes.
func NewIndexesCmd() *cobra.Command {
	var (
		jsonOutput bool
		remove     string
	)

	cmd := &cobra.Command{
		Use:     "indexes",
		Aliases: []string{"ls"},
		Short:   "List stored similarity indexes",
		Long:    `Display every index stored in the index database, newest first.`,
		Example: `  moviepicker indexes
  moviepicker ls --json
  moviepicker indexes --delete movies-content`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if remove != "" {
				return runDeleteIndex(cmd.Context(), cfg, remove, cmd.OutOrStdout())
			}
			return runIndexes(cmd.Context(), cfg, jsonOutput, cmd.OutOrStdout())
		},
	}

	cmd.Flags().BoolVarP(&jsonOutput, "json", "j", false, "Output as JSON")
	cmd.Flags().StringVar(&remove, "delete", "", "Delete the named index")

	return cmd
}

// runIndexes displays all stored indexes.
func runIndexes(ctx context.Context, cfg *config.Config, jsonOutput bool, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	metas, err := store.ListIndexes(ctx)
	if err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(out, metas)
	}

	if len(metas) == 0 {
		fmt.Fprintln(out, "No indexes stored.")
		fmt.Fprintln(out, "Run 'moviepicker build' to create one.")
		return nil
	}

	fmt.Fprintf(out, "Stored indexes (%d) in %s:\n\n", len(metas), store.Path())
	for _, m := range metas {
		marker := ""
		if m.Name == cfg.Storage.Index {
			marker = " (active)"
		}
		fmt.Fprintf(out, "  %s%s\n", m.Name, marker)
		fmt.Fprintf(out, "    Kind:      %s\n", m.Kind)
		fmt.Fprintf(out, "    Items:     %d\n", m.Dim)
		if m.Kind == "content" {
			fmt.Fprintf(out, "    Max items: %d\n", m.Threshold)
		} else {
			fmt.Fprintf(out, "    Threshold: %d\n", m.Threshold)
		}
		fmt.Fprintf(out, "    Build ID:  %s\n", m.BuildID)
		fmt.Fprintf(out, "    Created:   %s\n", m.CreatedAt.Format("2006-01-02 15:04:05 MST"))
		fmt.Fprintln(out)
	}
	return nil
}

func runDeleteIndex(ctx context.Context, cfg *config.Config, name string, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.DeleteIndex(ctx, name); err != nil {
		return err
	}

	fmt.Fprintf(out, "✓ Deleted index %q\n", name)
	return nil
}
