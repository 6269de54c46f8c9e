package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/khanglvm/movie-picker/internal/config"
)

// NewConfigCmd creates the 'config' command group.
func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Create or inspect the configuration file",
	}

	cmd.AddCommand(newConfigInitCmd())
	cmd.AddCommand(newConfigShowCmd())

	return cmd
}

func newConfigInitCmd() *cobra.Command {
	var (
		output string
		force  bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default configuration as YAML",
		Long: `Write the built-in defaults to a YAML file for editing.

An existing file is only replaced with --force; the previous version is
kept next to it with a .bak suffix.`,
		Example: `  moviepicker config init
  moviepicker config init --output ./moviepicker.yaml --force`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigInit(output, force, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Config path (default ~/.moviepicker/config.yaml)")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing file")

	return cmd
}

func runConfigInit(output string, force bool, out io.Writer) error {
	if output == "" {
		path, err := config.DefaultConfigPath()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}
		output = path
	}
	output = config.ExpandPath(output)

	if _, err := os.Stat(output); err == nil && !force {
		return fmt.Errorf("config already exists: %s\n\n💡 Use --force to overwrite it", output)
	}
	if err := os.MkdirAll(filepath.Dir(output), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := config.Save(config.Default(), output); err != nil {
		return err
	}

	fmt.Fprintf(out, "✓ Wrote default configuration to %s\n", output)
	return nil
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Long:  `Print the configuration after defaults, file and environment are merged.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return runConfigShow(cfg, cmd.OutOrStdout())
		},
	}
}

func runConfigShow(cfg *config.Config, out io.Writer) error {
	data, err := config.MarshalYAML(cfg)
	if err != nil {
		return err
	}

	source := cfg.Source()
	if source == "" {
		source = "built-in defaults"
	}
	fmt.Fprintf(out, "# source: %s\n", source)
	_, err = out.Write(data)
	return err
}
