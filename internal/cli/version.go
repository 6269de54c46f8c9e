package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/khanglvm/movie-picker/internal/version"
)

// NewVersionCmd creates the 'version' command
func NewVersionCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Display the current version, commit hash, build date and Go runtime.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVersion(jsonOutput, cmd.OutOrStdout())
		},
	}

	cmd.Flags().BoolVarP(&jsonOutput, "json", "j", false, "Output as JSON")

	return cmd
}

func runVersion(jsonOutput bool, out io.Writer) error {
	info := version.GetInfo()
	if jsonOutput {
		return printJSON(out, info)
	}

	fmt.Fprintf(out, "Version:  %s\n", info.Version)
	fmt.Fprintf(out, "Commit:   %s\n", info.Commit)
	fmt.Fprintf(out, "Built:    %s\n", info.Date)
	fmt.Fprintf(out, "Go:       %s (%s)\n", info.GoVersion, info.Platform)
	return nil
}
