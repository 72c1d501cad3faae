package cli

import (
	"fmt"
	"io"
	"runtime"

	"github.com/spf13/cobra"
)

func newVersionCommand(version, commit, buildTime string) *cobra.Command {
	var detailed bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Display version, build information, and runtime details.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if detailed {
				printDetailedVersion(cmd.OutOrStdout(), version, commit, buildTime)
			} else {
				printSimpleVersion(cmd.OutOrStdout(), version, commit, buildTime)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&detailed, "detailed", "d", false, "Show detailed version information")

	return cmd
}

func printSimpleVersion(w io.Writer, version, commit, buildTime string) {
	fmt.Fprintf(w, "specgraph version %s (commit: %s, built: %s)\n", version, commit, buildTime)
}

func printDetailedVersion(w io.Writer, version, commit, buildTime string) {
	fmt.Fprintf(w, "specgraph - OpenAPI spec resolution and validation engine\n\n")
	fmt.Fprintf(w, "Version:      %s\n", version)
	fmt.Fprintf(w, "Git Commit:   %s\n", commit)
	fmt.Fprintf(w, "Built:        %s\n", buildTime)
	fmt.Fprintf(w, "Go Version:   %s\n", runtime.Version())
	fmt.Fprintf(w, "OS/Arch:      %s/%s\n", runtime.GOOS, runtime.GOARCH)
}
