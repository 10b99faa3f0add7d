package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/AritraCh2005/SmartSeva-4/internal/version"
)

// NewVersionCmd constructs the `smartseva version` subcommand.
// It prints the binary version, git commit, and build date injected at
// build time via -ldflags. Falls back to "dev"/"unknown" for local builds.
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the smartseva version, git commit, and build date",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("smartseva %s (commit: %s, built: %s)\n",
				version.Version, version.Commit, version.BuildDate)
		},
	}
}
