// Package commands defines all Cobra CLI commands for the smartseva binary.
package commands

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/AritraCh2005/SmartSeva-4/internal/audit"
	"github.com/AritraCh2005/SmartSeva-4/internal/config"
	"github.com/AritraCh2005/SmartSeva-4/internal/logging"
)

// configPath holds the --config flag value for YAML config file override.
var configPath string

// loadedConfigPath stores the resolved config file path for audit logging.
var loadedConfigPath string

// NewRootCmd constructs the root Cobra command that all subcommands attach to.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "smartseva",
		Short: "SmartSeva — citizen-services assistant for Indian government schemes",
		Long: `SmartSeva answers citizen questions about Indian government schemes and
services, grounded in the scheme documents you ingest.

Answers are produced only from ingested documents; when nothing relevant is
found, SmartSeva says so instead of guessing.

Model provider is selected via the MODEL_PROVIDER environment variable
or a YAML config file (~/.smartseva/config.yaml).
See 'smartseva --help' for available commands.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Load .env from the working directory if present. Variables
			// already set in the environment are never overwritten.
			_ = godotenv.Load()

			log := logging.New()

			// Load YAML config (env vars always override YAML values).
			path, err := config.Load(configPath, log)
			if err != nil {
				return err
			}
			loadedConfigPath = path

			// Emit structured audit log for every command invocation.
			audit.LogCommandStart(log, cmd.Name(), loadedConfigPath)

			return nil
		},
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "Path to YAML config file (default: ~/.smartseva/config.yaml)")

	root.AddCommand(
		NewAskCmd(),
		NewChatCmd(),
		NewServeCmd(),
		NewIngestCmd(),
		NewDocsCmd(),
		NewVersionCmd(),
	)

	return root
}
