package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"specgraph/pkg/config"
	"specgraph/pkg/logging"
)

// rootOptions holds the persistent flags shared by every command
type rootOptions struct {
	configPath string
	logLevel   string
}

// NewRootCommand creates the root command for the specgraph CLI
func NewRootCommand(ctx context.Context, logger *zap.Logger, version, commit, buildTime string) *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "specgraph",
		Short: "OpenAPI spec resolution and validation engine",
		Long: `specgraph loads a directory of OpenAPI documents, follows their $ref
references across documents and validates every node on demand. Validation
errors carry the breadcrumb of the node that failed.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Path to configuration file")
	rootCmd.PersistentFlags().StringVarP(&opts.logLevel, "log-level", "l", "", "Override the logging level (debug, info, warn, error)")

	rootCmd.AddCommand(newServeCommand(ctx, opts))
	rootCmd.AddCommand(newValidateCommand(ctx, opts, logger))
	rootCmd.AddCommand(newResolveCommand(ctx, opts, logger))
	rootCmd.AddCommand(newConfigCommand(opts, logger))
	rootCmd.AddCommand(newVersionCommand(version, commit, buildTime))

	return rootCmd
}

// ExecuteWithLogger executes the root command with proper error handling
func ExecuteWithLogger(rootCmd *cobra.Command, logger *zap.Logger) error {
	if err := rootCmd.Execute(); err != nil {
		logger.Error("Command execution failed", zap.Error(err))
		return err
	}
	return nil
}

// loadConfig loads the configuration named by --config, or the defaults,
// applies --log-level and validates the result
func (o *rootOptions) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	logging.SetLevel(&cfg.Logging, o.logLevel)

	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
