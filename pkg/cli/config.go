package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"specgraph/pkg/config"
)

// DefaultConfigFile is used by the config commands when no file is named
const DefaultConfigFile = "specgraph.yaml"

func newConfigCommand(opts *rootOptions, logger *zap.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management commands",
		Long:  `Commands for managing specgraph configuration files.`,
	}

	cmd.AddCommand(newConfigInitCommand(logger))
	cmd.AddCommand(newConfigValidateCommand(opts, logger))

	return cmd
}

func newConfigInitCommand(logger *zap.Logger) *cobra.Command {
	var (
		outputFile string
		force      bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a new configuration file",
		Long:  `Create a new configuration file with default values.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(outputFile); err == nil && !force {
				return fmt.Errorf("configuration file already exists: %s", outputFile)
			}

			logger.Info("Creating configuration file", zap.String("file", outputFile))
			if err := config.WriteToFile(config.DefaultConfig(), outputFile); err != nil {
				return fmt.Errorf("failed to write configuration file: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Configuration file created: %s\n", outputFile)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputFile, "output", "o", DefaultConfigFile, "Output configuration file")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing file")

	return cmd
}

func newConfigValidateCommand(opts *rootOptions, logger *zap.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate [config-file]",
		Short: "Validate a configuration file",
		Long:  `Validate the syntax and content of a configuration file.`,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			configFile := opts.configPath
			if len(args) > 0 {
				configFile = args[0]
			}
			if configFile == "" {
				configFile = DefaultConfigFile
			}

			if _, err := os.Stat(configFile); os.IsNotExist(err) {
				return fmt.Errorf("configuration file not found: %s", configFile)
			}

			logger.Info("Validating configuration file", zap.String("file", configFile))
			if _, err := config.LoadConfig(configFile); err != nil {
				return fmt.Errorf("configuration validation failed: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Configuration file is valid: %s\n", configFile)
			return nil
		},
	}

	return cmd
}
