package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"specgraph/internal/hotreload"
	"specgraph/pkg/api"
	"specgraph/pkg/logging"
	"specgraph/pkg/notifications"
	"specgraph/pkg/registry"
	"specgraph/pkg/store"
)

func newServeCommand(ctx context.Context, opts *rootOptions) *cobra.Command {
	var (
		specDir string
		port    int
		host    string
	)

	cmd := &cobra.Command{
		Use:   "serve [spec directory]",
		Short: "Serve the loaded specs over HTTP",
		Long: `Load every document of the spec directory and serve them over HTTP.
The directory is watched for changes when hot reload is enabled.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			if len(args) > 0 {
				specDir = args[0]
			}
			if specDir != "" {
				cfg.Specs.Dir = specDir
			}
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = port
			}
			if cmd.Flags().Changed("host") {
				cfg.Server.Host = host
			}

			logger, err := logging.New(cfg.Logging)
			if err != nil {
				return err
			}
			defer logger.Sync()

			logger.Info("Starting specgraph server",
				zap.String("spec_dir", cfg.Specs.Dir),
				zap.String("host", cfg.Server.Host),
				zap.Int("port", cfg.Server.Port),
			)

			docs := store.New(store.Options{
				Include: cfg.Specs.Include,
				Exclude: cfg.Specs.Exclude,
			}, logger)
			reg := registry.New(docs, registry.Options{
				Dir:            cfg.Specs.Dir,
				ValidateOnLoad: cfg.Specs.ValidateOnLoad,
			}, logger)
			if err := reg.Reload(ctx); err != nil {
				return fmt.Errorf("failed to load specs: %w", err)
			}

			// interface values stay nil when notifications are off
			var (
				events    api.NotificationSource
				publisher hotreload.Publisher
			)
			if cfg.Notifications.Enabled {
				hub := notifications.NewHub(cfg.Notifications.History, logger)
				defer hub.Close()
				events, publisher = hub, hub
			}

			server, err := api.NewServer(cfg, reg, events, logger)
			if err != nil {
				return fmt.Errorf("failed to create server: %w", err)
			}
			if err := server.Start(); err != nil {
				return fmt.Errorf("failed to start server: %w", err)
			}

			reloader, err := hotreload.NewHotReloader(cfg, reg, hotreload.Options{
				ConfigPath: opts.configPath,
				Server:     server,
				Publisher:  publisher,
				Matches:    docs.Matches,
			}, logger)
			if err != nil {
				_ = server.Stop()
				return fmt.Errorf("failed to create hot reloader: %w", err)
			}
			if err := reloader.Start(); err != nil {
				_ = server.Stop()
				return fmt.Errorf("failed to start hot reloader: %w", err)
			}

			<-ctx.Done()
			logger.Info("Shutdown signal received, stopping server...")

			if err := reloader.Stop(); err != nil {
				logger.Error("Error stopping hot reloader", zap.Error(err))
			}
			if err := server.Stop(); err != nil {
				logger.Error("Error stopping server", zap.Error(err))
				return err
			}
			logger.Info("Server stopped successfully")
			return nil
		},
	}

	cmd.Flags().StringVarP(&specDir, "specs", "s", "", "Spec directory, overrides specs.dir")
	cmd.Flags().IntVarP(&port, "port", "p", 8080, "Server port")
	cmd.Flags().StringVarP(&host, "host", "H", "0.0.0.0", "Server host")

	return cmd
}
