package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"specgraph/pkg/cli"
)

var (
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	ctx, cancel := setupGracefulShutdown(logger)
	defer cancel()

	rootCmd := cli.NewRootCommand(ctx, logger, version, commit, buildTime)
	if err := cli.ExecuteWithLogger(rootCmd, logger); err != nil {
		os.Exit(1)
	}
}

// setupGracefulShutdown cancels the returned context on SIGINT or SIGTERM.
// The process exits anyway if commands have not returned after 30 seconds.
func setupGracefulShutdown(logger *zap.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		sig := <-c
		logger.Info("Received shutdown signal", zap.String("signal", sig.String()))
		cancel()

		select {
		case <-c:
			logger.Warn("Second signal received, forcing exit")
		case <-time.After(30 * time.Second):
			logger.Warn("Graceful shutdown timeout exceeded, forcing exit")
		}
		os.Exit(1)
	}()

	return ctx, cancel
}
