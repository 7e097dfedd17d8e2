package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/frostzzone/frost-music/internal/bot"
	"github.com/frostzzone/frost-music/internal/logging"
	_ "github.com/frostzzone/frost-music/internal/modules/music_player"
	"github.com/spf13/cobra"
)

func newRunCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Connect to Discord and serve music commands",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBot(cmd.Context())
		},
	}
}

func runBot(ctx context.Context) error {
	// Load configuration
	cfg, err := bot.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, logCloser := logging.New(cfg.Log)
	defer func() { _ = logCloser.Close() }()
	slog.SetDefault(logger)

	slog.Info("starting frostmusic", "version", version)

	// Create and configure bot
	b := bot.NewBot(cfg)
	b.LoadModules()

	// Start bot
	if err := b.Start(); err != nil {
		// Release whatever started before the failure
		_ = b.Stop()
		return fmt.Errorf("failed to start bot: %w", err)
	}

	// Wait for shutdown signal
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	slog.Info("received termination signal, shutting down")
	if err := b.Stop(); err != nil {
		slog.Error("failed to shutdown", "error", err)
	}

	slog.Info("completed bot shutdown")
	return nil
}
