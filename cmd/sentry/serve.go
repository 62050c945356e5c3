package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sevigo/pr-sentry/internal/app"
	"github.com/sevigo/pr-sentry/internal/config"
	"github.com/sevigo/pr-sentry/internal/logger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the poll loop and status server until interrupted",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runServe(cmd.Context())
	},
}

func init() { //nolint:gochecknoinits
	rootCmd.AddCommand(serveCmd)
}

func runServe(ctx context.Context) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	log := logger.NewLogger(cfg.LogLevel, cfg.LogFormat, os.Stdout)

	application, err := app.NewApp(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	serverErr := application.Start(ctx)
	log.Info("PR Sentry is running", "port", cfg.ServerPort)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		log.Error("server failed", "error", err)
		_ = application.Stop()
		return err
	case sig := <-quit:
		log.Info("received shutdown signal", "signal", sig.String())
		return application.Stop()
	}
}
