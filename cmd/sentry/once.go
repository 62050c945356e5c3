package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sevigo/pr-sentry/internal/app"
	"github.com/sevigo/pr-sentry/internal/config"
	"github.com/sevigo/pr-sentry/internal/logger"
)

var onceCmd = &cobra.Command{
	Use:   "once",
	Short: "Run a single review cycle and exit",
	Long: `Runs one full pass over the repository's open pull requests and exits.
Intended for cron jobs and CI pipelines where a resident poll loop is not
wanted. The exit code is non-zero when any pull request failed.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runOnce(cmd.Context())
	},
}

func init() { //nolint:gochecknoinits
	rootCmd.AddCommand(onceCmd)
}

func runOnce(ctx context.Context) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	log := logger.NewLogger(cfg.LogLevel, cfg.LogFormat, os.Stdout)

	application, err := app.NewApp(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	defer func() { _ = application.Stop() }()

	stats := application.Scheduler().RunCycle(ctx)
	log.Info("cycle complete",
		"candidates", stats.Candidates,
		"reviewed", stats.Reviewed,
		"skipped", stats.Skipped,
		"failed", stats.Failed)

	if stats.Failed > 0 {
		return fmt.Errorf("%d pull request(s) failed review", stats.Failed)
	}
	return nil
}
