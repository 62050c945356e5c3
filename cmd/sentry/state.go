package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/sevigo/pr-sentry/internal/config"
	"github.com/sevigo/pr-sentry/internal/logger"
	"github.com/sevigo/pr-sentry/internal/state"
)

var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Inspect or reset the persisted review state",
}

var stateListCmd = &cobra.Command{
	Use:   "list",
	Short: "Print all recorded reviews",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runStateList(cmd.Context())
	},
}

var stateResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Drop all review records, forcing a full re-review on the next cycle",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runStateReset(cmd.Context())
	},
}

func init() { //nolint:gochecknoinits
	stateCmd.AddCommand(stateListCmd)
	stateCmd.AddCommand(stateResetCmd)
	rootCmd.AddCommand(stateCmd)
}

// openStore builds the same state store the service itself would use.
func openStore(cfg *config.Config) (state.Store, error) {
	log := logger.NewLogger(cfg.LogLevel, cfg.LogFormat, os.Stderr)

	switch cfg.StateBackend {
	case "postgres":
		return state.NewPostgresStore(cfg.Database)
	case "memory":
		return nil, fmt.Errorf("the memory backend holds no state between runs")
	default:
		return state.NewFileStore(cfg.StateFile, log), nil
	}
}

func runStateList(ctx context.Context) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	records, err := store.Records(ctx)
	if err != nil {
		return fmt.Errorf("failed to read review records: %w", err)
	}
	if len(records) == 0 {
		fmt.Println("no reviews recorded")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PR\tCOMMIT\tREVIEWED AT")
	for _, rec := range records {
		fmt.Fprintf(w, "#%d\t%s\t%s\n",
			rec.PullRequestID, rec.CommitID, rec.ReviewedAt.Format(time.RFC3339))
	}
	return w.Flush()
}

func runStateReset(ctx context.Context) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if err := store.Reset(ctx); err != nil {
		return fmt.Errorf("failed to reset review state: %w", err)
	}
	fmt.Println("review state cleared")
	return nil
}
