// Package app initializes and orchestrates the main components of the
// service. It wires together the configuration, state store, platform
// client, analyzer, scheduler, and HTTP server.
package app

import (
	"context"
	"log/slog"
	"sync"

	"github.com/sevigo/pr-sentry/internal/analyzer/gemini"
	"github.com/sevigo/pr-sentry/internal/config"
	"github.com/sevigo/pr-sentry/internal/platform/github"
	"github.com/sevigo/pr-sentry/internal/review"
	"github.com/sevigo/pr-sentry/internal/scheduler"
	"github.com/sevigo/pr-sentry/internal/server"
	"github.com/sevigo/pr-sentry/internal/state"
)

// App holds the main application components.
type App struct {
	cfg    *config.Config
	logger *slog.Logger
	store  state.Store
	sched  *scheduler.Scheduler
	server *server.Server

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewApp sets up the application with all its dependencies.
func NewApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	logger.Info("initializing PR Sentry",
		"repo", cfg.RepoOwner+"/"+cfg.RepoName,
		"mode", cfg.ReviewMode,
		"threshold", cfg.CommentThreshold,
		"poll_interval", cfg.PollInterval,
		"state_backend", cfg.StateBackend)

	store := newStateStore(cfg, logger)
	host := github.NewClient(ctx, cfg.GitHubToken, cfg.RepoOwner, cfg.RepoName, logger)
	analyzer := gemini.NewAnalyzer(cfg.GeminiAPIKey, cfg.Model, logger)
	resolver := review.NewResolver(cfg.CommentThreshold, cfg.SnapTolerance, logger)
	publisher := review.NewPublisher(host, logger)

	sched := scheduler.New(scheduler.Config{
		PollInterval:          cfg.PollInterval,
		Mode:                  cfg.ReviewMode,
		MarkReviewedOnPartial: cfg.MarkReviewedOnPartial,
	}, host, analyzer, store, resolver, publisher, logger)
	sched.SetStatusReporter(host)

	return &App{
		cfg:    cfg,
		logger: logger,
		store:  store,
		sched:  sched,
		server: server.NewServer(cfg.ServerPort, sched, logger),
	}, nil
}

// newStateStore builds the configured state store backend. A Postgres
// backend that cannot be reached degrades to in-memory state with an error
// log instead of failing startup.
func newStateStore(cfg *config.Config, logger *slog.Logger) state.Store {
	switch cfg.StateBackend {
	case "postgres":
		store, err := state.NewPostgresStore(cfg.Database)
		if err != nil {
			logger.Error("postgres state store unavailable, falling back to in-memory state", "error", err)
			return state.NewMemoryStore()
		}
		return store
	case "memory":
		return state.NewMemoryStore()
	default:
		return state.NewFileStore(cfg.StateFile, logger)
	}
}

// Scheduler exposes the poll loop, e.g. for one-shot runs.
func (a *App) Scheduler() *scheduler.Scheduler { return a.sched }

// Start launches the poll loop and the HTTP server. It returns once both
// are running; errors from the HTTP server surface through the channel.
func (a *App) Start(ctx context.Context) <-chan error {
	runCtx, cancel := context.WithCancel(ctx)
	a.cancel = cancel

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		a.sched.Run(runCtx)
	}()

	errCh := make(chan error, 1)
	go func() {
		errCh <- a.server.Start()
	}()
	return errCh
}

// Stop shuts the application down cleanly: the HTTP server first so no new
// requests arrive, then the scheduler, which finishes its in-flight PR
// before exiting, then the state store.
func (a *App) Stop() error {
	a.logger.Info("shutting down")

	serverErr := a.server.Stop()
	if serverErr != nil {
		a.logger.Error("error during HTTP server shutdown", "error", serverErr)
	}

	if a.cancel != nil {
		a.cancel()
	}
	a.wg.Wait()

	if err := a.store.Close(); err != nil {
		a.logger.Error("error closing state store", "error", err)
	}

	a.logger.Info("stopped")
	return serverErr
}
