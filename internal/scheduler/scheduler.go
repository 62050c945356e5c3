// Package scheduler drives the review pipeline: at a fixed interval it lists
// open pull requests, filters out already-reviewed revisions, and runs
// diff parsing, analysis, placement, and publishing for each remaining PR.
// A single sequential worker processes PRs, so the state store is never
// touched concurrently and double-posting races cannot occur.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/sevigo/pr-sentry/internal/core"
	"github.com/sevigo/pr-sentry/internal/diff"
	"github.com/sevigo/pr-sentry/internal/review"
	"github.com/sevigo/pr-sentry/internal/state"
)

// Phase is the scheduler's position in its poll loop.
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseListing    Phase = "listing"
	PhaseProcessing Phase = "processing"
	PhaseSleeping   Phase = "sleeping"
)

// OutcomeKind classifies how a single PR fared in a cycle.
type OutcomeKind string

const (
	OutcomeReviewed OutcomeKind = "reviewed" // pipeline ran, state recorded
	OutcomeSkipped  OutcomeKind = "skipped"  // revision already reviewed
	OutcomeFailed   OutcomeKind = "failed"   // per-PR error, retried next cycle
)

// PRResult is the typed per-PR outcome the cycle aggregates, replacing
// ambient catch-and-continue error suppression.
type PRResult struct {
	PR       core.PullRequestRef
	Kind     OutcomeKind
	Comments int
	Err      error
}

// CycleStats summarizes one full pass over the candidate PRs.
type CycleStats struct {
	Cycle      int           `json:"cycle"`
	StartedAt  time.Time     `json:"started_at"`
	Duration   time.Duration `json:"duration"`
	Candidates int           `json:"candidates"`
	Reviewed   int           `json:"reviewed"`
	Skipped    int           `json:"skipped"`
	Failed     int           `json:"failed"`
	Results    []PRResult    `json:"-"`
}

// Config holds the scheduler's runtime options. All values are fixed at
// startup; the configuration surface is not re-read during a run.
type Config struct {
	PollInterval time.Duration
	Mode         core.ReviewMode
	// CallTimeout bounds each external call (list, fetch, analyze, post).
	// Expiry counts as a per-PR failure, never a process-fatal error.
	CallTimeout time.Duration
	// MarkReviewedOnPartial controls whether a PR whose publish cycle lost
	// some comments still counts as reviewed, or is left for retry.
	MarkReviewedOnPartial bool
}

// Scheduler owns the poll loop. Construct with New, run with Run, or step a
// single pass with RunCycle in tests.
type Scheduler struct {
	cfg       Config
	host      core.HostClient
	analyzer  core.Analyzer
	store     state.Store
	resolver  *review.Resolver
	publisher *review.Publisher
	reporter  core.StatusReporter // optional, nil disables commit statuses
	logger    *slog.Logger

	mu        sync.Mutex
	phase     Phase
	cycle     int
	lastStats *CycleStats
}

// New wires a scheduler from its collaborators.
func New(cfg Config, host core.HostClient, analyzer core.Analyzer, store state.Store,
	resolver *review.Resolver, publisher *review.Publisher, logger *slog.Logger) *Scheduler {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 30 * time.Second
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = 2 * time.Minute
	}
	return &Scheduler{
		cfg:       cfg,
		host:      host,
		analyzer:  analyzer,
		store:     store,
		resolver:  resolver,
		publisher: publisher,
		logger:    logger,
		phase:     PhaseIdle,
	}
}

// SetStatusReporter enables commit-status updates for each reviewed
// revision. Must be called before Run.
func (s *Scheduler) SetStatusReporter(r core.StatusReporter) {
	s.reporter = r
}

// Phase returns the scheduler's current loop phase.
func (s *Scheduler) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// LastCycle returns the stats of the most recently completed cycle.
func (s *Scheduler) LastCycle() (CycleStats, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastStats == nil {
		return CycleStats{}, false
	}
	return *s.lastStats, true
}

func (s *Scheduler) setPhase(p Phase) {
	s.mu.Lock()
	s.phase = p
	s.mu.Unlock()
}

// Run executes review cycles until the context is canceled. The first cycle
// starts immediately; later ones fire on the poll interval. Cancellation is
// honored between PRs, never mid-PR, so an in-flight review finishes before
// shutdown.
func (s *Scheduler) Run(ctx context.Context) {
	s.logger.Info("scheduler started", "interval", s.cfg.PollInterval, "mode", s.cfg.Mode)

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			s.setPhase(PhaseIdle)
			s.logger.Info("scheduler stopped")
			return
		case <-timer.C:
			stats := s.RunCycle(ctx)
			if stats.Reviewed > 0 || stats.Failed > 0 {
				s.logger.Info("cycle finished",
					"cycle", stats.Cycle, "candidates", stats.Candidates,
					"reviewed", stats.Reviewed, "skipped", stats.Skipped,
					"failed", stats.Failed, "duration", stats.Duration)
			}
			s.setPhase(PhaseSleeping)
			timer.Reset(s.cfg.PollInterval)
		}
	}
}

// RunCycle performs one full pass: list candidates, process each new
// revision sequentially, record completions. A per-PR failure is logged and
// the cycle continues with the next PR.
func (s *Scheduler) RunCycle(ctx context.Context) CycleStats {
	s.mu.Lock()
	s.cycle++
	cycle := s.cycle
	s.mu.Unlock()

	stats := CycleStats{Cycle: cycle, StartedAt: time.Now()}

	s.setPhase(PhaseListing)
	listCtx, cancel := context.WithTimeout(ctx, s.cfg.CallTimeout)
	prs, err := s.host.ListOpenPullRequests(listCtx)
	cancel()
	if err != nil {
		s.logger.Error("failed to list pull requests, retrying next cycle", "error", err)
		s.finishCycle(&stats)
		return stats
	}
	stats.Candidates = len(prs)

	s.setPhase(PhaseProcessing)
	for _, pr := range prs {
		// honor a stop signal between PRs, not mid-PR
		if ctx.Err() != nil {
			break
		}

		result := s.processPR(ctx, pr)
		s.reportResult(context.WithoutCancel(ctx), pr, result)
		stats.Results = append(stats.Results, result)
		switch result.Kind {
		case OutcomeReviewed:
			stats.Reviewed++
		case OutcomeSkipped:
			stats.Skipped++
		case OutcomeFailed:
			stats.Failed++
			s.logger.Error("pull request failed this cycle",
				"pr", pr.ID, "commit", pr.LatestSourceCommit, "error", result.Err)
		}
	}

	s.finishCycle(&stats)
	return stats
}

func (s *Scheduler) finishCycle(stats *CycleStats) {
	stats.Duration = time.Since(stats.StartedAt)
	s.mu.Lock()
	s.lastStats = stats
	s.mu.Unlock()
}

// processPR runs the pipeline for a single pull request revision:
// state-store guard, diff fetch, hunk mapping, analysis, placement,
// publishing, completion record.
func (s *Scheduler) processPR(ctx context.Context, pr core.PullRequestRef) PRResult {
	// Shutdown is honored between PRs only (see RunCycle). Once a PR is in
	// flight its calls must run to completion, or a canceled publish would
	// leave a half-posted review behind a "reviewed" record. The per-call
	// timeouts still bound every external call.
	ctx = context.WithoutCancel(ctx)

	reviewed, err := s.store.IsReviewed(ctx, pr.ID, pr.LatestSourceCommit)
	if err != nil {
		// degraded state store: fail the PR rather than risking a double post
		return PRResult{PR: pr, Kind: OutcomeFailed, Err: fmt.Errorf("%w: %v", core.ErrStateStore, err)}
	}
	if reviewed {
		return PRResult{PR: pr, Kind: OutcomeSkipped}
	}

	s.logger.Info("reviewing pull request",
		"pr", pr.ID, "title", pr.Title, "commit", pr.LatestSourceCommit)
	if s.reporter != nil {
		s.reporter.ReportPending(ctx, pr.ID, pr.LatestSourceCommit)
	}

	fetchCtx, cancel := context.WithTimeout(ctx, s.cfg.CallTimeout)
	patches, err := s.host.GetDiff(fetchCtx, pr.ID)
	cancel()
	if err != nil {
		return PRResult{PR: pr, Kind: OutcomeFailed, Err: fmt.Errorf("fetch diff: %w", err)}
	}

	files, skipped := diff.ParseFiles(patches)
	for _, path := range skipped {
		s.logger.Warn("skipping file with malformed diff",
			"pr", pr.ID, "file", path, "error", diff.ErrMalformed)
	}
	if len(files) == 0 {
		s.logger.Info("no reviewable changes", "pr", pr.ID)
		return s.complete(ctx, pr, 0)
	}

	analyzeCtx, cancel := context.WithTimeout(ctx, s.cfg.CallTimeout)
	findings, err := s.analyzer.Analyze(analyzeCtx, files, s.cfg.Mode)
	cancel()
	if err != nil {
		if !errors.Is(err, core.ErrAnalysis) {
			err = fmt.Errorf("%w: %v", core.ErrAnalysis, err)
		}
		return PRResult{PR: pr, Kind: OutcomeFailed, Err: err}
	}

	placed := s.resolver.Resolve(findings, files)

	publishCtx, cancel := context.WithTimeout(ctx, s.cfg.CallTimeout)
	report := s.publisher.Publish(publishCtx, pr, placed)
	cancel()

	if !report.Complete() && !s.cfg.MarkReviewedOnPartial {
		return PRResult{PR: pr, Kind: OutcomeFailed, Comments: report.Posted,
			Err: fmt.Errorf("%w: %d of %d comments not published", core.ErrPublish,
				report.Failed, report.Failed+report.Posted)}
	}

	return s.complete(ctx, pr, report.Posted)
}

// reportResult mirrors a PR's outcome onto the host's commit status.
// Skipped revisions keep whatever status they already carry.
func (s *Scheduler) reportResult(ctx context.Context, pr core.PullRequestRef, res PRResult) {
	if s.reporter == nil || res.Kind == OutcomeSkipped {
		return
	}

	ok := res.Kind == OutcomeReviewed
	var desc string
	switch {
	case !ok:
		desc = "review failed, will retry next cycle"
	case res.Comments == 0:
		desc = "review complete: no issues found"
	default:
		desc = fmt.Sprintf("review complete: %d comment(s) posted", res.Comments)
	}
	s.reporter.ReportResult(ctx, pr.ID, pr.LatestSourceCommit, ok, desc)
}

// complete records the review. The write happens after publishing, so a
// crash in between re-reviews rather than silently losing comments
// (at-least-once, never at-most-zero).
func (s *Scheduler) complete(ctx context.Context, pr core.PullRequestRef, comments int) PRResult {
	if err := s.store.MarkReviewed(ctx, pr.ID, pr.LatestSourceCommit, time.Now()); err != nil {
		return PRResult{PR: pr, Kind: OutcomeFailed, Comments: comments,
			Err: fmt.Errorf("%w: %v", core.ErrStateStore, err)}
	}
	return PRResult{PR: pr, Kind: OutcomeReviewed, Comments: comments}
}
