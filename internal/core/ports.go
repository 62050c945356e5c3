package core

import (
	"context"

	"github.com/sevigo/pr-sentry/internal/diff"
)

// HostClient is the contract the review pipeline needs from a code-hosting
// platform. Implementations live under internal/platform; any call failing
// is reported as a per-PR error by the scheduler.
type HostClient interface {
	// ListOpenPullRequests returns the currently open pull requests of the
	// configured repository, with their latest source commit resolved.
	ListOpenPullRequests(ctx context.Context) ([]PullRequestRef, error)

	// GetDiff returns the raw unified-diff patch text per changed file.
	GetDiff(ctx context.Context, prID int) (map[string]string, error)

	// PostInlineComment attaches a comment to a specific line of the new
	// revision of a file in the pull request.
	PostInlineComment(ctx context.Context, prID int, filePath string, line int, body string) error

	// PostSummaryComment posts a general, non-line-specific comment.
	PostSummaryComment(ctx context.Context, prID int, body string) error
}

// StatusReporter mirrors the review lifecycle onto the host's commit-status
// UI. Reporting is best-effort: implementations log failures and never
// return them, so a broken status API cannot block a review.
type StatusReporter interface {
	// ReportPending marks the commit as having a review in flight.
	ReportPending(ctx context.Context, prID int, commitID string)

	// ReportResult records the final outcome for the commit.
	ReportResult(ctx context.Context, prID int, commitID string, ok bool, description string)
}

// Analyzer requests an AI review of a diff and returns structured findings.
// Implementations must tolerate being asked about any diff text; the core
// tolerates empty results and drops malformed findings.
type Analyzer interface {
	Analyze(ctx context.Context, files []diff.FileDiff, mode ReviewMode) ([]Finding, error)
}
