package github

import (
	"context"

	"github.com/google/go-github/v73/github"
)

// statusContext groups our statuses in the PR checks list so they never
// collide with CI statuses on the same commit.
const statusContext = "pr-sentry/review"

// ReportPending marks the commit as under review. Failures are logged and
// swallowed: a missing status must never block the review itself.
func (c *Client) ReportPending(ctx context.Context, prID int, commitID string) {
	c.setStatus(ctx, prID, commitID, "pending", "review in progress")
}

// ReportResult records the review outcome on the commit. A failed review
// gets an "error" status so the PR page shows it needs another pass.
func (c *Client) ReportResult(ctx context.Context, prID int, commitID string, ok bool, description string) {
	state := "success"
	if !ok {
		state = "error"
	}
	c.setStatus(ctx, prID, commitID, state, description)
}

func (c *Client) setStatus(ctx context.Context, prID int, commitID, state, description string) {
	if commitID == "" {
		return
	}
	if len(description) > 140 {
		// GitHub rejects longer descriptions outright.
		description = description[:137] + "..."
	}

	status := &github.RepoStatus{
		State:       github.Ptr(state),
		Context:     github.Ptr(statusContext),
		Description: github.Ptr(description),
	}
	if _, _, err := c.gh.Repositories.CreateStatus(ctx, c.owner, c.repo, commitID, status); err != nil {
		c.logger.Warn("failed to set commit status",
			"pr", prID, "commit", commitID, "state", state, "error", err)
	}
}
