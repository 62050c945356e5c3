// Package github implements the hosting-platform contract on top of the
// official go-github client.
package github

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/go-github/v73/github"
	"golang.org/x/oauth2"

	"github.com/sevigo/pr-sentry/internal/core"
)

// Client talks to a single GitHub repository. It satisfies core.HostClient.
type Client struct {
	gh     *github.Client
	owner  string
	repo   string
	logger *slog.Logger

	mu    sync.Mutex
	heads map[int]string // PR number -> head SHA, filled by listing
}

// NewClient creates a client authenticated with a Personal Access Token.
func NewClient(ctx context.Context, token, owner, repo string, logger *slog.Logger) *Client {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	tc := oauth2.NewClient(ctx, ts)
	return newClient(github.NewClient(tc), owner, repo, logger)
}

func newClient(gh *github.Client, owner, repo string, logger *slog.Logger) *Client {
	return &Client{
		gh:     gh,
		owner:  owner,
		repo:   repo,
		logger: logger,
		heads:  make(map[int]string),
	}
}

// ListOpenPullRequests returns the repository's open pull requests with
// their current head commit. Pagination is handled here; GitHub returns at
// most 100 PRs per page.
func (c *Client) ListOpenPullRequests(ctx context.Context) ([]core.PullRequestRef, error) {
	var refs []core.PullRequestRef
	opts := &github.PullRequestListOptions{
		State:       "open",
		ListOptions: github.ListOptions{PerPage: 100},
	}

	for {
		prs, resp, err := c.gh.PullRequests.List(ctx, c.owner, c.repo, opts)
		if err != nil {
			c.logger.Error("failed to list pull requests", "owner", c.owner, "repo", c.repo, "error", err)
			return nil, err
		}
		for _, pr := range prs {
			refs = append(refs, toRef(pr))
			c.rememberHead(pr.GetNumber(), pr.GetHead().GetSHA())
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return refs, nil
}

// GetDiff returns the unified-diff patch text per changed file, paginating
// through the file list.
func (c *Client) GetDiff(ctx context.Context, prID int) (map[string]string, error) {
	patches := make(map[string]string)
	opts := &github.ListOptions{PerPage: 100}

	for {
		files, resp, err := c.gh.PullRequests.ListFiles(ctx, c.owner, c.repo, prID, opts)
		if err != nil {
			c.logger.Error("failed to list changed files", "pr", prID, "error", err)
			return nil, err
		}
		for _, f := range files {
			patches[f.GetFilename()] = f.GetPatch()
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return patches, nil
}

// PostInlineComment attaches a review comment to a line on the new side of
// the diff. GitHub requires the head commit SHA for positioning.
func (c *Client) PostInlineComment(ctx context.Context, prID int, filePath string, line int, body string) error {
	head, err := c.headFor(ctx, prID)
	if err != nil {
		return err
	}

	comment := &github.PullRequestComment{
		Body:     github.Ptr(body),
		CommitID: github.Ptr(head),
		Path:     github.Ptr(filePath),
		Line:     github.Ptr(line),
		Side:     github.Ptr("RIGHT"),
	}
	if _, _, err := c.gh.PullRequests.CreateComment(ctx, c.owner, c.repo, prID, comment); err != nil {
		c.logger.Error("failed to post inline comment", "pr", prID, "file", filePath, "line", line, "error", err)
		return err
	}
	return nil
}

// PostSummaryComment posts a general comment on the PR conversation.
func (c *Client) PostSummaryComment(ctx context.Context, prID int, body string) error {
	comment := &github.IssueComment{Body: github.Ptr(body)}
	if _, _, err := c.gh.Issues.CreateComment(ctx, c.owner, c.repo, prID, comment); err != nil {
		c.logger.Error("failed to post summary comment", "pr", prID, "error", err)
		return err
	}
	return nil
}

func (c *Client) rememberHead(prID int, sha string) {
	if sha == "" {
		return
	}
	c.mu.Lock()
	c.heads[prID] = sha
	c.mu.Unlock()
}

// headFor returns the cached head SHA for a PR, fetching the PR when the
// cache is cold (e.g. a comment posted without a prior listing).
func (c *Client) headFor(ctx context.Context, prID int) (string, error) {
	c.mu.Lock()
	head, ok := c.heads[prID]
	c.mu.Unlock()
	if ok {
		return head, nil
	}

	pr, _, err := c.gh.PullRequests.Get(ctx, c.owner, c.repo, prID)
	if err != nil {
		return "", fmt.Errorf("resolve head for PR %d: %w", prID, err)
	}
	head = pr.GetHead().GetSHA()
	if head == "" {
		return "", fmt.Errorf("PR %d has no head SHA", prID)
	}
	c.rememberHead(prID, head)
	return head, nil
}

func toRef(pr *github.PullRequest) core.PullRequestRef {
	return core.PullRequestRef{
		ID:                 pr.GetNumber(),
		Title:              pr.GetTitle(),
		SourceBranch:       pr.GetHead().GetRef(),
		TargetBranch:       pr.GetBase().GetRef(),
		LatestSourceCommit: pr.GetHead().GetSHA(),
	}
}
