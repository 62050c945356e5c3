package review

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevigo/pr-sentry/internal/core"
)

type postedComment struct {
	File string
	Line int
	Body string
}

// fakeHost records posted comments and can be told to fail specific lines.
type fakeHost struct {
	inline          []postedComment
	summaries       []string
	failLines       map[int]bool
	failFileSummary bool
	failAll         bool
}

func (f *fakeHost) ListOpenPullRequests(context.Context) ([]core.PullRequestRef, error) {
	return nil, nil
}

func (f *fakeHost) GetDiff(context.Context, int) (map[string]string, error) {
	return nil, nil
}

func (f *fakeHost) PostInlineComment(_ context.Context, _ int, file string, line int, body string) error {
	if f.failAll || f.failLines[line] {
		return fmt.Errorf("boom at line %d", line)
	}
	f.inline = append(f.inline, postedComment{File: file, Line: line, Body: body})
	return nil
}

func (f *fakeHost) PostSummaryComment(_ context.Context, _ int, body string) error {
	if f.failAll {
		return errors.New("boom")
	}
	if f.failFileSummary && strings.HasPrefix(body, "## Review Summary for") {
		return errors.New("boom")
	}
	f.summaries = append(f.summaries, body)
	return nil
}

func pr101() core.PullRequestRef {
	return core.PullRequestRef{ID: 101, Title: "Add retry logic", LatestSourceCommit: "abc123"}
}

func TestPublishInlineAndSummary(t *testing.T) {
	host := &fakeHost{}
	p := NewPublisher(host, testLogger())

	report := p.Publish(context.Background(), pr101(), []core.PlacedComment{
		{FilePath: "foo.py", Line: 11, Severity: core.SeverityHigh, Message: "missing error check"},
	})

	assert.Equal(t, 1, report.Posted)
	assert.Zero(t, report.Failed)
	assert.True(t, report.Complete())

	require.Len(t, host.inline, 1)
	assert.Equal(t, "foo.py", host.inline[0].File)
	assert.Equal(t, 11, host.inline[0].Line)
	assert.Contains(t, host.inline[0].Body, "HIGH")

	require.Len(t, host.summaries, 1)
	assert.Contains(t, host.summaries[0], "Total findings: 1")
	assert.Contains(t, host.summaries[0], "high | 1")
}

func TestPublishEmptyFindings(t *testing.T) {
	host := &fakeHost{}
	p := NewPublisher(host, testLogger())

	report := p.Publish(context.Background(), pr101(), nil)

	assert.Zero(t, report.Total())
	assert.Empty(t, host.inline)
	require.Len(t, host.summaries, 1)
	assert.Contains(t, host.summaries[0], "Total findings: 0")
	assert.Contains(t, host.summaries[0], "No issues detected")
}

func TestPublishContinuesPastFailedComment(t *testing.T) {
	host := &fakeHost{failLines: map[int]bool{11: true}}
	p := NewPublisher(host, testLogger())

	report := p.Publish(context.Background(), pr101(), []core.PlacedComment{
		{FilePath: "foo.py", Line: 11, Severity: core.SeverityHigh, Message: "first"},
		{FilePath: "foo.py", Line: 12, Severity: core.SeverityMedium, Message: "second"},
	})

	assert.Equal(t, 1, report.Posted)
	assert.Equal(t, 1, report.Failed)
	assert.False(t, report.Complete())
	require.Len(t, host.inline, 1)
	assert.Equal(t, 12, host.inline[0].Line)
}

func TestPublishPerFileSummaryForNoisyFile(t *testing.T) {
	host := &fakeHost{}
	p := NewPublisher(host, testLogger())

	var comments []core.PlacedComment
	for i := range perFileSummaryMin {
		comments = append(comments, core.PlacedComment{
			FilePath: "noisy.go", Line: 10 + i,
			Severity: core.SeverityMedium, Message: "issue",
		})
	}

	p.Publish(context.Background(), pr101(), comments)

	// one per-file summary plus the overall one
	require.Len(t, host.summaries, 2)
	assert.Contains(t, host.summaries[0], "Review Summary for noisy.go")
}

func TestPublishLostFileSummaryCountsAsFailure(t *testing.T) {
	host := &fakeHost{failFileSummary: true}
	p := NewPublisher(host, testLogger())

	var comments []core.PlacedComment
	for i := range perFileSummaryMin {
		comments = append(comments, core.PlacedComment{
			FilePath: "noisy.go", Line: 10 + i,
			Severity: core.SeverityMedium, Message: "issue",
		})
	}

	report := p.Publish(context.Background(), pr101(), comments)

	assert.Equal(t, perFileSummaryMin, report.Posted)
	assert.Equal(t, 1, report.Failed)
	assert.False(t, report.Complete())
	// the overall summary still goes out
	require.Len(t, host.summaries, 1)
	assert.Contains(t, host.summaries[0], "Total findings:")
}

func TestFormatInlineComment(t *testing.T) {
	body := formatInlineComment(core.PlacedComment{
		FilePath:     "handler.go",
		Line:         12,
		Severity:     core.SeverityCritical,
		Message:      "SQL built by string concatenation",
		SuggestedFix: "db.Query(\"SELECT ... WHERE id = $1\", id)",
		Approximate:  true,
	})

	assert.Contains(t, body, "🔴 **CRITICAL**")
	assert.Contains(t, body, "```go")
	assert.Contains(t, body, "Nearest changed line")
}

func TestDetectLanguage(t *testing.T) {
	assert.Equal(t, "python", detectLanguage("pkg/foo.py"))
	assert.Equal(t, "go", detectLanguage("main.go"))
	assert.Equal(t, "text", detectLanguage("Makefile"))
	assert.Equal(t, "cpp", detectLanguage("a.CC"))
}
