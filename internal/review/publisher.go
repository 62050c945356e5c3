package review

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sevigo/pr-sentry/internal/core"
)

// perFileSummaryMin is the number of placed comments in a single file above
// which the file gets its own summary comment in addition to the inline ones.
const perFileSummaryMin = 5

// Report describes how a publish cycle went. The scheduler uses it to decide
// whether a partially published PR counts as reviewed.
type Report struct {
	Posted        int
	Failed        int
	CountBySev    map[core.Severity]int
	SummaryPosted bool
}

// Total returns the number of findings surfaced.
func (r Report) Total() int { return r.Posted }

// Complete reports whether every comment, including the summary, went out.
func (r Report) Complete() bool { return r.Failed == 0 && r.SummaryPosted }

// Publisher posts placed comments and a summary to the hosting platform.
// It performs no dedup of its own: the scheduler's state-store guard is the
// invariant that keeps it from being invoked twice per (prID, commitID).
type Publisher struct {
	host   core.HostClient
	logger *slog.Logger
}

// NewPublisher creates a publisher posting through the given host client.
func NewPublisher(host core.HostClient, logger *slog.Logger) *Publisher {
	return &Publisher{host: host, logger: logger}
}

// Publish emits one inline comment per placed comment, a per-file summary for
// files that accrued many findings, and exactly one overall summary comment.
// A failed inline comment is logged and the rest continue.
func (p *Publisher) Publish(ctx context.Context, pr core.PullRequestRef, comments []core.PlacedComment) Report {
	report := Report{CountBySev: make(map[core.Severity]int)}
	perFile := make(map[string][]core.PlacedComment)

	for _, c := range comments {
		body := formatInlineComment(c)
		if err := p.host.PostInlineComment(ctx, pr.ID, c.FilePath, c.Line, body); err != nil {
			report.Failed++
			p.logger.Error("failed to post inline comment",
				"pr", pr.ID, "file", c.FilePath, "line", c.Line,
				"error", fmt.Errorf("%w: %v", core.ErrPublish, err))
			continue
		}
		report.Posted++
		report.CountBySev[c.Severity]++
		perFile[c.FilePath] = append(perFile[c.FilePath], c)
	}

	for path, fileComments := range perFile {
		if len(fileComments) < perFileSummaryMin {
			continue
		}
		if err := p.host.PostSummaryComment(ctx, pr.ID, formatFileSummary(path, fileComments)); err != nil {
			// counts against Complete() so the partial-publish policy sees it
			report.Failed++
			p.logger.Error("failed to post file summary", "pr", pr.ID, "file", path,
				"error", fmt.Errorf("%w: %v", core.ErrPublish, err))
		}
	}

	summary := formatPRSummary(pr, report)
	if err := p.host.PostSummaryComment(ctx, pr.ID, summary); err != nil {
		p.logger.Error("failed to post review summary", "pr", pr.ID,
			"error", fmt.Errorf("%w: %v", core.ErrPublish, err))
	} else {
		report.SummaryPosted = true
	}

	p.logger.Info("review published",
		"pr", pr.ID, "posted", report.Posted, "failed", report.Failed)
	return report
}

// formatInlineComment renders one placed comment as Markdown with a severity
// badge and an optional fenced suggested fix.
func formatInlineComment(c core.PlacedComment) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s **%s**: %s", severityEmoji(c.Severity),
		strings.ToUpper(string(c.Severity)), c.Message))
	if c.Approximate {
		sb.WriteString("\n\n_Nearest changed line to the reported location._")
	}
	if c.SuggestedFix != "" {
		lang := detectLanguage(c.FilePath)
		sb.WriteString(fmt.Sprintf("\n\n**Suggested fix:**\n```%s\n%s\n```", lang, c.SuggestedFix))
	}
	return sb.String()
}

// formatFileSummary aggregates the findings of one file that collected an
// unusually high number of comments.
func formatFileSummary(path string, comments []core.PlacedComment) string {
	counts := make(map[core.Severity]int)
	for _, c := range comments {
		counts[c.Severity]++
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("## Review Summary for %s\n\n", path))
	sb.WriteString(fmt.Sprintf("Found %d issues:\n", len(comments)))
	for _, sev := range severityOrder {
		if n := counts[sev]; n > 0 {
			sb.WriteString(fmt.Sprintf("- %s %d %s issues\n", severityEmoji(sev), n, sev))
		}
	}
	sb.WriteString("\nPlease review the inline comments for detailed feedback.")
	return sb.String()
}

// formatPRSummary renders the single overall summary with a statistics table.
func formatPRSummary(pr core.PullRequestRef, report Report) string {
	var sb strings.Builder
	sb.WriteString("## 🤖 AI Code Review Summary\n\n")
	sb.WriteString(fmt.Sprintf("**PR:** #%d - %s\n\n", pr.ID, pr.Title))
	sb.WriteString(fmt.Sprintf("Total findings: %d\n\n", report.Total()))

	if report.Total() == 0 {
		sb.WriteString("No issues detected. Ready to merge! 🎉")
		return sb.String()
	}

	sb.WriteString("| Severity | Count |\n")
	sb.WriteString("|----------|-------|\n")
	for _, sev := range severityOrder {
		if n := report.CountBySev[sev]; n > 0 {
			sb.WriteString(fmt.Sprintf("| %s %s | %d |\n", severityEmoji(sev), sev, n))
		}
	}
	sb.WriteString("\nPlease address the inline comments before merging.")
	return sb.String()
}

// severityOrder lists severities from most to least severe for rendering.
var severityOrder = []core.Severity{
	core.SeverityCritical,
	core.SeverityHigh,
	core.SeverityMedium,
	core.SeverityLow,
}

func severityEmoji(sev core.Severity) string {
	switch sev {
	case core.SeverityCritical:
		return "🔴"
	case core.SeverityHigh:
		return "🟠"
	case core.SeverityMedium:
		return "🟡"
	case core.SeverityLow:
		return "🟢"
	default:
		return "⚪"
	}
}

// detectLanguage picks a fence language from the file extension so suggested
// fixes render highlighted.
func detectLanguage(path string) string {
	idx := strings.LastIndex(path, ".")
	if idx < 0 {
		return "text"
	}
	switch strings.ToLower(path[idx+1:]) {
	case "go":
		return "go"
	case "py":
		return "python"
	case "js":
		return "javascript"
	case "ts":
		return "typescript"
	case "java":
		return "java"
	case "rs":
		return "rust"
	case "c":
		return "c"
	case "cpp", "cc", "cxx":
		return "cpp"
	case "cs":
		return "csharp"
	case "rb":
		return "ruby"
	case "php":
		return "php"
	default:
		return "text"
	}
}
