package gemini

import (
	"fmt"
	"strings"

	"github.com/sevigo/pr-sentry/internal/core"
	"github.com/sevigo/pr-sentry/internal/diff"
)

const basePrompt = `You are an expert code reviewer with deep knowledge of best practices,
security, performance, and code quality. Your task is to review code changes and provide
constructive, actionable feedback.`

const responseFormat = `Format each issue on its own line as:
LINE_NUM: Issue description | Solution: [solution] | Severity: [low/medium/high/critical]

LINE_NUM is the line number in the new version of the file, as annotated in the diff.
Only comment on lines that have actual issues.`

// systemPrompt selects review instructions for the configured mode.
func systemPrompt(mode core.ReviewMode) string {
	switch mode {
	case core.ModeSecurityFocused:
		return basePrompt + `

Focus primarily on security vulnerabilities:
1. Injection attacks (SQL, XSS, command)
2. Authentication and authorization issues
3. Sensitive data exposure
4. Insecure dependencies
5. Misconfiguration
6. Cryptographic failures

` + responseFormat
	case core.ModeQuick:
		return basePrompt + `

Provide a quick review focusing on:
1. Critical bugs
2. Security issues
3. Obvious code quality problems

Be concise but actionable.

` + responseFormat
	default:
		return basePrompt + `

Review the code thoroughly and identify:
1. Potential bugs and errors
2. Security vulnerabilities
3. Performance issues
4. Code quality and maintainability
5. Adherence to best practices and coding standards

` + responseFormat
	}
}

// buildFilePrompt renders one file's hunks with new-revision line numbers so
// the model's LINE_NUM references are directly resolvable.
func buildFilePrompt(file diff.FileDiff) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Please review the following changes.\n\nFile: %s\n\n", file.Path))

	for _, h := range file.Hunks {
		sb.WriteString(fmt.Sprintf("Changed region (new lines %d-%d):\n```\n", h.NewStart, h.NewStart+h.NewLines-1))
		for _, l := range h.Lines {
			switch l.Kind {
			case diff.LineAdded:
				sb.WriteString(fmt.Sprintf("%d: + %s\n", l.NewLine, l.Text))
			case diff.LineRemoved:
				sb.WriteString(fmt.Sprintf("   - %s\n", l.Text))
			default:
				sb.WriteString(fmt.Sprintf("%d:   %s\n", l.NewLine, l.Text))
			}
		}
		sb.WriteString("```\n\n")
	}

	return sb.String()
}
