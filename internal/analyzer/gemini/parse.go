package gemini

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/sevigo/pr-sentry/internal/core"
)

var lineNumRegex = regexp.MustCompile(`\d+`)

// parseFindings extracts structured findings from the model's plain-text
// response for one file. Expected line format:
//
//	LINE_NUM: Issue description | Solution: fix | Severity: high
//
// Lines that do not follow the format, or carry no usable line number, are
// dropped; the model is allowed to be sloppy without failing the PR.
func parseFindings(analysis, filePath string) []core.Finding {
	var findings []core.Finding

	for _, raw := range strings.Split(analysis, "\n") {
		line := strings.TrimSpace(raw)
		if !strings.HasPrefix(line, "LINE_NUM:") {
			continue
		}

		rest := strings.TrimSpace(strings.TrimPrefix(line, "LINE_NUM:"))
		numStr := lineNumRegex.FindString(rest)
		if numStr == "" {
			continue
		}
		lineNum, err := strconv.Atoi(numStr)
		if err != nil || lineNum < 1 {
			continue
		}

		parts := strings.Split(rest, "|")
		message := strings.TrimSpace(strings.TrimPrefix(parts[0], numStr))
		message = strings.TrimSpace(strings.TrimPrefix(message, ":"))
		if message == "" {
			continue
		}

		finding := core.Finding{
			FilePath: filePath,
			Line:     lineNum,
			Severity: core.SeverityMedium,
			Message:  message,
		}

		for _, part := range parts[1:] {
			part = strings.TrimSpace(part)
			switch {
			case strings.HasPrefix(part, "Solution:"):
				finding.SuggestedFix = strings.TrimSpace(strings.TrimPrefix(part, "Solution:"))
			case strings.HasPrefix(part, "Severity:"):
				finding.Severity = core.ParseSeverity(strings.TrimPrefix(part, "Severity:"))
			}
		}

		findings = append(findings, finding)
	}

	return findings
}
