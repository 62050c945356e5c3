package gemini

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevigo/pr-sentry/internal/core"
)

func TestParseFindings(t *testing.T) {
	analysis := `Here is my review of the changes:

LINE_NUM: 11: Unchecked error return | Solution: handle the error | Severity: high
LINE_NUM: 14 Magic number should be a constant | Severity: low
Some commentary the model added in between.
LINE_NUM: 20: SQL injection risk | Solution: use parameterized queries | Severity: critical
`

	findings := parseFindings(analysis, "foo.py")
	require.Len(t, findings, 3)

	assert.Equal(t, 11, findings[0].Line)
	assert.Equal(t, "foo.py", findings[0].FilePath)
	assert.Equal(t, core.SeverityHigh, findings[0].Severity)
	assert.Equal(t, "Unchecked error return", findings[0].Message)
	assert.Equal(t, "handle the error", findings[0].SuggestedFix)

	assert.Equal(t, 14, findings[1].Line)
	assert.Equal(t, core.SeverityLow, findings[1].Severity)
	assert.Empty(t, findings[1].SuggestedFix)

	assert.Equal(t, core.SeverityCritical, findings[2].Severity)
}

func TestParseFindingsDropsMalformed(t *testing.T) {
	tests := []struct {
		name     string
		analysis string
	}{
		{"no findings at all", "The code looks good to me."},
		{"no line number", "LINE_NUM: somewhere: bad code | Severity: high"},
		{"empty message", "LINE_NUM: 12: | Severity: high"},
		{"empty input", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Empty(t, parseFindings(tt.analysis, "foo.py"))
		})
	}
}

func TestParseFindingsUnknownSeverityDefaultsToMedium(t *testing.T) {
	findings := parseFindings("LINE_NUM: 3: questionable style | Severity: banana", "a.go")
	require.Len(t, findings, 1)
	assert.Equal(t, core.SeverityMedium, findings[0].Severity)
}
