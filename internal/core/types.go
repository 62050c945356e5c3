// Package core defines the essential interfaces and data structures that form
// the backbone of the application. These components are designed to be
// abstract, allowing for flexible and decoupled implementations of the
// application's logic.
package core

import (
	"strings"
	"time"
)

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// PullRequestRef is a lightweight view of a pull request as reported by the
// hosting platform. Identity is the ID; the platform mutates
// LatestSourceCommit when new commits are pushed, which makes the PR
// reviewable again.
type PullRequestRef struct {
	ID                 int
	Title              string
	SourceBranch       string
	TargetBranch       string
	LatestSourceCommit string
}

// Severity classifies how serious a finding is.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Rank returns a numeric rank for threshold comparison, higher is more
// severe. Unknown severities rank below low.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 4
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	default:
		return 0
	}
}

// AtLeast reports whether s ranks at or above the given threshold.
func (s Severity) AtLeast(threshold Severity) bool {
	return s.Rank() >= threshold.Rank()
}

// ParseSeverity normalizes an analyzer-provided severity string. Anything
// unrecognized falls back to medium, mirroring how lenient the analyzer
// output format is.
func ParseSeverity(raw string) Severity {
	switch Severity(normalize(raw)) {
	case SeverityLow:
		return SeverityLow
	case SeverityMedium:
		return SeverityMedium
	case SeverityHigh:
		return SeverityHigh
	case SeverityCritical:
		return SeverityCritical
	default:
		return SeverityMedium
	}
}

// ReviewMode selects the analyzer's review style.
type ReviewMode string

const (
	ModeDetailed        ReviewMode = "detailed"
	ModeQuick           ReviewMode = "quick"
	ModeSecurityFocused ReviewMode = "security-focused"
)

// ParseReviewMode validates a configured review mode, defaulting to detailed.
func ParseReviewMode(raw string) ReviewMode {
	switch ReviewMode(normalize(raw)) {
	case ModeQuick:
		return ModeQuick
	case ModeSecurityFocused:
		return ModeSecurityFocused
	default:
		return ModeDetailed
	}
}

// Finding is one issue reported by the analyzer about a specific location.
// The line reference is as given by the analyzer and may be imprecise; the
// placement resolver reconciles it against the diff.
type Finding struct {
	FilePath     string
	Line         int
	Severity     Severity
	Message      string
	SuggestedFix string
}

// PlacedComment is a finding that has been resolved to a concrete,
// commentable position in the new revision. Approximate is set when the
// analyzer's line reference had to be snapped to a nearby changed line.
type PlacedComment struct {
	FilePath     string
	Line         int
	Severity     Severity
	Message      string
	SuggestedFix string
	Approximate  bool
}

// ReviewRecord marks one pull request revision as reviewed. Keyed by
// PullRequestID; re-reviewing after a new commit overwrites the record.
type ReviewRecord struct {
	PullRequestID int       `json:"pull_request_id" db:"pull_request_id"`
	CommitID      string    `json:"commit_id" db:"commit_id"`
	ReviewedAt    time.Time `json:"reviewed_at" db:"reviewed_at"`
}
