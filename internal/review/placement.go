// Package review turns raw analyzer findings into published pull request
// comments: placement reconciles imprecise line references against the diff,
// publishing posts the surviving comments and a summary.
package review

import (
	"log/slog"

	"github.com/sevigo/pr-sentry/internal/core"
	"github.com/sevigo/pr-sentry/internal/diff"
)

// Resolver maps findings onto exact, commentable positions in the new
// revision. Findings below the severity threshold are dropped before any
// placement work; findings that land outside every hunk are dropped rather
// than posted at a position the platform would reject.
type Resolver struct {
	threshold core.Severity
	tolerance int
	logger    *slog.Logger
}

// NewResolver creates a resolver with the configured comment threshold and
// snap tolerance (max distance, in lines, to the nearest addressable line).
func NewResolver(threshold core.Severity, tolerance int, logger *slog.Logger) *Resolver {
	if tolerance < 0 {
		tolerance = 0
	}
	return &Resolver{threshold: threshold, tolerance: tolerance, logger: logger}
}

// Resolve returns the placeable comments for the given findings, in input
// order. Dropped findings are logged with the reason, never returned.
func (r *Resolver) Resolve(findings []core.Finding, files []diff.FileDiff) []core.PlacedComment {
	byPath := make(map[string][]diff.Hunk, len(files))
	for _, f := range files {
		byPath[f.Path] = f.Hunks
	}

	var placed []core.PlacedComment
	for _, f := range findings {
		if !f.Severity.AtLeast(r.threshold) {
			r.logger.Debug("finding below comment threshold, dropped",
				"file", f.FilePath, "line", f.Line, "severity", f.Severity)
			continue
		}

		hunks, ok := byPath[f.FilePath]
		if !ok {
			r.logger.Warn("finding references a file not in the diff, dropped",
				"file", f.FilePath, "line", f.Line, "error", core.ErrPlacement)
			continue
		}

		line, approximate, ok := r.place(f.Line, hunks)
		if !ok {
			r.logger.Warn("finding outside all hunks, dropped",
				"file", f.FilePath, "line", f.Line, "tolerance", r.tolerance,
				"error", core.ErrPlacement)
			continue
		}

		placed = append(placed, core.PlacedComment{
			FilePath:     f.FilePath,
			Line:         line,
			Severity:     f.Severity,
			Message:      f.Message,
			SuggestedFix: f.SuggestedFix,
			Approximate:  approximate,
		})
	}
	return placed
}

// place finds the commentable new-revision line for an analyzer-provided
// line reference. Exact matches win; otherwise the nearest addressable line
// within the tolerance window of the same hunk is used and flagged as
// approximate.
func (r *Resolver) place(line int, hunks []diff.Hunk) (resolved int, approximate bool, ok bool) {
	for _, h := range hunks {
		if h.ContainsNewLine(line) {
			return line, false, true
		}
	}

	best, bestDist := 0, r.tolerance+1
	for _, h := range hunks {
		first, last, hasNew := h.NewLineRange()
		if !hasNew {
			continue
		}
		// candidate is the edge of the hunk closest to the reference
		candidate := line
		if line < first {
			candidate = first
		} else if line > last {
			candidate = last
		}
		dist := abs(candidate - line)
		if dist < bestDist {
			best, bestDist = candidate, dist
		}
	}
	if bestDist <= r.tolerance {
		return best, true, true
	}
	return 0, false, false
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
