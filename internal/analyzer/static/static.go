// Package static provides a canned analyzer for tests and local dry runs:
// it returns a fixed set of findings regardless of the diff content.
package static

import (
	"context"

	"github.com/sevigo/pr-sentry/internal/core"
	"github.com/sevigo/pr-sentry/internal/diff"
)

// Analyzer returns its configured findings on every call. The zero value
// reports nothing.
type Analyzer struct {
	Findings []core.Finding
	Err      error

	// Calls counts Analyze invocations, letting tests assert that a PR
	// guarded by the state store never reaches the analyzer.
	Calls int
}

func (a *Analyzer) Analyze(_ context.Context, _ []diff.FileDiff, _ core.ReviewMode) ([]core.Finding, error) {
	a.Calls++
	if a.Err != nil {
		return nil, a.Err
	}
	return a.Findings, nil
}
