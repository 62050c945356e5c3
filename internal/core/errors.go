package core

import "errors"

// Sentinel errors for the recoverable failure kinds in the review pipeline.
// None of these is fatal to the process; each names the scope of what gets
// skipped when it occurs. The per-file diff parsing error lives in the diff
// package to keep it next to the parser.
var (
	// ErrPlacement marks a finding whose line reference cannot be resolved
	// to a commentable position. The finding is dropped.
	ErrPlacement = errors.New("finding placement failed")

	// ErrAnalysis marks an analyzer failure for a whole PR. The PR is
	// skipped this cycle and retried on the next one.
	ErrAnalysis = errors.New("analysis failed")

	// ErrPublish marks a failure to post a single comment. Remaining
	// comments are still attempted.
	ErrPublish = errors.New("comment publish failed")

	// ErrStateStore marks a state store failure. The service keeps running
	// on in-memory state rather than crashing.
	ErrStateStore = errors.New("state store failure")
)
