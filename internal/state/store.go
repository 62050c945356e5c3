// Package state persists which pull request revisions have already been
// reviewed, so restarts never cause a re-review or a double post. Backends
// are injectable: in-memory for tests, a JSON file for the default
// deployment, Postgres for shared installations.
package state

import (
	"context"
	"sync"
	"time"

	"github.com/sevigo/pr-sentry/internal/core"
)

// Store is the review-state contract the scheduler depends on. A (prID,
// commitID) pair is reviewed at most once; a record with a different commit
// ID makes the PR eligible again.
type Store interface {
	// IsReviewed reports whether the given PR revision was already reviewed.
	IsReviewed(ctx context.Context, prID int, commitID string) (bool, error)

	// MarkReviewed records a completed review, overwriting any previous
	// record for the same PR, and persists immediately (at-least-once).
	MarkReviewed(ctx context.Context, prID int, commitID string, reviewedAt time.Time) error

	// Records returns a snapshot of all stored review records.
	Records(ctx context.Context) ([]core.ReviewRecord, error)

	// Reset drops all records, forcing a full re-review on the next cycle.
	Reset(ctx context.Context) error

	Close() error
}

// MemoryStore keeps review records in memory only. Used in tests and as the
// degraded fallback when a durable backend cannot be opened.
type MemoryStore struct {
	mu      sync.Mutex
	records map[int]core.ReviewRecord
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[int]core.ReviewRecord)}
}

func (m *MemoryStore) IsReviewed(_ context.Context, prID int, commitID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[prID]
	return ok && rec.CommitID == commitID, nil
}

func (m *MemoryStore) MarkReviewed(_ context.Context, prID int, commitID string, reviewedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[prID] = core.ReviewRecord{
		PullRequestID: prID,
		CommitID:      commitID,
		ReviewedAt:    reviewedAt,
	}
	return nil
}

func (m *MemoryStore) Records(_ context.Context) ([]core.ReviewRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]core.ReviewRecord, 0, len(m.records))
	for _, rec := range m.records {
		out = append(out, rec)
	}
	return out, nil
}

func (m *MemoryStore) Reset(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = make(map[int]core.ReviewRecord)
	return nil
}

func (m *MemoryStore) Close() error { return nil }
