package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/sevigo/pr-sentry/internal/core"
)

// fileState is the on-disk layout. Kept deliberately plain JSON so operators
// can inspect it, and delete it to force a full re-review.
type fileState struct {
	Records []core.ReviewRecord `json:"records"`
}

// FileStore persists review records in a single JSON file. The whole file is
// read at startup and rewritten after every MarkReviewed. A missing or
// corrupt file starts the store empty with a log entry, never an error.
type FileStore struct {
	mu      sync.Mutex
	path    string
	records map[int]core.ReviewRecord
	logger  *slog.Logger
}

// NewFileStore loads (or initializes) the store backed by the given path.
func NewFileStore(path string, logger *slog.Logger) *FileStore {
	s := &FileStore{
		path:    path,
		records: make(map[int]core.ReviewRecord),
		logger:  logger,
	}
	s.load()
	return s
}

func (s *FileStore) load() {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.logger.Info("no previous review state found, starting empty", "path", s.path)
		} else {
			s.logger.Error("failed to read review state, starting empty", "path", s.path, "error", err)
		}
		return
	}

	var st fileState
	if err := json.Unmarshal(data, &st); err != nil {
		s.logger.Error("review state file is corrupt, starting empty", "path", s.path, "error", err)
		return
	}

	for _, rec := range st.Records {
		s.records[rec.PullRequestID] = rec
	}
	s.logger.Info("loaded review state", "path", s.path, "records", len(s.records))
}

// persist rewrites the whole file. Written via a temp file + rename so a
// crash mid-write cannot leave a truncated state file behind.
func (s *FileStore) persist() error {
	st := fileState{Records: make([]core.ReviewRecord, 0, len(s.records))}
	for _, rec := range s.records {
		st.Records = append(st.Records, rec)
	}
	sort.Slice(st.Records, func(i, j int) bool {
		return st.Records[i].PullRequestID < st.Records[j].PullRequestID
	})

	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encode: %v", core.ErrStateStore, err)
	}

	tmp := s.path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(s.path), 0o750); err != nil {
		return fmt.Errorf("%w: mkdir: %v", core.ErrStateStore, err)
	}
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("%w: write: %v", core.ErrStateStore, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("%w: rename: %v", core.ErrStateStore, err)
	}
	return nil
}

func (s *FileStore) IsReviewed(_ context.Context, prID int, commitID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[prID]
	return ok && rec.CommitID == commitID, nil
}

func (s *FileStore) MarkReviewed(_ context.Context, prID int, commitID string, reviewedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[prID] = core.ReviewRecord{
		PullRequestID: prID,
		CommitID:      commitID,
		ReviewedAt:    reviewedAt,
	}
	return s.persist()
}

func (s *FileStore) Records(_ context.Context) ([]core.ReviewRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.ReviewRecord, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PullRequestID < out[j].PullRequestID })
	return out, nil
}

func (s *FileStore) Reset(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = make(map[int]core.ReviewRecord)
	return s.persist()
}

func (s *FileStore) Close() error { return nil }
