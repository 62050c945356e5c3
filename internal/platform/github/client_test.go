package github

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/google/go-github/v73/github"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestClient points a Client at a stub GitHub API.
func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	gh := github.NewClient(nil)
	base, err := url.Parse(srv.URL + "/")
	require.NoError(t, err)
	gh.BaseURL = base

	return newClient(gh, "acme", "widgets", testLogger()), srv
}

func TestListOpenPullRequests(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/acme/widgets/pulls", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "open", r.URL.Query().Get("state"))
		_ = json.NewEncoder(w).Encode([]map[string]any{
			{
				"number": 101,
				"title":  "Add retry logic",
				"head":   map[string]any{"ref": "feature/retry", "sha": "abc123"},
				"base":   map[string]any{"ref": "main"},
			},
		})
	})

	c, _ := newTestClient(t, mux)
	refs, err := c.ListOpenPullRequests(context.Background())
	require.NoError(t, err)
	require.Len(t, refs, 1)

	assert.Equal(t, 101, refs[0].ID)
	assert.Equal(t, "feature/retry", refs[0].SourceBranch)
	assert.Equal(t, "main", refs[0].TargetBranch)
	assert.Equal(t, "abc123", refs[0].LatestSourceCommit)
}

func TestGetDiff(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/acme/widgets/pulls/101/files", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode([]map[string]any{
			{"filename": "foo.py", "patch": "@@ -1,1 +1,2 @@\n a\n+b"},
			{"filename": "logo.png"},
		})
	})

	c, _ := newTestClient(t, mux)
	patches, err := c.GetDiff(context.Background(), 101)
	require.NoError(t, err)

	assert.Equal(t, "@@ -1,1 +1,2 @@\n a\n+b", patches["foo.py"])
	assert.Empty(t, patches["logo.png"])
}

func TestPostInlineCommentUsesCachedHead(t *testing.T) {
	var gotComment map[string]any
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/acme/widgets/pulls", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode([]map[string]any{
			{"number": 101, "head": map[string]any{"sha": "abc123"}},
		})
	})
	mux.HandleFunc("/repos/acme/widgets/pulls/101/comments", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotComment))
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id": 1}`))
	})

	c, _ := newTestClient(t, mux)
	_, err := c.ListOpenPullRequests(context.Background())
	require.NoError(t, err)

	err = c.PostInlineComment(context.Background(), 101, "foo.py", 11, "check this")
	require.NoError(t, err)

	assert.Equal(t, "abc123", gotComment["commit_id"])
	assert.Equal(t, "foo.py", gotComment["path"])
	assert.Equal(t, float64(11), gotComment["line"])
	assert.Equal(t, "RIGHT", gotComment["side"])
}

func TestPostSummaryComment(t *testing.T) {
	var gotBody map[string]any
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/acme/widgets/issues/101/comments", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id": 2}`))
	})

	c, _ := newTestClient(t, mux)
	err := c.PostSummaryComment(context.Background(), 101, "all good")
	require.NoError(t, err)
	assert.Equal(t, "all good", gotBody["body"])
}
