package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sevigo/pr-sentry/internal/core"
)

func validConfig() Config {
	return Config{
		PollInterval:     30 * time.Second,
		ReviewMode:       core.ModeDetailed,
		CommentThreshold: core.SeverityMedium,
		SnapTolerance:    3,
		StateBackend:     "file",
		StateFile:        "reviewed_prs.json",
		GitHubToken:      "ghp_xxx",
		RepoOwner:        "acme",
		RepoName:         "widgets",
		GeminiAPIKey:     "key",
		Model:            "gemini-2.0-flash",
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid config",
			mutate: func(*Config) {},
		},
		{
			name:    "missing token",
			mutate:  func(c *Config) { c.GitHubToken = "" },
			wantErr: "GITHUB_TOKEN",
		},
		{
			name:    "missing repo coordinates",
			mutate:  func(c *Config) { c.RepoName = "" },
			wantErr: "REPO_OWNER and REPO_NAME",
		},
		{
			name:    "missing analyzer key",
			mutate:  func(c *Config) { c.GeminiAPIKey = "" },
			wantErr: "GEMINI_API_KEY",
		},
		{
			name:    "zero poll interval",
			mutate:  func(c *Config) { c.PollInterval = 0 },
			wantErr: "POLL_INTERVAL_SECONDS",
		},
		{
			name:    "negative tolerance",
			mutate:  func(c *Config) { c.SnapTolerance = -1 },
			wantErr: "SNAP_TOLERANCE",
		},
		{
			name:    "unknown state backend",
			mutate:  func(c *Config) { c.StateBackend = "redis" },
			wantErr: "STATE_BACKEND",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				assert.ErrorContains(t, err, tt.wantErr)
			}
		})
	}
}

func TestLenientEnumParsing(t *testing.T) {
	assert.Equal(t, core.ModeSecurityFocused, core.ParseReviewMode("Security-Focused"))
	assert.Equal(t, core.ModeDetailed, core.ParseReviewMode("nonsense"))
	assert.Equal(t, core.SeverityCritical, core.ParseSeverity(" CRITICAL "))
	assert.Equal(t, core.SeverityMedium, core.ParseSeverity("unknown"))
}
