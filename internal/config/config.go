// Package config loads the service configuration from environment variables
// and an optional .env file. The configuration is read once at startup and
// never re-read during a run.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/sevigo/pr-sentry/internal/core"
	"github.com/sevigo/pr-sentry/internal/state"
)

// Config holds the application's configuration values.
type Config struct {
	LogLevel  string
	LogFormat string

	ServerPort string

	PollInterval          time.Duration
	ReviewMode            core.ReviewMode
	CommentThreshold      core.Severity
	SnapTolerance         int
	MarkReviewedOnPartial bool

	StateBackend string // memory, file or postgres
	StateFile    string
	Database     state.PostgresConfig

	GitHubToken string
	RepoOwner   string
	RepoName    string

	GeminiAPIKey string
	Model        string
}

// LoadConfig reads configuration from environment variables and a .env file,
// sets sensible defaults, and validates required fields. It uses the Viper
// library to handle configuration loading and precedence.
func LoadConfig() (*Config, error) {
	viper.SetConfigFile(".env")

	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("LOG_FORMAT", "text")
	viper.SetDefault("POLL_INTERVAL_SECONDS", 30)
	viper.SetDefault("REVIEW_MODE", "detailed")
	viper.SetDefault("COMMENT_THRESHOLD", "medium")
	viper.SetDefault("SNAP_TOLERANCE", 3)
	viper.SetDefault("MARK_REVIEWED_ON_PARTIAL", true)
	viper.SetDefault("STATE_BACKEND", "file")
	viper.SetDefault("STATE_FILE", "reviewed_prs.json")
	viper.SetDefault("AI_MODEL", "gemini-2.0-flash")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", 5432)
	viper.SetDefault("DB_NAME", "pr_sentry")

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			// a missing .env is fine, an unreadable one is not
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{
		LogLevel:              viper.GetString("LOG_LEVEL"),
		LogFormat:             viper.GetString("LOG_FORMAT"),
		ServerPort:            viper.GetString("SERVER_PORT"),
		PollInterval:          time.Duration(viper.GetInt("POLL_INTERVAL_SECONDS")) * time.Second,
		ReviewMode:            core.ParseReviewMode(viper.GetString("REVIEW_MODE")),
		CommentThreshold:      core.ParseSeverity(viper.GetString("COMMENT_THRESHOLD")),
		SnapTolerance:         viper.GetInt("SNAP_TOLERANCE"),
		MarkReviewedOnPartial: viper.GetBool("MARK_REVIEWED_ON_PARTIAL"),
		StateBackend:          viper.GetString("STATE_BACKEND"),
		StateFile:             viper.GetString("STATE_FILE"),
		Database: state.PostgresConfig{
			Host:     viper.GetString("DB_HOST"),
			Port:     viper.GetInt("DB_PORT"),
			Username: viper.GetString("DB_USER"),
			Password: viper.GetString("DB_PASSWORD"),
			Database: viper.GetString("DB_NAME"),
		},
		GitHubToken:  viper.GetString("GITHUB_TOKEN"),
		RepoOwner:    viper.GetString("REPO_OWNER"),
		RepoName:     viper.GetString("REPO_NAME"),
		GeminiAPIKey: viper.GetString("GEMINI_API_KEY"),
		Model:        viper.GetString("AI_MODEL"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks required fields and value ranges.
func (c *Config) Validate() error {
	if c.GitHubToken == "" {
		return fmt.Errorf("GITHUB_TOKEN must be set")
	}
	if c.RepoOwner == "" || c.RepoName == "" {
		return fmt.Errorf("REPO_OWNER and REPO_NAME must be set")
	}
	if c.GeminiAPIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY must be set")
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("POLL_INTERVAL_SECONDS must be positive")
	}
	if c.SnapTolerance < 0 {
		return fmt.Errorf("SNAP_TOLERANCE cannot be negative")
	}
	switch c.StateBackend {
	case "memory", "file", "postgres":
	default:
		return fmt.Errorf("unsupported STATE_BACKEND: %s", c.StateBackend)
	}
	return nil
}
