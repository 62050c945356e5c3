package main

import (
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	githubToken string
	repoOwner   string
	repoName    string
)

var rootCmd = &cobra.Command{
	Use:   "sentry",
	Short: "sentry watches a repository and posts AI code reviews on open pull requests.",
	Long: `PR Sentry polls a repository for open pull requests, requests an AI review
of each new revision, and posts the findings back as inline and summary
comments. Review state is persisted so restarts never post twice.`,
}

func init() { //nolint:gochecknoinits // Cobra's init function for command registration
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&githubToken, "github-token", "t", "", "GitHub token")
	rootCmd.PersistentFlags().StringVar(&repoOwner, "owner", "", "repository owner")
	rootCmd.PersistentFlags().StringVar(&repoName, "repo", "", "repository name")

	bindings := map[string]string{
		"GITHUB_TOKEN": "github-token",
		"REPO_OWNER":   "owner",
		"REPO_NAME":    "repo",
	}
	for key, flag := range bindings {
		if err := viper.BindPFlag(key, rootCmd.PersistentFlags().Lookup(flag)); err != nil {
			slog.Error("error binding flag", "flag", flag, "error", err)
			os.Exit(1)
		}
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}
