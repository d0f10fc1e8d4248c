/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package main

import (
	"errors"
	"io"
	"log/slog"

	"github.com/chainguard-dev/clog"
	"github.com/sethvargo/go-envconfig"
	"github.com/spf13/cobra"

	"chainguard.dev/codeagent/reconcilers/githubreconciler"
)

type rootFlags struct {
	repo    string
	token   string
	verbose bool
}

func newRootCommand() *cobra.Command {
	var flags rootFlags
	root := &cobra.Command{
		Use:   "codeagent",
		Short: "Turn GitHub issues into pull requests and iterate on review feedback",
		Long: `codeagent generates code for a GitHub issue and opens a pull request,
reviews pull requests, and revises them from "changes requested" reviews
until they are approved or the iteration limit is reached.

Configuration is read from the environment (GITHUB_TOKEN, CODEAGENT_PROVIDER,
MAX_ITERATIONS, ...). Flags override it.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			cmd.SetContext(clog.WithLogger(cmd.Context(), newLogger(cmd.ErrOrStderr(), flags.verbose)))
		},
	}
	root.PersistentFlags().StringVarP(&flags.repo, "repo", "r", "", "Repository (owner/repo)")
	root.PersistentFlags().StringVarP(&flags.token, "token", "t", "", "GitHub token (defaults to $GITHUB_TOKEN)")
	root.PersistentFlags().BoolVar(&flags.verbose, "verbose", false, "Enable debug logging")

	root.AddCommand(
		newRunCommand(&flags),
		newFixCommand(&flags),
		newReviewCommand(&flags),
		newServeCommand(&flags),
	)
	return root
}

func newLogger(w io.Writer, verbose bool) *clog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return clog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// resolve loads the environment and applies flag overrides.
func (f *rootFlags) resolve(cmd *cobra.Command) (*config, error) {
	cfg, err := loadConfig(cmd.Context(), envconfig.OsLookuper())
	if err != nil {
		return nil, err
	}
	if f.repo != "" {
		cfg.Repository = f.repo
	}
	if f.token != "" {
		cfg.GitHubToken = f.token
	}
	return cfg, nil
}

// resource resolves the target repository and the issue or pull request
// number.
func resource(cfg *config, number int) (*githubreconciler.Resource, error) {
	if cfg.Repository == "" {
		return nil, errors.New("no repository: pass --repo owner/repo or set GITHUB_REPOSITORY")
	}
	return githubreconciler.NewResource(cfg.Repository, number)
}
