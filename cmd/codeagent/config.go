/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"

	"chainguard.dev/codeagent/agents/metaagent"
	"chainguard.dev/codeagent/reconcilers/githubreconciler"
	"chainguard.dev/codeagent/reconcilers/githubreconciler/metareconciler"
)

type config struct {
	// GitHub authentication: a token, or GitHub App credentials.
	GitHubToken      string `env:"GITHUB_TOKEN"`
	GitHubAppID      int64  `env:"GITHUB_APP_ID"`
	GitHubPrivateKey string `env:"GITHUB_PRIVATE_KEY"`
	WebhookSecret    string `env:"GITHUB_WEBHOOK_SECRET"`
	Repository       string `env:"GITHUB_REPOSITORY"`

	// Model provider
	Provider        string `env:"CODEAGENT_PROVIDER,default=gemini"`
	Model           string `env:"CODEAGENT_MODEL"`
	GeminiAPIKey    string `env:"GEMINI_API_KEY"`
	AnthropicAPIKey string `env:"ANTHROPIC_API_KEY"`
	OpenAIAPIKey    string `env:"OPENAI_API_KEY"`
	GCPProjectID    string `env:"GCP_PROJECT_ID"`
	GCPRegion       string `env:"GCP_REGION"`

	// Iteration loop
	MaxIterations     int           `env:"MAX_ITERATIONS,default=5"`
	ValidationPolicy  string        `env:"VALIDATION_POLICY,default=lenient"`
	ValidationTimeout time.Duration `env:"VALIDATION_TIMEOUT,default=60s"`
	DefaultBranch     string        `env:"DEFAULT_BRANCH,default=main"`
	CommitIdentity    string        `env:"COMMIT_IDENTITY,default=codeagent"`

	// Server
	Port              int    `env:"PORT,default=8080"`
	MetricsPort       int    `env:"METRICS_PORT,default=2112"`
	MaxConcurrentJobs int    `env:"MAX_CONCURRENT_JOBS,default=4"`
	TriggerLabel      string `env:"TRIGGER_LABEL,default=agent"`
}

func loadConfig(ctx context.Context, lookuper envconfig.Lookuper) (*config, error) {
	var cfg config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, fmt.Errorf("processing config: %w", err)
	}
	return &cfg, nil
}

// engineConfig picks the API key matching the configured provider.
func (c *config) engineConfig() (metaagent.Config, error) {
	provider, err := metaagent.ParseProvider(c.Provider)
	if err != nil {
		return metaagent.Config{}, err
	}
	cfg := metaagent.Config{
		Provider:  provider,
		Model:     c.Model,
		ProjectID: c.GCPProjectID,
		Region:    c.GCPRegion,
	}
	switch provider {
	case metaagent.ProviderGemini:
		cfg.APIKey = c.GeminiAPIKey
	case metaagent.ProviderClaude:
		cfg.APIKey = c.AnthropicAPIKey
	case metaagent.ProviderOpenAI:
		cfg.APIKey = c.OpenAIAPIKey
	}
	return cfg, nil
}

// tokenSourceFor prefers a token over App credentials.
func (c *config) tokenSourceFor() (githubreconciler.TokenSourceForRepo, error) {
	switch {
	case c.GitHubToken != "":
		return githubreconciler.StaticTokenSourceFor(c.GitHubToken), nil
	case c.GitHubAppID != 0 && c.GitHubPrivateKey != "":
		return githubreconciler.AppTokenSourceFor(c.GitHubAppID, []byte(c.GitHubPrivateKey))
	default:
		return nil, errors.New("no GitHub credentials: set GITHUB_TOKEN, pass --token, or set GITHUB_APP_ID and GITHUB_PRIVATE_KEY")
	}
}

func (c *config) controllerOptions() ([]metareconciler.Option, error) {
	policy, err := metareconciler.ParseValidationPolicy(c.ValidationPolicy)
	if err != nil {
		return nil, err
	}
	if c.MaxIterations < 1 {
		return nil, fmt.Errorf("MAX_ITERATIONS must be positive, got %d", c.MaxIterations)
	}
	return []metareconciler.Option{
		metareconciler.WithMaxIterations(c.MaxIterations),
		metareconciler.WithValidationPolicy(policy),
		metareconciler.WithDefaultBranch(c.DefaultBranch),
	}, nil
}
