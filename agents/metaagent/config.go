/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package metaagent

import (
	"errors"
	"fmt"
	"strings"
)

// Provider selects the model API backing an Engine.
type Provider string

const (
	ProviderGemini Provider = "gemini"
	ProviderClaude Provider = "claude"
	ProviderOpenAI Provider = "openai"
)

// ParseProvider accepts a provider name in any case.
func ParseProvider(s string) (Provider, error) {
	switch p := Provider(strings.ToLower(strings.TrimSpace(s))); p {
	case ProviderGemini, ProviderClaude, ProviderOpenAI:
		return p, nil
	default:
		return "", fmt.Errorf("unsupported provider: %q (expected gemini, claude or openai)", s)
	}
}

// DefaultModel returns the model used when Config.Model is empty.
func (p Provider) DefaultModel() string {
	switch p {
	case ProviderClaude:
		return "claude-sonnet-4-5"
	case ProviderOpenAI:
		return "gpt-4.1"
	default:
		return "gemini-2.5-flash-lite"
	}
}

// Config selects and authenticates the provider.
type Config struct {
	Provider Provider
	Model    string

	// APIKey authenticates against the provider's public API.
	APIKey string

	// ProjectID and Region route Gemini and Claude through Vertex AI when
	// APIKey is empty.
	ProjectID string
	Region    string

	// BaseURL overrides the API endpoint, for proxies and tests.
	BaseURL string
}

func (c Config) validate() error {
	if _, err := ParseProvider(string(c.Provider)); err != nil {
		return err
	}
	if c.APIKey != "" {
		return nil
	}
	if c.Provider == ProviderOpenAI {
		return errors.New("openai provider requires an API key")
	}
	if c.ProjectID == "" || c.Region == "" {
		return fmt.Errorf("%s provider requires an API key, or a project and region for Vertex AI", c.Provider)
	}
	return nil
}

func (c Config) model() string {
	if c.Model != "" {
		return c.Model
	}
	return c.Provider.DefaultModel()
}
