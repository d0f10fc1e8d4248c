/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package metaagent

import (
	"context"
	"fmt"

	"chainguard.dev/codeagent/agents/executor/googleexecutor"
	"chainguard.dev/codeagent/agents/metrics"
	"chainguard.dev/codeagent/agents/promptbuilder"
	"chainguard.dev/codeagent/agents/proposal"
	"google.golang.org/genai"
)

func newGoogleEngine(ctx context.Context, cfg Config) (*engine, error) {
	clientConfig := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.APIKey == "" {
		clientConfig = &genai.ClientConfig{
			Project:  cfg.ProjectID,
			Location: cfg.Region,
			Backend:  genai.BackendVertexAI,
		}
	}
	if cfg.BaseURL != "" {
		clientConfig.HTTPOptions.BaseURL = cfg.BaseURL
	}
	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("creating Google AI client: %w", err)
	}

	model := cfg.model()
	generate, err := newGoogleExecutor[*GenerateRequest](client, model, "generate", generatePrompt, proposal.DecodeChangeProposal)
	if err != nil {
		return nil, err
	}
	fix, err := newGoogleExecutor[*FixRequest](client, model, "fix", fixPrompt, proposal.DecodeChangeProposal)
	if err != nil {
		return nil, err
	}
	review, err := newGoogleExecutor[*ReviewRequest](client, model, "review", reviewPrompt, proposal.DecodeReviewOutcome)
	if err != nil {
		return nil, err
	}
	return &engine{provider: ProviderGemini, model: model, generate: generate, fix: fix, review: review}, nil
}

func newGoogleExecutor[Req promptbuilder.Bindable, Resp any](
	client *genai.Client,
	model, operation string,
	prompt *promptbuilder.Prompt,
	decode func(string) (Resp, error),
) (googleexecutor.Interface[Req, Resp], error) {
	return googleexecutor.New[Req, Resp](client, prompt,
		googleexecutor.WithModel[Req, Resp](model),
		googleexecutor.WithTemperature[Req, Resp](0.2),
		googleexecutor.WithMaxOutputTokens[Req, Resp](32768),
		googleexecutor.WithSystemInstructions[Req, Resp](systemPrompt),
		googleexecutor.WithOperation[Req, Resp](operation),
		googleexecutor.WithDecoder[Req, Resp](decode),
		googleexecutor.WithAttributeEnricher[Req, Resp](metrics.RepositoryEnricher),
	)
}
