/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package metaagent

import (
	"context"

	"chainguard.dev/codeagent/agents/executor/claudeexecutor"
	"chainguard.dev/codeagent/agents/metrics"
	"chainguard.dev/codeagent/agents/promptbuilder"
	"chainguard.dev/codeagent/agents/proposal"
	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/vertex"
)

func newClaudeEngine(ctx context.Context, cfg Config) (*engine, error) {
	var opts []option.RequestOption
	if cfg.APIKey != "" {
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	} else {
		opts = append(opts, vertex.WithGoogleAuth(ctx, cfg.Region, cfg.ProjectID))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	client := anthropic.NewClient(opts...)

	model := cfg.model()
	generate, err := newClaudeExecutor[*GenerateRequest](client, model, "generate", generatePrompt, proposal.DecodeChangeProposal)
	if err != nil {
		return nil, err
	}
	fix, err := newClaudeExecutor[*FixRequest](client, model, "fix", fixPrompt, proposal.DecodeChangeProposal)
	if err != nil {
		return nil, err
	}
	review, err := newClaudeExecutor[*ReviewRequest](client, model, "review", reviewPrompt, proposal.DecodeReviewOutcome)
	if err != nil {
		return nil, err
	}
	return &engine{provider: ProviderClaude, model: model, generate: generate, fix: fix, review: review}, nil
}

func newClaudeExecutor[Req promptbuilder.Bindable, Resp any](
	client anthropic.Client,
	model, operation string,
	prompt *promptbuilder.Prompt,
	decode func(string) (Resp, error),
) (claudeexecutor.Interface[Req, Resp], error) {
	return claudeexecutor.New[Req, Resp](client, prompt,
		claudeexecutor.WithModel[Req, Resp](model),
		claudeexecutor.WithTemperature[Req, Resp](0.2),
		claudeexecutor.WithMaxTokens[Req, Resp](32000),
		claudeexecutor.WithSystemInstructions[Req, Resp](systemPrompt),
		claudeexecutor.WithOperation[Req, Resp](operation),
		claudeexecutor.WithDecoder[Req, Resp](decode),
		claudeexecutor.WithAttributeEnricher[Req, Resp](metrics.RepositoryEnricher),
	)
}
