/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package metaagent

import (
	"chainguard.dev/codeagent/agents/executor/openaiexecutor"
	"chainguard.dev/codeagent/agents/metrics"
	"chainguard.dev/codeagent/agents/promptbuilder"
	"chainguard.dev/codeagent/agents/proposal"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

func newOpenAIEngine(cfg Config) (*engine, error) {
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	client := openai.NewClient(opts...)

	model := cfg.model()
	generate, err := newOpenAIExecutor[*GenerateRequest](client, model, "generate", generatePrompt, proposal.DecodeChangeProposal)
	if err != nil {
		return nil, err
	}
	fix, err := newOpenAIExecutor[*FixRequest](client, model, "fix", fixPrompt, proposal.DecodeChangeProposal)
	if err != nil {
		return nil, err
	}
	review, err := newOpenAIExecutor[*ReviewRequest](client, model, "review", reviewPrompt, proposal.DecodeReviewOutcome)
	if err != nil {
		return nil, err
	}
	return &engine{provider: ProviderOpenAI, model: model, generate: generate, fix: fix, review: review}, nil
}

func newOpenAIExecutor[Req promptbuilder.Bindable, Resp any](
	client openai.Client,
	model, operation string,
	prompt *promptbuilder.Prompt,
	decode func(string) (Resp, error),
) (openaiexecutor.Interface[Req, Resp], error) {
	return openaiexecutor.New[Req, Resp](client, prompt,
		openaiexecutor.WithModel[Req, Resp](model),
		openaiexecutor.WithMaxCompletionTokens[Req, Resp](32000),
		openaiexecutor.WithSystemInstructions[Req, Resp](systemPrompt),
		openaiexecutor.WithOperation[Req, Resp](operation),
		openaiexecutor.WithDecoder[Req, Resp](decode),
		openaiexecutor.WithAttributeEnricher[Req, Resp](metrics.RepositoryEnricher),
	)
}
