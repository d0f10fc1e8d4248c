/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package metaagent

import (
	"context"
	"fmt"

	"chainguard.dev/codeagent/agents/proposal"
	"github.com/chainguard-dev/clog"
)

// Engine produces change proposals and review outcomes.
type Engine interface {
	Generate(ctx context.Context, req *GenerateRequest) (*proposal.ChangeProposal, error)
	Fix(ctx context.Context, req *FixRequest) (*proposal.ChangeProposal, error)
	Review(ctx context.Context, req *ReviewRequest) (*proposal.ReviewOutcome, error)
}

// executor is satisfied by every provider executor package.
type executor[Req, Resp any] interface {
	Execute(ctx context.Context, request Req) (Resp, error)
}

type engine struct {
	provider Provider
	model    string
	generate executor[*GenerateRequest, *proposal.ChangeProposal]
	fix      executor[*FixRequest, *proposal.ChangeProposal]
	review   executor[*ReviewRequest, *proposal.ReviewOutcome]
}

// New resolves the configured provider and builds its executors.
func New(ctx context.Context, cfg Config) (Engine, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	var (
		e   *engine
		err error
	)
	switch cfg.Provider {
	case ProviderGemini:
		e, err = newGoogleEngine(ctx, cfg)
	case ProviderClaude:
		e, err = newClaudeEngine(ctx, cfg)
	case ProviderOpenAI:
		e, err = newOpenAIEngine(cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("creating %s engine: %w", cfg.Provider, err)
	}
	clog.FromContext(ctx).With("provider", cfg.Provider).With("model", e.model).Info("Generation engine ready")
	return e, nil
}

func (e *engine) Generate(ctx context.Context, req *GenerateRequest) (*proposal.ChangeProposal, error) {
	return e.generate.Execute(ctx, req)
}

func (e *engine) Fix(ctx context.Context, req *FixRequest) (*proposal.ChangeProposal, error) {
	return e.fix.Execute(ctx, req)
}

func (e *engine) Review(ctx context.Context, req *ReviewRequest) (*proposal.ReviewOutcome, error) {
	return e.review.Execute(ctx, req)
}
