/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package main

import (
	"context"
	"fmt"

	"chainguard.dev/codeagent/agents/metaagent"
	"chainguard.dev/codeagent/reconcilers/githubreconciler"
	"chainguard.dev/codeagent/reconcilers/githubreconciler/changemanager"
	"chainguard.dev/codeagent/reconcilers/githubreconciler/clonemanager"
	"chainguard.dev/codeagent/reconcilers/githubreconciler/metareconciler"
	"chainguard.dev/codeagent/reconcilers/githubreconciler/validation"
	"chainguard.dev/codeagent/reconcilers/githubreconciler/webhook"
)

// app holds what is shared across repositories: the engine, GitHub clients
// and clone managers.
type app struct {
	cfg     *config
	engine  metaagent.Engine
	clients *githubreconciler.ClientCache
	clones  *clonemanager.Meta
	opts    []metareconciler.Option
}

func newApp(ctx context.Context, cfg *config) (*app, error) {
	opts, err := cfg.controllerOptions()
	if err != nil {
		return nil, err
	}
	tokenSourceFor, err := cfg.tokenSourceFor()
	if err != nil {
		return nil, err
	}
	engineCfg, err := cfg.engineConfig()
	if err != nil {
		return nil, err
	}
	engine, err := metaagent.New(ctx, engineCfg)
	if err != nil {
		return nil, fmt.Errorf("creating %s engine: %w", engineCfg.Provider, err)
	}

	runner := validation.NewRunner(validation.WithTimeout(cfg.ValidationTimeout))
	return &app{
		cfg:     cfg,
		engine:  engine,
		clients: githubreconciler.NewClientCache(tokenSourceFor),
		clones:  clonemanager.NewMeta(tokenSourceFor, cfg.CommitIdentity),
		opts:    append(opts, metareconciler.WithCommandRunner(runner)),
	}, nil
}

// controller builds the iteration controller for owner/repo.
func (a *app) controller(ctx context.Context, owner, repo string, extra ...metareconciler.Option) (*metareconciler.Controller, error) {
	gh, err := a.clients.Get(ctx, owner, repo)
	if err != nil {
		return nil, fmt.Errorf("creating GitHub client for %s/%s: %w", owner, repo, err)
	}
	opts := append(append([]metareconciler.Option(nil), a.opts...), extra...)
	return metareconciler.New(
		owner+"/"+repo,
		changemanager.New(gh, owner, repo),
		metareconciler.LeaseFrom(a.clones, owner, repo),
		a.engine,
		opts...,
	), nil
}

// agentFor adapts controller to the webhook handler.
func (a *app) agentFor(ctx context.Context, owner, repo string) (webhook.Agent, error) {
	return a.controller(ctx, owner, repo)
}
