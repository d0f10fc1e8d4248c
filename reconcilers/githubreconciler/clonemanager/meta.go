/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package clonemanager

import (
	"context"
	"fmt"
	"sync"

	"chainguard.dev/codeagent/reconcilers/githubreconciler"
)

// Meta keeps one Manager per owner/repo pair so that a long-running server
// resolves credentials once per repository.
type Meta struct {
	tokenSourceFor githubreconciler.TokenSourceForRepo
	identity       string
	opts           []Option

	mu       sync.Mutex
	managers map[string]*Manager
}

// NewMeta creates a Meta. tokenSourceFor is consulted the first time a
// repository is leased. opts apply to every Manager it creates.
func NewMeta(tokenSourceFor githubreconciler.TokenSourceForRepo, identity string, opts ...Option) *Meta {
	return &Meta{
		tokenSourceFor: tokenSourceFor,
		identity:       identity,
		opts:           opts,
		managers:       make(map[string]*Manager),
	}
}

// Lease clones owner/repo with the Manager cached for that repository.
func (m *Meta) Lease(ctx context.Context, owner, repo string) (*Lease, error) {
	mgr, err := m.manager(ctx, owner, repo)
	if err != nil {
		return nil, err
	}
	return mgr.Lease(ctx, owner, repo)
}

func (m *Meta) manager(ctx context.Context, owner, repo string) (*Manager, error) {
	key := owner + "/" + repo

	m.mu.Lock()
	defer m.mu.Unlock()

	if mgr, ok := m.managers[key]; ok {
		return mgr, nil
	}

	ts, err := m.tokenSourceFor(context.WithoutCancel(ctx), owner, repo)
	if err != nil {
		return nil, fmt.Errorf("create token source: %w", err)
	}
	mgr, err := New(ctx, ts, m.identity, m.opts...)
	if err != nil {
		return nil, fmt.Errorf("create clone manager: %w", err)
	}
	m.managers[key] = mgr
	return mgr, nil
}
