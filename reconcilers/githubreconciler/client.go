/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package githubreconciler

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/go-github/v84/github"
	"golang.org/x/oauth2"
)

// NewClient returns a go-github client authenticated by ts.
func NewClient(ctx context.Context, ts oauth2.TokenSource) *github.Client {
	return github.NewClient(oauth2.NewClient(ctx, ts))
}

// ClientCache hands out one authenticated client per owner/repo pair,
// creating each lazily on first use.
type ClientCache struct {
	tokenSourceFor TokenSourceForRepo

	mu      sync.RWMutex
	clients map[string]*github.Client
}

// NewClientCache creates a ClientCache that obtains credentials through
// tokenSourceFor.
func NewClientCache(tokenSourceFor TokenSourceForRepo) *ClientCache {
	return &ClientCache{
		tokenSourceFor: tokenSourceFor,
		clients:        make(map[string]*github.Client),
	}
}

// Get returns the client for owner/repo.
func (c *ClientCache) Get(ctx context.Context, owner, repo string) (*github.Client, error) {
	key := owner + "/" + repo

	c.mu.RLock()
	gh, ok := c.clients[key]
	c.mu.RUnlock()
	if ok {
		return gh, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if gh, ok := c.clients[key]; ok {
		return gh, nil
	}

	ts, err := c.tokenSourceFor(ctx, owner, repo)
	if err != nil {
		return nil, fmt.Errorf("create token source: %w", err)
	}
	// The client outlives the request that created it.
	gh = NewClient(context.WithoutCancel(ctx), ts)
	c.clients[key] = gh
	return gh, nil
}

// TokenSource returns the token source for owner/repo, for use by git
// transports that need the same credentials.
func (c *ClientCache) TokenSource(ctx context.Context, owner, repo string) (oauth2.TokenSource, error) {
	return c.tokenSourceFor(ctx, owner, repo)
}
