/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package githubreconciler

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/bradleyfalzon/ghinstallation/v2"
	"github.com/google/go-github/v84/github"
	"golang.org/x/oauth2"
)

// TokenSourceForRepo resolves an OAuth2 token source for a given owner/repo pair.
type TokenSourceForRepo func(ctx context.Context, owner, repo string) (oauth2.TokenSource, error)

// StaticTokenSourceFor returns a TokenSourceForRepo that hands out the same
// token for every repository. It backs the CLI's --token flag.
func StaticTokenSourceFor(token string) TokenSourceForRepo {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	return func(context.Context, string, string) (oauth2.TokenSource, error) {
		if token == "" {
			return nil, errors.New("no GitHub token configured")
		}
		return ts, nil
	}
}

// AppTokenSourceFor returns a TokenSourceForRepo that mints installation
// tokens for the GitHub App identified by appID. The installation is looked up
// per repository.
func AppTokenSourceFor(appID int64, privateKey []byte) (TokenSourceForRepo, error) {
	atr, err := ghinstallation.NewAppsTransport(http.DefaultTransport, appID, privateKey)
	if err != nil {
		return nil, fmt.Errorf("creating app transport: %w", err)
	}
	apps := github.NewClient(&http.Client{Transport: atr})

	return func(ctx context.Context, owner, repo string) (oauth2.TokenSource, error) {
		inst, _, err := apps.Apps.FindRepositoryInstallation(ctx, owner, repo)
		if err != nil {
			return nil, fmt.Errorf("finding installation for %s/%s: %w", owner, repo, err)
		}
		return &installationTokenSource{
			ctx: ctx,
			itr: ghinstallation.NewFromAppsTransport(atr, inst.GetID()),
		}, nil
	}, nil
}

// NewInstallationTokenSource mints tokens for a known installation.
func NewInstallationTokenSource(ctx context.Context, appID, installationID int64, privateKey []byte) (oauth2.TokenSource, error) {
	itr, err := ghinstallation.New(http.DefaultTransport, appID, installationID, privateKey)
	if err != nil {
		return nil, fmt.Errorf("creating installation transport: %w", err)
	}
	return &installationTokenSource{ctx: ctx, itr: itr}, nil
}

// installationTokenSource adapts a ghinstallation transport, which caches and
// refreshes tokens itself, to oauth2.TokenSource.
type installationTokenSource struct {
	ctx context.Context
	itr *ghinstallation.Transport
}

func (s *installationTokenSource) Token() (*oauth2.Token, error) {
	tok, err := s.itr.Token(s.ctx)
	if err != nil {
		return nil, fmt.Errorf("minting installation token: %w", err)
	}
	return &oauth2.Token{AccessToken: tok, TokenType: "token"}, nil
}
