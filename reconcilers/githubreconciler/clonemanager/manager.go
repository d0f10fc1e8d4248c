/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package clonemanager

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/chainguard-dev/clog"
	"github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing/transport"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"
	"golang.org/x/oauth2"
)

const (
	cloneDirPrefix = "codeagent-clone-"
	remoteName     = "origin"
)

// Manager clones repositories on behalf of a single automation identity.
type Manager struct {
	tokenSource oauth2.TokenSource
	identity    string
	remoteURL   func(owner, repo string) string
}

// Option configures a Manager.
type Option func(*Manager)

// WithRemoteURL replaces how the clone URL for owner/repo is built. The
// default points at github.com over HTTPS.
func WithRemoteURL(fn func(owner, repo string) string) Option {
	return func(m *Manager) { m.remoteURL = fn }
}

// New constructs a Manager. The token source must allow cloning and pushing
// to the targeted repositories. Identity is the commit author name and, when
// it lacks a domain, is suffixed with @users.noreply.github.com for the email.
func New(_ context.Context, tokenSource oauth2.TokenSource, identity string, opts ...Option) (*Manager, error) {
	if tokenSource == nil {
		return nil, errors.New("token source cannot be nil")
	}

	identity = strings.TrimSpace(identity)
	if identity == "" {
		return nil, errors.New("identity cannot be empty")
	}

	m := &Manager{
		tokenSource: tokenSource,
		identity:    identity,
		remoteURL:   defaultRemoteURL,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Lease clones owner/repo into a fresh temporary directory. Callers must
// invoke Return to remove it.
func (m *Manager) Lease(ctx context.Context, owner, repo string) (*Lease, error) {
	switch {
	case owner == "":
		return nil, errors.New("owner cannot be empty")
	case repo == "":
		return nil, errors.New("repo cannot be empty")
	}

	dir, err := os.MkdirTemp("", cloneDirPrefix)
	if err != nil {
		return nil, fmt.Errorf("creating temp dir: %w", err)
	}

	r, err := m.clone(ctx, dir, m.remoteURL(owner, repo))
	if err != nil {
		os.RemoveAll(dir)
		return nil, err
	}

	return &Lease{
		manager: m,
		path:    dir,
		repo:    r,
	}, nil
}

func (m *Manager) clone(ctx context.Context, dir, remote string) (*git.Repository, error) {
	log := clog.FromContext(ctx)
	log.Infof("Cloning repository %s into %s", remote, dir)

	auth, err := m.authForRemote()
	if err != nil {
		return nil, fmt.Errorf("getting token: %w", err)
	}

	r, err := git.PlainCloneContext(ctx, dir, false, &git.CloneOptions{
		URL:        remote,
		RemoteName: remoteName,
		Auth:       auth,
	})
	switch {
	case err == nil:
		return r, nil
	case errors.Is(err, transport.ErrEmptyRemoteRepository):
		log.Infof("Remote %s has no commits, initializing an empty repository", remote)
		return initEmpty(dir, remote)
	default:
		return nil, fmt.Errorf("cloning repository: %w", err)
	}
}

// initEmpty prepares dir as a repository with no commits whose origin points
// at remote.
func initEmpty(dir, remote string) (*git.Repository, error) {
	// A failed clone may leave a partial .git behind.
	if err := os.RemoveAll(dir); err != nil {
		return nil, fmt.Errorf("clearing clone dir: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("recreating clone dir: %w", err)
	}

	r, err := git.PlainInit(dir, false)
	if err != nil {
		return nil, fmt.Errorf("initializing repository: %w", err)
	}
	if _, err := r.CreateRemote(&gitconfig.RemoteConfig{
		Name: remoteName,
		URLs: []string{remote},
	}); err != nil {
		return nil, fmt.Errorf("creating remote: %w", err)
	}
	return r, nil
}

func (m *Manager) authForRemote() (*githttp.BasicAuth, error) {
	token, err := m.tokenSource.Token()
	if err != nil {
		return nil, err
	}

	return &githttp.BasicAuth{
		Username: "x-access-token",
		Password: token.AccessToken,
	}, nil
}

func (m *Manager) email() string {
	if strings.Contains(m.identity, "@") {
		return m.identity
	}
	return m.identity + "@users.noreply.github.com"
}

func defaultRemoteURL(owner, repo string) string {
	return fmt.Sprintf("https://github.com/%s/%s.git", owner, repo)
}
