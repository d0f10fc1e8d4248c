/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package branchpolicy decides which branch a fresh issue's change lands on
// and prepares it in the clone. Preparation is an ordered list of strategies;
// the first applicable strategy whose Apply succeeds wins.
package branchpolicy

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/chainguard-dev/clog"
)

// DefaultBranch is used for bootstrap commits when none is configured.
const DefaultBranch = "main"

// Repo is the version control surface the strategies need.
type Repo interface {
	ResolveHead(ctx context.Context) (string, bool)
	LocalBranches(ctx context.Context) ([]string, error)
	CreateBranch(ctx context.Context, name string, orphan bool) error
	CheckoutBranch(ctx context.Context, name string) error
}

// State is the repository state strategies are selected against.
type State struct {
	HeadResolvable bool
	LocalBranches  []string
}

// HasBranch reports whether name is a local branch.
func (s State) HasBranch(name string) bool {
	return slices.Contains(s.LocalBranches, name)
}

// Strategy prepares branch in repo when Applies holds.
type Strategy struct {
	Name    string
	Applies func(ctx context.Context, state State, branch string) bool
	Apply   func(ctx context.Context, repo Repo, branch string) error
}

// Target is the prepared branch.
type Target struct {
	Branch string
	// Bootstrap is set when the repository had no commits, in which case the
	// change lands directly on the default branch instead of through a pull
	// request.
	Bootstrap bool
	Strategy  string
}

var (
	// OrphanDefault starts the default branch in an empty repository.
	OrphanDefault = Strategy{
		Name:    "orphan-default",
		Applies: func(context.Context, State, string) bool { return true },
		Apply:   createOrphan,
	}

	// ReuseExisting checks out a local branch left by an earlier attempt.
	ReuseExisting = Strategy{
		Name: "reuse-existing",
		Applies: func(_ context.Context, s State, branch string) bool {
			return s.HasBranch(branch)
		},
		Apply: func(ctx context.Context, repo Repo, branch string) error {
			return repo.CheckoutBranch(ctx, branch)
		},
	}

	// CreateFromHead branches off the current HEAD.
	CreateFromHead = Strategy{
		Name: "create-from-head",
		Applies: func(_ context.Context, s State, _ string) bool {
			return s.HeadResolvable
		},
		Apply: func(ctx context.Context, repo Repo, branch string) error {
			return repo.CreateBranch(ctx, branch, false)
		},
	}

	// OrphanFallback starts the branch with no history.
	OrphanFallback = Strategy{
		Name:    "orphan-fallback",
		Applies: func(context.Context, State, string) bool { return true },
		Apply:   createOrphan,
	}
)

func createOrphan(ctx context.Context, repo Repo, branch string) error {
	return repo.CreateBranch(ctx, branch, true)
}

// ErrNoStrategy is returned when no strategy prepared the branch.
var ErrNoStrategy = errors.New("no branch strategy succeeded")

// Policy chooses and prepares branches for issues.
type Policy struct {
	defaultBranch string
}

// New creates a Policy. An empty defaultBranch means DefaultBranch.
func New(defaultBranch string) *Policy {
	if defaultBranch == "" {
		defaultBranch = DefaultBranch
	}
	return &Policy{defaultBranch: defaultBranch}
}

// IssueBranch names the working branch for issue.
func IssueBranch(issue int) string {
	return fmt.Sprintf("agent/issue-%d", issue)
}

// ForIssue returns the branch for issue, whether it is a bootstrap, and the
// strategies to try, given the repository state.
func (p *Policy) ForIssue(state State, issue int) (string, bool, []Strategy) {
	if !state.HeadResolvable {
		return p.defaultBranch, true, []Strategy{OrphanDefault}
	}
	return IssueBranch(issue), false, []Strategy{ReuseExisting, CreateFromHead, OrphanFallback}
}

// Resolve reads the repository state and prepares the branch for issue.
func (p *Policy) Resolve(ctx context.Context, repo Repo, issue int) (Target, error) {
	_, resolvable := repo.ResolveHead(ctx)
	branches, err := repo.LocalBranches(ctx)
	if err != nil {
		return Target{}, fmt.Errorf("reading repository state: %w", err)
	}
	state := State{HeadResolvable: resolvable, LocalBranches: branches}

	branch, bootstrap, strategies := p.ForIssue(state, issue)
	log := clog.FromContext(ctx).With("branch", branch)

	var errs []error
	for _, s := range strategies {
		if !s.Applies(ctx, state, branch) {
			continue
		}
		if err := s.Apply(ctx, repo, branch); err != nil {
			log.Warnf("Branch strategy %s failed: %v", s.Name, err)
			errs = append(errs, fmt.Errorf("%s: %w", s.Name, err))
			continue
		}
		log.Infof("Prepared branch with strategy %s", s.Name)
		return Target{Branch: branch, Bootstrap: bootstrap, Strategy: s.Name}, nil
	}
	return Target{}, fmt.Errorf("%w for %s: %w", ErrNoStrategy, branch, errors.Join(errs...))
}
