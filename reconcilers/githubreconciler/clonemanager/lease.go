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
	"path/filepath"
	"sort"
	"time"

	"chainguard.dev/codeagent/agents/proposal"
	"github.com/chainguard-dev/clog"
	"github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/format/index"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// Lease is a clone owned by a single invocation.
type Lease struct {
	manager *Manager
	path    string
	repo    *git.Repository
}

// Root returns the absolute path to the working tree.
func (l *Lease) Root() string {
	return l.path
}

// Repo returns the underlying git repository.
func (l *Lease) Repo() *git.Repository {
	return l.repo
}

// ResolveHead returns the commit HEAD points at. It reports false when HEAD
// does not resolve, as in a repository with no commits or on a fresh orphan
// branch.
func (l *Lease) ResolveHead(context.Context) (string, bool) {
	head, err := l.repo.Head()
	if err != nil {
		return "", false
	}
	return head.Hash().String(), true
}

// CurrentBranch returns the short name of the branch HEAD points at, whether
// or not it has commits.
func (l *Lease) CurrentBranch() (string, error) {
	ref, err := l.repo.Storer.Reference(plumbing.HEAD)
	if err != nil {
		return "", fmt.Errorf("reading HEAD: %w", err)
	}
	if ref.Type() != plumbing.SymbolicReference {
		return "", errors.New("HEAD is detached")
	}
	return ref.Target().Short(), nil
}

// LocalBranches lists the short names of local branches, sorted.
func (l *Lease) LocalBranches(context.Context) ([]string, error) {
	iter, err := l.repo.Branches()
	if err != nil {
		return nil, fmt.Errorf("listing branches: %w", err)
	}
	var names []string
	if err := iter.ForEach(func(ref *plumbing.Reference) error {
		names = append(names, ref.Name().Short())
		return nil
	}); err != nil {
		return nil, fmt.Errorf("listing branches: %w", err)
	}
	sort.Strings(names)
	return names, nil
}

// CreateBranch creates name and checks it out. A non-orphan branch starts at
// HEAD. An orphan branch has no commits until the first CommitPaths, and the
// working tree is left as is.
func (l *Lease) CreateBranch(ctx context.Context, name string, orphan bool) error {
	if name == "" {
		return errors.New("branch name cannot be empty")
	}
	refName := plumbing.NewBranchReferenceName(name)

	if orphan {
		clog.FromContext(ctx).Infof("Creating orphan branch %s", name)
		// A leftover ref would become the parent of the first commit.
		if err := l.removeBranchRef(refName); err != nil {
			return err
		}
		if err := l.repo.Storer.SetReference(plumbing.NewSymbolicReference(plumbing.HEAD, refName)); err != nil {
			return fmt.Errorf("pointing HEAD at %s: %w", name, err)
		}
		return nil
	}

	head, err := l.repo.Head()
	if err != nil {
		return fmt.Errorf("resolving HEAD: %w", err)
	}
	clog.FromContext(ctx).Infof("Creating branch %s at %s", name, head.Hash())
	if err := l.repo.Storer.SetReference(plumbing.NewHashReference(refName, head.Hash())); err != nil {
		return fmt.Errorf("setting branch reference: %w", err)
	}
	if err := l.checkout(refName); err != nil {
		if rerr := l.removeBranchRef(refName); rerr != nil {
			return errors.Join(err, rerr)
		}
		return err
	}
	return nil
}

func (l *Lease) removeBranchRef(refName plumbing.ReferenceName) error {
	if _, err := l.repo.Reference(refName, false); errors.Is(err, plumbing.ErrReferenceNotFound) {
		return nil
	}
	if err := l.repo.Storer.RemoveReference(refName); err != nil {
		return fmt.Errorf("removing branch reference %s: %w", refName.Short(), err)
	}
	return nil
}

// CheckoutBranch checks out an existing local branch.
func (l *Lease) CheckoutBranch(ctx context.Context, name string) error {
	refName := plumbing.NewBranchReferenceName(name)
	if _, err := l.repo.Reference(refName, false); err != nil {
		return fmt.Errorf("looking up branch %s: %w", name, err)
	}
	clog.FromContext(ctx).Infof("Checking out branch %s", name)
	return l.checkout(refName)
}

func (l *Lease) checkout(refName plumbing.ReferenceName) error {
	wt, err := l.repo.Worktree()
	if err != nil {
		return fmt.Errorf("getting worktree: %w", err)
	}
	if err := wt.Checkout(&git.CheckoutOptions{Branch: refName}); err != nil {
		return fmt.Errorf("checking out %s: %w", refName.Short(), err)
	}
	return nil
}

// ApplyEdits applies edits to the working tree. See ApplyEdits.
func (l *Lease) ApplyEdits(_ context.Context, edits []proposal.FileEdit) ([]string, error) {
	return ApplyEdits(l.path, edits)
}

// CommitPaths stages exactly paths (adding files that exist and removing
// those that do not) and commits them with the manager's identity. It returns
// the new commit hash, or the current HEAD when nothing changed.
func (l *Lease) CommitPaths(ctx context.Context, message string, paths []string) (string, error) {
	if message == "" {
		return "", errors.New("commit message cannot be empty")
	}

	wt, err := l.repo.Worktree()
	if err != nil {
		return "", fmt.Errorf("getting worktree: %w", err)
	}

	for _, p := range paths {
		_, err := os.Lstat(filepath.Join(l.path, filepath.FromSlash(p)))
		switch {
		case err == nil:
			if _, err := wt.Add(p); err != nil {
				return "", fmt.Errorf("staging %s: %w", p, err)
			}
		case errors.Is(err, os.ErrNotExist):
			if _, err := wt.Remove(p); err != nil && !errors.Is(err, index.ErrEntryNotFound) {
				return "", fmt.Errorf("staging removal of %s: %w", p, err)
			}
		default:
			return "", fmt.Errorf("checking %s: %w", p, err)
		}
	}

	hash, err := wt.Commit(message, &git.CommitOptions{
		Author: &object.Signature{
			Name:  l.manager.identity,
			Email: l.manager.email(),
			When:  time.Now(),
		},
	})
	if errors.Is(err, git.ErrEmptyCommit) {
		clog.FromContext(ctx).Infof("Nothing to commit")
		head, _ := l.ResolveHead(ctx)
		return head, nil
	}
	if err != nil {
		return "", fmt.Errorf("committing: %w", err)
	}
	clog.FromContext(ctx).Infof("Committed %s (%d paths)", hash, len(paths))
	return hash.String(), nil
}

// Push force-pushes branch to origin and records origin as its upstream.
func (l *Lease) Push(ctx context.Context, branch string) error {
	log := clog.FromContext(ctx)

	auth, err := l.manager.authForRemote()
	if err != nil {
		return fmt.Errorf("getting token: %w", err)
	}

	ref := plumbing.NewBranchReferenceName(branch)
	refSpec := gitconfig.RefSpec(fmt.Sprintf("%s:%s", ref, ref))
	log.Infof("Force pushing to %s", refSpec)

	if err := l.repo.PushContext(ctx, &git.PushOptions{
		RemoteName: remoteName,
		Auth:       auth,
		Force:      true,
		RefSpecs:   []gitconfig.RefSpec{refSpec},
	}); err != nil {
		if !errors.Is(err, git.NoErrAlreadyUpToDate) {
			return fmt.Errorf("force pushing: %w", err)
		}
		log.Infof("Branch already up to date")
	}

	return l.setUpstream(branch)
}

func (l *Lease) setUpstream(branch string) error {
	cfg, err := l.repo.Config()
	if err != nil {
		return fmt.Errorf("reading config: %w", err)
	}
	cfg.Branches[branch] = &gitconfig.Branch{
		Name:   branch,
		Remote: remoteName,
		Merge:  plumbing.NewBranchReferenceName(branch),
	}
	if err := l.repo.SetConfig(cfg); err != nil {
		return fmt.Errorf("setting upstream for %s: %w", branch, err)
	}
	return nil
}

// FetchBranch updates refs/remotes/origin/<branch> from the remote.
func (l *Lease) FetchBranch(ctx context.Context, branch string) error {
	auth, err := l.manager.authForRemote()
	if err != nil {
		return fmt.Errorf("getting token: %w", err)
	}

	refSpec := gitconfig.RefSpec(fmt.Sprintf("+refs/heads/%s:refs/remotes/%s/%s", branch, remoteName, branch))
	clog.FromContext(ctx).Infof("Fetching %s", refSpec)
	if err := l.repo.FetchContext(ctx, &git.FetchOptions{
		RemoteName: remoteName,
		RefSpecs:   []gitconfig.RefSpec{refSpec},
		Auth:       auth,
	}); err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return fmt.Errorf("fetching %s: %w", branch, err)
	}
	return nil
}

// CheckoutRemoteBranch fetches branch and checks it out. An existing local
// branch is checked out as is; otherwise the local branch is created at the
// fetched commit. It works from any current branch or a detached HEAD.
func (l *Lease) CheckoutRemoteBranch(ctx context.Context, branch string) error {
	if err := l.FetchBranch(ctx, branch); err != nil {
		return err
	}

	local := plumbing.NewBranchReferenceName(branch)
	if _, err := l.repo.Reference(local, false); err == nil {
		return l.CheckoutBranch(ctx, branch)
	}

	remote, err := l.repo.Reference(plumbing.NewRemoteReferenceName(remoteName, branch), true)
	if err != nil {
		return fmt.Errorf("resolving %s/%s: %w", remoteName, branch, err)
	}
	clog.FromContext(ctx).Infof("Creating local branch %s at %s", branch, remote.Hash())
	if err := l.repo.Storer.SetReference(plumbing.NewHashReference(local, remote.Hash())); err != nil {
		return fmt.Errorf("setting branch reference: %w", err)
	}
	if err := l.checkout(local); err != nil {
		return err
	}
	return l.setUpstream(branch)
}

// Return removes the clone from disk. The lease must not be used afterwards.
func (l *Lease) Return(ctx context.Context) error {
	if l.path == "" {
		return nil
	}
	clog.FromContext(ctx).Debugf("Removing clone %s", l.path)
	err := os.RemoveAll(l.path)
	l.path = ""
	l.repo = nil
	if err != nil {
		return fmt.Errorf("removing clone: %w", err)
	}
	return nil
}
