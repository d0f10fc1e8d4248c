/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package metareconciler

import (
	"context"
	"fmt"

	"github.com/chainguard-dev/clog"

	"chainguard.dev/codeagent/agents/metaagent"
	"chainguard.dev/codeagent/agents/metrics"
	"chainguard.dev/codeagent/reconcilers/githubreconciler/feedback"
)

// PullRequestTitle is the title of the pull request opened for an issue.
func PullRequestTitle(issue int, title string) string {
	return fmt.Sprintf("[#%d] %s", issue, title)
}

// PullRequestBody is the body of the pull request opened for an issue. It
// closes the issue and carries a first-iteration marker.
func PullRequestBody(issue int, analysis string, maxIterations int) string {
	marker := feedback.Marker{Issue: issue, Iteration: 1, Max: maxIterations}
	return fmt.Sprintf("Closes #%d\n\n## Summary of changes\n%s\n\n---\n%s\n", issue, analysis, marker)
}

// Run turns an issue into code. On an empty repository the change is
// committed straight to the default branch and the repository URL is
// returned; otherwise a pull request is opened and its URL returned.
func (c *Controller) Run(ctx context.Context, number int) (_ string, err error) {
	ctx = metrics.WithRepository(ctx, c.repository)
	log := clog.FromContext(ctx).With("repository", c.repository, "issue", number)
	ctx = clog.WithLogger(ctx, log)
	defer func() { c.observe("run", err) }()

	log.Infof("Reading issue #%d", number)
	issue, err := c.host.GetIssue(ctx, number)
	if err != nil {
		return "", err
	}

	ws, err := c.lease(ctx)
	if err != nil {
		return "", fmt.Errorf("leasing workspace: %w", err)
	}
	defer c.release(ctx, ws)

	repoContext, err := c.collector.Collect(ctx, ws.Root(), issueText(issue.Title, issue.Body))
	if err != nil {
		return "", fmt.Errorf("collecting context: %w", err)
	}

	log.Info("Generating change")
	prop, err := c.engine.Generate(ctx, &metaagent.GenerateRequest{
		Title:   issue.Title,
		Body:    issue.Body,
		Context: repoContext,
	})
	if err != nil {
		return "", fmt.Errorf("generating change: %w", err)
	}
	log.Infof("Proposal touches %d files", len(prop.Files))

	target, err := c.policy.Resolve(ctx, ws, number)
	if err != nil {
		return "", fmt.Errorf("preparing branch: %w", err)
	}
	log = log.With("branch", target.Branch)
	ctx = clog.WithLogger(ctx, log)
	log.Infof("Using branch strategy %s", target.Strategy)

	paths, err := ws.ApplyEdits(ctx, prop.Files)
	if err != nil {
		return "", fmt.Errorf("applying edits: %w", err)
	}

	if len(prop.ValidationCommands) > 0 {
		prop, paths, err = c.repair(ctx, ws, prop, paths, issue.Title, issue.Body, repoContext)
		if err != nil {
			return "", err
		}
	}

	if _, err := ws.CommitPaths(ctx, prop.CommitMessage, paths); err != nil {
		return "", fmt.Errorf("committing: %w", err)
	}
	if err := ws.Push(ctx, target.Branch); err != nil {
		return "", fmt.Errorf("pushing %s: %w", target.Branch, err)
	}

	if target.Bootstrap {
		msg := fmt.Sprintf("Code landed directly on %s.\n\n%s", target.Branch, prop.Analysis)
		if err := c.host.Comment(ctx, number, msg); err != nil {
			return "", err
		}
		url, err := c.host.RepositoryURL(ctx)
		if err != nil {
			return "", err
		}
		log.Infof("Bootstrapped %s", url)
		return url, nil
	}

	base, err := c.host.DefaultBranch(ctx)
	if err != nil {
		return "", err
	}
	pr, err := c.host.CreatePullRequest(ctx,
		PullRequestTitle(number, issue.Title),
		PullRequestBody(number, prop.Analysis, c.maxIterations),
		target.Branch, base)
	if err != nil {
		return "", err
	}
	log.Infof("Opened %s", pr.URL)
	return pr.URL, nil
}

// release returns the workspace, logging rather than failing on error.
func (c *Controller) release(ctx context.Context, ws Workspace) {
	if err := ws.Return(ctx); err != nil {
		clog.FromContext(ctx).Warnf("Failed to return workspace: %v", err)
	}
}
