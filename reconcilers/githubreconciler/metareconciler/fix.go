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

// FixCommitMessage is the commit message for fix round next.
func FixCommitMessage(message string, next int) string {
	return fmt.Sprintf("fix: %s (iteration %d)", message, next)
}

// Fix addresses the most recent changes-requested review on a pull request
// opened by Run, pushing one commit to its head branch and advancing the
// iteration marker.
func (c *Controller) Fix(ctx context.Context, number int) (err error) {
	ctx = metrics.WithRepository(ctx, c.repository)
	log := clog.FromContext(ctx).With("repository", c.repository, "pr", number)
	ctx = clog.WithLogger(ctx, log)
	defer func() { c.observe("fix", err) }()

	log.Infof("Reading PR #%d", number)
	pr, err := c.host.GetPullRequest(ctx, number)
	if err != nil {
		return err
	}

	marker, ok := feedback.ParseMarker(pr.Body)
	if !ok {
		return fmt.Errorf("PR #%d: %w", number, ErrNoMarker)
	}
	log = log.With("iteration", marker.Iteration, "max", marker.Max, "issue", marker.Issue)
	ctx = clog.WithLogger(ctx, log)

	if !marker.HasBudget() {
		log.Warnf("Iteration limit reached, handing over to a human")
		if err := c.host.Comment(ctx, number, fmt.Sprintf("Iteration limit (%d) reached. Human review required.", marker.Max)); err != nil {
			return err
		}
		if err := c.host.AddLabel(ctx, number, HumanReviewLabel); err != nil {
			return err
		}
		return fmt.Errorf("PR #%d at iteration %d of %d: %w", number, marker.Iteration, marker.Max, ErrIterationCeiling)
	}

	issue, err := c.host.GetIssue(ctx, marker.Issue)
	if err != nil {
		return err
	}
	reviews, err := c.host.ListReviews(ctx, number)
	if err != nil {
		return err
	}
	fb := feedback.LatestChangesRequested(reviews)

	ws, err := c.lease(ctx)
	if err != nil {
		return fmt.Errorf("leasing workspace: %w", err)
	}
	defer c.release(ctx, ws)

	repoContext, err := c.collector.Collect(ctx, ws.Root(), issueText(issue.Title, issue.Body))
	if err != nil {
		return fmt.Errorf("collecting context: %w", err)
	}

	log.Info("Generating fix")
	prop, err := c.engine.Fix(ctx, &metaagent.FixRequest{
		Feedback: fb,
		Title:    issue.Title,
		Body:     issue.Body,
		Context:  repoContext,
	})
	if err != nil {
		return fmt.Errorf("generating fix: %w", err)
	}

	if err := ws.CheckoutRemoteBranch(ctx, pr.HeadBranch); err != nil {
		return fmt.Errorf("checking out %s: %w", pr.HeadBranch, err)
	}
	paths, err := ws.ApplyEdits(ctx, prop.Files)
	if err != nil {
		return fmt.Errorf("applying edits: %w", err)
	}
	next := marker.Iteration + 1
	if _, err := ws.CommitPaths(ctx, FixCommitMessage(prop.CommitMessage, next), paths); err != nil {
		return fmt.Errorf("committing: %w", err)
	}
	if err := ws.Push(ctx, pr.HeadBranch); err != nil {
		return fmt.Errorf("pushing %s: %w", pr.HeadBranch, err)
	}

	body, err := feedback.RewriteIteration(pr.Body, next)
	if err != nil {
		return err
	}
	if err := c.host.EditPullRequestBody(ctx, number, body); err != nil {
		return err
	}
	log.Infof("Pushed iteration %d of %d", next, marker.Max)
	return nil
}
