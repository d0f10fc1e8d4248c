/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package metareconciler

import (
	"context"
	"fmt"
	"strings"

	"github.com/chainguard-dev/clog"
	"github.com/prometheus/client_golang/prometheus"

	"chainguard.dev/codeagent/agents/metaagent"
	"chainguard.dev/codeagent/agents/metrics"
	"chainguard.dev/codeagent/agents/proposal"
	"chainguard.dev/codeagent/reconcilers/githubreconciler/changemanager"
	"chainguard.dev/codeagent/reconcilers/githubreconciler/feedback"
)

// unknownCIStatus is passed to the engine when check runs cannot be read.
const unknownCIStatus = "Unknown"

// Decision is a review ready to publish.
type Decision struct {
	Event string
	Body  string
}

// Decide turns a review outcome into the event and body to publish.
func Decide(outcome *proposal.ReviewOutcome) Decision {
	var b strings.Builder
	b.WriteString(outcome.Summary)
	if len(outcome.Comments) > 0 {
		b.WriteString("\n")
	}
	for _, c := range outcome.Comments {
		location := c.File
		if c.Line != nil {
			location = fmt.Sprintf("%s:%d", c.File, *c.Line)
		}
		fmt.Fprintf(&b, "\n- **%s** — %s / %s", location, c.Problem, c.Suggestion)
	}

	event := changemanager.EventRequestChanges
	if outcome.Approved {
		event = changemanager.EventApprove
	}
	return Decision{Event: event, Body: b.String()}
}

// RenderDiff renders changed files in listing order as "--- f", "+++ f" and
// the patch, if any, joined by newlines.
func RenderDiff(files []changemanager.ChangedFile) string {
	lines := make([]string, 0, 3*len(files))
	for _, f := range files {
		lines = append(lines, "--- "+f.Filename, "+++ "+f.Filename)
		if f.Patch != "" {
			lines = append(lines, f.Patch)
		}
	}
	return strings.Join(lines, "\n")
}

// Review asks the engine to review a pull request and publishes the result
// as an approval or a change request. The returned outcome's Approved field
// reports which.
func (c *Controller) Review(ctx context.Context, number int) (_ *proposal.ReviewOutcome, err error) {
	ctx = metrics.WithRepository(ctx, c.repository)
	log := clog.FromContext(ctx).With("repository", c.repository, "pr", number)
	ctx = clog.WithLogger(ctx, log)
	defer func() { c.observe("review", err) }()

	log.Infof("Reading PR #%d", number)
	pr, err := c.host.GetPullRequest(ctx, number)
	if err != nil {
		return nil, err
	}

	title, body := pr.Title, pr.Body
	if ref, ok := feedback.ExtractIssueRef(pr.Body); ok {
		issue, err := c.host.GetIssue(ctx, ref)
		if err != nil {
			return nil, err
		}
		title, body = issue.Title, issue.Body
		log = log.With("issue", ref)
		ctx = clog.WithLogger(ctx, log)
	}

	files, err := c.host.ListFiles(ctx, number)
	if err != nil {
		return nil, err
	}

	ci := unknownCIStatus
	if status, err := c.host.CIStatus(ctx, number); err != nil {
		log.Warnf("Failed to read check runs: %v", err)
	} else {
		ci = status.Summary()
	}

	log.Infof("Reviewing %d changed files (CI: %s)", len(files), ci)
	outcome, err := c.engine.Review(ctx, &metaagent.ReviewRequest{
		Diff:     RenderDiff(files),
		Title:    title,
		Body:     body,
		CIStatus: ci,
	})
	if err != nil {
		return nil, fmt.Errorf("reviewing: %w", err)
	}

	decision := Decide(outcome)
	if err := c.host.CreateReview(ctx, number, decision.Event, decision.Body); err != nil {
		return nil, err
	}
	reviewCounter.With(prometheus.Labels{
		"repository": c.repository,
		"event":      decision.Event,
	}).Inc()
	log.Infof("Submitted %s with %d comments", decision.Event, len(outcome.Comments))
	return outcome, nil
}
