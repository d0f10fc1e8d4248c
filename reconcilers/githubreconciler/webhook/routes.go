/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package webhook

import (
	"context"
	"fmt"

	"github.com/chainguard-dev/clog"
	"github.com/google/go-github/v84/github"
)

// Operation names a controller entry point.
type Operation string

const (
	OperationRun    Operation = "run"
	OperationFix    Operation = "fix"
	OperationReview Operation = "review"
)

type job struct {
	Operation Operation
	Owner     string
	Repo      string
	Number    int
}

func (j job) run(ctx context.Context, agent Agent) error {
	switch j.Operation {
	case OperationRun:
		url, err := agent.Run(ctx, j.Number)
		if err != nil {
			return err
		}
		clog.FromContext(ctx).Infof("Published %s", url)
		return nil
	case OperationFix:
		return agent.Fix(ctx, j.Number)
	case OperationReview:
		outcome, err := agent.Review(ctx, j.Number)
		if err != nil {
			return err
		}
		clog.FromContext(ctx).Infof("Review approved=%t", outcome.Approved)
		return nil
	default:
		return fmt.Errorf("unknown operation %q", j.Operation)
	}
}

// route maps a parsed event onto a job. Events that drive nothing report
// false.
func (h *Handler) route(event any) (job, bool) {
	switch e := event.(type) {
	case *github.IssuesEvent:
		if e.GetAction() != "labeled" || e.GetLabel().GetName() != h.triggerLabel {
			return job{}, false
		}
		if e.GetIssue().IsPullRequest() {
			return job{}, false
		}
		return newJob(OperationRun, e.GetRepo(), e.GetIssue().GetNumber())

	case *github.PullRequestEvent:
		switch e.GetAction() {
		case "opened", "synchronize":
			return newJob(OperationReview, e.GetRepo(), e.GetPullRequest().GetNumber())
		}
		return job{}, false

	case *github.PullRequestReviewEvent:
		if e.GetAction() != "submitted" || !isChangesRequested(e.GetReview().GetState()) {
			return job{}, false
		}
		return newJob(OperationFix, e.GetRepo(), e.GetPullRequest().GetNumber())

	default:
		return job{}, false
	}
}

func newJob(op Operation, repo *github.Repository, number int) (job, bool) {
	owner, name := repo.GetOwner().GetLogin(), repo.GetName()
	if owner == "" || name == "" || number == 0 {
		return job{}, false
	}
	return job{Operation: op, Owner: owner, Repo: name, Number: number}, true
}
