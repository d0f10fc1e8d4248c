/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package changemanager

import (
	"context"
	"fmt"
	"strings"

	"github.com/chainguard-dev/clog"
	"github.com/shurcooL/githubv4"
)

// CIStatus summarizes the check runs of a pull request's head commit.
type CIStatus struct {
	Success bool
	Total   int
	Passed  int
	Failed  []string
}

// Summary renders the status for the review prompt: "No checks",
// "P/T passed" or "P/T passed, failed: a, b".
func (s CIStatus) Summary() string {
	switch {
	case s.Total == 0:
		return "No checks"
	case len(s.Failed) > 0:
		return fmt.Sprintf("%d/%d passed, failed: %s", s.Passed, s.Total, strings.Join(s.Failed, ", "))
	default:
		return fmt.Sprintf("%d/%d passed", s.Passed, s.Total)
	}
}

// GraphQL types for querying check runs.
type gqlCheckRunNode struct {
	Name       string
	Status     string
	Conclusion string
}

type gqlCheckRunsConnection struct {
	PageInfo struct {
		HasNextPage bool
		EndCursor   string
	}
	Nodes []gqlCheckRunNode
}

type gqlCheckSuiteNode struct {
	Id        string
	CheckRuns gqlCheckRunsConnection `graphql:"checkRuns(first: 100)"`
}

// CIStatus queries the check runs of the pull request's most recent commit.
// Runs concluding SUCCESS pass; FAILURE and CANCELLED fail; anything else,
// including runs still in progress, counts toward the total only.
func (c *Client) CIStatus(ctx context.Context, number int) (CIStatus, error) {
	var query struct {
		Repository struct {
			PullRequest struct {
				Commits struct {
					Nodes []struct {
						Commit struct {
							CheckSuites struct {
								Nodes []gqlCheckSuiteNode
							} `graphql:"checkSuites(first: 100)"`
						}
					}
				} `graphql:"commits(last: 1)"`
			} `graphql:"pullRequest(number: $number)"`
		} `graphql:"repository(owner: $owner, name: $repo)"`
	}

	variables := map[string]any{
		"owner":  githubv4.String(c.owner),
		"repo":   githubv4.String(c.repo),
		"number": githubv4.Int(number),
	}
	if err := c.gql.Query(ctx, &query, variables); err != nil {
		return CIStatus{}, fmt.Errorf("querying check runs: %w", err)
	}

	var status CIStatus
	process := func(runs []gqlCheckRunNode) {
		for _, run := range runs {
			status.Total++
			switch run.Conclusion {
			case "SUCCESS":
				status.Passed++
			case "FAILURE", "CANCELLED":
				status.Failed = append(status.Failed, run.Name)
			}
		}
	}

	for _, commit := range query.Repository.PullRequest.Commits.Nodes {
		for _, suite := range commit.Commit.CheckSuites.Nodes {
			process(suite.CheckRuns.Nodes)
			if suite.CheckRuns.PageInfo.HasNextPage {
				c.paginateCheckRuns(ctx, suite.Id, suite.CheckRuns.PageInfo.EndCursor, process)
			}
		}
	}

	status.Success = len(status.Failed) == 0
	return status, nil
}

// paginateCheckRuns fetches the remaining check runs of a suite. Errors are
// logged and the partial result kept.
func (c *Client) paginateCheckRuns(ctx context.Context, suiteID, cursor string, process func([]gqlCheckRunNode)) {
	for {
		var query struct {
			Node struct {
				CheckSuite struct {
					CheckRuns gqlCheckRunsConnection `graphql:"checkRuns(first: 100, after: $cursor)"`
				} `graphql:"... on CheckSuite"`
			} `graphql:"node(id: $suiteId)"`
		}

		variables := map[string]any{
			"suiteId": githubv4.ID(suiteID),
			"cursor":  githubv4.String(cursor),
		}

		if err := c.gql.Query(ctx, &query, variables); err != nil {
			clog.WarnContextf(ctx, "failed to paginate check runs: %v", err)
			return
		}

		process(query.Node.CheckSuite.CheckRuns.Nodes)

		if !query.Node.CheckSuite.CheckRuns.PageInfo.HasNextPage {
			return
		}
		cursor = query.Node.CheckSuite.CheckRuns.PageInfo.EndCursor
	}
}
