/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package changemanager

import (
	"context"
	"fmt"
	"strings"

	"chainguard.dev/codeagent/reconcilers/githubreconciler/feedback"
	"github.com/chainguard-dev/clog"
	"github.com/google/go-github/v84/github"
	"github.com/shurcooL/githubv4"
)

// Review events accepted by CreateReview.
const (
	EventApprove        = "APPROVE"
	EventRequestChanges = "REQUEST_CHANGES"
)

// Issue is the part of an issue the agent reads.
type Issue struct {
	Number int
	Title  string
	Body   string
	URL    string
}

// PullRequest is the part of a pull request the agent reads.
type PullRequest struct {
	Number     int
	Title      string
	Body       string
	URL        string
	HeadBranch string
	HeadSHA    string
	BaseBranch string
}

// ChangedFile is one file in a pull request's diff.
type ChangedFile struct {
	Filename  string
	Status    string
	Patch     string
	Additions int
	Deletions int
}

// Client talks to a single repository.
type Client struct {
	gh    *github.Client
	gql   *githubv4.Client
	owner string
	repo  string
}

// New creates a Client for owner/repo. The GraphQL endpoint is derived from
// the REST client's base URL.
func New(gh *github.Client, owner, repo string) *Client {
	return &Client{
		gh:    gh,
		gql:   githubv4.NewEnterpriseClient(graphQLURL(gh), gh.Client()),
		owner: owner,
		repo:  repo,
	}
}

func graphQLURL(gh *github.Client) string {
	base := gh.BaseURL.String()
	if strings.HasSuffix(base, "/api/v3/") {
		return strings.TrimSuffix(base, "v3/") + "graphql"
	}
	return base + "graphql"
}

// FullName returns "owner/repo".
func (c *Client) FullName() string {
	return c.owner + "/" + c.repo
}

// GetIssue fetches an issue.
func (c *Client) GetIssue(ctx context.Context, number int) (*Issue, error) {
	issue, _, err := c.gh.Issues.Get(ctx, c.owner, c.repo, number)
	if err != nil {
		return nil, classify(err, fmt.Sprintf("issue #%d in %s", number, c.FullName()), "getting issue")
	}
	return &Issue{
		Number: issue.GetNumber(),
		Title:  issue.GetTitle(),
		Body:   issue.GetBody(),
		URL:    issue.GetHTMLURL(),
	}, nil
}

// GetPullRequest fetches a pull request.
func (c *Client) GetPullRequest(ctx context.Context, number int) (*PullRequest, error) {
	pr, _, err := c.gh.PullRequests.Get(ctx, c.owner, c.repo, number)
	if err != nil {
		return nil, classify(err, fmt.Sprintf("PR #%d in %s", number, c.FullName()), "getting pull request")
	}
	return toPullRequest(pr), nil
}

func toPullRequest(pr *github.PullRequest) *PullRequest {
	return &PullRequest{
		Number:     pr.GetNumber(),
		Title:      pr.GetTitle(),
		Body:       pr.GetBody(),
		URL:        pr.GetHTMLURL(),
		HeadBranch: pr.GetHead().GetRef(),
		HeadSHA:    pr.GetHead().GetSHA(),
		BaseBranch: pr.GetBase().GetRef(),
	}
}

// CreatePullRequest opens a pull request from head into base.
func (c *Client) CreatePullRequest(ctx context.Context, title, body, head, base string) (*PullRequest, error) {
	clog.FromContext(ctx).Infof("Creating PR with head %s and base %s", head, base)
	pr, _, err := c.gh.PullRequests.Create(ctx, c.owner, c.repo, &github.NewPullRequest{
		Title: github.Ptr(title),
		Body:  github.Ptr(body),
		Head:  github.Ptr(head),
		Base:  github.Ptr(base),
	})
	if err != nil {
		return nil, classify(err, c.FullName(), "creating pull request")
	}
	return toPullRequest(pr), nil
}

// EditPullRequestBody replaces a pull request's body.
func (c *Client) EditPullRequestBody(ctx context.Context, number int, body string) error {
	if _, _, err := c.gh.PullRequests.Edit(ctx, c.owner, c.repo, number, &github.PullRequest{
		Body: github.Ptr(body),
	}); err != nil {
		return classify(err, fmt.Sprintf("PR #%d in %s", number, c.FullName()), "updating pull request")
	}
	return nil
}

// ListReviews returns every review on a pull request in listing order.
func (c *Client) ListReviews(ctx context.Context, number int) ([]feedback.Review, error) {
	var reviews []feedback.Review
	opts := &github.ListOptions{PerPage: 100}
	for {
		page, resp, err := c.gh.PullRequests.ListReviews(ctx, c.owner, c.repo, number, opts)
		if err != nil {
			return nil, classify(err, fmt.Sprintf("PR #%d in %s", number, c.FullName()), "listing reviews")
		}
		for _, r := range page {
			reviews = append(reviews, feedback.Review{
				State:       r.GetState(),
				Body:        r.GetBody(),
				SubmittedAt: r.GetSubmittedAt().Time,
			})
		}
		if resp.NextPage == 0 {
			return reviews, nil
		}
		opts.Page = resp.NextPage
	}
}

// ListFiles returns the files changed by a pull request in listing order.
func (c *Client) ListFiles(ctx context.Context, number int) ([]ChangedFile, error) {
	var files []ChangedFile
	opts := &github.ListOptions{PerPage: 100}
	for {
		page, resp, err := c.gh.PullRequests.ListFiles(ctx, c.owner, c.repo, number, opts)
		if err != nil {
			return nil, classify(err, fmt.Sprintf("PR #%d in %s", number, c.FullName()), "listing files")
		}
		for _, f := range page {
			files = append(files, ChangedFile{
				Filename:  f.GetFilename(),
				Status:    f.GetStatus(),
				Patch:     f.GetPatch(),
				Additions: f.GetAdditions(),
				Deletions: f.GetDeletions(),
			})
		}
		if resp.NextPage == 0 {
			return files, nil
		}
		opts.Page = resp.NextPage
	}
}

// Comment posts a comment on an issue or pull request.
func (c *Client) Comment(ctx context.Context, number int, body string) error {
	if _, _, err := c.gh.Issues.CreateComment(ctx, c.owner, c.repo, number, &github.IssueComment{
		Body: github.Ptr(body),
	}); err != nil {
		return classify(err, fmt.Sprintf("#%d in %s", number, c.FullName()), "creating comment")
	}
	return nil
}

// CreateReview submits a review with event APPROVE or REQUEST_CHANGES.
func (c *Client) CreateReview(ctx context.Context, number int, event, body string) error {
	if _, _, err := c.gh.PullRequests.CreateReview(ctx, c.owner, c.repo, number, &github.PullRequestReviewRequest{
		Body:  github.Ptr(body),
		Event: github.Ptr(event),
	}); err != nil {
		return classify(err, fmt.Sprintf("PR #%d in %s", number, c.FullName()), "creating review")
	}
	return nil
}

// AddLabel adds label to an issue or pull request.
func (c *Client) AddLabel(ctx context.Context, number int, label string) error {
	if _, _, err := c.gh.Issues.AddLabelsToIssue(ctx, c.owner, c.repo, number, []string{label}); err != nil {
		return classify(err, fmt.Sprintf("#%d in %s", number, c.FullName()), "adding label")
	}
	return nil
}

// DefaultBranch returns the repository's default branch.
func (c *Client) DefaultBranch(ctx context.Context) (string, error) {
	repo, _, err := c.gh.Repositories.Get(ctx, c.owner, c.repo)
	if err != nil {
		return "", classify(err, c.FullName(), "getting repository")
	}
	return repo.GetDefaultBranch(), nil
}

// RepositoryURL returns the repository's web URL.
func (c *Client) RepositoryURL(ctx context.Context) (string, error) {
	repo, _, err := c.gh.Repositories.Get(ctx, c.owner, c.repo)
	if err != nil {
		return "", classify(err, c.FullName(), "getting repository")
	}
	return repo.GetHTMLURL(), nil
}
