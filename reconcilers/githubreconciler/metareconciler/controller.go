/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package metareconciler

import (
	"context"
	"errors"
	"fmt"

	"chainguard.dev/codeagent/agents/metaagent"
	"chainguard.dev/codeagent/agents/proposal"
	"chainguard.dev/codeagent/agents/repocontext"
	"chainguard.dev/codeagent/reconcilers/githubreconciler/branchpolicy"
	"chainguard.dev/codeagent/reconcilers/githubreconciler/changemanager"
	"chainguard.dev/codeagent/reconcilers/githubreconciler/clonemanager"
	"chainguard.dev/codeagent/reconcilers/githubreconciler/feedback"
	"chainguard.dev/codeagent/reconcilers/githubreconciler/validation"
)

// DefaultMaxIterations is the fix-round ceiling written into new markers.
const DefaultMaxIterations = 5

// HumanReviewLabel is added when the iteration ceiling is reached.
const HumanReviewLabel = "needs-human-review"

var (
	// ErrNoMarker is returned by Fix when the pull request carries no
	// iteration marker. Nothing is mutated.
	ErrNoMarker = feedback.ErrNoMarker

	// ErrIterationCeiling is returned by Fix when the marker's iteration has
	// reached its maximum.
	ErrIterationCeiling = errors.New("iteration limit reached")

	// ErrValidationFailed is returned under StrictValidation when validation
	// still fails after the last repair attempt.
	ErrValidationFailed = errors.New("validation failed")
)

// Host is the code-hosting surface the controller uses.
type Host interface {
	GetIssue(ctx context.Context, number int) (*changemanager.Issue, error)
	GetPullRequest(ctx context.Context, number int) (*changemanager.PullRequest, error)
	CreatePullRequest(ctx context.Context, title, body, head, base string) (*changemanager.PullRequest, error)
	EditPullRequestBody(ctx context.Context, number int, body string) error
	ListReviews(ctx context.Context, number int) ([]feedback.Review, error)
	ListFiles(ctx context.Context, number int) ([]changemanager.ChangedFile, error)
	Comment(ctx context.Context, number int, body string) error
	CreateReview(ctx context.Context, number int, event, body string) error
	AddLabel(ctx context.Context, number int, label string) error
	DefaultBranch(ctx context.Context) (string, error)
	RepositoryURL(ctx context.Context) (string, error)
	CIStatus(ctx context.Context, number int) (changemanager.CIStatus, error)
}

var _ Host = (*changemanager.Client)(nil)

// Workspace is a clone owned by one invocation.
type Workspace interface {
	branchpolicy.Repo
	Root() string
	ApplyEdits(ctx context.Context, edits []proposal.FileEdit) ([]string, error)
	CommitPaths(ctx context.Context, message string, paths []string) (string, error)
	Push(ctx context.Context, branch string) error
	CheckoutRemoteBranch(ctx context.Context, branch string) error
	Return(ctx context.Context) error
}

var _ Workspace = (*clonemanager.Lease)(nil)

// LeaseFunc hands out a fresh Workspace for the controller's repository.
type LeaseFunc func(ctx context.Context) (Workspace, error)

// LeaseFrom adapts a clonemanager.Meta to a LeaseFunc for owner/repo.
func LeaseFrom(meta *clonemanager.Meta, owner, repo string) LeaseFunc {
	return func(ctx context.Context) (Workspace, error) {
		lease, err := meta.Lease(ctx, owner, repo)
		if err != nil {
			return nil, err
		}
		return lease, nil
	}
}

// ContextCollector gathers repository context for the engine.
type ContextCollector interface {
	Collect(ctx context.Context, root, issueText string) (string, error)
}

// ValidationPolicy decides what happens when validation still fails after the
// last repair attempt.
type ValidationPolicy string

const (
	// LenientValidation commits anyway.
	LenientValidation ValidationPolicy = "lenient"
	// StrictValidation aborts with ErrValidationFailed.
	StrictValidation ValidationPolicy = "strict"
)

// ParseValidationPolicy parses "lenient" or "strict". Empty means lenient.
func ParseValidationPolicy(s string) (ValidationPolicy, error) {
	switch ValidationPolicy(s) {
	case "", LenientValidation:
		return LenientValidation, nil
	case StrictValidation:
		return StrictValidation, nil
	default:
		return "", fmt.Errorf("unknown validation policy %q (expected lenient or strict)", s)
	}
}

// Controller runs the iteration loop for one repository.
type Controller struct {
	repository string
	host       Host
	lease      LeaseFunc
	engine     metaagent.Engine
	collector  ContextCollector
	runner     validation.CommandRunner
	policy     *branchpolicy.Policy

	maxIterations    int
	validationPolicy ValidationPolicy
	observer         func(attempt int, outcomes []validation.Outcome)
}

// Option configures a Controller.
type Option func(*Controller)

// WithMaxIterations sets the fix-round ceiling written into new markers.
func WithMaxIterations(n int) Option {
	return func(c *Controller) {
		if n > 0 {
			c.maxIterations = n
		}
	}
}

// WithValidationPolicy sets the policy for exhausted repair attempts.
func WithValidationPolicy(p ValidationPolicy) Option {
	return func(c *Controller) {
		c.validationPolicy = p
	}
}

// WithDefaultBranch sets the branch bootstrap commits land on.
func WithDefaultBranch(branch string) Option {
	return func(c *Controller) {
		c.policy = branchpolicy.New(branch)
	}
}

// WithContextCollector replaces the default repocontext.Collector.
func WithContextCollector(cc ContextCollector) Option {
	return func(c *Controller) {
		c.collector = cc
	}
}

// WithCommandRunner replaces the default validation.Runner.
func WithCommandRunner(r validation.CommandRunner) Option {
	return func(c *Controller) {
		c.runner = r
	}
}

// WithValidationObserver registers a callback invoked with the outcomes of
// every validation attempt. The CLI uses it to print a summary.
func WithValidationObserver(fn func(attempt int, outcomes []validation.Outcome)) Option {
	return func(c *Controller) {
		c.observer = fn
	}
}

// New creates a Controller for repository ("owner/repo"), which labels logs
// and metrics.
func New(repository string, host Host, lease LeaseFunc, engine metaagent.Engine, opts ...Option) *Controller {
	c := &Controller{
		repository:       repository,
		host:             host,
		lease:            lease,
		engine:           engine,
		collector:        repocontext.New(),
		runner:           validation.NewRunner(),
		policy:           branchpolicy.New(branchpolicy.DefaultBranch),
		maxIterations:    DefaultMaxIterations,
		validationPolicy: LenientValidation,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func issueText(title, body string) string {
	return title + "\n\n" + body
}
