/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package metareconciler_test

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"testing"

	"chainguard.dev/codeagent/agents/metaagent"
	"chainguard.dev/codeagent/agents/proposal"
	"chainguard.dev/codeagent/reconcilers/githubreconciler/changemanager"
	"chainguard.dev/codeagent/reconcilers/githubreconciler/clonemanager"
	"chainguard.dev/codeagent/reconcilers/githubreconciler/feedback"
	"chainguard.dev/codeagent/reconcilers/githubreconciler/metareconciler"
	"chainguard.dev/codeagent/reconcilers/githubreconciler/validation"
)

type comment struct {
	Number int
	Body   string
}

type createdPR struct {
	Title, Body, Head, Base string
}

type submittedReview struct {
	Number      int
	Event, Body string
}

// fakeHost is an in-memory metareconciler.Host.
type fakeHost struct {
	mu sync.Mutex

	issues  map[int]*changemanager.Issue
	prs     map[int]*changemanager.PullRequest
	reviews map[int][]feedback.Review
	files   map[int][]changemanager.ChangedFile
	ci      changemanager.CIStatus
	ciErr   error

	comments []comment
	labels   map[int][]string
	created  []createdPR
	edited   map[int]string
	reviewed []submittedReview
}

func newFakeHost() *fakeHost {
	return &fakeHost{
		issues:  map[int]*changemanager.Issue{},
		prs:     map[int]*changemanager.PullRequest{},
		reviews: map[int][]feedback.Review{},
		files:   map[int][]changemanager.ChangedFile{},
		labels:  map[int][]string{},
		edited:  map[int]string{},
	}
}

func (h *fakeHost) GetIssue(_ context.Context, n int) (*changemanager.Issue, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	issue, ok := h.issues[n]
	if !ok {
		return nil, &changemanager.NotFoundError{What: fmt.Sprintf("issue #%d in o/r", n), Err: errors.New("404")}
	}
	return issue, nil
}

func (h *fakeHost) GetPullRequest(_ context.Context, n int) (*changemanager.PullRequest, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	pr, ok := h.prs[n]
	if !ok {
		return nil, &changemanager.NotFoundError{What: fmt.Sprintf("PR #%d in o/r", n), Err: errors.New("404")}
	}
	return pr, nil
}

func (h *fakeHost) CreatePullRequest(_ context.Context, title, body, head, base string) (*changemanager.PullRequest, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.created = append(h.created, createdPR{Title: title, Body: body, Head: head, Base: base})
	n := 100 + len(h.created)
	return &changemanager.PullRequest{
		Number:     n,
		Title:      title,
		Body:       body,
		HeadBranch: head,
		BaseBranch: base,
		URL:        fmt.Sprintf("https://github.com/o/r/pull/%d", n),
	}, nil
}

func (h *fakeHost) EditPullRequestBody(_ context.Context, n int, body string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.edited[n] = body
	return nil
}

func (h *fakeHost) ListReviews(_ context.Context, n int) ([]feedback.Review, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.reviews[n], nil
}

func (h *fakeHost) ListFiles(_ context.Context, n int) ([]changemanager.ChangedFile, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.files[n], nil
}

func (h *fakeHost) Comment(_ context.Context, n int, body string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.comments = append(h.comments, comment{Number: n, Body: body})
	return nil
}

func (h *fakeHost) CreateReview(_ context.Context, n int, event, body string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.reviewed = append(h.reviewed, submittedReview{Number: n, Event: event, Body: body})
	return nil
}

func (h *fakeHost) AddLabel(_ context.Context, n int, label string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.labels[n] = append(h.labels[n], label)
	return nil
}

func (h *fakeHost) DefaultBranch(context.Context) (string, error) {
	return "main", nil
}

func (h *fakeHost) RepositoryURL(context.Context) (string, error) {
	return "https://github.com/o/r", nil
}

func (h *fakeHost) CIStatus(context.Context, int) (changemanager.CIStatus, error) {
	return h.ci, h.ciErr
}

// mutated reports whether the host saw any write.
func (h *fakeHost) mutated() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.comments) > 0 || len(h.labels) > 0 || len(h.created) > 0 ||
		len(h.edited) > 0 || len(h.reviewed) > 0
}

type commit struct {
	Message string
	Paths   []string
}

// fakeWorkspace applies edits to a real directory and records the version
// control calls made against it.
type fakeWorkspace struct {
	root     string
	head     bool
	branches []string

	current  string
	orphan   bool
	checkout string
	commits  []commit
	pushed   []string
	returned bool
}

var _ metareconciler.Workspace = (*fakeWorkspace)(nil)

func newFakeWorkspace(t *testing.T, head bool) *fakeWorkspace {
	t.Helper()
	ws := &fakeWorkspace{root: t.TempDir(), head: head}
	if head {
		ws.branches = []string{"main"}
		ws.current = "main"
	}
	return ws
}

func (w *fakeWorkspace) Root() string { return w.root }

func (w *fakeWorkspace) ResolveHead(context.Context) (string, bool) {
	if !w.head {
		return "", false
	}
	return "0123456789abcdef", true
}

func (w *fakeWorkspace) LocalBranches(context.Context) ([]string, error) {
	return slices.Clone(w.branches), nil
}

func (w *fakeWorkspace) CreateBranch(_ context.Context, name string, orphan bool) error {
	w.branches = append(w.branches, name)
	w.current = name
	w.orphan = orphan
	return nil
}

func (w *fakeWorkspace) CheckoutBranch(_ context.Context, name string) error {
	w.current = name
	return nil
}

func (w *fakeWorkspace) ApplyEdits(_ context.Context, edits []proposal.FileEdit) ([]string, error) {
	return clonemanager.ApplyEdits(w.root, edits)
}

func (w *fakeWorkspace) CommitPaths(_ context.Context, message string, paths []string) (string, error) {
	w.commits = append(w.commits, commit{Message: message, Paths: slices.Clone(paths)})
	return fmt.Sprintf("commit-%d", len(w.commits)), nil
}

func (w *fakeWorkspace) Push(_ context.Context, branch string) error {
	w.pushed = append(w.pushed, branch)
	return nil
}

func (w *fakeWorkspace) CheckoutRemoteBranch(_ context.Context, branch string) error {
	w.checkout = branch
	w.current = branch
	return nil
}

func (w *fakeWorkspace) Return(context.Context) error {
	w.returned = true
	return nil
}

func (w *fakeWorkspace) lease(context.Context) (metareconciler.Workspace, error) {
	return w, nil
}

// fakeEngine replays canned proposals and records the requests it saw.
type fakeEngine struct {
	generate    *proposal.ChangeProposal
	generateErr error
	fixes       []*proposal.ChangeProposal
	fixErr      error
	review      *proposal.ReviewOutcome

	generateReqs []*metaagent.GenerateRequest
	fixReqs      []*metaagent.FixRequest
	reviewReqs   []*metaagent.ReviewRequest
}

var _ metaagent.Engine = (*fakeEngine)(nil)

func (e *fakeEngine) Generate(_ context.Context, req *metaagent.GenerateRequest) (*proposal.ChangeProposal, error) {
	e.generateReqs = append(e.generateReqs, req)
	if e.generateErr != nil {
		return nil, e.generateErr
	}
	return e.generate, nil
}

func (e *fakeEngine) Fix(_ context.Context, req *metaagent.FixRequest) (*proposal.ChangeProposal, error) {
	e.fixReqs = append(e.fixReqs, req)
	if e.fixErr != nil {
		return nil, e.fixErr
	}
	if len(e.fixes) == 0 {
		return nil, errors.New("no more fixes")
	}
	next := e.fixes[0]
	e.fixes = e.fixes[1:]
	return next, nil
}

func (e *fakeEngine) Review(_ context.Context, req *metaagent.ReviewRequest) (*proposal.ReviewOutcome, error) {
	e.reviewReqs = append(e.reviewReqs, req)
	return e.review, nil
}

// fakeRunner returns one scripted result per Run call; a command listed in
// the current script fails.
type fakeRunner struct {
	failing  [][]string
	commands [][]string
}

var _ validation.CommandRunner = (*fakeRunner)(nil)

func (r *fakeRunner) Run(_ context.Context, _ string, commands []string) []validation.Outcome {
	r.commands = append(r.commands, slices.Clone(commands))
	var failing []string
	if len(r.failing) > 0 {
		failing = r.failing[0]
		r.failing = r.failing[1:]
	}
	out := make([]validation.Outcome, 0, len(commands))
	for _, c := range commands {
		if slices.Contains(failing, c) {
			out = append(out, validation.Outcome{Command: c, Output: "boom: " + c})
			continue
		}
		out = append(out, validation.Outcome{Command: c, Success: true})
	}
	return out
}

// staticCollector returns fixed context and records the roots it was given.
type staticCollector struct {
	text  string
	roots []string
	seen  []string
}

func (s *staticCollector) Collect(_ context.Context, root, issueText string) (string, error) {
	s.roots = append(s.roots, root)
	s.seen = append(s.seen, issueText)
	return s.text, nil
}
