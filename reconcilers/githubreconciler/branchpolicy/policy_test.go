/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package branchpolicy

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

type call struct {
	Op     string
	Branch string
	Orphan bool
}

type fakeRepo struct {
	head      bool
	branches  []string
	failOn    map[string]error
	calls     []call
	branchErr error
}

func (f *fakeRepo) ResolveHead(context.Context) (string, bool) {
	if f.head {
		return "abc123", true
	}
	return "", false
}

func (f *fakeRepo) LocalBranches(context.Context) ([]string, error) {
	return f.branches, f.branchErr
}

func (f *fakeRepo) CreateBranch(_ context.Context, name string, orphan bool) error {
	op := "create"
	if orphan {
		op = "orphan"
	}
	f.calls = append(f.calls, call{Op: op, Branch: name, Orphan: orphan})
	return f.failOn[op]
}

func (f *fakeRepo) CheckoutBranch(_ context.Context, name string) error {
	f.calls = append(f.calls, call{Op: "checkout", Branch: name})
	return f.failOn["checkout"]
}

func TestResolve(t *testing.T) {
	boom := errors.New("boom")

	tests := []struct {
		name          string
		defaultBranch string
		repo          *fakeRepo
		want          Target
		wantCalls     []call
	}{{
		name:      "empty repository bootstraps the default branch",
		repo:      &fakeRepo{},
		want:      Target{Branch: "main", Bootstrap: true, Strategy: "orphan-default"},
		wantCalls: []call{{Op: "orphan", Branch: "main", Orphan: true}},
	}, {
		name:          "configured default branch",
		defaultBranch: "trunk",
		repo:          &fakeRepo{},
		want:          Target{Branch: "trunk", Bootstrap: true, Strategy: "orphan-default"},
		wantCalls:     []call{{Op: "orphan", Branch: "trunk", Orphan: true}},
	}, {
		name:      "fresh branch from head",
		repo:      &fakeRepo{head: true, branches: []string{"main"}},
		want:      Target{Branch: "agent/issue-7", Strategy: "create-from-head"},
		wantCalls: []call{{Op: "create", Branch: "agent/issue-7"}},
	}, {
		name:      "existing local branch is reused",
		repo:      &fakeRepo{head: true, branches: []string{"agent/issue-7", "main"}},
		want:      Target{Branch: "agent/issue-7", Strategy: "reuse-existing"},
		wantCalls: []call{{Op: "checkout", Branch: "agent/issue-7"}},
	}, {
		name: "failed reuse falls through to create",
		repo: &fakeRepo{
			head:     true,
			branches: []string{"agent/issue-7"},
			failOn:   map[string]error{"checkout": boom},
		},
		want: Target{Branch: "agent/issue-7", Strategy: "create-from-head"},
		wantCalls: []call{
			{Op: "checkout", Branch: "agent/issue-7"},
			{Op: "create", Branch: "agent/issue-7"},
		},
	}, {
		name: "failed create falls back to orphan",
		repo: &fakeRepo{
			head:   true,
			failOn: map[string]error{"create": boom},
		},
		want: Target{Branch: "agent/issue-7", Strategy: "orphan-fallback"},
		wantCalls: []call{
			{Op: "create", Branch: "agent/issue-7"},
			{Op: "orphan", Branch: "agent/issue-7", Orphan: true},
		},
	}}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := New(tt.defaultBranch).Resolve(context.Background(), tt.repo, 7)
			if err != nil {
				t.Fatalf("Resolve: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Resolve() (-want, +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.wantCalls, tt.repo.calls); diff != "" {
				t.Errorf("repo calls (-want, +got):\n%s", diff)
			}
		})
	}
}

func TestResolveAllStrategiesFail(t *testing.T) {
	boom := errors.New("boom")
	repo := &fakeRepo{head: true, failOn: map[string]error{"create": boom, "orphan": boom}}

	_, err := New("").Resolve(context.Background(), repo, 3)
	if !errors.Is(err, ErrNoStrategy) {
		t.Fatalf("Resolve() error = %v, want ErrNoStrategy", err)
	}
	if !errors.Is(err, boom) {
		t.Errorf("Resolve() error = %v, want it to wrap the strategy failure", err)
	}
}

func TestResolveStateError(t *testing.T) {
	repo := &fakeRepo{head: true, branchErr: errors.New("corrupt refs")}
	if _, err := New("").Resolve(context.Background(), repo, 3); err == nil {
		t.Fatal("Resolve() succeeded despite a state error")
	}
	if len(repo.calls) != 0 {
		t.Errorf("strategies ran despite a state error: %v", repo.calls)
	}
}

func TestForIssue(t *testing.T) {
	p := New("main")

	branch, bootstrap, strategies := p.ForIssue(State{HeadResolvable: true}, 12)
	if branch != "agent/issue-12" || bootstrap {
		t.Errorf("ForIssue() = %q, %v", branch, bootstrap)
	}
	var names []string
	for _, s := range strategies {
		names = append(names, s.Name)
	}
	if diff := cmp.Diff([]string{"reuse-existing", "create-from-head", "orphan-fallback"}, names); diff != "" {
		t.Errorf("strategy order (-want, +got):\n%s", diff)
	}
}
