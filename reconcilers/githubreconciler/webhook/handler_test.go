/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package webhook

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"chainguard.dev/codeagent/agents/proposal"
)

type call struct {
	Operation Operation
	Repo      string
	Number    int
}

type recordingAgent struct {
	mu    *sync.Mutex
	calls *[]call
	repo  string
	err   error
}

func (a *recordingAgent) record(op Operation, n int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	*a.calls = append(*a.calls, call{Operation: op, Repo: a.repo, Number: n})
}

func (a *recordingAgent) Run(_ context.Context, n int) (string, error) {
	a.record(OperationRun, n)
	return "https://github.com/" + a.repo + "/pull/1", a.err
}

func (a *recordingAgent) Fix(_ context.Context, n int) error {
	a.record(OperationFix, n)
	return a.err
}

func (a *recordingAgent) Review(_ context.Context, n int) (*proposal.ReviewOutcome, error) {
	a.record(OperationReview, n)
	if a.err != nil {
		return nil, a.err
	}
	return &proposal.ReviewOutcome{Approved: true, Summary: "ok"}, nil
}

func newTestHandler(t *testing.T, opts ...Option) (*Handler, func() []call) {
	t.Helper()
	var (
		mu    sync.Mutex
		calls []call
	)
	agentFor := func(_ context.Context, owner, repo string) (Agent, error) {
		return &recordingAgent{mu: &mu, calls: &calls, repo: owner + "/" + repo}, nil
	}
	h := New(context.Background(), agentFor, opts...)
	return h, func() []call {
		h.Wait()
		mu.Lock()
		defer mu.Unlock()
		return append([]call(nil), calls...)
	}
}

func deliver(t *testing.T, h *Handler, event, body, secret string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-GitHub-Event", event)
	req.Header.Set("X-GitHub-Delivery", "d-1")
	if secret != "" {
		mac := hmac.New(sha256.New, []byte(secret))
		mac.Write([]byte(body))
		req.Header.Set("X-Hub-Signature-256", "sha256="+hex.EncodeToString(mac.Sum(nil)))
	}
	rec := httptest.NewRecorder()
	h.Mux().ServeHTTP(rec, req)
	return rec
}

const repoJSON = `"repository": {"name": "r", "full_name": "o/r", "owner": {"login": "o"}}`

func TestRouting(t *testing.T) {
	tests := []struct {
		name   string
		event  string
		body   string
		status int
		want   []call
	}{{
		name:   "trigger label runs the issue",
		event:  "issues",
		body:   `{"action": "labeled", "label": {"name": "agent"}, "issue": {"number": 7}, ` + repoJSON + `}`,
		status: http.StatusAccepted,
		want:   []call{{Operation: OperationRun, Repo: "o/r", Number: 7}},
	}, {
		name:   "other labels are ignored",
		event:  "issues",
		body:   `{"action": "labeled", "label": {"name": "bug"}, "issue": {"number": 7}, ` + repoJSON + `}`,
		status: http.StatusOK,
	}, {
		name:   "issue opened is ignored",
		event:  "issues",
		body:   `{"action": "opened", "issue": {"number": 7}, ` + repoJSON + `}`,
		status: http.StatusOK,
	}, {
		name:   "opened pull request is reviewed",
		event:  "pull_request",
		body:   `{"action": "opened", "pull_request": {"number": 12}, ` + repoJSON + `}`,
		status: http.StatusAccepted,
		want:   []call{{Operation: OperationReview, Repo: "o/r", Number: 12}},
	}, {
		name:   "synchronized pull request is reviewed",
		event:  "pull_request",
		body:   `{"action": "synchronize", "pull_request": {"number": 12}, ` + repoJSON + `}`,
		status: http.StatusAccepted,
		want:   []call{{Operation: OperationReview, Repo: "o/r", Number: 12}},
	}, {
		name:   "closed pull request is ignored",
		event:  "pull_request",
		body:   `{"action": "closed", "pull_request": {"number": 12}, ` + repoJSON + `}`,
		status: http.StatusOK,
	}, {
		name:   "changes requested runs a fix",
		event:  "pull_request_review",
		body:   `{"action": "submitted", "review": {"state": "changes_requested"}, "pull_request": {"number": 12}, ` + repoJSON + `}`,
		status: http.StatusAccepted,
		want:   []call{{Operation: OperationFix, Repo: "o/r", Number: 12}},
	}, {
		name:   "approval is ignored",
		event:  "pull_request_review",
		body:   `{"action": "submitted", "review": {"state": "approved"}, "pull_request": {"number": 12}, ` + repoJSON + `}`,
		status: http.StatusOK,
	}, {
		name:   "ping is ignored",
		event:  "ping",
		body:   `{"zen": "Keep it logically awesome."}`,
		status: http.StatusOK,
	}}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, calls := newTestHandler(t)
			rec := deliver(t, h, tt.event, tt.body, "")
			require.Equal(t, tt.status, rec.Code, rec.Body.String())
			if diff := cmp.Diff(tt.want, calls()); diff != "" {
				t.Errorf("calls (-want +got):\n%s", diff)
			}
		})
	}
}

func TestCustomTriggerLabel(t *testing.T) {
	h, calls := newTestHandler(t, WithTriggerLabel("codeagent"))
	body := `{"action": "labeled", "label": {"name": "codeagent"}, "issue": {"number": 3}, ` + repoJSON + `}`
	require.Equal(t, http.StatusAccepted, deliver(t, h, "issues", body, "").Code)
	require.Equal(t, []call{{Operation: OperationRun, Repo: "o/r", Number: 3}}, calls())
}

func TestSignatureValidation(t *testing.T) {
	body := `{"action": "opened", "pull_request": {"number": 1}, ` + repoJSON + `}`

	h, calls := newTestHandler(t, WithSecret("s3cr3t"))
	require.Equal(t, http.StatusAccepted, deliver(t, h, "pull_request", body, "s3cr3t").Code)
	require.Equal(t, http.StatusUnauthorized, deliver(t, h, "pull_request", body, "wrong").Code)
	require.Equal(t, http.StatusUnauthorized, deliver(t, h, "pull_request", body, "").Code)
	require.Len(t, calls(), 1)
}

func TestMalformedPayload(t *testing.T) {
	h, calls := newTestHandler(t)
	rec := deliver(t, h, "issues", `{"action": `, "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Empty(t, calls())
}

func TestJobErrorsAreOnlyLogged(t *testing.T) {
	var mu sync.Mutex
	var calls []call
	h := New(context.Background(), func(_ context.Context, owner, repo string) (Agent, error) {
		return &recordingAgent{mu: &mu, calls: &calls, repo: owner + "/" + repo, err: errors.New("boom")}, nil
	})
	body := `{"action": "opened", "pull_request": {"number": 4}, ` + repoJSON + `}`
	require.Equal(t, http.StatusAccepted, deliver(t, h, "pull_request", body, "").Code)
	h.Wait()
	require.Len(t, calls, 1)

	h = New(context.Background(), func(context.Context, string, string) (Agent, error) {
		return nil, errors.New("no installation")
	})
	require.Equal(t, http.StatusAccepted, deliver(t, h, "pull_request", body, "").Code)
	h.Wait()
}

func TestConcurrencyIsBounded(t *testing.T) {
	const jobs = 6
	var (
		mu      sync.Mutex
		running int
		peak    int
		release = make(chan struct{})
		started = make(chan struct{}, jobs)
	)
	agentFor := func(context.Context, string, string) (Agent, error) {
		return blockingAgent(func() {
			mu.Lock()
			running++
			peak = max(peak, running)
			mu.Unlock()
			started <- struct{}{}
			<-release
			mu.Lock()
			running--
			mu.Unlock()
		}), nil
	}
	h := New(context.Background(), agentFor, WithMaxConcurrentJobs(2))

	body := `{"action": "opened", "pull_request": {"number": 4}, ` + repoJSON + `}`
	for range jobs {
		require.Equal(t, http.StatusAccepted, deliver(t, h, "pull_request", body, "").Code)
	}
	<-started
	<-started
	close(release)
	h.Wait()

	require.Equal(t, 2, peak)
}

type blockingAgent func()

func (b blockingAgent) Run(context.Context, int) (string, error) { b(); return "", nil }
func (b blockingAgent) Fix(context.Context, int) error           { b(); return nil }
func (b blockingAgent) Review(context.Context, int) (*proposal.ReviewOutcome, error) {
	b()
	return &proposal.ReviewOutcome{}, nil
}

func TestHealth(t *testing.T) {
	h, _ := newTestHandler(t)
	rec := httptest.NewRecorder()
	h.Mux().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"status":"healthy"}`, rec.Body.String())
}
