/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package feedback

import (
	"errors"
	"testing"
	"time"
)

func TestParseMarker(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		want   Marker
		wantOK bool
	}{{
		name:   "rendered marker",
		text:   "Closes #3\n\n---\n<!-- AGENT: iteration=2, max=5, issue=3 -->\n",
		want:   Marker{Issue: 3, Iteration: 2, Max: 5},
		wantOK: true,
	}, {
		name:   "loose spacing",
		text:   "AGENT:iteration=0,max=1,issue=9",
		want:   Marker{Issue: 9, Iteration: 0, Max: 1},
		wantOK: true,
	}, {
		name:   "first match wins",
		text:   "<!-- AGENT: iteration=1, max=3, issue=4 -->\n<!-- AGENT: iteration=7, max=9, issue=8 -->",
		want:   Marker{Issue: 4, Iteration: 1, Max: 3},
		wantOK: true,
	}, {
		name: "no marker",
		text: "Just a description with iteration=3 in it",
	}, {
		name: "fields out of order",
		text: "<!-- AGENT: max=5, iteration=1, issue=3 -->",
	}}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseMarker(tt.text)
			if ok != tt.wantOK {
				t.Fatalf("ParseMarker() ok = %v, want %v", ok, tt.wantOK)
			}
			if got != tt.want {
				t.Errorf("ParseMarker() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestMarkerRoundTrip(t *testing.T) {
	m := Marker{Issue: 42, Iteration: 1, Max: 5}
	if got, want := m.String(), "<!-- AGENT: iteration=1, max=5, issue=42 -->"; got != want {
		t.Fatalf("String() = %q, want %q", got, want)
	}
	got, ok := ParseMarker(m.String())
	if !ok || got != m {
		t.Errorf("ParseMarker(String()) = %+v, %v", got, ok)
	}
	if !m.HasBudget() {
		t.Error("HasBudget() = false at iteration 1 of 5")
	}
	if (Marker{Iteration: 5, Max: 5}).HasBudget() {
		t.Error("HasBudget() = true at the ceiling")
	}
}

func TestRewriteIteration(t *testing.T) {
	tests := []struct {
		name string
		body string
		next int
		want string
	}{{
		name: "rewrites digits only",
		body: "Closes #3\n\n## Summary of changes\nDid things.\n\n---\n<!-- AGENT: iteration=1, max=5, issue=3 -->\n",
		next: 2,
		want: "Closes #3\n\n## Summary of changes\nDid things.\n\n---\n<!-- AGENT: iteration=2, max=5, issue=3 -->\n",
	}, {
		name: "unrelated iteration text untouched",
		body: "Set iteration=9 in the config.\n<!-- AGENT: iteration=3, max=5, issue=1 -->",
		next: 4,
		want: "Set iteration=9 in the config.\n<!-- AGENT: iteration=4, max=5, issue=1 -->",
	}, {
		name: "digit count changes",
		body: "<!-- AGENT: iteration=9, max=12, issue=1 --> trailing",
		next: 10,
		want: "<!-- AGENT: iteration=10, max=12, issue=1 --> trailing",
	}, {
		name: "only the first marker",
		body: "<!-- AGENT: iteration=1, max=5, issue=1 -->\n<!-- AGENT: iteration=1, max=5, issue=1 -->",
		next: 2,
		want: "<!-- AGENT: iteration=2, max=5, issue=1 -->\n<!-- AGENT: iteration=1, max=5, issue=1 -->",
	}}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := RewriteIteration(tt.body, tt.next)
			if err != nil {
				t.Fatalf("RewriteIteration: %v", err)
			}
			if got != tt.want {
				t.Errorf("RewriteIteration() =\n%q\nwant\n%q", got, tt.want)
			}
		})
	}

	if _, err := RewriteIteration("no marker here", 2); !errors.Is(err, ErrNoMarker) {
		t.Errorf("RewriteIteration() error = %v, want ErrNoMarker", err)
	}
}

func TestExtractIssueRef(t *testing.T) {
	tests := []struct {
		text   string
		want   int
		wantOK bool
	}{
		{text: "Closes #12", want: 12, wantOK: true},
		{text: "this FIXES #7 finally", want: 7, wantOK: true},
		{text: "resolves#3", want: 3, wantOK: true},
		{text: "<!-- AGENT: iteration=1, max=5, issue=44 -->", want: 44, wantOK: true},
		{text: "Closes #5\n<!-- AGENT: iteration=1, max=5, issue=44 -->", want: 5, wantOK: true},
		{text: "see #9 for context"},
		{text: ""},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got, ok := ExtractIssueRef(tt.text)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("ExtractIssueRef(%q) = %d, %v, want %d, %v", tt.text, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestLatestChangesRequested(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		reviews []Review
		want    string
	}{{
		name: "no reviews",
		want: NoFeedback,
	}, {
		name: "only approvals and comments",
		reviews: []Review{
			{State: "APPROVED", Body: "lgtm", SubmittedAt: t0},
			{State: "COMMENTED", Body: "nit", SubmittedAt: t0.Add(time.Minute)},
		},
		want: NoFeedback,
	}, {
		name: "most recent changes requested wins",
		reviews: []Review{
			{State: StateChangesRequested, Body: "old", SubmittedAt: t0},
			{State: StateChangesRequested, Body: "new", SubmittedAt: t0.Add(time.Hour)},
			{State: "COMMENTED", Body: "later comment", SubmittedAt: t0.Add(2 * time.Hour)},
		},
		want: "new",
	}, {
		name: "ordered by submission time not listing order",
		reviews: []Review{
			{State: StateChangesRequested, Body: "newest", SubmittedAt: t0.Add(time.Hour)},
			{State: StateChangesRequested, Body: "oldest", SubmittedAt: t0},
		},
		want: "newest",
	}, {
		name: "ties keep listing order",
		reviews: []Review{
			{State: StateChangesRequested, Body: "first", SubmittedAt: t0},
			{State: StateChangesRequested, Body: "second", SubmittedAt: t0},
		},
		want: "second",
	}, {
		name: "empty body",
		reviews: []Review{
			{State: StateChangesRequested, SubmittedAt: t0},
		},
		want: EmptyChangesRequested,
	}}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := LatestChangesRequested(tt.reviews); got != tt.want {
				t.Errorf("LatestChangesRequested() = %q, want %q", got, tt.want)
			}
		})
	}
}
