/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package proposal

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDecodeChangeProposal(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    *ChangeProposal
		missing []string
		wantErr bool
	}{{
		name:  "minimal",
		input: `{"analysis":"a","files":[],"commit_message":"m"}`,
		want:  &ChangeProposal{Analysis: "a", Files: []FileEdit{}, CommitMessage: "m"},
	}, {
		name: "fenced with edits and commands",
		input: "Here you go:\n```json\n" +
			`{"analysis":"add x","files":[{"path":"x.py","action":"create","content":"print(1)\n"},{"path":"y.py","action":"delete"}],"commit_message":"feat: x","validation_commands":["pytest -q"]}` +
			"\n```\n",
		want: &ChangeProposal{
			Analysis: "add x",
			Files: []FileEdit{
				{Path: "x.py", Action: ActionCreate, Content: "print(1)\n"},
				{Path: "y.py", Action: ActionDelete},
			},
			CommitMessage:      "feat: x",
			ValidationCommands: []string{"pytest -q"},
		},
	}, {
		name:    "missing files and message",
		input:   `{"analysis":"a"}`,
		missing: []string{"files", "commit_message"},
		wantErr: true,
	}, {
		name:    "bad action",
		input:   `{"analysis":"a","files":[{"path":"x","action":"rename"}],"commit_message":"m"}`,
		wantErr: true,
	}, {
		name:    "edit without path",
		input:   `{"analysis":"a","files":[{"action":"create"}],"commit_message":"m"}`,
		missing: []string{"path"},
		wantErr: true,
	}, {
		name:    "not json",
		input:   "I could not do that.",
		wantErr: true,
	}}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeChangeProposal(tt.input)
			if tt.wantErr {
				var se *SchemaError
				if !errors.As(err, &se) {
					t.Fatalf("DecodeChangeProposal() error = %v, want *SchemaError", err)
				}
				if tt.missing != nil {
					if diff := cmp.Diff(tt.missing, se.Missing); diff != "" {
						t.Errorf("Missing (-want +got):\n%s", diff)
					}
				}
				return
			}
			if err != nil {
				t.Fatalf("DecodeChangeProposal() = %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("DecodeChangeProposal() (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDecodeReviewOutcome(t *testing.T) {
	line := 12
	tests := []struct {
		name    string
		input   string
		want    *ReviewOutcome
		wantErr bool
	}{{
		name:  "approved without comments",
		input: `{"approved":true,"summary":"looks good"}`,
		want:  &ReviewOutcome{Approved: true, Summary: "looks good"},
	}, {
		name:  "rejected with comments",
		input: `{"approved":false,"summary":"needs work","comments":[{"file":"a.py","line":12,"problem":"p","suggestion":"s"},{"file":"b.py","problem":"q","suggestion":"t"}]}`,
		want: &ReviewOutcome{
			Summary: "needs work",
			Comments: []ReviewComment{
				{File: "a.py", Line: &line, Problem: "p", Suggestion: "s"},
				{File: "b.py", Problem: "q", Suggestion: "t"},
			},
		},
	}, {
		name:    "approved absent",
		input:   `{"summary":"hm"}`,
		wantErr: true,
	}, {
		name:    "comment missing suggestion",
		input:   `{"approved":false,"summary":"x","comments":[{"file":"a","problem":"p"}]}`,
		wantErr: true,
	}}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeReviewOutcome(tt.input)
			if tt.wantErr {
				var se *SchemaError
				if !errors.As(err, &se) {
					t.Fatalf("DecodeReviewOutcome() error = %v, want *SchemaError", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("DecodeReviewOutcome() = %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("DecodeReviewOutcome() (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSchemaErrorMessage(t *testing.T) {
	err := &SchemaError{Kind: "FileEdit", Field: "files[1]", Missing: []string{"path"}}
	if got, want := err.Error(), "malformed FileEdit at files[1]: missing required fields path"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}
