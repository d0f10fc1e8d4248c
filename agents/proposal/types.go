/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package proposal

import (
	"fmt"
	"slices"
)

// FileAction is the kind of change a FileEdit makes.
type FileAction string

const (
	ActionCreate FileAction = "create"
	ActionUpdate FileAction = "update"
	ActionDelete FileAction = "delete"
)

// Actions lists every allowed FileAction.
var Actions = []FileAction{ActionCreate, ActionUpdate, ActionDelete}

// Valid reports whether a is one of the allowed actions.
func (a FileAction) Valid() bool {
	return slices.Contains(Actions, a)
}

// FileEdit is a single file-level change relative to the repository root.
type FileEdit struct {
	Path    string     `json:"path" jsonschema:"required,description=File path relative to the repository root"`
	Action  FileAction `json:"action" jsonschema:"required,enum=create,enum=update,enum=delete,description=What to do with the file"`
	Content string     `json:"content,omitempty" jsonschema:"description=Full new file content for create and update"`
}

// ChangeProposal is what an engine returns for a generate or fix request.
type ChangeProposal struct {
	Analysis           string     `json:"analysis" jsonschema:"required,description=Short explanation of the change"`
	Files              []FileEdit `json:"files" jsonschema:"required,description=File edits to apply in order"`
	CommitMessage      string     `json:"commit_message" jsonschema:"required,description=Commit message for the change"`
	ValidationCommands []string   `json:"validation_commands,omitempty" jsonschema:"description=Shell commands that check the change (tests or linters)"`
}

// Validate checks the required fields and every edit.
func (p *ChangeProposal) Validate() error {
	if p == nil {
		return &SchemaError{Kind: "ChangeProposal", Reason: "empty payload"}
	}
	var missing []string
	if p.Analysis == "" {
		missing = append(missing, "analysis")
	}
	if p.Files == nil {
		missing = append(missing, "files")
	}
	if p.CommitMessage == "" {
		missing = append(missing, "commit_message")
	}
	if len(missing) > 0 {
		return &SchemaError{Kind: "ChangeProposal", Missing: missing}
	}
	for i, f := range p.Files {
		if err := f.validate(); err != nil {
			err.Field = fmt.Sprintf("files[%d]", i)
			return err
		}
	}
	return nil
}

func (f FileEdit) validate() *SchemaError {
	var missing []string
	if f.Path == "" {
		missing = append(missing, "path")
	}
	if f.Action == "" {
		missing = append(missing, "action")
	}
	if len(missing) > 0 {
		return &SchemaError{Kind: "FileEdit", Missing: missing}
	}
	if !f.Action.Valid() {
		return &SchemaError{Kind: "FileEdit", Reason: fmt.Sprintf("unknown action %q", f.Action)}
	}
	return nil
}

// ReviewComment is a single finding attached to a file, and optionally a line.
type ReviewComment struct {
	File       string `json:"file" jsonschema:"required,description=File the comment applies to"`
	Line       *int   `json:"line,omitempty" jsonschema:"description=Line number in the new version of the file"`
	Problem    string `json:"problem" jsonschema:"required,description=What is wrong"`
	Suggestion string `json:"suggestion" jsonschema:"required,description=How to fix it"`
}

// ReviewOutcome is what an engine returns for a review request.
type ReviewOutcome struct {
	Approved bool            `json:"approved" jsonschema:"required,description=Whether the change can be merged as is"`
	Summary  string          `json:"summary" jsonschema:"required,description=One paragraph summary of the review"`
	Comments []ReviewComment `json:"comments,omitempty" jsonschema:"description=Specific findings"`
}

// Validate checks the required fields of the outcome and its comments.
// Presence of "approved" is checked by the decoder, since false is its zero value.
func (r *ReviewOutcome) Validate() error {
	if r == nil {
		return &SchemaError{Kind: "ReviewOutcome", Reason: "empty payload"}
	}
	if r.Summary == "" {
		return &SchemaError{Kind: "ReviewOutcome", Missing: []string{"summary"}}
	}
	for i, c := range r.Comments {
		var missing []string
		if c.File == "" {
			missing = append(missing, "file")
		}
		if c.Problem == "" {
			missing = append(missing, "problem")
		}
		if c.Suggestion == "" {
			missing = append(missing, "suggestion")
		}
		if len(missing) > 0 {
			return &SchemaError{Kind: "ReviewComment", Field: fmt.Sprintf("comments[%d]", i), Missing: missing}
		}
	}
	return nil
}
