/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package main

import (
	"errors"
	"fmt"

	"chainguard.dev/codeagent/agents/proposal"
	"chainguard.dev/codeagent/reconcilers/githubreconciler/changemanager"
	"chainguard.dev/codeagent/reconcilers/githubreconciler/metareconciler"
)

// commandError ties a controller failure to the issue or pull request the
// command was invoked for.
type commandError struct {
	subject string
	number  int
	repo    string
	err     error
}

func (e *commandError) Error() string {
	return fmt.Sprintf("%s #%d in %s: %v", e.subject, e.number, e.repo, e.err)
}

func (e *commandError) Unwrap() error { return e.err }

// describe renders err as the message printed before exiting.
func describe(err error) string {
	var (
		cmdErr    *commandError
		notFound  *changemanager.NotFoundError
		denied    *changemanager.PermissionError
		schemaErr *proposal.SchemaError
	)
	if !errors.As(err, &cmdErr) {
		return fmt.Sprintf("Error: %v", err)
	}

	switch {
	case errors.As(err, &notFound):
		return fmt.Sprintf("%s #%d not found in %s", cmdErr.subject, cmdErr.number, cmdErr.repo)
	case errors.As(err, &denied):
		return fmt.Sprintf("GitHub error: permission denied for %s", denied.What)
	case errors.Is(err, metareconciler.ErrNoMarker):
		return fmt.Sprintf("PR #%d has no iteration marker; it was not opened by codeagent", cmdErr.number)
	case errors.Is(err, metareconciler.ErrIterationCeiling):
		return fmt.Sprintf("PR #%d reached its iteration limit; human review required", cmdErr.number)
	case errors.Is(err, metareconciler.ErrValidationFailed):
		return fmt.Sprintf("Validation failed for %s #%d: %v", cmdErr.subject, cmdErr.number, cmdErr.err)
	case errors.As(err, &schemaErr):
		return fmt.Sprintf("The model returned a malformed response: %v", schemaErr)
	default:
		return fmt.Sprintf("Error: %v", cmdErr.err)
	}
}
