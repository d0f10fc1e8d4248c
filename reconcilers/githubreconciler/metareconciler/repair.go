/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package metareconciler

import (
	"context"
	"fmt"
	"strings"

	"github.com/chainguard-dev/clog"

	"chainguard.dev/codeagent/agents/metaagent"
	"chainguard.dev/codeagent/agents/proposal"
	"chainguard.dev/codeagent/reconcilers/githubreconciler/validation"
)

// MaxValidationRetries bounds the validation attempts made before committing.
const MaxValidationRetries = 3

// FailureReport renders failed outcomes as the feedback handed back to the
// engine, one "$ command" header per failure followed by its output.
func FailureReport(failed []validation.Outcome) string {
	parts := make([]string, 0, len(failed))
	for _, o := range failed {
		parts = append(parts, fmt.Sprintf("$ %s\n%s", o.Command, o.Output))
	}
	return strings.Join(parts, "\n")
}

// repair runs the proposal's validation commands and, while they fail and
// attempts remain, asks the engine for a corrected proposal and applies it on
// top of the working tree. It returns the proposal whose commit message should
// be used and every path touched so far.
func (c *Controller) repair(ctx context.Context, ws Workspace, prop *proposal.ChangeProposal, paths []string, title, body, repoContext string) (*proposal.ChangeProposal, []string, error) {
	log := clog.FromContext(ctx)
	commands := prop.ValidationCommands

	for attempt := 1; ; attempt++ {
		log.Infof("Validating (attempt %d/%d): %s", attempt, MaxValidationRetries, strings.Join(commands, "; "))
		outcomes := c.runner.Run(ctx, ws.Root(), commands)
		c.observeValidation(attempt, outcomes)

		failed := validation.Failed(outcomes)
		if len(failed) == 0 {
			log.Infof("Validation passed on attempt %d", attempt)
			return prop, paths, nil
		}
		report := FailureReport(failed)

		if attempt >= MaxValidationRetries {
			if c.validationPolicy == StrictValidation {
				return nil, nil, fmt.Errorf("%w after %d attempts:\n%s", ErrValidationFailed, attempt, report)
			}
			log.Warnf("Validation still failing after %d attempts, committing anyway:\n%s", attempt, report)
			return prop, paths, nil
		}

		log.Infof("%d of %d commands failed, requesting a fix", len(failed), len(outcomes))
		next, err := c.engine.Fix(ctx, &metaagent.FixRequest{
			Feedback: report,
			Title:    title,
			Body:     body,
			Context:  repoContext,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("repairing validation failures: %w", err)
		}

		touched, err := ws.ApplyEdits(ctx, next.Files)
		if err != nil {
			return nil, nil, fmt.Errorf("applying repair edits: %w", err)
		}
		paths = mergePaths(paths, touched)
		if len(next.ValidationCommands) > 0 {
			commands = next.ValidationCommands
		}
		prop = next
	}
}

// mergePaths appends the entries of more not already in paths, keeping order.
func mergePaths(paths, more []string) []string {
	seen := make(map[string]struct{}, len(paths)+len(more))
	out := make([]string, 0, len(paths)+len(more))
	for _, p := range append(append([]string(nil), paths...), more...) {
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}
