/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package metaagent

import "chainguard.dev/codeagent/agents/promptbuilder"

var systemPrompt = promptbuilder.MustNewPrompt(`You are a software engineer working on a GitHub repository.
You make focused, minimal changes that follow the conventions already present in the code.
Every file you touch is written out in full; never emit diffs, placeholders or elisions.
Paths are relative to the repository root.`)

var generatePrompt = promptbuilder.MustNewPrompt(`Resolve the following issue.

{{issue}}

This is what the repository currently looks like:

{{context}}

Respond with:
- analysis: a short explanation of what you changed and why.
- files: the edits, each with a path, an action (create, update or delete) and, unless deleting, the complete new content.
- commit_message: a conventional commit message.
- validation_commands: optional shell commands that check the change, such as the project's tests or linters.
  Only these tools are available: ruff, pytest, python, pip, mypy, black, flake8, pylint, npm, npx, yarn, pnpm,
  node, tsc, go, cargo, rustc, mvn, gradle, javac, make, sh, bash.`)

var fixPrompt = promptbuilder.MustNewPrompt(`You previously proposed a change for the following issue.

{{issue}}

The change needs revision. This is the feedback:

{{feedback}}

This is what the repository currently looks like, including your earlier change:

{{context}}

Address every point of the feedback. Respond in the same shape as before:
analysis, files, commit_message and optional validation_commands.`)

var reviewPrompt = promptbuilder.MustNewPrompt(`Review the following pull request.

It is meant to resolve this issue:

{{issue}}

Changed files:

{{diff}}

Continuous integration: {{ci_status}}

Decide whether the change resolves the issue correctly and can be merged as is.
Respond with:
- approved: true only if nothing needs to change.
- summary: one paragraph describing your verdict.
- comments: specific problems, each with the file, the line when you can tell it, the problem and a suggestion.`)
