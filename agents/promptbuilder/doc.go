/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package promptbuilder assembles engine prompts from templates with
// {{name}} placeholders.
//
// Only string literals written in source can be bound verbatim. Anything
// that came from a user, such as an issue body, a diff or review feedback,
// has to be bound as XML or JSON so it stays visibly delimited as data
// inside the prompt:
//
//	p := promptbuilder.MustNewPrompt(`Fix this issue: {{issue}}`)
//	p, err := p.BindXML("issue", issue)
//	text, err := p.Build()
//
// Build fails while any placeholder is still unbound.
package promptbuilder
