/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package claudeexecutor runs single-shot structured requests against Claude.
//
// The executor binds a request to its prompt template, forces the model to
// answer through a submit_result tool whose input schema is reflected from
// the Response type, and decodes the tool input into a Response:
//
//	exec, err := claudeexecutor.New[*Request, *Response](
//	    anthropic.NewClient(option.WithAPIKey(key)),
//	    prompt,
//	    claudeexecutor.WithModel[*Request, *Response]("claude-sonnet-4-5"),
//	)
//	resp, err := exec.Execute(ctx, req)
//
// Rate limiting and overload responses are retried with backoff; a response
// that does not decode is returned as an error immediately.
package claudeexecutor
