/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package googleexecutor runs single-shot structured requests against Gemini.
//
// The response schema is reflected from the Response type and sent as the
// ResponseSchema with an application/json MIME type, so the model is
// constrained to emit a decodable payload:
//
//	client, _ := genai.NewClient(ctx, &genai.ClientConfig{APIKey: key, Backend: genai.BackendGeminiAPI})
//	exec, err := googleexecutor.New[*Request, *Response](client, prompt,
//	    googleexecutor.WithModel[*Request, *Response]("gemini-2.5-flash-lite"))
//	resp, err := exec.Execute(ctx, req)
package googleexecutor
