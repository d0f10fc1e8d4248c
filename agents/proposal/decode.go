/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package proposal

import (
	"encoding/json"

	"chainguard.dev/codeagent/agents/result"
)

// DecodeChangeProposal parses raw model output into a validated ChangeProposal.
// Markdown code fences around the JSON are tolerated.
func DecodeChangeProposal(raw string) (*ChangeProposal, error) {
	p, err := result.Extract[*ChangeProposal](raw)
	if err != nil {
		return nil, &SchemaError{Kind: "ChangeProposal", Err: err}
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// DecodeReviewOutcome parses raw model output into a validated ReviewOutcome.
func DecodeReviewOutcome(raw string) (*ReviewOutcome, error) {
	body := result.ExtractJSON(raw)

	// "approved": false decodes to the zero value, so presence is checked separately.
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(body), &fields); err != nil {
		return nil, &SchemaError{Kind: "ReviewOutcome", Err: err}
	}
	if _, ok := fields["approved"]; !ok {
		return nil, &SchemaError{Kind: "ReviewOutcome", Missing: []string{"approved"}}
	}

	var out ReviewOutcome
	if err := json.Unmarshal([]byte(body), &out); err != nil {
		return nil, &SchemaError{Kind: "ReviewOutcome", Err: err}
	}
	if err := out.Validate(); err != nil {
		return nil, err
	}
	return &out, nil
}
