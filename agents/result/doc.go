/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package result extracts JSON payloads from model responses.
//
// Structured-output modes usually return bare JSON, but models still wrap
// their answer in markdown fences or a sentence of prose from time to time.
// ExtractJSON strips that wrapping and Extract unmarshals the remainder:
//
//	p, err := result.Extract[*proposal.ChangeProposal](resp.Text())
package result
