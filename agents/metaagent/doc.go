/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package metaagent is the generation engine behind the issue, fix and
// review flows.
//
// An Engine exposes three structured operations:
//   - Generate turns an issue and repository context into a ChangeProposal.
//   - Fix turns feedback (review comments or validation failures) plus the
//     same inputs into a revised ChangeProposal.
//   - Review turns a diff, the originating issue and a CI summary into a
//     ReviewOutcome.
//
// The backing provider (Gemini, Claude or OpenAI) is chosen once in New from
// Config.Provider; every operation then goes through the matching executor
// with a response schema reflected from the proposal types. Output that does
// not match the schema is returned as a *proposal.SchemaError.
package metaagent
