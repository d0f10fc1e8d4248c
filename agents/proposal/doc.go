/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package proposal defines the structured payloads exchanged with the
// generation engines: change proposals made of file edits, and review
// outcomes made of review comments.
//
// The types carry jsonschema tags so the executors can derive the response
// schema handed to each model, and Validate methods so a decoded payload that
// is missing required fields is rejected with a *SchemaError.
package proposal
