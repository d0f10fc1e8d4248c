/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package openaiexecutor runs single-shot structured requests against the
// OpenAI chat completions API using a json_schema response format derived
// from the Response type.
package openaiexecutor
