/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package schema derives JSON schemas from Go response types and converts
// them into the forms each model SDK accepts for structured output.
package schema
