/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package validation runs the validation commands a change proposal asks
// for, restricted to a static allowlist of build and test tools, each under a
// wall-clock timeout.
package validation
