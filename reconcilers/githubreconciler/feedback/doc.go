/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package feedback reads and writes the iteration marker that a pull request
// body carries, resolves which issue a pull request addresses, and picks the
// review feedback a fix round should act on.
//
// The marker is an HTML comment, so it does not render on GitHub:
//
//	<!-- AGENT: iteration=1, max=5, issue=42 -->
//
// It is the only state the agent persists between invocations.
package feedback
