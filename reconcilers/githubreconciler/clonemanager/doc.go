/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package clonemanager provides per-invocation git clones of a GitHub
// repository. A Manager is configured with the token source and commit
// identity for an automation and hands out Lease handles that:
//   - Hydrate a fresh clone into a temporary directory, or an initialized
//     repository with an origin remote when the remote has no commits.
//   - Expose the branch, commit, push and fetch operations the iteration
//     controller needs, including orphan branches for empty repositories.
//   - Apply file edits through ApplyEdits, which refuses paths that escape
//     the working tree.
//
// Leases are not shared. Return removes the clone from disk.
package clonemanager
