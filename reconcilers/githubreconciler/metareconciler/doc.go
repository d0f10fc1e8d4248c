/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package metareconciler drives the issue to pull request loop for a single
// repository. A Controller combines a generation engine, a hosting client
// and a version-control workspace:
//
//   - Run turns an issue into a commit and either a pull request or, for an
//     empty repository, a bootstrap commit on the default branch.
//   - Fix revises a pull request from its latest changes-requested review,
//     bounded by the iteration marker in the pull request body.
//   - Review asks the engine for a verdict on a pull request and publishes it.
//
// Each call owns its own clone and runs sequentially. Concurrent calls for the
// same pull request are not coordinated; the last push and the last body edit
// win.
package metareconciler
