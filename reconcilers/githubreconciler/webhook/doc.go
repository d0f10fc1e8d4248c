/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package webhook receives GitHub webhook deliveries and dispatches them to
// the iteration controller.
//
// Three events drive the loop:
//
//   - issues labeled with the trigger label run the issue into a pull request.
//   - pull_request opened or synchronize reviews the pull request.
//   - pull_request_review submitted with changes requested runs a fix round.
//
// Deliveries are acknowledged with 202 Accepted before the work runs. Jobs run
// in the background, bounded by a semaphore, and their outcome is only logged.
// There is no retry and no per pull request locking.
package webhook
