/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package changemanager is the GitHub hosting client the iteration controller
// talks to. It wraps go-github for issues, pull requests, reviews, comments
// and labels, and githubv4 for the check-run summary of a pull request's head
// commit.
//
// Missing resources and permission failures are surfaced as *NotFoundError
// and *PermissionError so callers can print a useful message.
package changemanager
