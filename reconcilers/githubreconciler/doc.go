/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package githubreconciler holds the pieces shared by the GitHub-facing
// packages: the Resource that identifies an issue or pull request, OAuth2
// token sources (static personal tokens or GitHub App installations), and a
// per-repository cache of authenticated go-github clients.
package githubreconciler
