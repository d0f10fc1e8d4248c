/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package repocontext renders a bounded text snapshot of a repository for
// the generation engine: a directory tree, the project description files,
// and a handful of source files whose names match identifiers mentioned in
// the issue.
//
// A repository can extend the defaults with a .github/codeagent.yaml file:
//
//	context:
//	  files: [docs/ARCHITECTURE.md]
//	  ignore: [vendor, testdata]
package repocontext
