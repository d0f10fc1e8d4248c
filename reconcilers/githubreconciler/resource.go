/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package githubreconciler

import (
	"fmt"
	"strings"
)

// Resource identifies an issue or pull request within a repository.
type Resource struct {
	Owner  string
	Repo   string
	Number int
}

// ParseRepository splits an "owner/repo" string.
func ParseRepository(s string) (owner, repo string, err error) {
	owner, repo, ok := strings.Cut(strings.TrimSpace(s), "/")
	if !ok || owner == "" || repo == "" || strings.Contains(repo, "/") {
		return "", "", fmt.Errorf("invalid repository %q: expected owner/repo", s)
	}
	return owner, repo, nil
}

// NewResource builds a Resource from an "owner/repo" string and a number.
func NewResource(repository string, number int) (*Resource, error) {
	owner, repo, err := ParseRepository(repository)
	if err != nil {
		return nil, err
	}
	if number <= 0 {
		return nil, fmt.Errorf("invalid number %d: must be positive", number)
	}
	return &Resource{Owner: owner, Repo: repo, Number: number}, nil
}

// FullName returns "owner/repo".
func (r *Resource) FullName() string {
	return r.Owner + "/" + r.Repo
}

func (r *Resource) String() string {
	return fmt.Sprintf("%s/%s#%d", r.Owner, r.Repo, r.Number)
}
