/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package changemanager

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/google/go-github/v84/github"
)

// NotFoundError reports a 404 from GitHub.
type NotFoundError struct {
	What string
	Err  error
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %v", e.What, e.Err)
}

func (e *NotFoundError) Unwrap() error { return e.Err }

// PermissionError reports a 403 from GitHub.
type PermissionError struct {
	What string
	Err  error
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("permission denied for %s: %v", e.What, e.Err)
}

func (e *PermissionError) Unwrap() error { return e.Err }

// classify wraps err with the operation and, for 404 and 403 responses, the
// matching typed error.
func classify(err error, what, op string) error {
	var resp *github.ErrorResponse
	if errors.As(err, &resp) && resp.Response != nil {
		switch resp.Response.StatusCode {
		case http.StatusNotFound:
			return &NotFoundError{What: what, Err: err}
		case http.StatusForbidden:
			return &PermissionError{What: what, Err: err}
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
