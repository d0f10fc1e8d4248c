/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package proposal

import (
	"fmt"
	"strings"
)

// SchemaError reports engine output that does not match the expected shape.
type SchemaError struct {
	// Kind is the payload type being decoded, e.g. "ChangeProposal".
	Kind string
	// Field locates a nested element, e.g. "files[2]". Empty for the top level.
	Field string
	// Missing lists required fields that were absent.
	Missing []string
	// Reason describes any other mismatch.
	Reason string
	// Err is the underlying decode error, if any.
	Err error
}

func (e *SchemaError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "malformed %s", e.Kind)
	if e.Field != "" {
		fmt.Fprintf(&b, " at %s", e.Field)
	}
	if len(e.Missing) > 0 {
		fmt.Fprintf(&b, ": missing required fields %s", strings.Join(e.Missing, ", "))
	}
	if e.Reason != "" {
		fmt.Fprintf(&b, ": %s", e.Reason)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *SchemaError) Unwrap() error { return e.Err }
