/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package feedback

import (
	"sort"
	"time"
)

const (
	// NoFeedback is returned when no review requested changes.
	NoFeedback = "no feedback"

	// EmptyChangesRequested stands in for a changes-requested review with
	// no body.
	EmptyChangesRequested = "Changes requested (no comment)"

	// StateChangesRequested is the review state that carries feedback.
	StateChangesRequested = "CHANGES_REQUESTED"
)

// Review is the subset of a pull request review the fix round reads.
type Review struct {
	State       string
	Body        string
	SubmittedAt time.Time
}

// LatestChangesRequested returns the body of the most recently submitted
// review that requested changes. Reviews are ordered by submission time; ties
// keep their listing order.
func LatestChangesRequested(reviews []Review) string {
	ordered := make([]Review, len(reviews))
	copy(ordered, reviews)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].SubmittedAt.Before(ordered[j].SubmittedAt)
	})

	for i := len(ordered) - 1; i >= 0; i-- {
		if ordered[i].State != StateChangesRequested {
			continue
		}
		if ordered[i].Body == "" {
			return EmptyChangesRequested
		}
		return ordered[i].Body
	}
	return NoFeedback
}
