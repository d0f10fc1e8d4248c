/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package feedback

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
)

var (
	markerPattern   = regexp.MustCompile(`AGENT:\s*iteration=(\d+),\s*max=(\d+),\s*issue=(\d+)`)
	closesPattern   = regexp.MustCompile(`(?i)(?:closes|fixes|resolves)\s*#(\d+)`)
	issueKeyPattern = regexp.MustCompile(`issue=(\d+)`)
)

// ErrNoMarker is returned by RewriteIteration when the body has no marker.
var ErrNoMarker = errors.New("no iteration marker found")

// Marker is the iteration state embedded in a pull request body.
type Marker struct {
	Issue     int
	Iteration int
	Max       int
}

// HasBudget reports whether another fix round is allowed.
func (m Marker) HasBudget() bool {
	return m.Iteration < m.Max
}

// String renders the marker as it appears in a pull request body.
func (m Marker) String() string {
	return fmt.Sprintf("<!-- AGENT: iteration=%d, max=%d, issue=%d -->", m.Iteration, m.Max, m.Issue)
}

// ParseMarker returns the first marker found anywhere in text.
func ParseMarker(text string) (Marker, bool) {
	m := markerPattern.FindStringSubmatch(text)
	if m == nil {
		return Marker{}, false
	}
	iteration, err1 := strconv.Atoi(m[1])
	limit, err2 := strconv.Atoi(m[2])
	issue, err3 := strconv.Atoi(m[3])
	if err := errors.Join(err1, err2, err3); err != nil {
		// Only digits match, so this is an overflow.
		return Marker{}, false
	}
	return Marker{Issue: issue, Iteration: iteration, Max: limit}, true
}

// RewriteIteration replaces the iteration digits of the first marker in body
// with next. Every other byte of body is preserved.
func RewriteIteration(body string, next int) (string, error) {
	loc := markerPattern.FindStringSubmatchIndex(body)
	if loc == nil {
		return "", ErrNoMarker
	}
	start, end := loc[2], loc[3]
	return body[:start] + strconv.Itoa(next) + body[end:], nil
}

// ExtractIssueRef finds the issue a pull request addresses: a closing keyword
// such as "Closes #12" first, then an issue=<n> key such as the marker's.
func ExtractIssueRef(text string) (int, bool) {
	for _, re := range []*regexp.Regexp{closesPattern, issueKeyPattern} {
		if m := re.FindStringSubmatch(text); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil {
				return n, true
			}
		}
	}
	return 0, false
}
