/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"

	"chainguard.dev/codeagent/agents/proposal"
	"chainguard.dev/codeagent/reconcilers/githubreconciler/validation"
)

// maxOutputLines bounds the command output shown per row.
const maxOutputLines = 5

func newTable(w io.Writer, headers ...string) *tablewriter.Table {
	cfg := tablewriter.Config{
		Header: tw.CellConfig{
			Alignment:  tw.CellAlignment{Global: tw.AlignLeft},
			Formatting: tw.CellFormatting{AutoFormat: tw.Off},
		},
		Row: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignLeft},
		},
		MaxWidth: 100,
	}
	return tablewriter.NewTable(w,
		tablewriter.WithConfig(cfg),
		tablewriter.WithHeader(headers),
		tablewriter.WithRenderer(renderer.NewBlueprint()),
		tablewriter.WithRendition(tw.Rendition{
			Symbols: tw.NewSymbols(tw.StyleLight),
		}),
		tablewriter.WithRowAutoWrap(tw.WrapNormal),
	)
}

// renderValidation prints one validation attempt.
func renderValidation(w io.Writer, attempt int, outcomes []validation.Outcome) {
	fmt.Fprintf(w, "Validation attempt %d\n", attempt)
	table := newTable(w, "Command", "Result", "Output")
	for _, o := range outcomes {
		result := "FAIL"
		if o.Success {
			result = "PASS"
		}
		_ = table.Append([]string{o.Command, result, tail(o.Output, maxOutputLines)})
	}
	_ = table.Render()
}

// renderReview prints the verdict and the findings of a review.
func renderReview(w io.Writer, outcome *proposal.ReviewOutcome) {
	verdict := "Changes requested"
	if outcome.Approved {
		verdict = "Approved"
	}
	fmt.Fprintf(w, "%s: %s\n", verdict, outcome.Summary)
	if len(outcome.Comments) == 0 {
		return
	}
	table := newTable(w, "File", "Line", "Problem", "Suggestion")
	for _, c := range outcome.Comments {
		line := ""
		if c.Line != nil {
			line = strconv.Itoa(*c.Line)
		}
		_ = table.Append([]string{c.File, line, c.Problem, c.Suggestion})
	}
	_ = table.Render()
}

// tail keeps the last n lines of s.
func tail(s string, n int) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	if len(lines) <= n {
		return strings.Join(lines, "\n")
	}
	return strings.Join(append([]string{"..."}, lines[len(lines)-n:]...), "\n")
}
