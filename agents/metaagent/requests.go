/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package metaagent

import (
	"encoding/xml"

	"chainguard.dev/codeagent/agents/promptbuilder"
)

type issueXML struct {
	XMLName xml.Name `xml:"issue"`
	Title   string   `xml:"title"`
	Body    string   `xml:"body"`
}

// section wraps free-form text in a named element, kept verbatim as CDATA.
type section struct {
	XMLName xml.Name
	Text    string `xml:",cdata"`
}

func newSection(name, text string) section {
	return section{XMLName: xml.Name{Local: name}, Text: text}
}

// GenerateRequest asks for a change that resolves an issue.
type GenerateRequest struct {
	Title   string
	Body    string
	Context string
}

// Bind implements promptbuilder.Bindable.
func (r *GenerateRequest) Bind(p *promptbuilder.Prompt) (*promptbuilder.Prompt, error) {
	p, err := p.BindXML("issue", issueXML{Title: r.Title, Body: r.Body})
	if err != nil {
		return nil, err
	}
	return p.BindXML("context", newSection("repository_context", r.Context))
}

// FixRequest asks for a revision of an earlier change.
type FixRequest struct {
	Feedback string
	Title    string
	Body     string
	Context  string
}

// Bind implements promptbuilder.Bindable.
func (r *FixRequest) Bind(p *promptbuilder.Prompt) (*promptbuilder.Prompt, error) {
	p, err := (&GenerateRequest{Title: r.Title, Body: r.Body, Context: r.Context}).Bind(p)
	if err != nil {
		return nil, err
	}
	return p.BindXML("feedback", newSection("feedback", r.Feedback))
}

// ReviewRequest asks for a verdict on a pull request diff.
type ReviewRequest struct {
	Diff     string
	Title    string
	Body     string
	CIStatus string
}

// Bind implements promptbuilder.Bindable.
func (r *ReviewRequest) Bind(p *promptbuilder.Prompt) (*promptbuilder.Prompt, error) {
	p, err := p.BindXML("issue", issueXML{Title: r.Title, Body: r.Body})
	if err != nil {
		return nil, err
	}
	p, err = p.BindXML("diff", newSection("diff", r.Diff))
	if err != nil {
		return nil, err
	}
	return p.BindXML("ci_status", struct {
		XMLName xml.Name `xml:"ci_status"`
		Text    string   `xml:",chardata"`
	}{Text: r.CIStatus})
}
