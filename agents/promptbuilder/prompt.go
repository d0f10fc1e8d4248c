/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package promptbuilder

import (
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"maps"
	"strings"
	"unicode"
)

// stringLiteral is unexported so callers can only pass untyped constants.
type stringLiteral string

// segment is either template text or a placeholder.
type segment struct {
	text        string
	placeholder string
}

// Prompt is an immutable template. Bind methods return a copy.
type Prompt struct {
	segments []segment
	values   map[string]func() (string, error)
}

// NewPrompt parses a template.
func NewPrompt(template stringLiteral) (*Prompt, error) {
	segments, err := parse(string(template))
	if err != nil {
		return nil, err
	}
	values := make(map[string]func() (string, error))
	for _, s := range segments {
		if s.placeholder != "" {
			values[s.placeholder] = nil
		}
	}
	return &Prompt{segments: segments, values: values}, nil
}

// MustNewPrompt is NewPrompt for package-level templates.
func MustNewPrompt(template stringLiteral) *Prompt {
	p, err := NewPrompt(template)
	if err != nil {
		panic(err)
	}
	return p
}

// Placeholders returns the set of placeholder names in the template.
func (p *Prompt) Placeholders() map[string]struct{} {
	out := make(map[string]struct{}, len(p.values))
	for name := range p.values {
		out[name] = struct{}{}
	}
	return out
}

func (p *Prompt) bind(name string, value func() (string, error)) (*Prompt, error) {
	current, ok := p.values[name]
	if !ok {
		return nil, fmt.Errorf("binding %q not found in template", name)
	}
	if current != nil {
		return nil, fmt.Errorf("binding %q already bound", name)
	}
	values := maps.Clone(p.values)
	values[name] = value
	return &Prompt{segments: p.segments, values: values}, nil
}

// BindStringLiteral binds a developer-supplied constant.
func (p *Prompt) BindStringLiteral(name string, value stringLiteral) (*Prompt, error) {
	return p.bind(name, func() (string, error) { return string(value), nil })
}

// BindXML binds data marshaled as indented XML.
func (p *Prompt) BindXML(name string, data any) (*Prompt, error) {
	return p.bind(name, func() (string, error) {
		b, err := xml.MarshalIndent(data, "", "  ")
		if err != nil {
			return "", fmt.Errorf("marshal %s as XML: %w", name, err)
		}
		return string(b), nil
	})
}

// BindJSON binds data marshaled as indented JSON.
func (p *Prompt) BindJSON(name string, data any) (*Prompt, error) {
	return p.bind(name, func() (string, error) {
		b, err := json.MarshalIndent(data, "", "  ")
		if err != nil {
			return "", fmt.Errorf("marshal %s as JSON: %w", name, err)
		}
		return string(b), nil
	})
}

// Build renders the prompt.
func (p *Prompt) Build() (string, error) {
	rendered := make(map[string]string, len(p.values))
	for name, value := range p.values {
		if value == nil {
			return "", fmt.Errorf("unbound placeholder: %s", name)
		}
		v, err := value()
		if err != nil {
			return "", err
		}
		rendered[name] = v
	}

	var b strings.Builder
	for _, s := range p.segments {
		if s.placeholder != "" {
			b.WriteString(rendered[s.placeholder])
		} else {
			b.WriteString(s.text)
		}
	}
	return b.String(), nil
}

func parse(template string) ([]segment, error) {
	var out []segment
	for template != "" {
		start := strings.Index(template, "{{")
		if start < 0 {
			out = append(out, segment{text: template})
			break
		}
		if start > 0 {
			out = append(out, segment{text: template[:start]})
		}
		end := strings.Index(template[start:], "}}")
		if end < 0 {
			return nil, errors.New("unclosed binding: missing '}}'")
		}
		name := strings.TrimSpace(template[start+2 : start+end])
		if !identifier(name) {
			return nil, fmt.Errorf("invalid binding identifier %q", name)
		}
		out = append(out, segment{placeholder: name})
		template = template[start+end+2:]
	}
	return out, nil
}

// identifier reports whether s starts with a letter and continues with
// letters, digits or underscores.
func identifier(s string) bool {
	for i, r := range s {
		if i == 0 && !unicode.IsLetter(r) {
			return false
		}
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
			return false
		}
	}
	return s != ""
}
