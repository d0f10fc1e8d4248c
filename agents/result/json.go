/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package result

import (
	"encoding/json"
	"strings"
)

// ExtractJSON pulls the JSON document out of a model response.
//
// In order of preference it returns the body of the first ```json fence, the
// body of a response that is entirely wrapped in a bare ``` fence, the span
// from the first '{' to the last '}' when the response has prose around an
// object, and otherwise the trimmed response.
func ExtractJSON(response string) string {
	if body, ok := fencedBlock(response, "```json"); ok {
		return body
	}

	trimmed := strings.TrimSpace(response)
	if strings.HasPrefix(trimmed, "```") && strings.HasSuffix(trimmed, "```") && len(trimmed) >= 6 {
		inner := strings.TrimSuffix(strings.TrimPrefix(trimmed, "```"), "```")
		// Drop a language tag on the opening fence line.
		if nl := strings.IndexByte(inner, '\n'); nl >= 0 && !strings.ContainsAny(inner[:nl], "{[") {
			inner = inner[nl+1:]
		}
		return strings.TrimSpace(inner)
	}

	if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") {
		return trimmed
	}
	start, end := strings.IndexByte(trimmed, '{'), strings.LastIndexByte(trimmed, '}')
	if start >= 0 && end > start {
		return trimmed[start : end+1]
	}
	return trimmed
}

// fencedBlock returns the lines between an opening line equal to open and the
// next closing ``` line. An unterminated block runs to the end of the input.
func fencedBlock(response, open string) (string, bool) {
	lines := strings.Split(response, "\n")
	for i, line := range lines {
		if strings.TrimSpace(line) != open {
			continue
		}
		var body []string
		for _, l := range lines[i+1:] {
			if strings.TrimSpace(l) == "```" {
				break
			}
			body = append(body, l)
		}
		return strings.TrimSpace(strings.Join(body, "\n")), true
	}
	return "", false
}

// Extract runs ExtractJSON over the response and unmarshals the result into T.
func Extract[T any](response string) (T, error) {
	var out T
	if err := json.Unmarshal([]byte(ExtractJSON(response)), &out); err != nil {
		return out, err
	}
	return out, nil
}
