/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package openaiexecutor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"chainguard.dev/codeagent/agents/promptbuilder"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

type question struct {
	Text string
}

func (q *question) Bind(p *promptbuilder.Prompt) (*promptbuilder.Prompt, error) {
	return p.BindJSON("question", q.Text)
}

type answer struct {
	Answer string `json:"answer" jsonschema:"required"`
}

func TestExecute(t *testing.T) {
	var body string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		body = string(b)
		content, _ := json.Marshal(`{"answer": "blue"}`)
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"created": 1,
			"model": "gpt-4.1",
			"choices": [{"index": 0, "finish_reason": "stop", "message": {"role": "assistant", "content": `+string(content)+`}}],
			"usage": {"prompt_tokens": 9, "completion_tokens": 4, "total_tokens": 13}
		}`)
	}))
	defer srv.Close()

	client := openai.NewClient(option.WithAPIKey("test"), option.WithBaseURL(srv.URL), option.WithMaxRetries(0))
	exec, err := New[*question, *answer](client,
		promptbuilder.MustNewPrompt("Q: {{question}}"),
		WithSystemInstructions[*question, *answer](promptbuilder.MustNewPrompt("Be brief.")),
		WithOperation[*question, *answer]("review"),
	)
	if err != nil {
		t.Fatalf("New() = %v", err)
	}

	got, err := exec.Execute(context.Background(), &question{Text: "sky colour?"})
	if err != nil {
		t.Fatalf("Execute() = %v", err)
	}
	if got.Answer != "blue" {
		t.Errorf("Answer = %q, want blue", got.Answer)
	}
	for _, want := range []string{`"json_schema"`, `"Be brief."`, "sky colour?"} {
		if !strings.Contains(body, want) {
			t.Errorf("request body missing %s:\n%s", want, body)
		}
	}
}

func TestIsRetryableOpenAIError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain", errors.New("boom"), false},
		{"429", &openai.Error{StatusCode: 429}, true},
		{"wrapped 500", fmt.Errorf("x: %w", &openai.Error{StatusCode: 500}), true},
		{"400", &openai.Error{StatusCode: 400}, false},
		{"401", &openai.Error{StatusCode: 401}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isRetryableOpenAIError(tt.err); got != tt.want {
				t.Errorf("isRetryableOpenAIError() = %v, want %v", got, tt.want)
			}
		})
	}
}
