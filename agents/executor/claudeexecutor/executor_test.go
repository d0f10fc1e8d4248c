/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package claudeexecutor_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"chainguard.dev/codeagent/agents/executor/claudeexecutor"
	"chainguard.dev/codeagent/agents/promptbuilder"
	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

type question struct {
	Text string
}

func (q *question) Bind(p *promptbuilder.Prompt) (*promptbuilder.Prompt, error) {
	return p.BindXML("question", struct {
		XMLName struct{} `xml:"question"`
		Content string   `xml:",chardata"`
	}{Content: q.Text})
}

type answer struct {
	Answer    string `json:"answer" jsonschema:"required"`
	Reasoning string `json:"reasoning,omitempty"`
}

var errMissingAnswer = errors.New("missing answer")

func decodeAnswer(raw string) (*answer, error) {
	var a answer
	if err := json.Unmarshal([]byte(raw), &a); err != nil {
		return nil, err
	}
	if a.Answer == "" {
		return nil, errMissingAnswer
	}
	return &a, nil
}

// fakeMessages serves /v1/messages with a single tool_use block carrying input.
func fakeMessages(t *testing.T, input string, calls *atomic.Int32, lastBody *string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		body, _ := io.ReadAll(r.Body)
		*lastBody = string(body)
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{
			"id": "msg_1",
			"type": "message",
			"role": "assistant",
			"model": "claude-sonnet-4-5",
			"stop_reason": "tool_use",
			"content": [{"type": "tool_use", "id": "toolu_1", "name": "submit_result", "input": `+input+`}],
			"usage": {"input_tokens": 42, "output_tokens": 7}
		}`)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newExecutor(t *testing.T, srv *httptest.Server) claudeexecutor.Interface[*question, *answer] {
	t.Helper()
	client := anthropic.NewClient(
		option.WithAPIKey("test"),
		option.WithBaseURL(srv.URL),
		option.WithMaxRetries(0),
	)
	exec, err := claudeexecutor.New[*question, *answer](
		client,
		promptbuilder.MustNewPrompt("Answer this: {{question}}"),
		claudeexecutor.WithModel[*question, *answer]("claude-sonnet-4-5"),
		claudeexecutor.WithOperation[*question, *answer]("generate"),
		claudeexecutor.WithDecoder[*question, *answer](decodeAnswer),
	)
	if err != nil {
		t.Fatalf("New() = %v", err)
	}
	return exec
}

func TestExecute(t *testing.T) {
	var calls atomic.Int32
	var body string
	srv := fakeMessages(t, `{"answer": "42", "reasoning": "it is"}`, &calls, &body)

	got, err := newExecutor(t, srv).Execute(context.Background(), &question{Text: "meaning of life?"})
	if err != nil {
		t.Fatalf("Execute() = %v", err)
	}
	if got.Answer != "42" {
		t.Errorf("Answer = %q, want 42", got.Answer)
	}

	for _, want := range []string{`"submit_result"`, `meaning of life?`, `"tool_choice"`} {
		if !strings.Contains(body, want) {
			t.Errorf("request body missing %s:\n%s", want, body)
		}
	}
}

func TestExecuteDecodeErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	var body string
	srv := fakeMessages(t, `{"reasoning": "forgot"}`, &calls, &body)

	_, err := newExecutor(t, srv).Execute(context.Background(), &question{Text: "?"})
	if !errors.Is(err, errMissingAnswer) {
		t.Fatalf("Execute() error = %v, want %v", err, errMissingAnswer)
	}
	if n := calls.Load(); n != 1 {
		t.Errorf("calls = %d, want 1", n)
	}
}

func TestOptionValidation(t *testing.T) {
	client := anthropic.NewClient(option.WithAPIKey("test"))
	prompt := promptbuilder.MustNewPrompt("{{question}}")

	tests := []struct {
		name string
		opt  claudeexecutor.Option[*question, *answer]
	}{
		{"gemini model", claudeexecutor.WithModel[*question, *answer]("gemini-2.5-flash")},
		{"temperature too high", claudeexecutor.WithTemperature[*question, *answer](1.5)},
		{"zero tokens", claudeexecutor.WithMaxTokens[*question, *answer](0)},
		{"nil system prompt", claudeexecutor.WithSystemInstructions[*question, *answer](nil)},
		{"nil decoder", claudeexecutor.WithDecoder[*question, *answer](nil)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := claudeexecutor.New[*question, *answer](client, prompt, tt.opt); err == nil {
				t.Error("New() succeeded, want option error")
			}
		})
	}

	if _, err := claudeexecutor.New[*question, *answer](client, nil); err == nil {
		t.Error("New() with nil prompt succeeded")
	}
}
