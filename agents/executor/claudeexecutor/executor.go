/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package claudeexecutor

import (
	"context"
	"errors"
	"fmt"

	"chainguard.dev/codeagent/agents/executor/retry"
	"chainguard.dev/codeagent/agents/metrics"
	"chainguard.dev/codeagent/agents/promptbuilder"
	"chainguard.dev/codeagent/agents/result"
	"chainguard.dev/codeagent/agents/schema"
	"github.com/anthropics/anthropic-sdk-go"
	"github.com/chainguard-dev/clog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// ToolName is the tool Claude is forced to call with its answer.
const ToolName = "submit_result"

// Interface executes one structured request.
type Interface[Request promptbuilder.Bindable, Response any] interface {
	Execute(ctx context.Context, request Request) (Response, error)
}

type executor[Request promptbuilder.Bindable, Response any] struct {
	client             anthropic.Client
	prompt             *promptbuilder.Prompt
	systemInstructions *promptbuilder.Prompt
	model              string
	maxTokens          int64
	temperature        float64
	operation          string
	decode             func(string) (Response, error)
	tool               anthropic.ToolParam
	metrics            *metrics.GenAI
	retryConfig        retry.Config
}

// New creates an executor for the given prompt template.
func New[Request promptbuilder.Bindable, Response any](
	client anthropic.Client,
	prompt *promptbuilder.Prompt,
	opts ...Option[Request, Response],
) (Interface[Request, Response], error) {
	if prompt == nil {
		return nil, errors.New("prompt cannot be nil")
	}

	inputSchema, err := schema.ToMap(schema.ReflectType[Response]())
	if err != nil {
		return nil, fmt.Errorf("building tool schema: %w", err)
	}
	required, _ := inputSchema["required"].([]any)
	requiredNames := make([]string, 0, len(required))
	for _, r := range required {
		if s, ok := r.(string); ok {
			requiredNames = append(requiredNames, s)
		}
	}

	e := &executor[Request, Response]{
		client:      client,
		prompt:      prompt,
		model:       "claude-sonnet-4@20250514",
		maxTokens:   8192,
		temperature: 0.1,
		operation:   "execute",
		decode:      result.Extract[Response],
		tool: anthropic.ToolParam{
			Name:        ToolName,
			Description: anthropic.String("Submit the final structured result."),
			InputSchema: anthropic.ToolInputSchemaParam{
				Properties: inputSchema["properties"],
				Required:   requiredNames,
			},
		},
		metrics:     metrics.NewGenAI(metrics.MeterName),
		retryConfig: retry.Default(),
	}
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}
	return e, nil
}

// Execute implements Interface.
func (e *executor[Request, Response]) Execute(ctx context.Context, request Request) (response Response, err error) {
	ctx, span := otel.Tracer(metrics.MeterName).Start(ctx, "claude."+e.operation)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()
	span.SetAttributes(attribute.String("model", e.model))

	bound, err := request.Bind(e.prompt)
	if err != nil {
		return response, fmt.Errorf("failed to bind request to prompt: %w", err)
	}
	prompt, err := bound.Build()
	if err != nil {
		return response, fmt.Errorf("failed to build prompt: %w", err)
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(e.model),
		MaxTokens: e.maxTokens,
		Messages: []anthropic.MessageParam{{
			Role:    anthropic.MessageParamRoleUser,
			Content: []anthropic.ContentBlockParamUnion{anthropic.NewTextBlock(prompt)},
		}},
		Tools:       []anthropic.ToolUnionParam{{OfTool: &e.tool}},
		ToolChoice:  anthropic.ToolChoiceUnionParam{OfTool: &anthropic.ToolChoiceToolParam{Name: ToolName}},
		Temperature: anthropic.Float(e.temperature),
	}
	if e.systemInstructions != nil {
		system, err := e.systemInstructions.Build()
		if err != nil {
			return response, fmt.Errorf("building system prompt: %w", err)
		}
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}

	log := clog.FromContext(ctx).With("model", e.model).With("operation", e.operation)
	log.With("prompt_length", len(prompt)).Info("Calling Claude")

	msg, err := retry.Do(ctx, e.retryConfig, "claude "+e.operation, isRetryableClaudeError, func() (*anthropic.Message, error) {
		return e.client.Messages.New(ctx, params)
	})
	if err != nil {
		return response, fmt.Errorf("claude %s: %w", e.operation, err)
	}

	e.metrics.RecordTokens(ctx, e.model, e.operation, msg.Usage.InputTokens, msg.Usage.OutputTokens)
	span.SetAttributes(
		attribute.Int64("tokens.prompt", msg.Usage.InputTokens),
		attribute.Int64("tokens.completion", msg.Usage.OutputTokens),
	)

	for _, block := range msg.Content {
		if block.Type != "tool_use" || block.Name != ToolName {
			continue
		}
		e.metrics.RecordToolCall(ctx, e.model, ToolName)
		return e.decode(string(block.Input))
	}

	// Without a tool call, fall back to whatever text the model produced.
	for _, block := range msg.Content {
		if block.Type == "text" {
			log.Warn("Claude answered without calling the result tool")
			return e.decode(block.Text)
		}
	}
	return e.decode("")
}
