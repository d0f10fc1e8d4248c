/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package openaiexecutor

import (
	"context"
	"errors"
	"fmt"

	"chainguard.dev/codeagent/agents/executor/retry"
	"chainguard.dev/codeagent/agents/metrics"
	"chainguard.dev/codeagent/agents/promptbuilder"
	"chainguard.dev/codeagent/agents/result"
	"chainguard.dev/codeagent/agents/schema"
	"github.com/chainguard-dev/clog"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/shared"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Interface executes one structured request.
type Interface[Request promptbuilder.Bindable, Response any] interface {
	Execute(ctx context.Context, request Request) (Response, error)
}

type executor[Request promptbuilder.Bindable, Response any] struct {
	client             openai.Client
	prompt             *promptbuilder.Prompt
	systemInstructions *promptbuilder.Prompt
	model              string
	maxTokens          int64
	operation          string
	responseSchema     map[string]any
	decode             func(string) (Response, error)
	metrics            *metrics.GenAI
	retryConfig        retry.Config
}

// New creates an executor for the given prompt template.
func New[Request promptbuilder.Bindable, Response any](
	client openai.Client,
	prompt *promptbuilder.Prompt,
	opts ...Option[Request, Response],
) (Interface[Request, Response], error) {
	if prompt == nil {
		return nil, errors.New("prompt cannot be nil")
	}
	responseSchema, err := schema.ToMap(schema.ReflectType[Response]())
	if err != nil {
		return nil, fmt.Errorf("building response schema: %w", err)
	}

	e := &executor[Request, Response]{
		client:         client,
		prompt:         prompt,
		model:          "gpt-4.1",
		maxTokens:      8192,
		operation:      "execute",
		responseSchema: responseSchema,
		decode:         result.Extract[Response],
		metrics:        metrics.NewGenAI(metrics.MeterName),
		retryConfig:    retry.Default(),
	}
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}
	return e, nil
}

func isRetryableOpenAIError(err error) bool {
	var apiErr *openai.Error
	return errors.As(err, &apiErr) && retry.TransientStatus(apiErr.StatusCode)
}

// Execute implements Interface.
func (e *executor[Request, Response]) Execute(ctx context.Context, request Request) (resp Response, err error) {
	ctx, span := otel.Tracer(metrics.MeterName).Start(ctx, "openai."+e.operation)
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
		return resp, fmt.Errorf("failed to bind request to prompt: %w", err)
	}
	prompt, err := bound.Build()
	if err != nil {
		return resp, fmt.Errorf("failed to build prompt: %w", err)
	}

	var messages []openai.ChatCompletionMessageParamUnion
	if e.systemInstructions != nil {
		system, err := e.systemInstructions.Build()
		if err != nil {
			return resp, fmt.Errorf("building system prompt: %w", err)
		}
		messages = append(messages, openai.SystemMessage(system))
	}
	messages = append(messages, openai.UserMessage(prompt))

	params := openai.ChatCompletionNewParams{
		Model:               openai.ChatModel(e.model),
		Messages:            messages,
		MaxCompletionTokens: openai.Int(e.maxTokens),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &shared.ResponseFormatJSONSchemaParam{
				JSONSchema: shared.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:        "result",
					Description: openai.String("The structured result."),
					Schema:      e.responseSchema,
					// Optional fields are not listed as required, which strict mode rejects.
					Strict: openai.Bool(false),
				},
			},
		},
	}

	log := clog.FromContext(ctx).With("model", e.model).With("operation", e.operation)
	log.With("prompt_length", len(prompt)).Info("Calling OpenAI")

	chat, err := retry.Do(ctx, e.retryConfig, "openai "+e.operation, isRetryableOpenAIError, func() (*openai.ChatCompletion, error) {
		return e.client.Chat.Completions.New(ctx, params)
	})
	if err != nil {
		return resp, fmt.Errorf("openai %s: %w", e.operation, err)
	}

	e.metrics.RecordTokens(ctx, e.model, e.operation, chat.Usage.PromptTokens, chat.Usage.CompletionTokens)
	span.SetAttributes(
		attribute.Int64("tokens.prompt", chat.Usage.PromptTokens),
		attribute.Int64("tokens.completion", chat.Usage.CompletionTokens),
	)

	if len(chat.Choices) == 0 {
		log.Warn("OpenAI returned no choices")
		return e.decode("")
	}
	return e.decode(chat.Choices[0].Message.Content)
}
