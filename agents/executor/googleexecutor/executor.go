/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package googleexecutor

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
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"google.golang.org/genai"
)

// Interface executes one structured request.
type Interface[Request promptbuilder.Bindable, Response any] interface {
	Execute(ctx context.Context, request Request) (Response, error)
}

type executor[Request promptbuilder.Bindable, Response any] struct {
	client             *genai.Client
	prompt             *promptbuilder.Prompt
	systemInstructions *promptbuilder.Prompt
	model              string
	temperature        float32
	maxOutputTokens    int32
	operation          string
	responseSchema     *genai.Schema
	decode             func(string) (Response, error)
	metrics            *metrics.GenAI
	retryConfig        retry.Config
}

// New creates an executor for the given prompt template.
func New[Request promptbuilder.Bindable, Response any](
	client *genai.Client,
	prompt *promptbuilder.Prompt,
	options ...Option[Request, Response],
) (Interface[Request, Response], error) {
	if client == nil {
		return nil, errors.New("client is required")
	}
	if prompt == nil {
		return nil, errors.New("prompt is required")
	}

	exec := &executor[Request, Response]{
		client:          client,
		prompt:          prompt,
		model:           "gemini-2.5-flash-lite",
		temperature:     0.1,
		maxOutputTokens: 8192,
		operation:       "execute",
		responseSchema:  schema.ToGenai(schema.ReflectType[Response]()),
		decode:          result.Extract[Response],
		metrics:         metrics.NewGenAI(metrics.MeterName),
		retryConfig:     retry.Default(),
	}
	for _, opt := range options {
		if err := opt(exec); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}
	return exec, nil
}

// Execute implements Interface.
func (e *executor[Request, Response]) Execute(ctx context.Context, request Request) (resp Response, err error) {
	ctx, span := otel.Tracer(metrics.MeterName).Start(ctx, "gemini."+e.operation)
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

	config := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr(e.temperature),
		MaxOutputTokens:  e.maxOutputTokens,
		ResponseMIMEType: "application/json",
		ResponseSchema:   e.responseSchema,
	}
	if e.systemInstructions != nil {
		system, err := e.systemInstructions.Build()
		if err != nil {
			return resp, fmt.Errorf("building system prompt: %w", err)
		}
		config.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}

	log := clog.FromContext(ctx).With("model", e.model).With("operation", e.operation)
	log.With("prompt_length", len(prompt)).Info("Calling Gemini")

	response, err := retry.Do(ctx, e.retryConfig, "gemini "+e.operation, isRetryableGeminiError, func() (*genai.GenerateContentResponse, error) {
		return e.client.Models.GenerateContent(ctx, e.model, genai.Text(prompt), config)
	})
	if err != nil {
		return resp, fmt.Errorf("gemini %s: %w", e.operation, err)
	}

	if usage := response.UsageMetadata; usage != nil {
		e.metrics.RecordTokens(ctx, e.model, e.operation, int64(usage.PromptTokenCount), int64(usage.CandidatesTokenCount))
		span.SetAttributes(
			attribute.Int64("tokens.prompt", int64(usage.PromptTokenCount)),
			attribute.Int64("tokens.completion", int64(usage.CandidatesTokenCount)),
		)
	}
	if len(response.Candidates) == 0 {
		log.Warn("Gemini returned no candidates")
	}
	return e.decode(response.Text())
}
