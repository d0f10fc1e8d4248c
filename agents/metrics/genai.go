/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package metrics records OpenTelemetry usage metrics for engine calls.
package metrics

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// MeterName is shared by every executor; the model is a dimension on each point.
const MeterName = "chainguard.dev/codeagent"

// AttributeEnricher adds caller-specific attributes, such as the repository
// or issue, to the base attributes of every recorded point.
type AttributeEnricher func(ctx context.Context, base []attribute.KeyValue) []attribute.KeyValue

// GenAI holds the token and structured-output counters.
// Counters that fail to register fall back to no-ops.
type GenAI struct {
	promptTokens     metric.Int64Counter
	completionTokens metric.Int64Counter
	toolCalls        metric.Int64Counter
	enricher         AttributeEnricher
}

// NewGenAI registers the counters on the named meter.
func NewGenAI(meterName string) *GenAI {
	meter := otel.Meter(meterName, metric.WithInstrumentationVersion("1.0.0"))
	return &GenAI{
		promptTokens:     counter(meter, "genai.token.prompt", "The number of prompt tokens used", "{tokens}"),
		completionTokens: counter(meter, "genai.token.completion", "The number of completion tokens used", "{tokens}"),
		toolCalls:        counter(meter, "genai.tool.calls", "The number of forced result-tool calls returned by the model", "{calls}"),
	}
}

func counter(meter metric.Meter, name, desc, unit string) metric.Int64Counter {
	c, err := meter.Int64Counter(name, metric.WithDescription(desc), metric.WithUnit(unit))
	if err != nil {
		slog.Warn("Failed to create counter, metric disabled", "error", err, "counter", name)
		return noop.Int64Counter{}
	}
	return c
}

// SetAttributeEnricher installs an enricher consulted on every record call.
func (m *GenAI) SetAttributeEnricher(e AttributeEnricher) {
	m.enricher = e
}

func (m *GenAI) attributes(ctx context.Context, base []attribute.KeyValue, extra []attribute.KeyValue) metric.MeasurementOption {
	if m.enricher != nil {
		base = m.enricher(ctx, base)
	}
	return metric.WithAttributes(append(base, extra...)...)
}

// RecordTokens records usage for one engine call.
// operation is generate, fix or review.
func (m *GenAI) RecordTokens(ctx context.Context, model, operation string, prompt, completion int64, attrs ...attribute.KeyValue) {
	opt := m.attributes(ctx, []attribute.KeyValue{
		attribute.String("model", model),
		attribute.String("operation", operation),
	}, attrs)
	m.promptTokens.Add(ctx, prompt, opt)
	m.completionTokens.Add(ctx, completion, opt)
}

// RecordToolCall records that the model answered through the named tool.
func (m *GenAI) RecordToolCall(ctx context.Context, model, tool string, attrs ...attribute.KeyValue) {
	m.toolCalls.Add(ctx, 1, m.attributes(ctx, []attribute.KeyValue{
		attribute.String("model", model),
		attribute.String("tool", tool),
	}, attrs))
}

type repositoryKey struct{}

// WithRepository records the repository being worked on, for RepositoryEnricher.
func WithRepository(ctx context.Context, repo string) context.Context {
	return context.WithValue(ctx, repositoryKey{}, repo)
}

// RepositoryEnricher adds the repository stored by WithRepository, if any.
func RepositoryEnricher(ctx context.Context, base []attribute.KeyValue) []attribute.KeyValue {
	if repo, ok := ctx.Value(repositoryKey{}).(string); ok && repo != "" {
		return append(base, attribute.String("repository", repo))
	}
	return base
}
