/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package metareconciler

import (
	"errors"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"chainguard.dev/codeagent/agents/proposal"
	"chainguard.dev/codeagent/reconcilers/githubreconciler/changemanager"
	"chainguard.dev/codeagent/reconcilers/githubreconciler/validation"
)

var (
	operationCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "codeagent_operations_total",
			Help: "Total number of run, fix and review operations by outcome",
		},
		[]string{"repository", "operation", "outcome"},
	)

	validationCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "codeagent_validation_attempts_total",
			Help: "Total number of validation attempts by attempt number and result",
		},
		[]string{"repository", "attempt", "result"},
	)

	reviewCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "codeagent_reviews_total",
			Help: "Total number of reviews submitted by event",
		},
		[]string{"repository", "event"},
	)
)

// outcomeLabel maps an operation error onto a bounded label value.
func outcomeLabel(err error) string {
	var schemaErr *proposal.SchemaError
	var notFound *changemanager.NotFoundError
	var denied *changemanager.PermissionError
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrNoMarker):
		return "no_marker"
	case errors.Is(err, ErrIterationCeiling):
		return "iteration_ceiling"
	case errors.Is(err, ErrValidationFailed):
		return "validation_failed"
	case errors.As(err, &schemaErr):
		return "schema_error"
	case errors.As(err, &notFound):
		return "not_found"
	case errors.As(err, &denied):
		return "permission_denied"
	default:
		return "error"
	}
}

func (c *Controller) observe(operation string, err error) {
	operationCounter.With(prometheus.Labels{
		"repository": c.repository,
		"operation":  operation,
		"outcome":    outcomeLabel(err),
	}).Inc()
}

func (c *Controller) observeValidation(attempt int, outcomes []validation.Outcome) {
	result := "passed"
	if !validation.Passed(outcomes) {
		result = "failed"
	}
	validationCounter.With(prometheus.Labels{
		"repository": c.repository,
		"attempt":    strconv.Itoa(attempt),
		"result":     result,
	}).Inc()
	if c.observer != nil {
		c.observer(attempt, outcomes)
	}
}
