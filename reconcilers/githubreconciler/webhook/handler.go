/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package webhook

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"

	"github.com/chainguard-dev/clog"
	"github.com/google/go-github/v84/github"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/sync/semaphore"

	"chainguard.dev/codeagent/agents/proposal"
)

const (
	// DefaultTriggerLabel is the issue label that starts a run.
	DefaultTriggerLabel = "agent"

	// DefaultMaxConcurrentJobs bounds the jobs running at once.
	DefaultMaxConcurrentJobs = 4
)

var deliveryCounter = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "codeagent_webhook_deliveries_total",
		Help: "Total number of webhook deliveries by event and disposition",
	},
	[]string{"event", "disposition"},
)

// Agent is the per-repository surface jobs are dispatched to. It is
// implemented by *metareconciler.Controller.
type Agent interface {
	Run(ctx context.Context, issue int) (string, error)
	Fix(ctx context.Context, pr int) error
	Review(ctx context.Context, pr int) (*proposal.ReviewOutcome, error)
}

// AgentFor builds the Agent for owner/repo.
type AgentFor func(ctx context.Context, owner, repo string) (Agent, error)

// Handler serves the webhook endpoint.
type Handler struct {
	ctx          context.Context
	agentFor     AgentFor
	secret       []byte
	triggerLabel string
	sem          *semaphore.Weighted
	wg           sync.WaitGroup
}

// Option configures a Handler.
type Option func(*Handler)

// WithSecret sets the webhook secret used to validate X-Hub-Signature-256.
// Without one, signatures are not checked.
func WithSecret(secret string) Option {
	return func(h *Handler) {
		h.secret = []byte(secret)
	}
}

// WithTriggerLabel sets the issue label that starts a run.
func WithTriggerLabel(label string) Option {
	return func(h *Handler) {
		if label != "" {
			h.triggerLabel = label
		}
	}
}

// WithMaxConcurrentJobs bounds the jobs running at once.
func WithMaxConcurrentJobs(n int) Option {
	return func(h *Handler) {
		if n > 0 {
			h.sem = semaphore.NewWeighted(int64(n))
		}
	}
}

// New creates a Handler. Jobs run under ctx, which carries the logger and
// is cancelled on shutdown.
func New(ctx context.Context, agentFor AgentFor, opts ...Option) *Handler {
	h := &Handler{
		ctx:          ctx,
		agentFor:     agentFor,
		triggerLabel: DefaultTriggerLabel,
		sem:          semaphore.NewWeighted(DefaultMaxConcurrentJobs),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Mux returns the routes served by the handler.
func (h *Handler) Mux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /webhook", h.serveWebhook)
	mux.HandleFunc("GET /health", serveHealth)
	return mux
}

// Wait blocks until every dispatched job has finished.
func (h *Handler) Wait() {
	h.wg.Wait()
}

func serveHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (h *Handler) serveWebhook(w http.ResponseWriter, r *http.Request) {
	eventType := github.WebHookType(r)
	log := clog.FromContext(r.Context()).With("event", eventType, "delivery", github.DeliveryID(r))

	payload, err := github.ValidatePayload(r, h.secret)
	if err != nil {
		log.Warnf("Rejected delivery: %v", err)
		deliveryCounter.WithLabelValues(eventType, "invalid_signature").Inc()
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid signature"})
		return
	}

	event, err := github.ParseWebHook(eventType, payload)
	if err != nil {
		log.Warnf("Unparseable delivery: %v", err)
		deliveryCounter.WithLabelValues(eventType, "malformed").Inc()
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "malformed payload"})
		return
	}

	j, ok := h.route(event)
	if !ok {
		log.Debugf("Ignoring delivery")
		deliveryCounter.WithLabelValues(eventType, "ignored").Inc()
		writeJSON(w, http.StatusOK, map[string]string{"status": "ignored"})
		return
	}

	log = log.With("operation", j.Operation, "repo", j.Owner+"/"+j.Repo, "number", j.Number)
	log.Infof("Dispatching %s", j.Operation)
	deliveryCounter.WithLabelValues(eventType, "accepted").Inc()
	h.dispatch(clog.WithLogger(h.ctx, log), j)
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted", "operation": string(j.Operation)})
}

// dispatch runs j in the background once a semaphore slot is free.
func (h *Handler) dispatch(ctx context.Context, j job) {
	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		log := clog.FromContext(ctx)

		if err := h.sem.Acquire(ctx, 1); err != nil {
			log.Warnf("Dropped %s: %v", j.Operation, err)
			return
		}
		defer h.sem.Release(1)

		agent, err := h.agentFor(ctx, j.Owner, j.Repo)
		if err != nil {
			log.Errorf("Failed to set up %s/%s: %v", j.Owner, j.Repo, err)
			return
		}
		if err := j.run(ctx, agent); err != nil {
			log.Errorf("%s failed: %v", j.Operation, err)
			return
		}
		log.Infof("%s finished", j.Operation)
	}()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// isChangesRequested matches review states in either webhook ("changes_requested")
// or REST ("CHANGES_REQUESTED") casing.
func isChangesRequested(state string) bool {
	return strings.EqualFold(state, "changes_requested")
}
