/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/chainguard-dev/clog"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"chainguard.dev/codeagent/reconcilers/githubreconciler/metareconciler"
	"chainguard.dev/codeagent/reconcilers/githubreconciler/validation"
	"chainguard.dev/codeagent/reconcilers/githubreconciler/webhook"
)

func newRunCommand(flags *rootFlags) *cobra.Command {
	var issue int
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Generate code for an issue and open a pull request",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg, err := flags.resolve(cmd)
			if err != nil {
				return err
			}
			res, err := resource(cfg, issue)
			if err != nil {
				return err
			}
			a, err := newApp(ctx, cfg)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			c, err := a.controller(ctx, res.Owner, res.Repo,
				metareconciler.WithValidationObserver(func(attempt int, outcomes []validation.Outcome) {
					renderValidation(out, attempt, outcomes)
				}))
			if err != nil {
				return err
			}

			url, err := c.Run(ctx, res.Number)
			if err != nil {
				return &commandError{subject: "Issue", number: res.Number, repo: res.FullName(), err: err}
			}
			fmt.Fprintf(out, "Done: %s\n", url)
			return nil
		},
	}
	cmd.Flags().IntVarP(&issue, "issue", "i", 0, "Issue number")
	_ = cmd.MarkFlagRequired("issue")
	return cmd
}

func newFixCommand(flags *rootFlags) *cobra.Command {
	var pr int
	cmd := &cobra.Command{
		Use:   "fix",
		Short: "Revise a pull request from its latest changes-requested review",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg, err := flags.resolve(cmd)
			if err != nil {
				return err
			}
			res, err := resource(cfg, pr)
			if err != nil {
				return err
			}
			a, err := newApp(ctx, cfg)
			if err != nil {
				return err
			}
			c, err := a.controller(ctx, res.Owner, res.Repo)
			if err != nil {
				return err
			}

			if err := c.Fix(ctx, res.Number); err != nil {
				return &commandError{subject: "PR", number: res.Number, repo: res.FullName(), err: err}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Pushed a fix to PR #%d\n", res.Number)
			return nil
		},
	}
	cmd.Flags().IntVarP(&pr, "pr", "p", 0, "Pull request number")
	_ = cmd.MarkFlagRequired("pr")
	return cmd
}

func newReviewCommand(flags *rootFlags) *cobra.Command {
	var pr int
	cmd := &cobra.Command{
		Use:   "review",
		Short: "Review a pull request and approve it or request changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg, err := flags.resolve(cmd)
			if err != nil {
				return err
			}
			res, err := resource(cfg, pr)
			if err != nil {
				return err
			}
			a, err := newApp(ctx, cfg)
			if err != nil {
				return err
			}
			c, err := a.controller(ctx, res.Owner, res.Repo)
			if err != nil {
				return err
			}

			outcome, err := c.Review(ctx, res.Number)
			if err != nil {
				return &commandError{subject: "PR", number: res.Number, repo: res.FullName(), err: err}
			}
			renderReview(cmd.OutOrStdout(), outcome)
			return nil
		},
	}
	cmd.Flags().IntVarP(&pr, "pr", "p", 0, "Pull request number")
	_ = cmd.MarkFlagRequired("pr")
	return cmd
}

func newServeCommand(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve GitHub webhooks and drive the loop from repository events",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg, err := flags.resolve(cmd)
			if err != nil {
				return err
			}
			a, err := newApp(ctx, cfg)
			if err != nil {
				return err
			}
			if cfg.WebhookSecret == "" {
				clog.WarnContextf(ctx, "GITHUB_WEBHOOK_SECRET is not set, deliveries will not be authenticated")
			}

			h := webhook.New(ctx, a.agentFor,
				webhook.WithSecret(cfg.WebhookSecret),
				webhook.WithTriggerLabel(cfg.TriggerLabel),
				webhook.WithMaxConcurrentJobs(cfg.MaxConcurrentJobs))

			metrics := http.NewServeMux()
			metrics.Handle("/metrics", promhttp.Handler())

			return serve(ctx, h,
				&http.Server{Addr: fmt.Sprintf(":%d", cfg.Port), Handler: h.Mux(), ReadHeaderTimeout: 10 * time.Second},
				&http.Server{Addr: fmt.Sprintf(":%d", cfg.MetricsPort), Handler: metrics, ReadHeaderTimeout: 10 * time.Second})
		},
	}
}

// serve runs servers until ctx is done or one of them fails, then shuts them
// down and waits for in-flight jobs.
func serve(ctx context.Context, h *webhook.Handler, servers ...*http.Server) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, srv := range servers {
		g.Go(func() error {
			clog.InfoContextf(ctx, "Listening on %s", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("serving %s: %w", srv.Addr, err)
			}
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), 30*time.Second)
		defer cancel()
		for _, srv := range servers {
			if err := srv.Shutdown(shutdownCtx); err != nil {
				clog.WarnContextf(ctx, "Shutting down %s: %v", srv.Addr, err)
			}
		}
		h.Wait()
		return nil
	})
	return g.Wait()
}
