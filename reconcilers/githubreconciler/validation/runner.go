/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package validation

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"slices"
	"strings"
	"time"

	"github.com/chainguard-dev/clog"
)

// DefaultTimeout bounds each command.
const DefaultTimeout = 60 * time.Second

// Allowlist holds the executables a validation command may start with.
var Allowlist = []string{
	"ruff", "pytest", "python", "pip", "mypy", "black", "flake8", "pylint",
	"npm", "npx", "yarn", "pnpm", "node", "tsc",
	"go", "cargo", "rustc", "mvn", "gradle", "javac", "make",
	"sh", "bash",
}

// Outcome is the result of one validation command.
type Outcome struct {
	Command string
	Success bool
	Output  string
}

// CommandRunner runs a batch of validation commands in dir, returning one
// Outcome per command in order.
type CommandRunner interface {
	Run(ctx context.Context, dir string, commands []string) []Outcome
}

// Executor starts a single shell command.
type Executor interface {
	Exec(ctx context.Context, dir, command string) (stdout, stderr string, exitCode int, err error)
}

// ShellExecutor runs commands through sh -c.
type ShellExecutor struct{}

// Exec implements Executor.
func (ShellExecutor) Exec(ctx context.Context, dir, command string) (string, string, int, error) {
	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	cmd.Dir = dir
	// Children of sh may hold the pipes open after it is killed.
	cmd.WaitDelay = time.Second

	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && ctx.Err() == nil {
			return stdout.String(), stderr.String(), exitErr.ExitCode(), nil
		}
		return stdout.String(), stderr.String(), -1, fmt.Errorf("exec: %w", err)
	}
	return stdout.String(), stderr.String(), 0, nil
}

// Option configures a Runner.
type Option func(*Runner)

// WithTimeout overrides DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(r *Runner) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithExecutor replaces the shell executor, for tests.
func WithExecutor(e Executor) Option {
	return func(r *Runner) {
		r.exec = e
	}
}

// Runner is the allowlisted CommandRunner.
type Runner struct {
	exec    Executor
	timeout time.Duration
}

var _ CommandRunner = (*Runner)(nil)

// NewRunner creates a Runner.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{
		exec:    ShellExecutor{},
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// IsAllowed reports whether the first whitespace-separated token of command
// is on the Allowlist.
func IsAllowed(command string) bool {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return false
	}
	return slices.Contains(Allowlist, fields[0])
}

// Run implements CommandRunner. Disallowed commands are reported as failures
// without being executed.
func (r *Runner) Run(ctx context.Context, dir string, commands []string) []Outcome {
	outcomes := make([]Outcome, 0, len(commands))
	for _, command := range commands {
		outcomes = append(outcomes, r.runOne(ctx, dir, command))
	}
	return outcomes
}

func (r *Runner) runOne(ctx context.Context, dir, command string) Outcome {
	log := clog.FromContext(ctx).With("command", command)

	if !IsAllowed(command) {
		log.Warnf("Refusing command outside the allowlist")
		return Outcome{Command: command, Output: "command not allowed: " + command}
	}

	cctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()
	stdout, stderr, code, err := r.exec.Exec(cctx, dir, command)
	log.Infof("Validation command finished in %s with exit code %d", time.Since(start).Round(time.Millisecond), code)

	switch {
	case errors.Is(cctx.Err(), context.DeadlineExceeded):
		return Outcome{Command: command, Output: fmt.Sprintf("timed out after %s", r.timeout)}
	case err != nil:
		return Outcome{Command: command, Output: err.Error()}
	}
	return Outcome{
		Command: command,
		Success: code == 0,
		Output:  stdout + stderr,
	}
}

// Failed returns the failing outcomes in order.
func Failed(outcomes []Outcome) []Outcome {
	var failed []Outcome
	for _, o := range outcomes {
		if !o.Success {
			failed = append(failed, o)
		}
	}
	return failed
}

// Passed reports whether every outcome succeeded.
func Passed(outcomes []Outcome) bool {
	return len(Failed(outcomes)) == 0
}
