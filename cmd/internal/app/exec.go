// Copyright 2024 Aerospike, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"sync"
	"time"

	retry "github.com/aerospike/retry-go"
	"github.com/aerospike/retry-go/cmd/internal/models"
	bModels "github.com/aerospike/retry-go/models"
)

var errAttemptTimeout = errors.New("attempt timed out")

// ExitError is returned when the command did not succeed. It carries the exit
// code of the last run, so retryctl can exit with the same code.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("command failed with exit code %d: %v", e.Code, e.Err)
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// ExitCode returns the exit code of the last run.
func (e *ExitError) ExitCode() int {
	return e.Code
}

// Executor runs an external command with retries.
type Executor struct {
	policy         *bModels.RetryPolicy
	codes          map[int]struct{}
	attemptTimeout time.Duration
	observer       retry.Observer
	logger         *slog.Logger

	stdout io.Writer
	stderr io.Writer
}

// NewExecutor returns an executor. Command output goes to stdout and stderr.
// observer may be nil.
func NewExecutor(
	policy *bModels.RetryPolicy,
	params *models.Exec,
	observer retry.Observer,
	logger *slog.Logger,
	stdout, stderr io.Writer,
) (*Executor, error) {
	if err := policy.Validate(); err != nil {
		return nil, err
	}

	if err := params.Validate(); err != nil {
		return nil, err
	}

	codes, err := params.ExitCodes()
	if err != nil {
		return nil, err
	}

	if observer == nil {
		observer = retry.Observers{}
	}

	return &Executor{
		policy:         policy,
		codes:          codes,
		attemptTimeout: time.Duration(params.AttemptTimeout) * time.Millisecond,
		observer:       observer,
		logger:         logger,
		stdout:         stdout,
		stderr:         stderr,
	}, nil
}

// Run runs the command until it succeeds, fails with an exit code that is not
// retryable, or the policy is exhausted.
func (e *Executor) Run(ctx context.Context, name string, args ...string) (*models.ExecResult, error) {
	result := &models.ExecResult{StartTime: time.Now()}
	tracker := &outcomeTracker{}

	code, err := retry.Retry(ctx, e.policy, func(ctx context.Context) (int, error) {
		return e.runOnce(ctx, name, args)
	}, e.shouldRetry,
		retry.WithLogger(e.logger),
		retry.WithObserver(retry.Observers{tracker, e.observer}),
	)

	result.Duration = time.Since(result.StartTime)
	result.Outcome, result.Attempts = tracker.get()
	result.ExitCode = code

	// The engine reports a cancelled final attempt as exhausted.
	if errors.Is(err, context.Canceled) && ctx.Err() != nil {
		result.Outcome = string(retry.OutcomeCanceled)
	}

	if err != nil {
		result.ExitCode = -1

		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.Code
		}
	}

	return result, err
}

func (e *Executor) runOnce(ctx context.Context, name string, args []string) (int, error) {
	if e.attemptTimeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, e.attemptTimeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = e.stdout
	cmd.Stderr = e.stderr

	err := cmd.Run()
	if err == nil {
		return 0, nil
	}

	// The whole run was cancelled, not only this attempt.
	if errors.Is(ctx.Err(), context.Canceled) {
		return -1, ctx.Err()
	}

	if e.attemptTimeout > 0 && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return -1, &ExitError{Code: -1, Err: fmt.Errorf("%w after %v", errAttemptTimeout, e.attemptTimeout)}
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), &ExitError{Code: exitErr.ExitCode(), Err: err}
	}

	// The command could not be started.
	return -1, fmt.Errorf("failed to run %s: %w", name, err)
}

// shouldRetry retries attempt timeouts and the configured exit codes.
// A cancelled run is handed back to the engine, which stops at the next delay.
func (e *Executor) shouldRetry(err error) bool {
	if errors.Is(err, errAttemptTimeout) || errors.Is(err, context.Canceled) {
		return true
	}

	var exitErr *ExitError
	if !errors.As(err, &exitErr) || exitErr.Code <= 0 {
		return false
	}

	if e.codes == nil {
		return true
	}

	_, ok := e.codes[exitErr.Code]

	return ok
}

// outcomeTracker keeps the outcome of the last finished sequence.
type outcomeTracker struct {
	mu       sync.Mutex
	outcome  retry.Outcome
	attempts uint
}

func (t *outcomeTracker) OnAttempt(uint) {}

func (t *outcomeTracker) OnRetry(uint, time.Duration, error) {}

func (t *outcomeTracker) OnDone(outcome retry.Outcome, attempts uint, _ error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.outcome = outcome
	t.attempts = attempts
}

func (t *outcomeTracker) get() (string, uint) {
	t.mu.Lock()
	defer t.mu.Unlock()

	return string(t.outcome), t.attempts
}
