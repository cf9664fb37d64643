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

package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aerospike/retry-go/internal/logging"
	"github.com/aerospike/retry-go/models"
	"github.com/google/uuid"
)

// Operation is a single attempt of the retried work.
// It is called again for every attempt, so it must not rely on state left
// behind by a previous failed attempt.
type Operation[T any] func(ctx context.Context) (T, error)

// Predicate reports whether a failure is transient and the operation may be retried.
// It only sees the error, never the attempt number.
type Predicate func(err error) bool

// AlwaysRetry retries every failure until the attempt budget is exhausted.
func AlwaysRetry(error) bool { return true }

// NeverRetry makes the first failure terminal.
func NeverRetry(error) bool { return false }

// Retry executes op according to policy.
//   - ctx cancels the whole sequence: the delay between attempts is interrupted
//     and no new attempt starts once ctx is done.
//   - policy is copied before the first attempt; nil means [models.NewDefaultRetryPolicy].
//   - shouldRetry decides whether a failure is transient; nil means [AlwaysRetry].
//
// On success the value of the successful attempt is returned. On terminal failure
// the error of the last attempt is returned unchanged. An invalid policy is reported
// as [models.ErrInvalidRetryPolicy] and op is never called.
func Retry[T any](
	ctx context.Context,
	policy *models.RetryPolicy,
	op Operation[T],
	shouldRetry Predicate,
	opts ...Option,
) (T, error) {
	var zero T

	cfg := newOptions(opts)

	p, err := usablePolicy(policy)
	if err != nil {
		cfg.observer.OnDone(OutcomeInvalid, 0, err)
		return zero, err
	}

	if op == nil {
		err = fmt.Errorf("%w: operation is nil", models.ErrInvalidRetryPolicy)
		cfg.observer.OnDone(OutcomeInvalid, 0, err)

		return zero, err
	}

	if shouldRetry == nil {
		shouldRetry = AlwaysRetry
	}

	r := &sequence{
		policy:   p,
		logger:   logging.WithRetry(cfg.logger, cfg.id()),
		observer: cfg.observer,
		sleep:    cfg.sleeper,
	}

	return run(ctx, r, op, shouldRetry)
}

// Do is Retry for operations that produce no value.
func Do(
	ctx context.Context,
	policy *models.RetryPolicy,
	op func(ctx context.Context) error,
	shouldRetry Predicate,
	opts ...Option,
) error {
	var wrapped Operation[struct{}]
	if op != nil {
		wrapped = func(ctx context.Context) (struct{}, error) {
			return struct{}{}, op(ctx)
		}
	}

	_, err := Retry(ctx, policy, wrapped, shouldRetry, opts...)

	return err
}

// sequence holds the per-call state of one retry sequence.
type sequence struct {
	policy   models.RetryPolicy
	logger   *slog.Logger
	observer Observer
	sleep    Sleeper
}

func run[T any](ctx context.Context, r *sequence, op Operation[T], shouldRetry Predicate) (T, error) {
	var (
		zero    T
		lastErr error
	)

	for attempt := uint(1); ; attempt++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return zero, r.canceled(attempt-1, ctxErr, lastErr)
		}

		r.observer.OnAttempt(attempt)

		value, err := op(ctx)
		if err == nil {
			r.logger.Debug("operation succeeded", slog.Uint64("attempt", uint64(attempt)))
			r.observer.OnDone(OutcomeSucceeded, attempt, nil)

			return value, nil
		}

		lastErr = err

		// The last attempt never consults the predicate.
		if attempt >= r.policy.Attempts {
			r.logger.Debug("attempts exhausted",
				slog.Uint64("attempts", uint64(attempt)),
				slog.Any("error", err),
			)
			r.observer.OnDone(OutcomeExhausted, attempt, err)

			return zero, err
		}

		if !shouldRetry(err) {
			r.logger.Debug("error is not retryable",
				slog.Uint64("attempt", uint64(attempt)),
				slog.Any("error", err),
			)
			r.observer.OnDone(OutcomeRejected, attempt, err)

			return zero, err
		}

		delay := r.policy.Delay(attempt)

		r.logger.Debug("retrying operation",
			slog.Uint64("attempt", uint64(attempt)),
			slog.Duration("delay", delay),
			slog.Any("error", err),
		)
		r.observer.OnRetry(attempt, delay, err)

		if sleepErr := r.sleep(ctx, delay); sleepErr != nil {
			return zero, r.canceled(attempt, sleepErr, lastErr)
		}
	}
}

// canceled builds the error for a sequence interrupted by its context.
// Both the context error and the last operation error stay reachable via errors.Is.
func (r *sequence) canceled(attempts uint, ctxErr, lastErr error) error {
	err := fmt.Errorf("retry cancelled after %d attempt(s): %w", attempts, errors.Join(ctxErr, lastErr))

	r.logger.Debug("retry cancelled",
		slog.Uint64("attempts", uint64(attempts)),
		slog.Any("error", err),
	)
	r.observer.OnDone(OutcomeCanceled, attempts, err)

	return err
}

// usablePolicy returns a validated copy of p, or of the default policy if p is nil.
func usablePolicy(p *models.RetryPolicy) (models.RetryPolicy, error) {
	if p == nil {
		p = models.NewDefaultRetryPolicy()
	}

	cp := *p
	if err := cp.Validate(); err != nil {
		return models.RetryPolicy{}, err
	}

	return cp, nil
}

func newID() string {
	return uuid.NewString()
}
