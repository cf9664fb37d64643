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
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aerospike/retry-go/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

var errTransient = errors.New("transient")

// recordingSleeper stores requested delays instead of waiting.
type recordingSleeper struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (s *recordingSleeper) sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	s.delays = append(s.delays, d)
	s.mu.Unlock()

	return ctx.Err()
}

func (s *recordingSleeper) recorded() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]time.Duration(nil), s.delays...)
}

type doneEvent struct {
	outcome  Outcome
	attempts uint
	err      error
}

type recordingObserver struct {
	attempts []uint
	retries  []time.Duration
	done     []doneEvent
}

func (o *recordingObserver) OnAttempt(attempt uint) {
	o.attempts = append(o.attempts, attempt)
}

func (o *recordingObserver) OnRetry(_ uint, delay time.Duration, _ error) {
	o.retries = append(o.retries, delay)
}

func (o *recordingObserver) OnDone(outcome Outcome, attempts uint, err error) {
	o.done = append(o.done, doneEvent{outcome: outcome, attempts: attempts, err: err})
}

// failingOp fails the first failures calls and then returns value.
func failingOp[T any](failures int, value T, calls *int) Operation[T] {
	return func(context.Context) (T, error) {
		*calls++
		if *calls <= failures {
			var zero T
			return zero, fmt.Errorf("attempt %d: %w", *calls, errTransient)
		}

		return value, nil
	}
}

func noJitterPolicy(t *testing.T, attempts uint, base, maxDelay time.Duration, factor float64) *models.RetryPolicy {
	t.Helper()

	p, err := models.NewRetryPolicy(attempts, base, maxDelay, factor, false)
	require.NoError(t, err)

	return p
}

func TestRetry_SucceedsAfterTwoFailures(t *testing.T) {
	t.Parallel()

	policy := noJitterPolicy(t, 3, 100*time.Millisecond, 5*time.Second, 2.0)
	sleeper := &recordingSleeper{}
	observer := &recordingObserver{}
	calls := 0

	value, err := Retry(context.Background(), policy, failingOp(2, "ok", &calls), AlwaysRetry,
		WithSleeper(sleeper.sleep), WithObserver(observer))

	require.NoError(t, err)
	require.Equal(t, "ok", value)
	require.Equal(t, 3, calls)
	require.Equal(t, []time.Duration{100 * time.Millisecond, 200 * time.Millisecond}, sleeper.recorded())
	require.Equal(t, []uint{1, 2, 3}, observer.attempts)
	require.Equal(t, sleeper.recorded(), observer.retries)
	require.Equal(t, []doneEvent{{outcome: OutcomeSucceeded, attempts: 3}}, observer.done)
}

func TestRetry_DelayClampedToMaxDelay(t *testing.T) {
	t.Parallel()

	policy := noJitterPolicy(t, 4, time.Second, 1500*time.Millisecond, 10.0)
	sleeper := &recordingSleeper{}
	calls := 0

	value, err := Retry(context.Background(), policy, failingOp(2, 42, &calls), AlwaysRetry,
		WithSleeper(sleeper.sleep))

	require.NoError(t, err)
	require.Equal(t, 42, value)
	require.Equal(t, 3, calls)
	require.Equal(t, []time.Duration{time.Second, 1500 * time.Millisecond}, sleeper.recorded())
}

func TestRetry_PredicateRejects(t *testing.T) {
	t.Parallel()

	errFatal := errors.New("fatal")
	policy := models.NewDefaultRetryPolicy()
	sleeper := &recordingSleeper{}
	observer := &recordingObserver{}
	calls := 0

	_, err := Retry(context.Background(), policy, func(context.Context) (int, error) {
		calls++
		return 0, errFatal
	}, NeverRetry, WithSleeper(sleeper.sleep), WithObserver(observer))

	require.Same(t, errFatal, err)
	require.EqualError(t, err, "fatal")
	require.Equal(t, 1, calls)
	require.Empty(t, sleeper.recorded())
	require.Equal(t, []doneEvent{{outcome: OutcomeRejected, attempts: 1, err: errFatal}}, observer.done)
}

func TestRetry_SingleAttemptNeverConsultsPredicate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		failing bool
	}{
		{name: "failure", failing: true},
		{name: "success", failing: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			policy := noJitterPolicy(t, 1, time.Millisecond, time.Second, 2.0)
			sleeper := &recordingSleeper{}
			calls, predicateCalls := 0, 0

			_, err := Retry(context.Background(), policy, func(context.Context) (int, error) {
				calls++
				if tt.failing {
					return 0, errTransient
				}
				return 1, nil
			}, func(error) bool {
				predicateCalls++
				return true
			}, WithSleeper(sleeper.sleep))

			if tt.failing {
				require.ErrorIs(t, err, errTransient)
			} else {
				require.NoError(t, err)
			}

			require.Equal(t, 1, calls)
			require.Zero(t, predicateCalls)
			require.Empty(t, sleeper.recorded())
		})
	}
}

func TestRetry_KFailuresThenSuccess(t *testing.T) {
	t.Parallel()

	const attempts = 6

	for k := 0; k < attempts; k++ {
		t.Run(fmt.Sprintf("k=%d", k), func(t *testing.T) {
			t.Parallel()

			policy := noJitterPolicy(t, attempts, time.Millisecond, 10*time.Millisecond, 2.0)
			sleeper := &recordingSleeper{}
			calls := 0

			value, err := Retry(context.Background(), policy, failingOp(k, "done", &calls), AlwaysRetry,
				WithSleeper(sleeper.sleep))

			require.NoError(t, err)
			require.Equal(t, "done", value)
			require.Equal(t, k+1, calls)
			require.Len(t, sleeper.recorded(), k)
		})
	}
}

func TestRetry_ExhaustedReturnsLastErrorVerbatim(t *testing.T) {
	t.Parallel()

	policy := noJitterPolicy(t, 3, time.Millisecond, time.Second, 2.0)
	sleeper := &recordingSleeper{}
	observer := &recordingObserver{}

	var last error

	calls := 0

	_, err := Retry(context.Background(), policy, func(context.Context) (struct{}, error) {
		calls++
		last = fmt.Errorf("attempt %d: %w", calls, errTransient)

		return struct{}{}, last
	}, nil, WithSleeper(sleeper.sleep), WithObserver(observer))

	require.Same(t, last, err)
	require.EqualError(t, err, "attempt 3: transient")
	require.Equal(t, 3, calls)
	require.Equal(t, []time.Duration{time.Millisecond, 2 * time.Millisecond}, sleeper.recorded())
	require.Equal(t, []doneEvent{{outcome: OutcomeExhausted, attempts: 3, err: last}}, observer.done)
}

func TestRetry_PredicateSeesEveryRetriedError(t *testing.T) {
	t.Parallel()

	errPermanent := errors.New("permanent")
	policy := noJitterPolicy(t, 5, 0, 0, 1.0)
	seen := make([]error, 0)
	calls := 0

	_, err := Retry(context.Background(), policy, func(context.Context) (int, error) {
		calls++
		if calls == 3 {
			return 0, errPermanent
		}

		return 0, errTransient
	}, func(err error) bool {
		seen = append(seen, err)
		return errors.Is(err, errTransient)
	})

	require.Same(t, errPermanent, err)
	require.Equal(t, 3, calls)
	require.Equal(t, []error{errTransient, errTransient, errPermanent}, seen)
}

func TestRetry_SeededJitterIsReproducible(t *testing.T) {
	t.Parallel()

	base := models.NewDefaultRetryPolicy().WithSeed(42)
	base.Attempts = 8

	run := func() []time.Duration {
		sleeper := &recordingSleeper{}
		calls := 0

		_, err := Retry(context.Background(), base, failingOp(100, 0, &calls), AlwaysRetry,
			WithSleeper(sleeper.sleep))
		require.ErrorIs(t, err, errTransient)

		return sleeper.recorded()
	}

	first, second := run(), run()

	require.Len(t, first, 7)
	require.Equal(t, first, second)

	for i, d := range first {
		attempt := uint(i + 1)
		require.Equal(t, base.Delay(attempt), d)
		require.LessOrEqual(t, d, base.ComputeBackoff(attempt))
	}
}

func TestRetry_InvalidPolicy(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		policy *models.RetryPolicy
	}{
		{
			name:   "zero attempts",
			policy: &models.RetryPolicy{Attempts: 0, BackoffFactor: 2},
		},
		{
			name:   "zero backoff factor",
			policy: &models.RetryPolicy{Attempts: 3, BackoffFactor: 0},
		},
		{
			name:   "negative base delay",
			policy: &models.RetryPolicy{Attempts: 3, BaseDelay: -1, BackoffFactor: 2},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			observer := &recordingObserver{}
			calls := 0

			_, err := Retry(context.Background(), tt.policy, func(context.Context) (int, error) {
				calls++
				return 1, nil
			}, AlwaysRetry, WithObserver(observer))

			require.ErrorIs(t, err, models.ErrInvalidRetryPolicy)
			require.Zero(t, calls)
			require.Empty(t, observer.attempts)
			require.Len(t, observer.done, 1)
			require.Equal(t, OutcomeInvalid, observer.done[0].outcome)
		})
	}
}

func TestRetry_NilOperation(t *testing.T) {
	t.Parallel()

	_, err := Retry[int](context.Background(), nil, nil, AlwaysRetry)
	require.ErrorIs(t, err, models.ErrInvalidRetryPolicy)

	err = Do(context.Background(), nil, nil, AlwaysRetry)
	require.ErrorIs(t, err, models.ErrInvalidRetryPolicy)
}

func TestRetry_NilPolicyUsesDefaults(t *testing.T) {
	t.Parallel()

	sleeper := &recordingSleeper{}
	calls := 0

	_, err := Retry(context.Background(), nil, failingOp(10, 0, &calls), AlwaysRetry,
		WithSleeper(sleeper.sleep))

	require.ErrorIs(t, err, errTransient)
	require.Equal(t, models.DefaultAttempts, calls)

	delays := sleeper.recorded()
	require.Len(t, delays, models.DefaultAttempts-1)

	// Default policy is jittered.
	require.LessOrEqual(t, delays[0], models.DefaultBaseDelay)
	require.LessOrEqual(t, delays[1], 2*models.DefaultBaseDelay)
}

func TestRetry_PolicyIsCopied(t *testing.T) {
	t.Parallel()

	policy := noJitterPolicy(t, 3, time.Millisecond, time.Second, 2.0)
	calls := 0

	_, err := Retry(context.Background(), policy, func(context.Context) (int, error) {
		calls++
		// Mutating the caller's policy does not affect the running sequence.
		policy.Attempts = 100
		return 0, errTransient
	}, AlwaysRetry, WithSleeper(func(context.Context, time.Duration) error { return nil }))

	require.ErrorIs(t, err, errTransient)
	require.Equal(t, 3, calls)
}

func TestRetry_CancelledDuringDelay(t *testing.T) {
	t.Parallel()

	policy := noJitterPolicy(t, 5, time.Hour, time.Hour, 2.0)
	ctx, cancel := context.WithCancel(context.Background())
	observer := &recordingObserver{}
	calls := 0

	errCh := make(chan error, 1)

	go func() {
		_, err := Retry(ctx, policy, func(context.Context) (int, error) {
			calls++
			return 0, errTransient
		}, AlwaysRetry, WithObserver(observer))
		errCh <- err
	}()

	// The first attempt fails immediately, the sequence then waits for an hour.
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		require.ErrorIs(t, err, context.Canceled)
		require.ErrorIs(t, err, errTransient)
		require.Contains(t, err.Error(), "retry cancelled after 1 attempt(s)")
	case <-time.After(5 * time.Second):
		t.Fatal("retry did not stop after cancellation")
	}

	require.Equal(t, 1, calls)
	require.Equal(t, []uint{1}, observer.attempts)
	require.Len(t, observer.done, 1)
	require.Equal(t, OutcomeCanceled, observer.done[0].outcome)
}

func TestRetry_CancelledBeforeFirstAttempt(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0

	err := Do(ctx, nil, func(context.Context) error {
		calls++
		return nil
	}, AlwaysRetry)

	require.ErrorIs(t, err, context.Canceled)
	require.Zero(t, calls)
}

func TestRetry_CancelledByOperation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	policy := noJitterPolicy(t, 5, 0, 0, 1.0)
	calls := 0

	err := Do(ctx, policy, func(ctx context.Context) error {
		calls++
		if calls == 2 {
			cancel()
			return ctx.Err()
		}

		return errTransient
	}, AlwaysRetry)

	// Cancellation observed after attempt 2 stops the loop before attempt 3.
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, 2, calls)
}

func TestRetry_DeadlineExceeded(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	policy := noJitterPolicy(t, 10, 10*time.Millisecond, 10*time.Millisecond, 1.0)

	start := time.Now()
	err := Do(ctx, policy, func(context.Context) error { return errTransient }, AlwaysRetry)

	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.ErrorIs(t, err, errTransient)
	require.Less(t, time.Since(start), 5*time.Second)
}

func TestDo(t *testing.T) {
	t.Parallel()

	policy := noJitterPolicy(t, 3, 0, 0, 1.0)
	calls := 0

	err := Do(context.Background(), policy, func(context.Context) error {
		calls++
		if calls < 2 {
			return errTransient
		}

		return nil
	}, AlwaysRetry)

	require.NoError(t, err)
	require.Equal(t, 2, calls)
}

func TestRetry_LogsWithSequenceID(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	policy := noJitterPolicy(t, 2, 0, 0, 1.0)

	err := Do(context.Background(), policy, func(context.Context) error { return errTransient },
		AlwaysRetry, WithLogger(logger), WithID("seq-1"))
	require.ErrorIs(t, err, errTransient)

	out := buf.String()
	assert.Contains(t, out, "retry.id=seq-1")
	assert.Contains(t, out, "retrying operation")
	assert.Contains(t, out, "attempts exhausted")
}

func TestObservers(t *testing.T) {
	t.Parallel()

	first, second := &recordingObserver{}, &recordingObserver{}
	policy := noJitterPolicy(t, 2, 0, 0, 1.0)
	calls := 0

	_, err := Retry(context.Background(), policy, failingOp(1, true, &calls), AlwaysRetry,
		WithObserver(Observers{first, second}))
	require.NoError(t, err)

	for _, o := range []*recordingObserver{first, second} {
		require.Equal(t, []uint{1, 2}, o.attempts)
		require.Equal(t, []time.Duration{0}, o.retries)
		require.Equal(t, []doneEvent{{outcome: OutcomeSucceeded, attempts: 2}}, o.done)
	}
}

func TestRetry_ConcurrentCallersShareNoState(t *testing.T) {
	t.Parallel()

	policy := models.NewDefaultRetryPolicy().WithSeed(7)
	policy.BaseDelay = time.Millisecond
	policy.MaxDelay = 4 * time.Millisecond

	var total atomic.Int64

	g, ctx := errgroup.WithContext(context.Background())

	for i := 0; i < 16; i++ {
		g.Go(func() error {
			calls := 0

			value, err := Retry(ctx, policy, func(context.Context) (int, error) {
				calls++
				total.Add(1)

				if calls < 3 {
					return 0, errTransient
				}

				return i, nil
			}, AlwaysRetry)
			if err != nil {
				return err
			}

			if value != i || calls != 3 {
				return fmt.Errorf("caller %d: value %d after %d calls", i, value, calls)
			}

			return nil
		})
	}

	require.NoError(t, g.Wait())
	require.Equal(t, int64(16*3), total.Load())
}
