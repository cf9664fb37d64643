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

package metrics

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	retry "github.com/aerospike/retry-go"
	"github.com/aerospike/retry-go/models"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

var errTransient = errors.New("transient")

func noWait(context.Context, time.Duration) error { return nil }

func TestCollector_RecordsSequence(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	c, err := NewCollector(reg)
	require.NoError(t, err)

	policy, err := models.NewRetryPolicy(4, 100*time.Millisecond, time.Second, 2.0, false)
	require.NoError(t, err)

	calls := 0
	err = retry.Do(context.Background(), policy, func(context.Context) error {
		calls++
		if calls < 3 {
			return errTransient
		}

		return nil
	}, retry.AlwaysRetry, retry.WithObserver(c.Observer("fetch")), retry.WithSleeper(noWait))
	require.NoError(t, err)

	require.InDelta(t, 3, testutil.ToFloat64(c.attempts.WithLabelValues("fetch")), 0)
	require.InDelta(t, 2, testutil.ToFloat64(c.retries.WithLabelValues("fetch")), 0)
	require.InDelta(t, 1, testutil.ToFloat64(c.outcomes.WithLabelValues("fetch", string(retry.OutcomeSucceeded))), 0)
	require.InDelta(t, 0, testutil.ToFloat64(c.inFlight.WithLabelValues("fetch")), 0)

	expected := `
# HELP retry_delay_seconds Delay between two attempts
# TYPE retry_delay_seconds histogram
retry_delay_seconds_bucket{operation="fetch",le="0"} 0
retry_delay_seconds_bucket{operation="fetch",le="0.01"} 0
retry_delay_seconds_bucket{operation="fetch",le="0.05"} 0
retry_delay_seconds_bucket{operation="fetch",le="0.1"} 1
retry_delay_seconds_bucket{operation="fetch",le="0.25"} 2
retry_delay_seconds_bucket{operation="fetch",le="0.5"} 2
retry_delay_seconds_bucket{operation="fetch",le="1"} 2
retry_delay_seconds_bucket{operation="fetch",le="2.5"} 2
retry_delay_seconds_bucket{operation="fetch",le="5"} 2
retry_delay_seconds_bucket{operation="fetch",le="10"} 2
retry_delay_seconds_bucket{operation="fetch",le="30"} 2
retry_delay_seconds_bucket{operation="fetch",le="+Inf"} 2
retry_delay_seconds_sum{operation="fetch"} 0.30000000000000004
retry_delay_seconds_count{operation="fetch"} 2
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "retry_delay_seconds"))
}

func TestCollector_Outcomes(t *testing.T) {
	t.Parallel()

	c, err := NewCollector(nil)
	require.NoError(t, err)

	obs := c.Observer("op")
	ctx := context.Background()

	// Rejected on the first attempt.
	err = retry.Do(ctx, nil, func(context.Context) error { return errTransient },
		retry.NeverRetry, retry.WithObserver(obs), retry.WithSleeper(noWait))
	require.ErrorIs(t, err, errTransient)

	// Exhausted after the default number of attempts.
	err = retry.Do(ctx, nil, func(context.Context) error { return errTransient },
		retry.AlwaysRetry, retry.WithObserver(obs), retry.WithSleeper(noWait))
	require.ErrorIs(t, err, errTransient)

	// Invalid policy, nothing starts.
	err = retry.Do(ctx, &models.RetryPolicy{}, func(context.Context) error { return nil },
		retry.AlwaysRetry, retry.WithObserver(obs))
	require.ErrorIs(t, err, models.ErrInvalidRetryPolicy)

	// Cancelled before the first attempt.
	cctx, cancel := context.WithCancel(ctx)
	cancel()

	err = retry.Do(cctx, nil, func(context.Context) error { return nil },
		retry.AlwaysRetry, retry.WithObserver(obs))
	require.ErrorIs(t, err, context.Canceled)

	outcome := func(o retry.Outcome) float64 {
		return testutil.ToFloat64(c.outcomes.WithLabelValues("op", string(o)))
	}

	require.InDelta(t, 1, outcome(retry.OutcomeRejected), 0)
	require.InDelta(t, 1, outcome(retry.OutcomeExhausted), 0)
	require.InDelta(t, 1, outcome(retry.OutcomeInvalid), 0)
	require.InDelta(t, 1, outcome(retry.OutcomeCanceled), 0)
	require.InDelta(t, 0, outcome(retry.OutcomeSucceeded), 0)

	require.InDelta(t, 1+models.DefaultAttempts, testutil.ToFloat64(c.attempts.WithLabelValues("op")), 0)
	require.InDelta(t, models.DefaultAttempts-1, testutil.ToFloat64(c.retries.WithLabelValues("op")), 0)
	require.InDelta(t, 0, testutil.ToFloat64(c.inFlight.WithLabelValues("op")), 0)
}

func TestCollector_InFlight(t *testing.T) {
	t.Parallel()

	c, err := NewCollector(nil)
	require.NoError(t, err)

	obs := c.Observer("op")

	obs.OnAttempt(1)
	obs.OnAttempt(2)
	require.InDelta(t, 1, testutil.ToFloat64(c.inFlight.WithLabelValues("op")), 0)

	obs.OnDone(retry.OutcomeSucceeded, 2, nil)
	require.InDelta(t, 0, testutil.ToFloat64(c.inFlight.WithLabelValues("op")), 0)
}

func TestNewCollector_DuplicateRegistration(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()

	_, err := NewCollector(reg)
	require.NoError(t, err)

	_, err = NewCollector(reg)
	require.Error(t, err)

	var are prometheus.AlreadyRegisteredError
	require.ErrorAs(t, err, &are)
}
