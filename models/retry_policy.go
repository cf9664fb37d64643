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

package models

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/aerospike/retry-go/internal/jitter"
)

const (
	// DefaultAttempts is the default number of tries, including the first one.
	DefaultAttempts = 3
	// DefaultBaseDelay is the default delay before the first retry.
	DefaultBaseDelay = 100 * time.Millisecond
	// DefaultMaxDelay is the default ceiling for any computed delay.
	DefaultMaxDelay = 5 * time.Second
	// DefaultBackoffFactor is the default multiplier applied per additional attempt.
	DefaultBackoffFactor = 2.0
	// DefaultJitter enables delay randomization by default.
	DefaultJitter = true
)

// RetryPolicy defines the configuration for retry attempts in case of failures.
// It is a plain value: the retry engine copies it on every call, so one policy
// can be shared between goroutines as long as nobody mutates it concurrently.
type RetryPolicy struct {
	// Attempts is the total number of tries, including the first one.
	// Must be greater than or equal to 1. A policy with Attempts = 1 never retries.
	Attempts uint

	// BaseDelay is the delay used before the first retry,
	// before any multiplier is applied.
	BaseDelay time.Duration

	// MaxDelay is a hard ceiling that no computed delay may exceed.
	MaxDelay time.Duration

	// BackoffFactor is used to increase the delay between subsequent retry attempts.
	// The delay before retry n+1 is calculated as: BaseDelay * (BackoffFactor ^ (n-1)).
	BackoffFactor float64

	// Jitter replaces every delay with a value drawn uniformly
	// between 0 and the computed delay, inclusive.
	Jitter bool

	// RNGSeed makes jitter reproducible. When set, the sample for attempt n is
	// drawn from a generator seeded with RNGSeed+n.
	RNGSeed *uint64
}

// NewRetryPolicy returns a validated configuration for retry attempts in case of failures.
func NewRetryPolicy(
	attempts uint,
	baseDelay, maxDelay time.Duration,
	backoffFactor float64,
	jitter bool,
) (*RetryPolicy, error) {
	p := &RetryPolicy{
		Attempts:      attempts,
		BaseDelay:     baseDelay,
		MaxDelay:      maxDelay,
		BackoffFactor: backoffFactor,
		Jitter:        jitter,
	}

	if err := p.Validate(); err != nil {
		return nil, err
	}

	return p, nil
}

// NewDefaultRetryPolicy returns a new RetryPolicy with default values.
func NewDefaultRetryPolicy() *RetryPolicy {
	return &RetryPolicy{
		Attempts:      DefaultAttempts,
		BaseDelay:     DefaultBaseDelay,
		MaxDelay:      DefaultMaxDelay,
		BackoffFactor: DefaultBackoffFactor,
		Jitter:        DefaultJitter,
	}
}

// WithSeed returns a copy of the policy with deterministic jitter.
func (p *RetryPolicy) WithSeed(seed uint64) *RetryPolicy {
	cp := *p
	cp.RNGSeed = &seed

	return &cp
}

// Validate checks retry policy values.
func (p *RetryPolicy) Validate() error {
	if p == nil {
		return fmt.Errorf("%w: policy is nil", ErrInvalidRetryPolicy)
	}

	if p.Attempts < 1 {
		return fmt.Errorf("%w: attempts must be greater than or equal to 1", ErrInvalidRetryPolicy)
	}

	if p.BaseDelay < 0 {
		return fmt.Errorf("%w: base delay must be non-negative", ErrInvalidRetryPolicy)
	}

	if p.MaxDelay < 0 {
		return fmt.Errorf("%w: max delay must be non-negative", ErrInvalidRetryPolicy)
	}

	// Written so that NaN fails as well.
	if !(p.BackoffFactor > 0) || math.IsInf(p.BackoffFactor, 0) {
		return fmt.Errorf("%w: backoff factor must be a finite number greater than 0, got %v",
			ErrInvalidRetryPolicy, p.BackoffFactor)
	}

	return nil
}

// AttemptsLeft reports whether the zero-based attempt is still within the budget.
func (p *RetryPolicy) AttemptsLeft(attempt uint) bool {
	if p == nil {
		return attempt == 0
	}

	return attempt < p.Attempts
}

// ComputeBackoff returns the pre-jitter delay that follows a failure of the
// given 1-based attempt: min(BaseDelay * BackoffFactor^(attempt-1), MaxDelay).
// Attempt 0 is treated as 1. Non-finite intermediate values clamp to MaxDelay.
func (p *RetryPolicy) ComputeBackoff(attempt uint) time.Duration {
	maxDelay := max(p.MaxDelay, 0)

	if attempt <= 1 {
		return clampDuration(p.BaseDelay, maxDelay)
	}

	exp := math.Pow(p.BackoffFactor, float64(attempt-1))
	delay := float64(p.BaseDelay) * exp

	switch {
	case math.IsNaN(delay), math.IsInf(delay, 0), delay >= float64(maxDelay):
		return maxDelay
	case delay <= 0:
		return 0
	default:
		return time.Duration(delay)
	}
}

// Delay returns the delay actually used after a failure of the given attempt.
// With jitter disabled it equals ComputeBackoff. With jitter enabled it is drawn
// uniformly from [0, max(backoff in whole ms, 1)] milliseconds and never exceeds MaxDelay.
func (p *RetryPolicy) Delay(attempt uint) time.Duration {
	backoff := p.ComputeBackoff(attempt)
	if !p.Jitter {
		return backoff
	}

	upper := uint64(max(backoff.Milliseconds(), 1))
	sample := p.jitterSource().Sample(attempt, upper)

	// upper fits in int64, so does sample.
	delay := time.Duration(sample) * time.Millisecond

	return clampDuration(delay, max(p.MaxDelay, 0))
}

// Sleep waits for the delay that follows a failure of the given attempt.
// It returns early with the context error if ctx is done first.
func (p *RetryPolicy) Sleep(ctx context.Context, attempt uint) error {
	return SleepWithContext(ctx, p.Delay(attempt))
}

func (p *RetryPolicy) jitterSource() jitter.Source {
	if p.RNGSeed != nil {
		return jitter.Seeded(*p.RNGSeed)
	}

	return jitter.Global()
}

// SleepWithContext sleeps for the specified duration but respects context cancellation.
// Zero or negative durations still report an already done context.
func SleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("context done: %w", err)
		}

		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("context done: %w", ctx.Err())
	}
}

func clampDuration(d, ceiling time.Duration) time.Duration {
	switch {
	case d < 0:
		return 0
	case d > ceiling:
		return ceiling
	default:
		return d
	}
}
