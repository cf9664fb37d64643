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

import "time"

// Outcome is the way a retry sequence ended.
type Outcome string

const (
	// OutcomeSucceeded means an attempt returned no error.
	OutcomeSucceeded Outcome = "succeeded"
	// OutcomeExhausted means the last allowed attempt failed.
	OutcomeExhausted Outcome = "exhausted"
	// OutcomeRejected means the predicate classified a failure as permanent.
	OutcomeRejected Outcome = "rejected"
	// OutcomeCanceled means the context was done before the sequence finished.
	OutcomeCanceled Outcome = "canceled"
	// OutcomeInvalid means the policy was rejected before the first attempt.
	OutcomeInvalid Outcome = "invalid"
)

// Outcomes lists every possible outcome.
var Outcomes = []Outcome{
	OutcomeSucceeded,
	OutcomeExhausted,
	OutcomeRejected,
	OutcomeCanceled,
	OutcomeInvalid,
}

// Observer is notified about the progress of a retry sequence.
// All methods are called synchronously from the goroutine running the sequence.
type Observer interface {
	// OnAttempt is called before the 1-based attempt starts.
	OnAttempt(attempt uint)
	// OnRetry is called after attempt failed with err and before waiting delay.
	OnRetry(attempt uint, delay time.Duration, err error)
	// OnDone is called exactly once with the number of attempts that ran.
	OnDone(outcome Outcome, attempts uint, err error)
}

type nopObserver struct{}

func (nopObserver) OnAttempt(uint)                     {}
func (nopObserver) OnRetry(uint, time.Duration, error) {}
func (nopObserver) OnDone(Outcome, uint, error)        {}

// Observers fans notifications out to several observers in order.
type Observers []Observer

var _ Observer = Observers(nil)

func (m Observers) OnAttempt(attempt uint) {
	for _, o := range m {
		o.OnAttempt(attempt)
	}
}

func (m Observers) OnRetry(attempt uint, delay time.Duration, err error) {
	for _, o := range m {
		o.OnRetry(attempt, delay, err)
	}
}

func (m Observers) OnDone(outcome Outcome, attempts uint, err error) {
	for _, o := range m {
		o.OnDone(outcome, attempts, err)
	}
}
