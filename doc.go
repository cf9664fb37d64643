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

// Package retry runs a fallible operation until it succeeds, a non-retryable
// error is reported, or the attempt budget of a [models.RetryPolicy] is exhausted.
// Between attempts it waits for an exponentially growing, optionally jittered delay.
//
// Example usage:
//
//	policy := models.NewDefaultRetryPolicy()
//
//	value, err := retry.Retry(ctx, policy, func(ctx context.Context) (string, error) {
//		return fetch(ctx, key)
//	}, classify.Network)
//	if err != nil {
//		// err is exactly the error of the last attempt,
//		// or a context error joined with it if ctx was cancelled.
//	}
//
// The operation is called afresh for every attempt and at most one attempt is
// in flight at a time. Cancelling ctx interrupts the delay between attempts and
// prevents any further attempt from starting.
package retry
