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

// Package app contains the runners behind the retryctl commands.
package app

import (
	"fmt"

	"github.com/aerospike/retry-go/cmd/internal/models"
	bModels "github.com/aerospike/retry-go/models"
)

// MaxScheduleSteps is the largest number of retries Schedule lists.
const MaxScheduleSteps = 10000

// Schedule returns the delays that follow every failed attempt except the last
// one, which is never followed by a delay. Seeded policies give the same
// schedule on every call. Policies with more than MaxScheduleSteps retries are
// rejected.
func Schedule(policy *bModels.RetryPolicy) ([]models.Step, error) {
	if policy.Attempts < 2 {
		return nil, nil
	}

	retries := policy.Attempts - 1
	if retries > MaxScheduleSteps {
		return nil, fmt.Errorf("schedule is limited to %d retries, got %d", MaxScheduleSteps, retries)
	}

	steps := make([]models.Step, 0, retries)

	for attempt := uint(1); attempt < policy.Attempts; attempt++ {
		steps = append(steps, models.Step{
			Attempt: attempt,
			Backoff: policy.ComputeBackoff(attempt),
			Delay:   policy.Delay(attempt),
		})
	}

	return steps, nil
}
