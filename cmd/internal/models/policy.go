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
	"time"

	bModels "github.com/aerospike/retry-go/models"
)

// Policy contains retry policy flags. Delays are set in milliseconds.
type Policy struct {
	Attempts      uint    `yaml:"attempts,omitempty"`
	BaseDelay     int64   `yaml:"base-delay,omitempty"`
	MaxDelay      int64   `yaml:"max-delay,omitempty"`
	BackoffFactor float64 `yaml:"backoff-factor,omitempty"`
	Jitter        bool    `yaml:"jitter,omitempty"`
	Seed          uint64  `yaml:"seed,omitempty"`
	// SeedSet is true when Seed was provided by a flag or a config file.
	SeedSet bool `yaml:"-"`
}

// ToRetryPolicy maps cli flags to a validated retry policy.
func (p *Policy) ToRetryPolicy() (*bModels.RetryPolicy, error) {
	policy, err := bModels.NewRetryPolicy(
		p.Attempts,
		time.Duration(p.BaseDelay)*time.Millisecond,
		time.Duration(p.MaxDelay)*time.Millisecond,
		p.BackoffFactor,
		p.Jitter,
	)
	if err != nil {
		return nil, err
	}

	if p.SeedSet {
		policy = policy.WithSeed(p.Seed)
	}

	return policy, nil
}
