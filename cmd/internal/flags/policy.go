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

package flags

import (
	"github.com/aerospike/retry-go/cmd/internal/models"
	bModels "github.com/aerospike/retry-go/models"
	"github.com/spf13/pflag"
)

const flagSeed = "seed"

type Policy struct {
	models.Policy

	flagSet *pflag.FlagSet
}

func NewPolicy() *Policy {
	return &Policy{}
}

func (f *Policy) NewFlagSet() *pflag.FlagSet {
	flagSet := &pflag.FlagSet{}

	flagSet.UintVarP(&f.Attempts, "attempts", "a",
		bModels.DefaultAttempts,
		"Maximum number of tries, including the first one. Must be at least 1.")
	flagSet.Int64Var(&f.BaseDelay, "base-delay",
		bModels.DefaultBaseDelay.Milliseconds(),
		"Delay in milliseconds before the first retry.")
	flagSet.Int64Var(&f.MaxDelay, "max-delay",
		bModels.DefaultMaxDelay.Milliseconds(),
		"Ceiling in milliseconds for any delay between two tries.")
	flagSet.Float64Var(&f.BackoffFactor, "backoff-factor",
		bModels.DefaultBackoffFactor,
		"Multiplier applied to the delay for every additional retry.")
	flagSet.BoolVar(&f.Jitter, "jitter",
		bModels.DefaultJitter,
		"Randomize every delay uniformly in [0, delay].\n"+
			"Use --jitter=false to disable.")
	flagSet.Uint64Var(&f.Seed, flagSeed,
		0,
		"Seed for the jitter random source. When set, delays are reproducible.")

	f.flagSet = flagSet

	return flagSet
}

// Changed reports whether the flag with the given name was set on the command line.
func (f *Policy) Changed(name string) bool {
	if f.flagSet == nil {
		return false
	}

	return f.flagSet.Changed(name)
}

func (f *Policy) GetPolicy() *models.Policy {
	if f.Changed(flagSeed) {
		f.SeedSet = true
	}

	return &f.Policy
}
