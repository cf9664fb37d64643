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

// Package jitter provides the random sources used to randomize retry delays.
package jitter

import (
	"math/rand/v2"
)

// Source draws a jitter sample for a given attempt.
type Source interface {
	// Sample returns a uniformly distributed value in the closed range [0, upper].
	Sample(attempt uint, upper uint64) uint64
}

// Global returns a Source backed by the process-wide random generator.
// Samples are not reproducible.
func Global() Source {
	return globalSource{}
}

// Seeded returns a Source that re-seeds a PCG generator with seed+attempt
// for every sample, so the same (seed, attempt) pair always yields the same value.
func Seeded(seed uint64) Source {
	return seededSource{seed: seed}
}

type globalSource struct{}

func (globalSource) Sample(_ uint, upper uint64) uint64 {
	return uint64n(rand.Uint64N, rand.Uint64, upper)
}

type seededSource struct {
	seed uint64
}

func (s seededSource) Sample(attempt uint, upper uint64) uint64 {
	// Wraps on overflow.
	derived := s.seed + uint64(attempt)
	// #nosec G404 -- jitter does not need a cryptographic source.
	rng := rand.New(rand.NewPCG(derived, 0))

	return uint64n(rng.Uint64N, rng.Uint64, upper)
}

// uint64n samples [0, upper]. Uint64N takes an exclusive bound, which would
// overflow for upper == MaxUint64, so the full range is served by the raw generator.
func uint64n(bounded func(uint64) uint64, full func() uint64, upper uint64) uint64 {
	if upper == ^uint64(0) {
		return full()
	}

	return bounded(upper + 1)
}
