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

package wrap

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/aerospike/retry-go/models"
)

// Supported keys of a retry tag.
const (
	KeyAttempts      = "attempts"
	KeyBaseDelayMs   = "base_delay_ms"
	KeyMaxDelayMs    = "max_delay_ms"
	KeyBackoffFactor = "backoff_factor"
	KeyJitter        = "jitter"
	KeyRNGSeed       = "rng_seed"
	KeyPredicate     = "predicate"
)

const maxMillis = math.MaxInt64 / int64(time.Millisecond)

// Spec is the parsed form of a retry tag.
// Fields not mentioned in the tag keep the default policy values.
type Spec struct {
	Attempts      uint
	BaseDelay     time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
	Jitter        bool
	RNGSeed       *uint64
	// Predicate is a registry name. Empty means every error is retried.
	Predicate string
}

// NewSpec returns a spec holding the default policy values.
func NewSpec() *Spec {
	d := models.NewDefaultRetryPolicy()

	return &Spec{
		Attempts:      d.Attempts,
		BaseDelay:     d.BaseDelay,
		MaxDelay:      d.MaxDelay,
		BackoffFactor: d.BackoffFactor,
		Jitter:        d.Jitter,
	}
}

// ParseTag parses a comma separated list of retry settings, for example:
//
//	3
//	attempts=5,base_delay_ms=50,max_delay_ms=2000,predicate=network
//	4,jitter=false,rng_seed=42
//
// A bare integer is the number of attempts. An empty tag yields the defaults.
func ParseTag(tag string) (*Spec, error) {
	spec := NewSpec()

	tag = strings.TrimSpace(tag)
	if tag == "" {
		return spec, nil
	}

	seen := make(map[string]struct{})

	for _, item := range strings.Split(tag, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			return nil, fmt.Errorf("%w: empty item in %q", ErrInvalidTag, tag)
		}

		key, value, found := strings.Cut(item, "=")
		if !found {
			if _, err := strconv.ParseUint(item, 10, 0); err != nil {
				return nil, fmt.Errorf("%w: unsupported argument %q, expected N or key=value",
					ErrInvalidTag, item)
			}

			key, value = KeyAttempts, item
		}

		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		if _, ok := seen[key]; ok {
			if key == KeyAttempts {
				return nil, fmt.Errorf("%w: duplicate attempts", ErrInvalidTag)
			}

			return nil, fmt.Errorf("%w: duplicate key %q", ErrInvalidTag, key)
		}

		seen[key] = struct{}{}

		if err := spec.set(key, value); err != nil {
			return nil, err
		}
	}

	return spec, nil
}

func (s *Spec) set(key, value string) error {
	switch key {
	case KeyAttempts:
		n, err := strconv.ParseUint(value, 10, 0)
		if err != nil {
			return invalidInteger(key, value)
		}

		s.Attempts = uint(n)
	case KeyBaseDelayMs:
		d, err := parseMillis(key, value)
		if err != nil {
			return err
		}

		s.BaseDelay = d
	case KeyMaxDelayMs:
		d, err := parseMillis(key, value)
		if err != nil {
			return err
		}

		s.MaxDelay = d
	case KeyBackoffFactor:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("%w: invalid number %q for %s", ErrInvalidTag, value, key)
		}

		s.BackoffFactor = f
	case KeyJitter:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%w: invalid boolean %q for %s", ErrInvalidTag, value, key)
		}

		s.Jitter = b
	case KeyRNGSeed:
		seed, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return invalidInteger(key, value)
		}

		s.RNGSeed = &seed
	case KeyPredicate:
		if value == "" {
			return fmt.Errorf("%w: empty predicate name", ErrInvalidTag)
		}

		s.Predicate = value
	default:
		return fmt.Errorf("%w: unknown key %q", ErrInvalidTag, key)
	}

	return nil
}

// Policy returns a validated retry policy built from the spec.
func (s *Spec) Policy() (*models.RetryPolicy, error) {
	p := &models.RetryPolicy{
		Attempts:      s.Attempts,
		BaseDelay:     s.BaseDelay,
		MaxDelay:      s.MaxDelay,
		BackoffFactor: s.BackoffFactor,
		Jitter:        s.Jitter,
	}

	if s.RNGSeed != nil {
		p = p.WithSeed(*s.RNGSeed)
	}

	if err := p.Validate(); err != nil {
		return nil, err
	}

	return p, nil
}

func parseMillis(key, value string) (time.Duration, error) {
	ms, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, invalidInteger(key, value)
	}

	if ms < 0 || ms > maxMillis {
		return 0, fmt.Errorf("%w: %s out of range: %d", ErrInvalidTag, key, ms)
	}

	return time.Duration(ms) * time.Millisecond, nil
}

func invalidInteger(key, value string) error {
	return fmt.Errorf("%w: invalid integer %q for %s", ErrInvalidTag, value, key)
}
