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
	"context"
	"log/slog"
	"time"

	"github.com/aerospike/retry-go/models"
)

// Sleeper suspends the caller between two attempts.
// It must return a non-nil error if ctx is done before d elapses.
type Sleeper func(ctx context.Context, d time.Duration) error

// Option is a functional option that allows configuring a single [Retry] call.
type Option func(*options)

type options struct {
	logger   *slog.Logger
	observer Observer
	sleeper  Sleeper
	fixedID  string
}

// WithID sets the ID of the retry sequence.
// This ID is used for logging purposes. A random UUID is used if it is not set.
func WithID(id string) Option {
	return func(o *options) {
		o.fixedID = id
	}
}

// WithLogger sets the logger the retry sequence will log to.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithObserver sets an observer notified about attempts, retries and the final outcome.
func WithObserver(observer Observer) Option {
	return func(o *options) {
		o.observer = observer
	}
}

// WithSleeper replaces the timer based wait between attempts.
func WithSleeper(sleeper Sleeper) Option {
	return func(o *options) {
		o.sleeper = sleeper
	}
}

func newOptions(opts []Option) *options {
	o := &options{
		logger:   slog.Default(),
		observer: nopObserver{},
		sleeper:  models.SleepWithContext,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}

	// Options may reset values to nil explicitly.
	if o.logger == nil {
		o.logger = slog.Default()
	}

	if o.observer == nil {
		o.observer = nopObserver{}
	}

	if o.sleeper == nil {
		o.sleeper = models.SleepWithContext
	}

	return o
}

func (o *options) id() string {
	if o.fixedID != "" {
		return o.fixedID
	}

	return newID()
}
