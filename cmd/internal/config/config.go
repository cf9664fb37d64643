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

// Package config loads the retryctl configuration file and merges it with
// the command line flags.
package config

import (
	"github.com/aerospike/retry-go/cmd/internal/config/dto"
	"github.com/aerospike/retry-go/cmd/internal/models"
)

// Params contains the models filled by command line flags. Nil models are skipped.
type Params struct {
	App    *models.App
	Policy *models.Policy
	Exec   *models.Exec
}

// Load decodes the configuration file into params. A value from the file is
// applied only when the flag with the same name was not set explicitly, as
// reported by changed.
func Load(filename string, params *Params, changed func(name string) bool) error {
	var cfg dto.Config

	if err := decodeFromFile(filename, &cfg); err != nil {
		return err
	}

	if changed == nil {
		changed = func(string) bool { return false }
	}

	m := merger{changed: changed}

	if cfg.App != nil && params.App != nil {
		m.app(cfg.App, params.App)
	}

	if cfg.Policy != nil && params.Policy != nil {
		m.policy(cfg.Policy, params.Policy)
	}

	if cfg.Exec != nil && params.Exec != nil {
		m.exec(cfg.Exec, params.Exec)
	}

	return nil
}

type merger struct {
	changed func(name string) bool
}

func (m merger) app(src *dto.App, dst *models.App) {
	set(m, "verbose", src.Verbose, &dst.Verbose)
	set(m, "log-level", src.LogLevel, &dst.LogLevel)
	set(m, "log-json", src.LogJSON, &dst.LogJSON)
	set(m, "print-metrics", src.PrintMetrics, &dst.PrintMetrics)
}

func (m merger) policy(src *dto.Policy, dst *models.Policy) {
	set(m, "attempts", src.Attempts, &dst.Attempts)
	set(m, "base-delay", src.BaseDelay, &dst.BaseDelay)
	set(m, "max-delay", src.MaxDelay, &dst.MaxDelay)
	set(m, "backoff-factor", src.BackoffFactor, &dst.BackoffFactor)
	set(m, "jitter", src.Jitter, &dst.Jitter)

	if set(m, "seed", src.Seed, &dst.Seed) {
		dst.SeedSet = true
	}
}

func (m merger) exec(src *dto.Exec, dst *models.Exec) {
	set(m, "retry-exit-codes", src.RetryExitCodes, &dst.RetryExitCodes)
	set(m, "attempt-timeout", src.AttemptTimeout, &dst.AttemptTimeout)
}

// set copies src to dst unless src is absent or the flag was set explicitly.
func set[T any](m merger, flag string, src *T, dst *T) bool {
	if src == nil || m.changed(flag) {
		return false
	}

	*dst = *src

	return true
}
