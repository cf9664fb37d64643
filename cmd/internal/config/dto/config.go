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

// Package dto contains structures of the YAML configuration file. Every field
// is a pointer, so values absent from the file can be told apart from zeros.
package dto

// Config is the root of the configuration file.
type Config struct {
	App    *App    `yaml:"app"`
	Policy *Policy `yaml:"policy"`
	Exec   *Exec   `yaml:"exec"`
}

// App represents the application-level configuration parsed from a YAML file.
type App struct {
	Verbose      *bool   `yaml:"verbose"`
	LogLevel     *string `yaml:"log-level"`
	LogJSON      *bool   `yaml:"log-json"`
	PrintMetrics *bool   `yaml:"print-metrics"`
}

// Policy represents the retry policy parsed from a YAML file. Delays are in milliseconds.
type Policy struct {
	Attempts      *uint    `yaml:"attempts"`
	BaseDelay     *int64   `yaml:"base-delay"`
	MaxDelay      *int64   `yaml:"max-delay"`
	BackoffFactor *float64 `yaml:"backoff-factor"`
	Jitter        *bool    `yaml:"jitter"`
	Seed          *uint64  `yaml:"seed"`
}

// Exec represents the exec command configuration parsed from a YAML file.
type Exec struct {
	RetryExitCodes *string `yaml:"retry-exit-codes"`
	AttemptTimeout *int64  `yaml:"attempt-timeout"`
}
