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

import "time"

// Step describes the delay that follows a failed attempt.
type Step struct {
	// Attempt is the 1-based number of the failed attempt.
	Attempt uint
	// Backoff is the delay before jitter is applied.
	Backoff time.Duration
	// Delay is the delay actually used.
	Delay time.Duration
}

// ExecResult describes a finished exec run.
type ExecResult struct {
	StartTime time.Time
	Duration  time.Duration
	Attempts  uint
	Outcome   string
	// ExitCode of the last run of the command, -1 if it did not exit normally.
	ExitCode int
}
