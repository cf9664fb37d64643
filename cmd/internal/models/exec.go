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
	"fmt"
	"strconv"
	"strings"
)

// Exec contains flags of the exec command.
type Exec struct {
	// Comma separated list of exit codes to retry. Empty means any non-zero code.
	RetryExitCodes string `yaml:"retry-exit-codes,omitempty"`
	// Timeout of a single attempt in milliseconds, 0 means no timeout.
	AttemptTimeout int64 `yaml:"attempt-timeout,omitempty"`
}

// ExitCodes parses RetryExitCodes. A nil map means any non-zero code.
func (e *Exec) ExitCodes() (map[int]struct{}, error) {
	if strings.TrimSpace(e.RetryExitCodes) == "" {
		return nil, nil
	}

	items := strings.Split(e.RetryExitCodes, ",")
	codes := make(map[int]struct{}, len(items))

	for _, item := range items {
		code, err := strconv.Atoi(strings.TrimSpace(item))
		if err != nil {
			return nil, fmt.Errorf("invalid exit code %q: %w", item, err)
		}

		if code <= 0 || code > 255 {
			return nil, fmt.Errorf("exit code %d out of range 1-255", code)
		}

		codes[code] = struct{}{}
	}

	return codes, nil
}

func (e *Exec) Validate() error {
	if e.AttemptTimeout < 0 {
		return fmt.Errorf("attempt-timeout must be non-negative")
	}

	_, err := e.ExitCodes()

	return err
}
