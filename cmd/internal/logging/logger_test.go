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

package logging

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		level     string
		verbose   bool
		json      bool
		wantDebug bool
		wantPre   string
	}{
		{name: "default text", level: "debug", wantPre: "time="},
		{name: "verbose debug", level: "debug", verbose: true, wantDebug: true, wantPre: "time="},
		{name: "verbose json", level: "debug", verbose: true, json: true, wantDebug: true, wantPre: "{"},
		{name: "verbose warn", level: "warn", verbose: true, wantPre: "time="},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer

			logger, err := NewLogger(&buf, tt.level, tt.verbose, tt.json)
			require.NoError(t, err)

			logger.Debug("debug message")
			logger.Error("error message")

			output := buf.String()
			assert.Contains(t, output, "error message")
			assert.Equal(t, tt.wantDebug, bytes.Contains(buf.Bytes(), []byte("debug message")))
			assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte(tt.wantPre)), output)
		})
	}
}

func TestNewLogger_InvalidLevel(t *testing.T) {
	t.Parallel()

	logger, err := NewLogger(&bytes.Buffer{}, "loud", true, false)
	assert.Nil(t, logger)
	assert.ErrorContains(t, err, "invalid log level")
}
