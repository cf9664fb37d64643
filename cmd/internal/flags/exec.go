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
	"github.com/spf13/pflag"
)

type Exec struct {
	models.Exec
}

func NewExec() *Exec {
	return &Exec{}
}

func (f *Exec) NewFlagSet() *pflag.FlagSet {
	flagSet := &pflag.FlagSet{}

	flagSet.StringVar(&f.RetryExitCodes, "retry-exit-codes",
		"",
		"Comma separated list of exit codes to retry.\n"+
			"If not set, any non-zero exit code is retried.")
	flagSet.Int64Var(&f.AttemptTimeout, "attempt-timeout",
		0,
		"Timeout in milliseconds for a single run of the command.\n"+
			"0 means no timeout.")

	return flagSet
}

func (f *Exec) GetExec() *models.Exec {
	return &f.Exec
}
