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

package cmd

import (
	"github.com/aerospike/retry-go/cmd/internal/app"
	"github.com/aerospike/retry-go/cmd/internal/logging"
	"github.com/spf13/cobra"
)

func (c *Cmd) newScheduleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schedule",
		Short: "Print the delays between attempts for the retry policy",
		Args:  cobra.NoArgs,
		RunE:  c.runSchedule,
	}
}

func (c *Cmd) runSchedule(cmd *cobra.Command, _ []string) error {
	if err := c.prepare(cmd); err != nil {
		return err
	}

	steps, err := app.Schedule(c.policy)
	if err != nil {
		return err
	}

	logging.ReportSchedule(cmd.OutOrStdout(), steps, c.flagsApp.LogJSON, c.logger)

	return nil
}
