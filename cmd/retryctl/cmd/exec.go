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
	"fmt"
	"log/slog"

	retry "github.com/aerospike/retry-go"
	"github.com/aerospike/retry-go/cmd/internal/app"
	"github.com/aerospike/retry-go/cmd/internal/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

func (c *Cmd) newExecCmd(execFlagSet *pflag.FlagSet) *cobra.Command {
	execCmd := &cobra.Command{
		Use:   "exec [flags] -- <command> [args]",
		Short: "Run a command, retrying it when it fails",
		Args:  cobra.MinimumNArgs(1),
		RunE:  c.runExec,
	}

	// Flags of the command itself must not be parsed.
	execCmd.Flags().SetInterspersed(false)
	execCmd.Flags().AddFlagSet(execFlagSet)

	return execCmd
}

func (c *Cmd) runExec(cmd *cobra.Command, args []string) error {
	if err := c.prepare(cmd); err != nil {
		return err
	}

	var observer retry.Observer
	if c.metrics != nil {
		observer = c.metrics.Observer(args[0])
	}

	executor, err := app.NewExecutor(
		c.policy,
		c.flagsExec.GetExec(),
		observer,
		c.logger,
		cmd.OutOrStdout(),
		cmd.ErrOrStderr(),
	)
	if err != nil {
		return err
	}

	result, runErr := executor.Run(cmd.Context(), args[0], args[1:]...)

	logging.ReportExec(cmd.ErrOrStderr(), result, c.flagsApp.LogJSON, c.logger)

	if c.registry != nil {
		if err = app.PrintMetrics(cmd.ErrOrStderr(), c.registry); err != nil {
			c.logger.Error("failed to print metrics", slog.Any("error", err))
		}
	}

	if runErr != nil {
		c.logger.Error("command failed", slog.Any("error", runErr))

		return fmt.Errorf("%s: %w", args[0], runErr)
	}

	return nil
}
