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
	"io"
	"log/slog"

	"github.com/aerospike/retry-go/cmd/internal/config"
	"github.com/aerospike/retry-go/cmd/internal/flags"
	"github.com/aerospike/retry-go/cmd/internal/logging"
	bModels "github.com/aerospike/retry-go/models"
	"github.com/aerospike/retry-go/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const VersionDev = "dev"

// Cmd represents the base command when called without any subcommands
type Cmd struct {
	// Version params.
	appVersion string
	commitHash string

	// Root flags
	flagsApp    *flags.App
	flagsPolicy *flags.Policy

	// exec flags.
	flagsExec *flags.Exec

	// Initialized before a sub command runs.
	logger   *slog.Logger
	policy   *bModels.RetryPolicy
	registry *prometheus.Registry
	metrics  *metrics.Collector
}

func NewCmd(appVersion, commitHash string) *cobra.Command {
	c := &Cmd{
		appVersion: appVersion,
		commitHash: commitHash,

		flagsApp:    flags.NewApp(),
		flagsPolicy: flags.NewPolicy(),
		flagsExec:   flags.NewExec(),
	}

	rootCmd := &cobra.Command{
		Use:   "retryctl",
		Short: "Retry policy CLI tool",
		RunE:  c.run,
	}

	// Disable sorting
	rootCmd.PersistentFlags().SortFlags = false
	rootCmd.SilenceUsage = true
	rootCmd.SilenceErrors = true

	appFlagSet := c.flagsApp.NewFlagSet()
	policyFlagSet := c.flagsPolicy.NewFlagSet()
	execFlagSet := c.flagsExec.NewFlagSet()

	rootCmd.PersistentFlags().AddFlagSet(appFlagSet)
	rootCmd.PersistentFlags().AddFlagSet(policyFlagSet)

	scheduleCmd := c.newScheduleCmd()
	execCmd := c.newExecCmd(execFlagSet)

	rootCmd.AddCommand(scheduleCmd, execCmd)

	// Beautify help and usage.
	helpFunc := func(cmd *cobra.Command) {
		w := cmd.OutOrStdout()

		fmt.Fprintln(w, "Welcome to the retryctl CLI tool!")
		fmt.Fprintln(w, "---------------------------------")
		fmt.Fprintln(w, "\nUsage:")
		fmt.Fprintln(w, "  retryctl schedule [flags]")
		fmt.Fprintln(w, "  retryctl exec [flags] -- <command> [args]")

		// Print section: App Flags
		fmt.Fprintln(w, "\nGeneral Flags:")
		printDefaults(w, appFlagSet)

		// Print section: Policy Flags
		fmt.Fprintln(w, "\nRetry Policy Flags:\n"+
			"The first attempt is followed by a delay of --base-delay, every next delay is multiplied\n"+
			"by --backoff-factor and capped by --max-delay. Values from --config are overridden by flags.")
		printDefaults(w, policyFlagSet)

		// Print section: Exec Flags
		fmt.Fprintln(w, "\nExec Flags:")
		printDefaults(w, execFlagSet)
	}

	rootCmd.SetUsageFunc(func(cmd *cobra.Command) error {
		helpFunc(cmd)
		return nil
	})
	rootCmd.SetHelpFunc(func(cmd *cobra.Command, _ []string) {
		helpFunc(cmd)
	})

	return rootCmd
}

func printDefaults(w io.Writer, flagSet *pflag.FlagSet) {
	flagSet.SetOutput(w)
	flagSet.PrintDefaults()
}

func (c *Cmd) run(cmd *cobra.Command, _ []string) error {
	// Show version.
	if c.flagsApp.Version {
		c.printVersion(cmd.OutOrStdout())

		return nil
	}

	return cmd.Help()
}

// prepare loads the configuration file, then builds the logger and the retry policy.
func (c *Cmd) prepare(cmd *cobra.Command) error {
	if c.flagsApp.Config != "" {
		params := &config.Params{
			App:    c.flagsApp.GetApp(),
			Policy: &c.flagsPolicy.Policy,
			Exec:   c.flagsExec.GetExec(),
		}

		if err := config.Load(c.flagsApp.Config, params, cmd.Flags().Changed); err != nil {
			return err
		}
	}

	app := c.flagsApp.GetApp()

	// Init logger.
	logger, err := logging.NewLogger(cmd.ErrOrStderr(), app.LogLevel, app.Verbose, app.LogJSON)
	if err != nil {
		return err
	}

	policy, err := c.flagsPolicy.GetPolicy().ToRetryPolicy()
	if err != nil {
		return err
	}

	c.logger = logger
	c.policy = policy

	if app.PrintMetrics {
		c.registry = prometheus.NewRegistry()

		c.metrics, err = metrics.NewCollector(c.registry)
		if err != nil {
			return err
		}
	}

	return nil
}

func (c *Cmd) printVersion(w io.Writer) {
	version := c.appVersion
	if c.appVersion == VersionDev {
		version += " (" + c.commitHash + ")"
	}

	fmt.Fprintf(w, "version: %s\n", version)
}
