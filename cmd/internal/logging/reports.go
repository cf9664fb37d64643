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
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/aerospike/retry-go/cmd/internal/models"
)

const (
	headerScheduleReport = "Retry schedule"
	headerExecReport     = "Exec report"
)

// ReportSchedule prints the delay schedule to w.
// if isJSON is true, it logs the schedule instead, but logger must be passed.
func ReportSchedule(w io.Writer, steps []models.Step, isJSON bool, logger *slog.Logger) {
	if isJSON {
		logScheduleReport(steps, logger)
		return
	}

	printScheduleReport(w, steps)
}

func printScheduleReport(w io.Writer, steps []models.Step) {
	fmt.Fprintln(w, headerScheduleReport)
	fmt.Fprintln(w, strings.Repeat("-", len(headerScheduleReport)))

	if len(steps) == 0 {
		fmt.Fprintln(w, "no retries")
		return
	}

	var total time.Duration

	for _, s := range steps {
		printMetric(w, fmt.Sprintf("After attempt %d", s.Attempt),
			fmt.Sprintf("%v (backoff %v)", s.Delay, s.Backoff))

		total += s.Delay
	}

	fmt.Fprintln(w)

	printMetric(w, "Total Delay", total)
}

func logScheduleReport(steps []models.Step, logger *slog.Logger) {
	for _, s := range steps {
		logger.Info("retry schedule",
			slog.Uint64("attempt", uint64(s.Attempt)),
			slog.Duration("backoff", s.Backoff),
			slog.Duration("delay", s.Delay),
		)
	}
}

// ReportExec prints the exec report to w.
// if isJSON is true, it logs the report instead, but logger must be passed.
func ReportExec(w io.Writer, result *models.ExecResult, isJSON bool, logger *slog.Logger) {
	if isJSON {
		logExecReport(result, logger)
		return
	}

	printExecReport(w, result)
}

func printExecReport(w io.Writer, result *models.ExecResult) {
	fmt.Fprintln(w, headerExecReport)
	fmt.Fprintln(w, strings.Repeat("-", len(headerExecReport)))

	printMetric(w, "Start Time", result.StartTime.Format(time.RFC1123))
	printMetric(w, "Duration", result.Duration)

	fmt.Fprintln(w)

	printMetric(w, "Attempts", result.Attempts)
	printMetric(w, "Outcome", result.Outcome)
	printMetric(w, "Exit Code", result.ExitCode)
}

func logExecReport(result *models.ExecResult, logger *slog.Logger) {
	logger.Info("exec report",
		slog.Time("start_time", result.StartTime),
		slog.Duration("duration", result.Duration),
		slog.Uint64("attempts", uint64(result.Attempts)),
		slog.String("outcome", result.Outcome),
		slog.Int("exit_code", result.ExitCode),
	)
}

func printMetric(w io.Writer, key string, value any) {
	fmt.Fprintf(w, "%s%v\n", indent(key), value)
}

func indent(key string) string {
	return fmt.Sprintf("%s:%s", key, strings.Repeat(" ", max(21-len(key), 1)))
}
