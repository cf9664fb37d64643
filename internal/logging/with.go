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

import "log/slog"

// WithRetry attaches the id of a single retry sequence to the logger.
func WithRetry(logger *slog.Logger, id string) *slog.Logger {
	group := slog.Group("retry", "id", id)
	return logger.With(group)
}

type ReaderType string

const ReaderTypeRange ReaderType = "range"

func WithReader(logger *slog.Logger, id string, readerType ReaderType) *slog.Logger {
	group := slog.Group("reader", "id", id, "type", readerType)
	return logger.With(group)
}
