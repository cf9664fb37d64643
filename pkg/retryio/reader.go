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

// Package retryio provides readers that survive transient stream failures.
package retryio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"

	retry "github.com/aerospike/retry-go"
	"github.com/aerospike/retry-go/internal/logging"
	"github.com/aerospike/retry-go/models"
	"github.com/aerospike/retry-go/pkg/classify"
)

var errClosed = errors.New("reader is closed")

// RangeOpener opens a stream over a part of an object, e.g. a ranged GET of a
// cloud storage object.
type RangeOpener interface {
	// OpenRange opens the object at offset. Count = 0 means read to the end.
	OpenRange(ctx context.Context, offset, count int64) (io.ReadCloser, error)
	// GetSize returns the total size of the object.
	GetSize() int64
	// GetInfo returns a description of the object used for logging.
	GetInfo() string
}

// Reader reads an object through a RangeOpener. When a read fails with a
// transient error, the stream is reopened at the current offset and the read
// is retried according to the retry policy.
type Reader struct {
	ctx    context.Context
	opener RangeOpener
	reader io.ReadCloser

	policy      *models.RetryPolicy
	shouldRetry retry.Predicate
	opts        []retry.Option
	logger      *slog.Logger
	offset      int64
	totalSize   int64

	closed atomic.Bool
}

// NewReader returns a new retryable reader and opens the first stream.
// A nil policy means [models.NewDefaultRetryPolicy]. Transport failures and
// transient cloud SDK errors are retried, see [classify.Cloud].
func NewReader(
	ctx context.Context,
	opener RangeOpener,
	policy *models.RetryPolicy,
	logger *slog.Logger,
	opts ...retry.Option,
) (*Reader, error) {
	if opener == nil {
		return nil, errors.New("range opener is nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	// Set the default retry policy if it is not set.
	if policy == nil {
		policy = models.NewDefaultRetryPolicy()
	}

	if err := policy.Validate(); err != nil {
		return nil, err
	}

	logger = logging.WithReader(logger, opener.GetInfo(), logging.ReaderTypeRange)

	r := &Reader{
		ctx:         ctx,
		opener:      opener,
		policy:      policy,
		shouldRetry: classify.Cloud,
		opts:        append([]retry.Option{retry.WithLogger(logger)}, opts...),
		logger:      logger,
		totalSize:   opener.GetSize(),
	}

	err := retry.Do(ctx, r.policy, r.openStream, r.shouldRetry, r.opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to open initial object stream: %w", err)
	}

	logger.Debug("created retryable reader",
		slog.Int64("size", r.totalSize),
		slog.Uint64("attempts", uint64(policy.Attempts)),
	)

	return r, nil
}

// openStream opens a new stream at the current offset.
func (r *Reader) openStream(ctx context.Context) error {
	if r.closed.Load() {
		return errClosed
	}

	if r.offset > 0 {
		r.logger.Debug("start reading from",
			slog.Int64("offset", r.offset),
		)
	}

	// Count = 0 means read to the end of the file.
	body, err := r.opener.OpenRange(ctx, r.offset, 0)
	if err != nil {
		return fmt.Errorf("failed to open range at offset %d: %w", r.offset, err)
	}

	r.reader = body

	return nil
}

// dropStream closes the current stream, a new one is opened by the next attempt.
func (r *Reader) dropStream() {
	if r.reader == nil {
		return
	}

	// Not critical, doesn't interrupt the process.
	if err := r.reader.Close(); err != nil {
		r.logger.Debug("failed to close previous stream",
			slog.Any("error", err),
		)
	}

	r.reader = nil
}

// Read reads from the stream. Transient failures reopen the stream at the
// current offset; any other error, including io.EOF, is returned as is.
func (r *Reader) Read(p []byte) (int, error) {
	if r.closed.Load() {
		return 0, errClosed
	}

	// If we reached end of file, return EOF.
	if r.offset >= r.totalSize {
		return 0, io.EOF
	}

	var read int

	err := retry.Do(r.ctx, r.policy, func(ctx context.Context) error {
		if r.reader == nil {
			if err := r.openStream(ctx); err != nil {
				return err
			}
		}

		n, err := r.reader.Read(p)
		if err != nil && r.shouldRetry(err) {
			r.logger.Warn("retry read",
				slog.Int64("offset", r.offset),
				slog.Any("error", err),
			)
			// Bytes of a failed read are read again from the new stream.
			r.dropStream()

			return err
		}

		r.offset += int64(n)
		read = n

		return err
	}, r.shouldRetry, r.opts...)

	return read, err
}

// Offset returns the number of bytes returned by Read so far.
func (r *Reader) Offset() int64 {
	return r.offset
}

// Close closes the reader.
func (r *Reader) Close() error {
	if r.closed.Swap(true) {
		return nil
	}

	if r.reader != nil {
		return r.reader.Close()
	}

	return nil
}
