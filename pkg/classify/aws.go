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

package classify

import (
	"errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsRetry "github.com/aws/aws-sdk-go-v2/aws/retry"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

// AWS reports whether err is a transient AWS SDK v2 error.
// The SDK's own retryable and throttle rules are consulted first,
// then any API error with a server fault is treated as transient.
func AWS(err error) bool {
	if err == nil {
		return false
	}

	var (
		noSuchKey    *types.NoSuchKey
		noSuchBucket *types.NoSuchBucket
	)

	if errors.As(err, &noSuchKey) || errors.As(err, &noSuchBucket) {
		return false
	}

	switch awsRetry.IsErrorRetryables(awsRetry.DefaultRetryables).IsErrorRetryable(err) {
	case aws.TrueTernary:
		return true
	case aws.FalseTernary:
		return false
	case aws.UnknownTernary:
	}

	if awsRetry.IsErrorThrottles(awsRetry.DefaultThrottles).IsErrorThrottle(err) == aws.TrueTernary {
		return true
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorFault() == smithy.FaultServer
	}

	return false
}
