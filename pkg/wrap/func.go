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

package wrap

import (
	"context"
	"fmt"

	retry "github.com/aerospike/retry-go"
	"github.com/aerospike/retry-go/models"
)

// Func returns an operation with the same signature as op that runs op under policy.
// The policy is copied, so later changes to it do not affect the returned operation.
// pred may be a named function or an inline closure; nil retries every error.
func Func[T any](
	policy *models.RetryPolicy,
	op retry.Operation[T],
	pred retry.Predicate,
	opts ...retry.Option,
) retry.Operation[T] {
	if policy != nil {
		cp := *policy
		policy = &cp
	}

	return func(ctx context.Context) (T, error) {
		return retry.Retry(ctx, policy, op, pred, opts...)
	}
}

// FromTag is Func configured by a retry tag, with the predicate resolved from reg.
// A nil reg means [DefaultRegistry]. Tag errors are reported here, never by the returned operation.
func FromTag[T any](
	tag string,
	reg *Registry,
	op retry.Operation[T],
	opts ...retry.Option,
) (retry.Operation[T], error) {
	if op == nil {
		return nil, fmt.Errorf("%w: operation is nil", ErrInvalidTag)
	}

	policy, pred, err := resolve(tag, reg)
	if err != nil {
		return nil, err
	}

	return Func(policy, op, pred, opts...), nil
}

func resolve(tag string, reg *Registry) (*models.RetryPolicy, retry.Predicate, error) {
	spec, err := ParseTag(tag)
	if err != nil {
		return nil, nil, err
	}

	policy, err := spec.Policy()
	if err != nil {
		return nil, nil, err
	}

	if reg == nil {
		reg = DefaultRegistry()
	}

	pred, err := reg.Lookup(spec.Predicate)
	if err != nil {
		return nil, nil, err
	}

	return policy, pred, nil
}
