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

	a "github.com/aerospike/aerospike-client-go/v8"
	atypes "github.com/aerospike/aerospike-client-go/v8/types"
)

// aerospikeTransient are result codes after which the same command may succeed.
var aerospikeTransient = []atypes.ResultCode{
	atypes.TIMEOUT,
	atypes.NO_RESPONSE,
	atypes.NETWORK_ERROR,
	atypes.SERVER_NOT_AVAILABLE,
	atypes.INVALID_NODE_ERROR,
	atypes.PARTITION_UNAVAILABLE,
	atypes.DEVICE_OVERLOAD,
	atypes.KEY_BUSY,
	atypes.NO_AVAILABLE_CONNECTIONS_TO_NODE,
	atypes.MAX_RETRIES_EXCEEDED,
	atypes.FAIL_FORBIDDEN,
}

// Aerospike reports whether err is an Aerospike client error with a transient result code.
func Aerospike(err error) bool {
	if err == nil {
		return false
	}

	var ae a.Error
	if errors.As(err, &ae) {
		return ae.Matches(aerospikeTransient...)
	}

	// Connection pool errors are not always surfaced with a matching result code.
	return errors.Is(err, a.ErrConnectionPoolEmpty) ||
		errors.Is(err, a.ErrConnectionPoolExhausted) ||
		errors.Is(err, a.ErrTooManyConnectionsForNode)
}

// AerospikeNotInDoubt is Aerospike for non-idempotent writes:
// errors flagged as in doubt may have been applied and are never retried.
func AerospikeNotInDoubt(err error) bool {
	var ae a.Error
	if errors.As(err, &ae) && ae.IsInDoubt() {
		return false
	}

	return Aerospike(err)
}
