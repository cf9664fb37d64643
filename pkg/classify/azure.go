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
	"net/http"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
)

var azureTransientStatus = map[int]struct{}{
	http.StatusRequestTimeout:      {},
	http.StatusTooManyRequests:     {},
	http.StatusInternalServerError: {},
	http.StatusBadGateway:          {},
	http.StatusServiceUnavailable:  {},
	http.StatusGatewayTimeout:      {},
}

// Azure reports whether err is a transient Azure SDK error.
func Azure(err error) bool {
	if err == nil {
		return false
	}

	// Credentials do not fix themselves.
	var authErr *azidentity.AuthenticationFailedError
	if errors.As(err, &authErr) {
		return false
	}

	if bloberror.HasCode(err,
		bloberror.BlobNotFound,
		bloberror.ContainerNotFound,
		bloberror.AuthenticationFailed,
		bloberror.AuthorizationFailure,
	) {
		return false
	}

	if bloberror.HasCode(err,
		bloberror.ServerBusy,
		bloberror.OperationTimedOut,
		bloberror.InternalError,
	) {
		return true
	}

	var respErr *azcore.ResponseError
	if errors.As(err, &respErr) {
		_, ok := azureTransientStatus[respErr.StatusCode]
		return ok
	}

	return false
}
