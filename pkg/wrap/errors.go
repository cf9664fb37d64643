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

import "errors"

var (
	// ErrInvalidTag is returned for a malformed retry tag or decoration target.
	ErrInvalidTag = errors.New("invalid retry tag")
	// ErrNotAsync is returned for functions that do not take a context.Context
	// first and return an error last.
	ErrNotAsync = errors.New("only asynchronous operations are eligible for wrapping")
	// ErrUnknownPredicate is returned when a predicate name is not registered.
	ErrUnknownPredicate = errors.New("unknown retry predicate")
)
