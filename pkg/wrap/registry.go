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
	"errors"
	"fmt"
	"sort"
	"sync"

	retry "github.com/aerospike/retry-go"
	"github.com/aerospike/retry-go/pkg/classify"
)

// Names of the predicates registered by DefaultRegistry.
const (
	PredicateAlways    = "always"
	PredicateNever     = "never"
	PredicateNetwork   = "network"
	PredicateAerospike = "aerospike"
	PredicateAWS       = "aws"
	PredicateAzure     = "azure"
	PredicateGCP       = "gcp"
	PredicateCloud     = "cloud"
)

// Registry resolves predicate names used in retry tags.
// It is safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	preds map[string]retry.Predicate
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{preds: make(map[string]retry.Predicate)}
}

// DefaultRegistry returns a new registry holding the built-in predicates.
func DefaultRegistry() *Registry {
	r := NewRegistry()

	r.preds[PredicateAlways] = retry.AlwaysRetry
	r.preds[PredicateNever] = retry.NeverRetry
	r.preds[PredicateNetwork] = classify.Network
	r.preds[PredicateAerospike] = classify.Aerospike
	r.preds[PredicateAWS] = classify.AWS
	r.preds[PredicateAzure] = classify.Azure
	r.preds[PredicateGCP] = classify.GCP
	r.preds[PredicateCloud] = classify.Cloud

	return r
}

// Register adds or replaces a named predicate.
func (r *Registry) Register(name string, pred retry.Predicate) error {
	if name == "" {
		return errors.New("predicate name is empty")
	}

	if pred == nil {
		return fmt.Errorf("predicate %q is nil", name)
	}

	r.mu.Lock()
	r.preds[name] = pred
	r.mu.Unlock()

	return nil
}

// Lookup returns the predicate registered under name.
// An empty name resolves to [retry.AlwaysRetry].
func (r *Registry) Lookup(name string) (retry.Predicate, error) {
	if name == "" {
		return retry.AlwaysRetry, nil
	}

	r.mu.RLock()
	pred, ok := r.preds[name]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPredicate, name)
	}

	return pred, nil
}

// Names returns the registered predicate names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.preds))
	for name := range r.preds {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}
