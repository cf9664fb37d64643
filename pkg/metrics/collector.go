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

// Package metrics exports retry sequence progress as Prometheus metrics.
package metrics

import (
	"errors"
	"fmt"
	"time"

	retry "github.com/aerospike/retry-go"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	namespace = "retry"

	labelOperation = "operation"
	labelOutcome   = "outcome"
)

// Collector holds the retry metrics. One collector serves any number of
// operations, each identified by its own label value.
type Collector struct {
	attempts *prometheus.CounterVec
	retries  *prometheus.CounterVec
	outcomes *prometheus.CounterVec
	delay    *prometheus.HistogramVec
	inFlight *prometheus.GaugeVec
}

// NewCollector creates the retry metrics and registers them with reg.
// A nil reg leaves the metrics unregistered.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	c := &Collector{
		attempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "attempts_total",
				Help:      "Total number of operation attempts",
			},
			[]string{labelOperation},
		),
		retries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "retries_total",
				Help:      "Total number of failed attempts followed by a retry",
			},
			[]string{labelOperation},
		),
		outcomes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "sequences_total",
				Help:      "Total number of finished retry sequences by outcome",
			},
			[]string{labelOperation, labelOutcome},
		),
		delay: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "delay_seconds",
				Help:      "Delay between two attempts",
				Buckets:   []float64{0, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
			[]string{labelOperation},
		),
		inFlight: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "sequences_in_flight",
				Help:      "Number of retry sequences that started and have not finished yet",
			},
			[]string{labelOperation},
		),
	}

	if reg == nil {
		return c, nil
	}

	var errs []error

	for _, m := range c.collectors() {
		if err := reg.Register(m); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("failed to register retry metrics: %w", errors.Join(errs...))
	}

	return c, nil
}

func (c *Collector) collectors() []prometheus.Collector {
	return []prometheus.Collector{c.attempts, c.retries, c.outcomes, c.delay, c.inFlight}
}

// Observer returns a retry observer that records into the collector under
// the given operation label. It can be shared by concurrent sequences.
func (c *Collector) Observer(operation string) retry.Observer {
	return &observer{
		c:         c,
		operation: operation,
		attempts:  c.attempts.WithLabelValues(operation),
		retries:   c.retries.WithLabelValues(operation),
		delay:     c.delay.WithLabelValues(operation),
		inFlight:  c.inFlight.WithLabelValues(operation),
	}
}

type observer struct {
	c         *Collector
	operation string

	attempts prometheus.Counter
	retries  prometheus.Counter
	delay    prometheus.Observer
	inFlight prometheus.Gauge
}

func (o *observer) OnAttempt(attempt uint) {
	if attempt == 1 {
		o.inFlight.Inc()
	}

	o.attempts.Inc()
}

func (o *observer) OnRetry(_ uint, delay time.Duration, _ error) {
	o.retries.Inc()
	o.delay.Observe(delay.Seconds())
}

func (o *observer) OnDone(outcome retry.Outcome, attempts uint, _ error) {
	// Sequences that never started were not counted as in flight.
	if attempts > 0 {
		o.inFlight.Dec()
	}

	o.c.outcomes.WithLabelValues(o.operation, string(outcome)).Inc()
}
