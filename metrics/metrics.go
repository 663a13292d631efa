// Package metrics collects run statistics for the convert and validate
// commands in a private Prometheus registry.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "citybridge"

// Outcome labels.
const (
	OutcomeSuccess       = "success"
	OutcomeFailure       = "failure"
	OutcomePassed        = "passed"
	OutcomeFailed        = "failed"
	OutcomeMissingTarget = "missing_target"
)

// Metrics holds the collectors for one process.
type Metrics struct {
	registry *prometheus.Registry

	conversions       *prometheus.CounterVec
	buildings         prometheus.Counter
	conversionSeconds prometheus.Histogram
	validations       *prometheus.CounterVec
}

// New creates a Metrics with its own registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		conversions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "conversions_total",
			Help:      "Converted input files by outcome.",
		}, []string{"outcome"}),
		buildings: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "buildings_processed_total",
			Help:      "Buildings written to CityGML output.",
		}),
		conversionSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "conversion_duration_seconds",
			Help:      "Time spent converting one input file.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
		}),
		validations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "validations_total",
			Help:      "Validated file pairs by outcome.",
		}, []string{"outcome"}),
	}
	m.registry.MustRegister(m.conversions, m.buildings, m.conversionSeconds, m.validations)
	return m
}

// ObserveConversion records one converted file.
func (m *Metrics) ObserveConversion(success bool, buildings int, d time.Duration) {
	outcome := OutcomeSuccess
	if !success {
		outcome = OutcomeFailure
	}
	m.conversions.WithLabelValues(outcome).Inc()
	m.buildings.Add(float64(buildings))
	m.conversionSeconds.Observe(d.Seconds())
}

// ObserveValidation records one validated pair.
func (m *Metrics) ObserveValidation(passed, missingTarget bool) {
	outcome := OutcomePassed
	switch {
	case missingTarget:
		outcome = OutcomeMissingTarget
	case !passed:
		outcome = OutcomeFailed
	}
	m.validations.WithLabelValues(outcome).Inc()
}

// WriteToTextfile writes the registry in the text exposition format, for
// pickup by a node_exporter textfile collector.
func (m *Metrics) WriteToTextfile(filename string) error {
	if err := prometheus.WriteToTextfile(filename, m.registry); err != nil {
		return fmt.Errorf("write metrics to %s: %w", filename, err)
	}
	return nil
}
