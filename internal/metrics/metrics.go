// Package metrics exposes Prometheus instrumentation for the deliverability
// engine. All increment helpers are nil-safe so services can run without a
// metrics sink in tests.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the engine.
type Metrics struct {
	EventsProcessedTotal *prometheus.CounterVec
	EventsDroppedTotal   *prometheus.CounterVec
	SuppressionsTotal    *prometheus.CounterVec
	RecordsPurgedTotal   prometheus.Counter

	registry *prometheus.Registry
}

// Drop reasons for EventsDroppedTotal.
const (
	DropUnknownRecord = "unknown_record"
	DropGated         = "gated"
)

// New creates a Metrics instance with all metrics registered on a private
// registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		EventsProcessedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "deliverability_events_processed_total",
				Help: "Total number of delivery events applied to a record",
			},
			[]string{"type"},
		),
		EventsDroppedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "deliverability_events_dropped_total",
				Help: "Total number of delivery events dropped without a state change",
			},
			[]string{"reason"},
		),
		SuppressionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "deliverability_suppressions_total",
				Help: "Total number of suppression list upserts",
			},
			[]string{"reason"},
		),
		RecordsPurgedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "deliverability_delivery_records_purged_total",
				Help: "Total number of delivery records removed by retention cleanup",
			},
		),
		registry: reg,
	}

	reg.MustRegister(
		m.EventsProcessedTotal,
		m.EventsDroppedTotal,
		m.SuppressionsTotal,
		m.RecordsPurgedTotal,
	)
	return m
}

// Handler returns an http.Handler serving the registry in the Prometheus
// text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// EventProcessed increments the processed counter for an event type.
func (m *Metrics) EventProcessed(eventType string) {
	if m == nil {
		return
	}
	m.EventsProcessedTotal.WithLabelValues(eventType).Inc()
}

// EventDropped increments the dropped counter for a drop reason.
func (m *Metrics) EventDropped(reason string) {
	if m == nil {
		return
	}
	m.EventsDroppedTotal.WithLabelValues(reason).Inc()
}

// SuppressionAdded increments the suppression counter for a reason.
func (m *Metrics) SuppressionAdded(reason string) {
	if m == nil {
		return
	}
	m.SuppressionsTotal.WithLabelValues(reason).Inc()
}

// RecordsPurged adds n to the purged-records counter.
func (m *Metrics) RecordsPurged(n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.RecordsPurgedTotal.Add(float64(n))
}
