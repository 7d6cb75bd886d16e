package main

import (
	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "facility_booking"

// Collector is a prometheus.Collector for the booking server.
type Collector struct {
	requests         *prometheus.CounterVec
	duplicateReplies prometheus.Counter
	droppedDatagrams *prometheus.CounterVec
	callbacks        *prometheus.CounterVec
	liveMonitors     prometheus.Gauge
	historyEntries   prometheus.Gauge
	activeBookings   prometheus.Gauge
}

// NewMetricsCollector returns a new Collector.
func NewMetricsCollector() *Collector {
	return &Collector{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "requests_total",
				Help:      "Requests executed, by message type and reply outcome.",
			}, []string{"type", "outcome"},
		),
		duplicateReplies: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "duplicate_replies_total",
				Help:      "Requests answered from the reply history without re-execution.",
			},
		),
		droppedDatagrams: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "dropped_datagrams_total",
				Help:      "Datagrams discarded by fault injection.",
			}, []string{"direction"},
		),
		callbacks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "monitor_callbacks_total",
				Help:      "Monitor update datagrams attempted, by result.",
			}, []string{"result"},
		),
		liveMonitors: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Name:      "live_monitors",
				Help:      "Monitor registrations that have not expired.",
			},
		),
		historyEntries: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Name:      "history_entries",
				Help:      "Replies held for duplicate suppression.",
			},
		),
		activeBookings: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Name:      "active_bookings",
				Help:      "Bookings that have not been cancelled.",
			},
		),
	}
}

// Describe is part of the prometheus.Collector interface.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	c.requests.Describe(ch)
	c.duplicateReplies.Describe(ch)
	c.droppedDatagrams.Describe(ch)
	c.callbacks.Describe(ch)
	c.liveMonitors.Describe(ch)
	c.historyEntries.Describe(ch)
	c.activeBookings.Describe(ch)
}

// Collect is part of the prometheus.Collector interface.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.requests.Collect(ch)
	c.duplicateReplies.Collect(ch)
	c.droppedDatagrams.Collect(ch)
	c.callbacks.Collect(ch)
	c.liveMonitors.Collect(ch)
	c.historyEntries.Collect(ch)
	c.activeBookings.Collect(ch)
}
