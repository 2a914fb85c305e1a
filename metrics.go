package main

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Prometheus metrics
// Package-level so the store, handlers and middleware can all update them

var (
	// httpRequestsTotal counts all HTTP requests
	// Labels slice by method (GET/POST), normalized path (/api/todos/:id) and
	// status (200/303/404/507)
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "todoapp_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// httpRequestDuration tracks response time distribution
	// No status label: it's a histogram per route, not per outcome
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "todoapp_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// todoItemsTotal is the number of items in the last state loaded or saved
	// Gauge because it goes up on create and down on delete or clear
	todoItemsTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "todoapp_items_total",
			Help: "Current number of todo items in storage",
		},
	)

	// storageResetsTotal counts unreadable or corrupt state blobs replaced with "{}"
	// A missing key on first start isn't counted, that's the normal empty state
	storageResetsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "todoapp_storage_resets_total",
			Help: "Total number of times unreadable todo state was reset",
		},
	)

	// storageWriteFailuresTotal counts rejected writes (quota, medium errors)
	// The page swallows these, so this counter is where they show up
	storageWriteFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "todoapp_storage_write_failures_total",
			Help: "Total number of failed todo state writes",
		},
	)

	// buildInfo is always 1, labels carry the metadata
	buildInfo = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "todoapp_info",
			Help: "Build information (always 1)",
		},
		[]string{"version"},
	)
)

// version is overridden at build time with -ldflags "-X main.version=..."
var version = "dev"

// init registers all metrics with the default Prometheus registry, which is
// what promhttp.Handler serves on /metrics
func init() {
	prometheus.MustRegister(httpRequestsTotal)
	prometheus.MustRegister(httpRequestDuration)
	prometheus.MustRegister(todoItemsTotal)
	prometheus.MustRegister(storageResetsTotal)
	prometheus.MustRegister(storageWriteFailuresTotal)
	prometheus.MustRegister(buildInfo)

	buildInfo.WithLabelValues(version).Set(1)
}
