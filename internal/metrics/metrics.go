// Package metrics provides Prometheus metrics for the put.io client.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "putio_client_requests_total",
			Help: "Total number of put.io API requests",
		},
		[]string{"route", "status"},
	)

	requestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "putio_client_request_duration_seconds",
			Help:    "put.io API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)

	filesDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "putio_files_dropped_total",
			Help: "Listing entries dropped because they could not be decoded",
		},
	)
)

// StatusTransport labels requests that never got a response.
const StatusTransport = "transport_error"

// RecordRequest records one API exchange. status 0 means no response.
func RecordRequest(route string, status int, duration time.Duration) {
	label := StatusTransport
	if status > 0 {
		label = strconv.Itoa(status)
	}
	requestsTotal.WithLabelValues(route, label).Inc()
	requestDuration.WithLabelValues(route).Observe(duration.Seconds())
}

// RecordDropped counts listing entries skipped during decoding.
func RecordDropped(n int) {
	if n > 0 {
		filesDropped.Add(float64(n))
	}
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
