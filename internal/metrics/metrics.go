package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	namespace = "providerhub"
)

var (
	// Auth Metrics
	LoginAttemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "login_attempts_total",
		Help:      "Count of API login attempts.",
	}, []string{"status"})

	ActivationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "activations_total",
		Help:      "Count of account activation attempts.",
	}, []string{"status"})

	// HTTP Metrics
	RequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "Time taken to serve an HTTP request.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	// Directory Metrics
	ServiceTransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "service_transitions_total",
		Help:      "Count of service listing status transitions.",
	}, []string{"kind"})

	// Notifier Metrics
	NotifierRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifier_runs_total",
		Help:      "Count of review notifier executions.",
	}, []string{"status"})

	NotifierPendingRecords = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "notifier_pending_records",
		Help:      "Update records observed pending at the last notifier run.",
	})
)
