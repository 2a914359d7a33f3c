package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pharmapp_http_requests_total",
		Help: "HTTP requests by route, method and status code.",
	}, []string{"route", "method", "status"})

	RequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pharmapp_http_request_duration_seconds",
		Help:    "HTTP request latency by route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})

	WebhooksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pharmapp_webhooks_total",
		Help: "Inbound payment webhooks by provider and outcome.",
	}, []string{"provider", "outcome"})

	SweepRunsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pharmapp_sweep_runs_total",
		Help: "Completed expiry sweep runs.",
	})

	SweptHoldsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pharmapp_swept_holds_total",
		Help: "Stale escrow holds canceled by the sweeper.",
	})

	SweepErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pharmapp_sweep_errors_total",
		Help: "Per-item failures during expiry sweeps.",
	})
)
