package api

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tit_http_requests_total",
		Help: "HTTP requests by route, method and status",
	}, []string{"route", "method", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tit_http_request_duration_seconds",
		Help:    "HTTP request latency by route",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})

	commitsStored = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tit_commits_stored_total",
		Help: "Commits uploaded to this server",
	})

	commitsServed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tit_commits_served_total",
		Help: "Commits downloaded from this server",
	})
)
