package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "onepage_http_requests_total",
		Help: "HTTP requests by route and status code",
	}, []string{"method", "route", "code"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "onepage_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.005, 4, 9), // 5ms to ~5min
	}, []string{"method", "route"})

	// fitsInFlight tracks the fit slots in use
	fitsInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "onepage_fits_in_flight",
		Help: "Fits currently running on this server",
	})

	rateLimited = promauto.NewCounter(prometheus.CounterOpts{
		Name: "onepage_http_rate_limited_total",
		Help: "Requests rejected by the rate limiter",
	})
)
