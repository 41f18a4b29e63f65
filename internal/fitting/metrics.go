package fitting

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// iterationsTotal counts iterations by outcome: accepted, rejected or failed
	iterationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "onepage_fit_iterations_total",
		Help: "Fitting loop iterations by outcome",
	}, []string{"outcome"})

	// iterationDuration tracks the wall time of one transform, render and score pass
	iterationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "onepage_fit_iteration_duration_seconds",
		Help:    "Fitting loop iteration duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.25, 2, 10), // 250ms to ~2min
	}, []string{"level"})

	// runsTotal counts finished runs by stop reason
	runsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "onepage_fit_runs_total",
		Help: "Finished fitting runs by stop reason",
	}, []string{"stop_reason"})

	// renderFallbacks counts renders retried in fallback mode
	renderFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "onepage_fit_render_fallbacks_total",
		Help: "Renders retried with the fallback template",
	})

	// finalPressure tracks the terminal pressure of each run
	finalPressure = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "onepage_fit_final_pressure",
		Help:    "Terminal pressure of finished runs",
		Buckets: prometheus.LinearBuckets(0.3, 0.1, 7),
	})
)
