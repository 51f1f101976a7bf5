package manager

import "github.com/prometheus/client_golang/prometheus"

var (
	loadsTotalMetric = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "inferd",
		Subsystem: "manager",
		Name:      "loads_total",
		Help:      "Total number of successful model loads",
	})

	unloadsTotalMetric = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "inferd",
		Subsystem: "manager",
		Name:      "unloads_total",
		Help:      "Total number of model unloads (including swaps)",
	})

	inferenceDurationMetric = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "inferd",
		Subsystem: "manager",
		Name:      "inference_duration_seconds",
		Help:      "Duration of successful inference runs",
		Buckets:   prometheus.ExponentialBuckets(0.01, 2, 14),
	}, []string{"capability"})

	inferenceErrorsMetric = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "inferd",
		Subsystem: "manager",
		Name:      "inference_errors_total",
		Help:      "Total number of failed inference runs",
	}, []string{"capability"})
)

func init() {
	prometheus.MustRegister(loadsTotalMetric, unloadsTotalMetric, inferenceDurationMetric, inferenceErrorsMetric)
}
