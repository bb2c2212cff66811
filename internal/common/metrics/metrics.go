// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SearchesCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "search_requests_completed_total",
			Help: "Total number of completed search requests",
		},
		[]string{"stage"},
	)

	SearchesFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "search_requests_failed_total",
			Help: "Total number of failed search requests",
		},
		[]string{"stage", "error_code"},
	)

	SearchStageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "search_stage_duration_seconds",
			Help: "Duration of each search pipeline stage in seconds",
		},
		[]string{"stage"},
	)

	LlamaRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "llama_requests_total",
			Help: "Total completion requests sent to the model endpoint",
		},
		[]string{"status"},
	)

	AlertsDelivered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alerts_delivered_total",
			Help: "Saved-search alerts by delivery status",
		},
		[]string{"status"},
	)
)
