// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RecordsScored = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scoring_records_scored_total",
			Help: "Total number of customer records scored, by risk category",
		},
		[]string{"risk_category"},
	)

	RecordsRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scoring_records_rejected_total",
			Help: "Total number of customer records rejected, by error code",
		},
		[]string{"error_code"},
	)

	BatchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name: "scoring_batch_duration_seconds",
			Help: "Duration of full batch scoring runs in seconds",
		},
	)

	AlertsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scoring_intervention_alerts_sent_total",
			Help: "Total number of intervention alerts sent, by channel",
		},
		[]string{"channel"},
	)
)
