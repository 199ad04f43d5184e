// Package metrics holds the Prometheus collectors of the question server.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5},
		},
		[]string{"method", "endpoint"},
	)

	QuestionsGenerated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "drill_questions_generated_total",
			Help: "Questions handed out, by question type",
		},
		[]string{"type"},
	)

	SessionsSubmitted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "drill_sessions_submitted_total",
			Help: "Submitted session record sets, by question type",
		},
		[]string{"type"},
	)

	Uploads = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "drill_uploads_total",
			Help: "Notion upload attempts, by outcome",
		},
		[]string{"result"},
	)

	NotionRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "drill_notion_request_duration_seconds",
			Help:    "Duration of Notion API calls",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)
)

var initOnce sync.Once

// Init registers the collectors with the default registry. Safe to call
// more than once.
func Init() {
	initOnce.Do(func() {
		prometheus.MustRegister(
			RequestCounter,
			RequestDuration,
			QuestionsGenerated,
			SessionsSubmitted,
			Uploads,
			NotionRequestDuration,
		)
	})
}

func Handler() http.Handler {
	return promhttp.Handler()
}
