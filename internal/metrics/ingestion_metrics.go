package metrics

import "github.com/prometheus/client_golang/prometheus"

// Ingestion counter vectors
var (
	IngestedRecordsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "valuebet",
		Name:      "ingested_records_total",
		Help:      "Records received from the football feed by feed and result",
	}, []string{"feed", "result"})
	FootballAPIRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "valuebet",
		Name:      "football_api_requests_total",
		Help:      "Requests made to the football data API by endpoint and status",
	}, []string{"endpoint", "status"})
)

// Ingestion histograms
var (
	FootballAPILatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "valuebet",
		Name:      "football_api_latency_seconds",
		Help:      "Latency of football data API requests in seconds",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	}, []string{"endpoint"})
)

// RecordIngested records ingestion results for one feed pull.
// result should be one of: "stored", "rejected", "unchanged"
func RecordIngested(feed, result string, count int) {
	if count <= 0 {
		return
	}
	IngestedRecordsTotal.WithLabelValues(feed, result).Add(float64(count))
}

// RecordFootballAPIRequest records one upstream API call.
func RecordFootballAPIRequest(endpoint, status string, durationSeconds float64) {
	FootballAPIRequestsTotal.WithLabelValues(endpoint, status).Inc()
	FootballAPILatency.WithLabelValues(endpoint).Observe(durationSeconds)
}
