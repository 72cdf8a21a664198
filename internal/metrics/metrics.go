// Package metrics provides centralized Prometheus metrics registry for the value-bet service.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Global registry instance
var (
	registry *prometheus.Registry
	once     sync.Once
)

// Counter metrics
var (
	FixturesEvaluatedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "valuebet",
		Name:      "fixtures_evaluated_total",
		Help:      "Total number of fixture evaluations by outcome",
	}, []string{"outcome"})
	MarketsSkippedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "valuebet",
		Name:      "markets_skipped_total",
		Help:      "Total number of markets excluded from evaluation by reason",
	}, []string{"reason"})
	ValueBetsSelectedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "valuebet",
		Name:      "value_bets_selected_total",
		Help:      "Total number of candidates returned by the selector",
	})
	RatingUpdatesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "valuebet",
		Name:      "rating_updates_total",
		Help:      "Total number of finished fixtures applied to the rating table",
	})
	CacheRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "valuebet",
		Name:      "cache_requests_total",
		Help:      "Value-bet cache lookups by result",
	}, []string{"result"})
)

// Gauge metrics
var (
	RatingTableVersion = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "valuebet",
		Name:      "rating_table_version",
		Help:      "Current version of the Elo rating table",
	})
	RatedTeams = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "valuebet",
		Name:      "rated_teams",
		Help:      "Number of teams in the rating table",
	})
	LastScanCandidates = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "valuebet",
		Name:      "last_scan_candidates",
		Help:      "Number of value bets returned by the most recent scheduled scan",
	})
	WebsocketClients = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "valuebet",
		Name:      "websocket_clients",
		Help:      "Number of connected value-bet stream clients",
	})
)

// Histogram metrics
var (
	FixtureEvaluationDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "valuebet",
		Name:      "fixture_evaluation_duration_seconds",
		Help:      "Duration of a single fixture evaluation in seconds",
		Buckets:   []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
	})
	ScanDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "valuebet",
		Name:      "scan_duration_seconds",
		Help:      "Duration of batch value-bet scans in seconds",
		Buckets:   prometheus.DefBuckets,
	})
	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "valuebet",
		Name:      "http_request_duration_seconds",
		Help:      "Duration of API requests in seconds",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
)

// InitRegistry initializes the global Prometheus registry.
func InitRegistry() *prometheus.Registry {
	once.Do(func() {
		registry = prometheus.NewRegistry()

		// Register counter metrics
		registry.MustRegister(FixturesEvaluatedTotal)
		registry.MustRegister(MarketsSkippedTotal)
		registry.MustRegister(ValueBetsSelectedTotal)
		registry.MustRegister(RatingUpdatesTotal)
		registry.MustRegister(CacheRequestsTotal)

		// Register gauge metrics
		registry.MustRegister(RatingTableVersion)
		registry.MustRegister(RatedTeams)
		registry.MustRegister(LastScanCandidates)
		registry.MustRegister(WebsocketClients)

		// Register histogram metrics
		registry.MustRegister(FixtureEvaluationDuration)
		registry.MustRegister(ScanDuration)
		registry.MustRegister(HTTPRequestDuration)

		// Register ingestion metrics
		registry.MustRegister(IngestedRecordsTotal)
		registry.MustRegister(FootballAPIRequestsTotal)
		registry.MustRegister(FootballAPILatency)

		// Register backtest metrics
		registry.MustRegister(BacktestRunsTotal)
		registry.MustRegister(BacktestDuration)
		registry.MustRegister(BacktestBrierScore)
	})
	return registry
}

// GetRegistry returns the global Prometheus registry.
func GetRegistry() *prometheus.Registry {
	return InitRegistry()
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.HandlerFor(GetRegistry(), promhttp.HandlerOpts{})
}

// RecordFixtureEvaluation records one fixture evaluation.
// outcome should be one of: "ok", "insufficient_data", "error"
func RecordFixtureEvaluation(outcome string, durationSeconds float64) {
	FixturesEvaluatedTotal.WithLabelValues(outcome).Inc()
	FixtureEvaluationDuration.Observe(durationSeconds)
}

// RecordMarketSkipped records a market excluded from evaluation.
// reason should be one of: "invalid", "unsupported"
func RecordMarketSkipped(reason string) {
	MarketsSkippedTotal.WithLabelValues(reason).Inc()
}

// RecordScan records a completed batch scan.
func RecordScan(selected int, durationSeconds float64) {
	ValueBetsSelectedTotal.Add(float64(selected))
	ScanDuration.Observe(durationSeconds)
}

// RecordRatingUpdate records an applied rating update and the table version.
func RecordRatingUpdate(version uint64) {
	RatingUpdatesTotal.Inc()
	RatingTableVersion.Set(float64(version))
}

// UpdateRatedTeams updates the rated teams gauge.
func UpdateRatedTeams(count int) {
	RatedTeams.Set(float64(count))
}

// UpdateLastScanCandidates updates the scheduled scan gauge.
func UpdateLastScanCandidates(count int) {
	LastScanCandidates.Set(float64(count))
}

// RecordCacheHit records a cache hit.
func RecordCacheHit() {
	CacheRequestsTotal.WithLabelValues("hit").Inc()
}

// RecordCacheMiss records a cache miss.
func RecordCacheMiss() {
	CacheRequestsTotal.WithLabelValues("miss").Inc()
}

// UpdateWebsocketClients updates the connected clients gauge.
func UpdateWebsocketClients(count int) {
	WebsocketClients.Set(float64(count))
}

// RecordHTTPRequest records an API request.
func RecordHTTPRequest(method, route, status string, durationSeconds float64) {
	HTTPRequestDuration.WithLabelValues(method, route, status).Observe(durationSeconds)
}
