package metrics

import "github.com/prometheus/client_golang/prometheus"

// Backtest counter vectors
var (
	BacktestRunsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "valuebet",
		Name:      "backtest_runs_total",
		Help:      "Total number of calibration backtest runs by status",
	}, []string{"status"})
)

// Backtest histograms and gauges
var (
	BacktestDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "valuebet",
		Name:      "backtest_duration_seconds",
		Help:      "Duration of backtest runs in seconds",
		Buckets:   []float64{1, 5, 10, 30, 60, 300, 600, 1800},
	})
	BacktestBrierScore = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "valuebet",
		Name:      "backtest_brier_score",
		Help:      "1X2 Brier score of the most recent backtest run",
	})
)

// RecordBacktestRun records a backtest run event.
// status should be one of: "success", "failure"
func RecordBacktestRun(status string, durationSeconds, brier float64) {
	BacktestRunsTotal.WithLabelValues(status).Inc()
	BacktestDuration.Observe(durationSeconds)
	if status == "success" {
		BacktestBrierScore.Set(brier)
	}
}
