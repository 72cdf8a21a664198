package logger

import (
	"github.com/sirupsen/logrus"
)

// AnalysisLogger provides dedicated logging for value-bet evaluation.
type AnalysisLogger struct {
	*logrus.Entry
}

// NewAnalysisLogger creates a new analysis logger.
func NewAnalysisLogger(baseLogger *logrus.Logger) *AnalysisLogger {
	return &AnalysisLogger{
		Entry: baseLogger.WithField("component", "analysis"),
	}
}

// LogFixtureEvaluation logs a completed single-fixture evaluation.
func (al *AnalysisLogger) LogFixtureEvaluation(fixtureID int64, confidence string, marketsPriced, marketsSkipped, candidates int, durationMs float64) {
	al.WithFields(logrus.Fields{
		"fixture_id":             fixtureID,
		"confidence":             confidence,
		"markets_priced":         marketsPriced,
		"markets_skipped":        marketsSkipped,
		"candidates":             candidates,
		"evaluation_duration_ms": durationMs,
	}).Debug("Fixture evaluation completed")
}

// LogFixtureSkipped logs a fixture that produced no evaluation.
func (al *AnalysisLogger) LogFixtureSkipped(fixtureID int64, reason string, err error) {
	al.WithFields(logrus.Fields{
		"fixture_id": fixtureID,
		"reason":     reason,
	}).WithError(err).Warn("Fixture skipped")
}

// LogSelection logs the outcome of a batch scan.
func (al *AnalysisLogger) LogSelection(runID string, evaluated, failures, candidates, selected int, minEdge float64, durationMs float64) {
	al.WithFields(logrus.Fields{
		"run_id":           runID,
		"fixtures":         evaluated,
		"failures":         failures,
		"candidates":       candidates,
		"selected":         selected,
		"min_edge":         minEdge,
		"scan_duration_ms": durationMs,
	}).Info("Value-bet scan completed")
}
