package logger

import (
	"github.com/sirupsen/logrus"
)

// IngestionLogger provides dedicated logging for feed ingestion and rating maintenance.
type IngestionLogger struct {
	*logrus.Entry
}

// NewIngestionLogger creates a new ingestion logger.
func NewIngestionLogger(baseLogger *logrus.Logger) *IngestionLogger {
	return &IngestionLogger{
		Entry: baseLogger.WithField("component", "ingestion"),
	}
}

// LogIngestion logs the result of one feed pull.
func (il *IngestionLogger) LogIngestion(feed string, received, stored, rejected int, durationMs float64) {
	entry := il.WithFields(logrus.Fields{
		"feed":        feed,
		"received":    received,
		"stored":      stored,
		"rejected":    rejected,
		"duration_ms": durationMs,
	})
	if rejected > 0 {
		entry.Warn("Feed ingested with rejected records")
		return
	}
	entry.Info("Feed ingested")
}

// LogRejected logs a single record rejected at validation.
func (il *IngestionLogger) LogRejected(feed string, recordID int64, err error) {
	il.WithFields(logrus.Fields{
		"feed":      feed,
		"record_id": recordID,
	}).WithError(err).Debug("Record rejected")
}

// LogRatingUpdate logs one Elo update.
func (il *IngestionLogger) LogRatingUpdate(fixtureID, homeTeamID, awayTeamID int64, homeBefore, homeAfter, awayBefore, awayAfter float64, version uint64) {
	il.WithFields(logrus.Fields{
		"fixture_id":   fixtureID,
		"home_team_id": homeTeamID,
		"away_team_id": awayTeamID,
		"home_before":  homeBefore,
		"home_after":   homeAfter,
		"away_before":  awayBefore,
		"away_after":   awayAfter,
		"version":      version,
	}).Debug("Rating updated")
}

// LogRatingRebuild logs a full replay of the rating table.
func (il *IngestionLogger) LogRatingRebuild(fixtures, teams int, version uint64, durationMs float64) {
	il.WithFields(logrus.Fields{
		"event_type":  "rating_rebuild",
		"fixtures":    fixtures,
		"teams":       teams,
		"version":     version,
		"duration_ms": durationMs,
	}).Info("Rating table rebuilt")
}
