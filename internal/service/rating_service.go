package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/yourusername/valuebet/internal/logger"
	"github.com/yourusername/valuebet/internal/metrics"
	"github.com/yourusername/valuebet/internal/models"
	"github.com/yourusername/valuebet/internal/probability"
	"github.com/yourusername/valuebet/internal/repository"
)

// RatingService owns the live rating table and keeps it persisted
type RatingService struct {
	params   probability.EloParams
	fixtures repository.FixtureRepository
	repo     repository.RatingRepository
	log      *logger.IngestionLogger

	// writeMu serializes Apply and Rebuild
	writeMu sync.Mutex

	mu    sync.RWMutex
	table *probability.RatingTable
	now   func() time.Time
}

// NewRatingService creates a rating service with an empty table
func NewRatingService(params probability.EloParams, fixtures repository.FixtureRepository, repo repository.RatingRepository, log *logger.IngestionLogger) *RatingService {
	return &RatingService{
		params:   params,
		fixtures: fixtures,
		repo:     repo,
		log:      log,
		table:    probability.NewRatingTable(params),
		now:      time.Now,
	}
}

func (s *RatingService) current() *probability.RatingTable {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.table
}

// Snapshot returns an immutable copy of the current ratings
func (s *RatingService) Snapshot() *probability.RatingSnapshot {
	return s.current().Snapshot()
}

// Load restores the table from storage. An empty store triggers a rebuild
// from finished fixtures.
func (s *RatingService) Load(ctx context.Context) error {
	ratings, applied, err := s.repo.Load(ctx)
	if err != nil {
		return fmt.Errorf("load ratings: %w", err)
	}
	if len(ratings) == 0 {
		return s.Rebuild(ctx)
	}

	table := probability.NewRatingTable(s.params)
	table.Restore(ratings, applied)
	s.swap(table)
	return nil
}

// Apply folds a finished fixture into the table and persists both teams.
// Returns false when the fixture was already applied. When the save fails the
// in-memory update is reverted so a later Apply retries it.
func (s *RatingService) Apply(ctx context.Context, f models.Fixture) (bool, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	table := s.current()
	update, applied, err := table.Apply(f)
	if err != nil || !applied {
		return false, err
	}

	home, _ := table.Get(update.HomeTeamID)
	away, _ := table.Get(update.AwayTeamID)
	if err := s.repo.Save(ctx, []probability.Rating{home, away}, []int64{f.ID}); err != nil {
		if !table.Revert(update) {
			s.log.WithField("fixture_id", f.ID).Error("Failed to revert unsaved rating update")
		}
		return false, fmt.Errorf("persist rating update for fixture %d: %w", f.ID, err)
	}

	metrics.RecordRatingUpdate(update.Version)
	s.log.LogRatingUpdate(f.ID, update.HomeTeamID, update.AwayTeamID, update.HomeBefore, update.HomeAfter, update.AwayBefore, update.AwayAfter, update.Version)
	return true, nil
}

// Rebuild replays every finished fixture into a fresh table, persists it and
// swaps it in. Evaluations holding an older snapshot are unaffected.
func (s *RatingService) Rebuild(ctx context.Context) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	start := time.Now()

	history, err := s.fixtures.ListFinished(ctx, time.Time{}, s.now())
	if err != nil {
		return fmt.Errorf("list finished fixtures: %w", err)
	}

	table := probability.RebuildFromHistory(s.params, history)
	snapshot := table.Snapshot()
	if err := s.repo.Replace(ctx, snapshot.Ratings(), table.AppliedFixtures()); err != nil {
		return fmt.Errorf("persist rebuilt ratings: %w", err)
	}
	s.swap(table)

	metrics.RecordRatingUpdate(table.Version())
	s.log.LogRatingRebuild(len(history), len(snapshot.Ratings()), table.Version(), float64(time.Since(start).Milliseconds()))
	return nil
}

func (s *RatingService) swap(table *probability.RatingTable) {
	s.mu.Lock()
	s.table = table
	s.mu.Unlock()
	metrics.UpdateRatedTeams(len(table.Snapshot().Ratings()))
}
