package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/yourusername/valuebet/internal/datasource"
	"github.com/yourusername/valuebet/internal/logger"
	"github.com/yourusername/valuebet/internal/models"
	"github.com/yourusername/valuebet/internal/odds"
	"github.com/yourusername/valuebet/internal/repository"
)

const (
	feedFixtures = "fixtures"
	feedOdds     = "odds"
)

// IngestionConfig selects what the ingestion service pulls
type IngestionConfig struct {
	Leagues       []int64
	Season        int
	Bookmakers    []int
	LookaheadDays int
}

// IngestionService pulls fixtures and odds from the provider, validates them
// and writes them to storage. Newly finished fixtures are applied to ratings.
type IngestionService struct {
	source     datasource.FootballDataSource
	fixtures   repository.FixtureRepository
	odds       repository.OddsRepository
	ratings    *RatingService
	validator  *DataValidator
	normalizer *DataNormalizer
	log        *logger.IngestionLogger
	cfg        IngestionConfig
	now        func() time.Time
}

// NewIngestionService creates a new ingestion service. ratings may be nil.
func NewIngestionService(
	source datasource.FootballDataSource,
	fixtures repository.FixtureRepository,
	odds repository.OddsRepository,
	ratings *RatingService,
	log *logger.IngestionLogger,
	cfg IngestionConfig,
) *IngestionService {
	if cfg.LookaheadDays <= 0 {
		cfg.LookaheadDays = 7
	}
	return &IngestionService{
		source:     source,
		fixtures:   fixtures,
		odds:       odds,
		ratings:    ratings,
		validator:  NewDataValidator(),
		normalizer: NewDataNormalizer(),
		log:        log,
		cfg:        cfg,
		now:        time.Now,
	}
}

// SyncFixtures fetches fixtures in [from, to] for every configured league.
// A failure for one league is recorded and the others continue.
func (s *IngestionService) SyncFixtures(ctx context.Context, from, to time.Time) (*IngestionReport, error) {
	report := NewIngestionReport(feedFixtures)
	defer func() {
		report.Finish()
		s.log.LogIngestion(feedFixtures, report.Received, report.Stored, report.Rejected, float64(report.Duration.Milliseconds()))
	}()

	var lastErr error
	for _, leagueID := range s.cfg.Leagues {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		data, err := s.source.FetchFixtures(ctx, datasource.FixtureQuery{LeagueID: leagueID, Season: s.cfg.Season, From: from, To: to})
		if err != nil {
			report.RecordError()
			lastErr = fmt.Errorf("fetch fixtures for league %d: %w", leagueID, err)
			s.log.WithError(err).WithField("league_id", leagueID).Error("Fixture fetch failed")
			continue
		}
		report.RecordReceived(len(data))

		for _, d := range data {
			if err := s.ingestFixture(ctx, d, report); err != nil {
				return report, err
			}
		}
	}

	if report.Received == 0 && lastErr != nil {
		return report, lastErr
	}
	return report, nil
}

// ingestFixture stores one fixture. Only storage errors are returned;
// invalid records are counted and logged.
func (s *IngestionService) ingestFixture(ctx context.Context, d datasource.FixtureData, report *IngestionReport) error {
	incoming, err := d.ToFixture()
	if err == nil {
		s.normalizer.NormalizeFixture(&incoming)
		err = s.validator.ValidateFixture(&incoming)
	}
	if err != nil {
		report.RecordRejected()
		s.log.LogRejected(feedFixtures, d.SourceID, err)
		return nil
	}

	stored, err := s.fixtures.GetFixture(ctx, incoming.ID)
	switch {
	case errors.Is(err, models.ErrNotFound):
		stored = nil
	case err != nil:
		report.RecordError()
		return fmt.Errorf("load fixture %d: %w", incoming.ID, err)
	}

	next := incoming
	if stored != nil {
		if stored.Status == models.FixtureFinished && incoming.Status == models.FixtureFinished &&
			stored.Score != nil && incoming.Score != nil && *stored.Score == *incoming.Score {
			report.RecordUnchanged()
			return s.applyRating(ctx, *stored)
		}
		next = *stored
		if err := next.Transition(incoming.Status, incoming.Score); err != nil {
			report.RecordRejected()
			s.log.LogRejected(feedFixtures, incoming.ID, err)
			return nil
		}
		next.Kickoff = incoming.Kickoff
		next.LeagueName = incoming.LeagueName
		next.HomeTeam = incoming.HomeTeam
		next.AwayTeam = incoming.AwayTeam
	}

	if err := s.fixtures.Upsert(ctx, &next); err != nil {
		report.RecordError()
		return fmt.Errorf("store fixture %d: %w", next.ID, err)
	}
	report.RecordStored(1)

	return s.applyRating(ctx, next)
}

func (s *IngestionService) applyRating(ctx context.Context, f models.Fixture) error {
	if s.ratings == nil || !f.IsFinished() {
		return nil
	}
	if _, err := s.ratings.Apply(ctx, f); err != nil {
		return fmt.Errorf("apply rating for fixture %d: %w", f.ID, err)
	}
	return nil
}

// SyncOdds fetches odds for every configured league on each day of the
// lookahead window. Quotes whose price matches the latest stored quote for the
// same bookmaker and selection are skipped; the rest are appended.
func (s *IngestionService) SyncOdds(ctx context.Context) (*IngestionReport, error) {
	report := NewIngestionReport(feedOdds)
	defer func() {
		report.Finish()
		s.log.LogIngestion(feedOdds, report.Received, report.Stored, report.Rejected, float64(report.Duration.Milliseconds()))
	}()

	bookmakers := s.cfg.Bookmakers
	if len(bookmakers) == 0 {
		bookmakers = []int{0}
	}

	today := s.now().UTC().Truncate(24 * time.Hour)
	var fetched []datasource.OddsData
	var lastErr error
	for _, leagueID := range s.cfg.Leagues {
		for day := 0; day < s.cfg.LookaheadDays; day++ {
			for _, bookmaker := range bookmakers {
				if err := ctx.Err(); err != nil {
					return report, err
				}
				data, err := s.source.FetchOdds(ctx, datasource.OddsQuery{
					LeagueID:  leagueID,
					Season:    s.cfg.Season,
					Date:      today.AddDate(0, 0, day),
					Bookmaker: bookmaker,
				})
				if err != nil {
					report.RecordError()
					lastErr = fmt.Errorf("fetch odds for league %d: %w", leagueID, err)
					s.log.WithError(err).WithField("league_id", leagueID).Error("Odds fetch failed")
					continue
				}
				fetched = append(fetched, data...)
			}
		}
	}
	report.RecordReceived(len(fetched))

	if err := s.storeQuotes(ctx, fetched, report); err != nil {
		return report, err
	}
	if report.Received == 0 && lastErr != nil {
		return report, lastErr
	}
	return report, nil
}

// storeQuotes validates and appends quotes that change the latest stored price
func (s *IngestionService) storeQuotes(ctx context.Context, data []datasource.OddsData, report *IngestionReport) error {
	byFixture := make(map[int64][]models.OddsQuote)
	var order []int64
	for _, d := range data {
		q := s.normalizer.NormalizeOdds(d)
		if err := s.validator.ValidateQuote(&q); err != nil {
			report.RecordRejected()
			s.log.LogRejected(feedOdds, q.FixtureID, err)
			continue
		}
		if _, seen := byFixture[q.FixtureID]; !seen {
			order = append(order, q.FixtureID)
		}
		byFixture[q.FixtureID] = append(byFixture[q.FixtureID], q)
	}

	var fresh []models.OddsQuote
	for _, fixtureID := range order {
		if _, err := s.fixtures.GetFixture(ctx, fixtureID); err != nil {
			if errors.Is(err, models.ErrNotFound) {
				for range byFixture[fixtureID] {
					report.RecordRejected()
				}
				s.log.LogRejected(feedOdds, fixtureID, fmt.Errorf("%w: odds for unknown fixture", models.ErrNotFound))
				continue
			}
			report.RecordError()
			return fmt.Errorf("load fixture %d: %w", fixtureID, err)
		}

		existing, err := s.odds.QuotesForFixture(ctx, fixtureID, "")
		if err != nil {
			report.RecordError()
			return fmt.Errorf("load odds for fixture %d: %w", fixtureID, err)
		}
		latest := make(map[string]float64)
		for _, q := range odds.LatestQuotes(existing, time.Time{}) {
			latest[quoteKey(q)] = q.Odds
		}

		for _, q := range odds.LatestQuotes(byFixture[fixtureID], time.Time{}) {
			if price, ok := latest[quoteKey(q)]; ok && price == q.Odds {
				report.RecordUnchanged()
				continue
			}
			fresh = append(fresh, q)
		}
	}

	stored, err := s.odds.InsertBatch(ctx, fresh)
	if err != nil {
		report.RecordError()
		return fmt.Errorf("store odds: %w", err)
	}
	report.RecordStored(int(stored))
	return nil
}

func quoteKey(q models.OddsQuote) string {
	return q.Market + "|" + q.Selection + "|" + q.Bookmaker
}
