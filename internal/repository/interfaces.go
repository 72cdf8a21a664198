package repository

import (
	"context"
	"time"

	"github.com/yourusername/valuebet/internal/models"
	"github.com/yourusername/valuebet/internal/probability"
)

// FixtureRepository defines the interface for fixture data access
type FixtureRepository interface {
	GetFixture(ctx context.Context, id int64) (*models.Fixture, error)
	ListUpcoming(ctx context.Context, from, to time.Time, leagueID *int64) ([]models.Fixture, error)
	ListFinished(ctx context.Context, from, to time.Time) ([]models.Fixture, error)
	TeamHistory(ctx context.Context, teamID int64, before time.Time, limit int) ([]models.Fixture, error)
	Upsert(ctx context.Context, fixture *models.Fixture) error
}

// OddsRepository defines the interface for odds quote data access
type OddsRepository interface {
	InsertBatch(ctx context.Context, quotes []models.OddsQuote) (int64, error)
	QuotesForFixture(ctx context.Context, fixtureID int64, market string) ([]models.OddsQuote, error)
	QuotesBetween(ctx context.Context, from, to time.Time) ([]models.OddsQuote, error)
}

// RatingRepository defines the interface for rating table persistence
type RatingRepository interface {
	Load(ctx context.Context) ([]probability.Rating, []int64, error)
	Save(ctx context.Context, ratings []probability.Rating, appliedFixtures []int64) error
	Replace(ctx context.Context, ratings []probability.Rating, appliedFixtures []int64) error
}
