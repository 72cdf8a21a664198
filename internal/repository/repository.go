package repository

import (
	"fmt"

	"github.com/yourusername/valuebet/internal/database"
)

// Repositories holds all repository implementations
type Repositories struct {
	Fixture FixtureRepository
	Odds    OddsRepository
	Rating  RatingRepository
}

// NewRepositories creates and returns all repository implementations
func NewRepositories(db *database.DB) (*Repositories, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	return &Repositories{
		Fixture: NewPostgresFixtureRepository(db),
		Odds:    NewPostgresOddsRepository(db),
		Rating:  NewPostgresRatingRepository(db),
	}, nil
}
