package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/yourusername/valuebet/internal/database"
	"github.com/yourusername/valuebet/internal/probability"
)

// PostgresRatingRepository implements RatingRepository for PostgreSQL
type PostgresRatingRepository struct {
	db *database.DB
}

// NewPostgresRatingRepository creates a new rating repository
func NewPostgresRatingRepository(db *database.DB) RatingRepository {
	return &PostgresRatingRepository{db: db}
}

// Load returns all persisted ratings and the fixtures already folded into them
func (r *PostgresRatingRepository) Load(ctx context.Context) ([]probability.Rating, []int64, error) {
	rows, err := r.db.Query(ctx, `SELECT team_id, rating, matches, version, updated_at FROM team_ratings ORDER BY team_id`)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query ratings: %w", err)
	}
	ratings, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (probability.Rating, error) {
		var rating probability.Rating
		var version int64
		err := row.Scan(&rating.TeamID, &rating.Rating, &rating.Matches, &version, &rating.UpdatedAt)
		rating.Version = uint64(version)
		return rating, err
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to scan ratings: %w", err)
	}

	rows, err = r.db.Query(ctx, `SELECT fixture_id FROM rating_applied_fixtures ORDER BY fixture_id`)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query applied fixtures: %w", err)
	}
	applied, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, nil, fmt.Errorf("failed to scan applied fixtures: %w", err)
	}

	return ratings, applied, nil
}

// Save upserts ratings and records applied fixtures in one transaction
func (r *PostgresRatingRepository) Save(ctx context.Context, ratings []probability.Rating, appliedFixtures []int64) error {
	return r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		return writeRatings(ctx, tx, ratings, appliedFixtures)
	})
}

// Replace discards the stored table and writes a rebuilt one
func (r *PostgresRatingRepository) Replace(ctx context.Context, ratings []probability.Rating, appliedFixtures []int64) error {
	return r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `TRUNCATE team_ratings, rating_applied_fixtures`); err != nil {
			return fmt.Errorf("failed to clear ratings: %w", err)
		}
		return writeRatings(ctx, tx, ratings, appliedFixtures)
	})
}

func writeRatings(ctx context.Context, tx pgx.Tx, ratings []probability.Rating, appliedFixtures []int64) error {
	batch := &pgx.Batch{}
	for _, rating := range ratings {
		batch.Queue(`
			INSERT INTO team_ratings (team_id, rating, matches, version, updated_at)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (team_id) DO UPDATE SET
				rating = EXCLUDED.rating,
				matches = EXCLUDED.matches,
				version = EXCLUDED.version,
				updated_at = EXCLUDED.updated_at
			WHERE team_ratings.version <= EXCLUDED.version`,
			rating.TeamID, rating.Rating, rating.Matches, int64(rating.Version), rating.UpdatedAt,
		)
	}
	for _, id := range appliedFixtures {
		batch.Queue(`INSERT INTO rating_applied_fixtures (fixture_id) VALUES ($1) ON CONFLICT DO NOTHING`, id)
	}
	if batch.Len() == 0 {
		return nil
	}

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to write ratings: %w", err)
	}
	return nil
}
