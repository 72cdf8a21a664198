package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/yourusername/valuebet/internal/database"
	"github.com/yourusername/valuebet/internal/models"
)

const fixtureColumns = `id, kickoff, league_id, league_name, season, home_team_id, home_team,
	away_team_id, away_team, status, home_goals, away_goals, updated_at`

// PostgresFixtureRepository implements FixtureRepository for PostgreSQL
type PostgresFixtureRepository struct {
	db *database.DB
}

// NewPostgresFixtureRepository creates a new fixture repository
func NewPostgresFixtureRepository(db *database.DB) FixtureRepository {
	return &PostgresFixtureRepository{db: db}
}

// scanFixture reads one fixture row; a score is attached only when both goal
// columns are set.
func scanFixture(row pgx.Row) (*models.Fixture, error) {
	f := &models.Fixture{}
	var status string
	var homeGoals, awayGoals *int
	err := row.Scan(
		&f.ID, &f.Kickoff, &f.LeagueID, &f.LeagueName, &f.Season, &f.HomeTeamID, &f.HomeTeam,
		&f.AwayTeamID, &f.AwayTeam, &status, &homeGoals, &awayGoals, &f.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	f.Status = models.FixtureStatus(status)
	f.Score = scoreFromColumns(homeGoals, awayGoals)
	return f, nil
}

func scoreFromColumns(home, away *int) *models.Score {
	if home == nil || away == nil {
		return nil
	}
	return &models.Score{Home: *home, Away: *away}
}

func scoreColumns(score *models.Score) (home, away *int) {
	if score == nil {
		return nil, nil
	}
	h, a := score.Home, score.Away
	return &h, &a
}

func collectFixtures(rows pgx.Rows) ([]models.Fixture, error) {
	defer rows.Close()

	fixtures := []models.Fixture{}
	for rows.Next() {
		f, err := scanFixture(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan fixture: %w", err)
		}
		fixtures = append(fixtures, *f)
	}
	return fixtures, rows.Err()
}

// GetFixture retrieves a fixture by id
func (r *PostgresFixtureRepository) GetFixture(ctx context.Context, id int64) (*models.Fixture, error) {
	query := `SELECT ` + fixtureColumns + ` FROM fixtures WHERE id = $1`

	f, err := scanFixture(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get fixture: %w", err)
	}
	return f, nil
}

// ListUpcoming retrieves fixtures that are not finished with kickoff in [from, to)
func (r *PostgresFixtureRepository) ListUpcoming(ctx context.Context, from, to time.Time, leagueID *int64) ([]models.Fixture, error) {
	query := `
		SELECT ` + fixtureColumns + `
		FROM fixtures
		WHERE status <> 'finished' AND kickoff >= $1 AND kickoff < $2
		  AND ($3::bigint IS NULL OR league_id = $3)
		ORDER BY kickoff ASC, id ASC
	`

	rows, err := r.db.Query(ctx, query, from, to, leagueID)
	if err != nil {
		return nil, fmt.Errorf("failed to query upcoming fixtures: %w", err)
	}
	return collectFixtures(rows)
}

// ListFinished retrieves finished fixtures with kickoff in [from, to), oldest first
func (r *PostgresFixtureRepository) ListFinished(ctx context.Context, from, to time.Time) ([]models.Fixture, error) {
	query := `
		SELECT ` + fixtureColumns + `
		FROM fixtures
		WHERE status = 'finished' AND kickoff >= $1 AND kickoff < $2
		ORDER BY kickoff ASC, id ASC
	`

	rows, err := r.db.Query(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query finished fixtures: %w", err)
	}
	return collectFixtures(rows)
}

// TeamHistory retrieves the team's most recent finished fixtures before a
// time, returned oldest first.
func (r *PostgresFixtureRepository) TeamHistory(ctx context.Context, teamID int64, before time.Time, limit int) ([]models.Fixture, error) {
	query := `
		SELECT * FROM (
			SELECT ` + fixtureColumns + `
			FROM fixtures
			WHERE status = 'finished' AND kickoff < $2
			  AND (home_team_id = $1 OR away_team_id = $1)
			ORDER BY kickoff DESC, id DESC
			LIMIT $3
		) recent
		ORDER BY kickoff ASC, id ASC
	`

	rows, err := r.db.Query(ctx, query, teamID, before, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query team history: %w", err)
	}
	return collectFixtures(rows)
}

// Upsert inserts or updates a fixture. Rows already finished are never
// overwritten; status transitions are checked by the caller.
func (r *PostgresFixtureRepository) Upsert(ctx context.Context, f *models.Fixture) error {
	query := `
		INSERT INTO fixtures (id, kickoff, league_id, league_name, season, home_team_id, home_team,
			away_team_id, away_team, status, home_goals, away_goals, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NOW())
		ON CONFLICT (id) DO UPDATE SET
			kickoff = EXCLUDED.kickoff,
			league_name = EXCLUDED.league_name,
			home_team = EXCLUDED.home_team,
			away_team = EXCLUDED.away_team,
			status = EXCLUDED.status,
			home_goals = EXCLUDED.home_goals,
			away_goals = EXCLUDED.away_goals,
			updated_at = NOW()
		WHERE fixtures.status <> 'finished'
	`

	homeGoals, awayGoals := scoreColumns(f.Score)
	_, err := r.db.Exec(ctx, query,
		f.ID, f.Kickoff, f.LeagueID, f.LeagueName, f.Season, f.HomeTeamID, f.HomeTeam,
		f.AwayTeamID, f.AwayTeam, string(f.Status), homeGoals, awayGoals,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert fixture: %w", err)
	}
	return nil
}
