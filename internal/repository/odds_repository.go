package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/yourusername/valuebet/internal/database"
	"github.com/yourusername/valuebet/internal/models"
)

var quoteColumns = []string{"fixture_id", "market", "selection", "bookmaker", "odds", "observed_at"}

// PostgresOddsRepository implements OddsRepository for PostgreSQL
type PostgresOddsRepository struct {
	db *database.DB
}

// NewPostgresOddsRepository creates a new odds repository
func NewPostgresOddsRepository(db *database.DB) OddsRepository {
	return &PostgresOddsRepository{db: db}
}

// InsertBatch appends quotes using COPY and returns the number of rows written
func (o *PostgresOddsRepository) InsertBatch(ctx context.Context, quotes []models.OddsQuote) (int64, error) {
	if len(quotes) == 0 {
		return 0, nil
	}

	rows := make([][]any, len(quotes))
	for i, q := range quotes {
		rows[i] = []any{q.FixtureID, q.Market, q.Selection, q.Bookmaker, q.Odds, q.ObservedAt}
	}

	count, err := o.db.GetPool().CopyFrom(ctx, pgx.Identifier{"odds_quotes"}, quoteColumns, pgx.CopyFromRows(rows))
	if err != nil {
		return 0, fmt.Errorf("failed to batch insert odds quotes: %w", err)
	}

	if count != int64(len(quotes)) {
		return count, fmt.Errorf("inserted %d rows, expected %d", count, len(quotes))
	}

	return count, nil
}

// QuotesForFixture retrieves every recorded quote for a fixture, oldest first.
// An empty market returns all markets.
func (o *PostgresOddsRepository) QuotesForFixture(ctx context.Context, fixtureID int64, market string) ([]models.OddsQuote, error) {
	query := `
		SELECT fixture_id, market, selection, bookmaker, odds, observed_at
		FROM odds_quotes
		WHERE fixture_id = $1 AND ($2 = '' OR market = $2)
		ORDER BY observed_at ASC
	`

	rows, err := o.db.Query(ctx, query, fixtureID, market)
	if err != nil {
		return nil, fmt.Errorf("failed to query odds by fixture: %w", err)
	}
	return collectQuotes(rows)
}

// QuotesBetween retrieves quotes for fixtures kicking off in [from, to)
func (o *PostgresOddsRepository) QuotesBetween(ctx context.Context, from, to time.Time) ([]models.OddsQuote, error) {
	query := `
		SELECT q.fixture_id, q.market, q.selection, q.bookmaker, q.odds, q.observed_at
		FROM odds_quotes q
		JOIN fixtures f ON f.id = q.fixture_id
		WHERE f.kickoff >= $1 AND f.kickoff < $2
		ORDER BY q.fixture_id ASC, q.observed_at ASC
	`

	rows, err := o.db.Query(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query odds by kickoff range: %w", err)
	}
	return collectQuotes(rows)
}

func collectQuotes(rows pgx.Rows) ([]models.OddsQuote, error) {
	defer rows.Close()

	quotes := []models.OddsQuote{}
	for rows.Next() {
		var q models.OddsQuote
		if err := rows.Scan(&q.FixtureID, &q.Market, &q.Selection, &q.Bookmaker, &q.Odds, &q.ObservedAt); err != nil {
			return nil, fmt.Errorf("failed to scan odds: %w", err)
		}
		quotes = append(quotes, q)
	}
	return quotes, rows.Err()
}
