package database

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/yourusername/valuebet/internal/config"
)

// requiredTables must exist before the service starts
var requiredTables = []string{"fixtures", "odds_quotes", "team_ratings", "rating_applied_fixtures"}

// Initialize creates a database connection pool and verifies the schema is migrated
func Initialize(ctx context.Context, cfg *config.Config, log *logrus.Logger) (*DB, error) {
	db, err := NewDB(ctx, &cfg.Database)
	if err != nil {
		return nil, err
	}

	for _, table := range requiredTables {
		var exists bool
		if err := db.pool.QueryRow(ctx, "SELECT to_regclass($1) IS NOT NULL", "public."+table).Scan(&exists); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to check table %s: %w", table, err)
		}
		if !exists {
			db.Close()
			return nil, fmt.Errorf("table %s not found, apply migrations/ before starting", table)
		}
	}

	var fixtures int64
	if err := db.pool.QueryRow(ctx, "SELECT COUNT(*) FROM fixtures").Scan(&fixtures); err == nil && fixtures == 0 {
		log.Warn("No fixtures stored yet, run `valuebet sync fixtures` to ingest")
	}

	return db, nil
}
