package database

import (
	"context"
	"fmt"

	"github.com/yourusername/parlay-slip/internal/config"
)

var requiredTables = []string{"slips", "parlay_templates"}

// Initialize creates a database connection pool and verifies the schema is migrated
func Initialize(ctx context.Context, cfg *config.Config) (*DB, error) {
	db, err := NewDB(ctx, &cfg.Database)
	if err != nil {
		return nil, err
	}

	for _, table := range requiredTables {
		var exists bool
		err := db.pool.QueryRow(ctx,
			"SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_name = $1)", table,
		).Scan(&exists)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to check table %s: %w", table, err)
		}
		if !exists {
			db.Close()
			return nil, fmt.Errorf("table %s not found, run migrations: migrate -path migrations -database \"%s\" up",
				table, "postgres://...")
		}
	}

	return db, nil
}
