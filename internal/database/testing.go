package database

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/yourusername/parlay-slip/internal/config"
)

// TestConfigEnv names the config file used by integration tests
const TestConfigEnv = "PARLAY_SLIP_TEST_CONFIG"

// SetupTestDB connects to the database named by PARLAY_SLIP_TEST_CONFIG, skipping the test when unset
func SetupTestDB(t *testing.T) *DB {
	t.Helper()

	path := os.Getenv(TestConfigEnv)
	if path == "" {
		t.Skipf("integration test - set %s to a config file with a migrated database", TestConfigEnv)
	}

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("failed to load test config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	db, err := Initialize(ctx, cfg)
	if err != nil {
		t.Fatalf("failed to create test database connection: %v", err)
	}

	t.Cleanup(db.Close)
	return db
}

// TruncateTestDB empties the slip tables between tests
func TruncateTestDB(t *testing.T, db *DB) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := db.pool.Exec(ctx, "TRUNCATE slips, parlay_templates"); err != nil {
		t.Fatalf("failed to truncate test tables: %v", err)
	}
}
