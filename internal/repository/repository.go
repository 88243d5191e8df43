package repository

import (
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/yourusername/parlay-slip/internal/config"
	"github.com/yourusername/parlay-slip/internal/database"
)

// Repositories holds the repository implementations selected by configuration
type Repositories struct {
	Slips     SlipRepository
	Templates TemplateRepository
	Backend   string
}

// NewRepositories builds the stores for cfg.Store.Backend. db is required for
// postgres and rdb for redis; templates live in postgres when available and
// in memory otherwise.
func NewRepositories(cfg *config.Config, db *database.DB, rdb *redis.Client) (*Repositories, error) {
	repos := &Repositories{Backend: cfg.Store.Backend}

	switch cfg.Store.Backend {
	case config.StoreMemory:
		repos.Slips = NewMemorySlipRepository()
	case config.StorePostgres:
		if db == nil {
			return nil, fmt.Errorf("database connection is required for the postgres store")
		}
		repos.Slips = NewPostgresSlipRepository(db)
	case config.StoreRedis:
		if rdb == nil {
			return nil, fmt.Errorf("redis client is required for the redis store")
		}
		repos.Slips = NewRedisSlipRepository(rdb, cfg.RedisTTL())
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}

	if db != nil {
		repos.Templates = NewPostgresTemplateRepository(db)
	} else {
		repos.Templates = NewMemoryTemplateRepository()
	}

	if cfg.Store.CacheEnabled && cfg.Store.Backend != config.StoreMemory && cfg.CacheTTL() > 0 {
		repos.Slips = NewCachedSlipRepository(repos.Slips, cfg.CacheTTL())
	}

	return repos, nil
}
