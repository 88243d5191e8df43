package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/yourusername/parlay-slip/internal/models"
)

const slipKeyPrefix = "parlay-slip:slip:"

// RedisSlipRepository stores slips as JSON strings with an optional TTL
type RedisSlipRepository struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisSlipRepository creates a redis-backed slip store. A zero ttl keeps slips forever.
func NewRedisSlipRepository(rdb *redis.Client, ttl time.Duration) *RedisSlipRepository {
	return &RedisSlipRepository{rdb: rdb, ttl: ttl}
}

func slipKey(sessionID string) string {
	return slipKeyPrefix + sessionID
}

// Save writes the slip, refreshing its expiry
func (r *RedisSlipRepository) Save(ctx context.Context, sessionID string, slip models.SerializedSlip) error {
	if sessionID == "" {
		return models.ErrInvalidID
	}

	data, err := json.Marshal(slip)
	if err != nil {
		return fmt.Errorf("failed to encode slip: %w", err)
	}
	if err := r.rdb.Set(ctx, slipKey(sessionID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save slip: %w", err)
	}
	return nil
}

// Load reads the slip; a missing key is (nil, nil)
func (r *RedisSlipRepository) Load(ctx context.Context, sessionID string) (*models.SerializedSlip, error) {
	data, err := r.rdb.Get(ctx, slipKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load slip: %w", err)
	}

	var slip models.SerializedSlip
	if err := json.Unmarshal(data, &slip); err != nil {
		return nil, fmt.Errorf("failed to decode slip: %w", err)
	}
	return &slip, nil
}

// Delete removes the slip
func (r *RedisSlipRepository) Delete(ctx context.Context, sessionID string) error {
	if err := r.rdb.Del(ctx, slipKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("failed to delete slip: %w", err)
	}
	return nil
}

// Ping verifies redis connectivity
func (r *RedisSlipRepository) Ping(ctx context.Context) error {
	return r.rdb.Ping(ctx).Err()
}
