package repository

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/yourusername/parlay-slip/internal/models"
)

// CachedSlipRepository puts an in-process read-through cache in front of
// another SlipRepository. Writes go to the primary first and update the
// cache only on success.
type CachedSlipRepository struct {
	primary SlipRepository
	cache   *cache.Cache
	hits    atomic.Int64
	misses  atomic.Int64
}

// NewCachedSlipRepository wraps primary with a cache of the given ttl
func NewCachedSlipRepository(primary SlipRepository, ttl time.Duration) *CachedSlipRepository {
	return &CachedSlipRepository{
		primary: primary,
		cache:   cache.New(ttl, 2*ttl),
	}
}

// Save writes through to the primary store
func (r *CachedSlipRepository) Save(ctx context.Context, sessionID string, slip models.SerializedSlip) error {
	if err := r.primary.Save(ctx, sessionID, slip); err != nil {
		r.cache.Delete(sessionID)
		return err
	}
	slip.Legs = models.CloneLegs(slip.Legs)
	r.cache.SetDefault(sessionID, slip)
	return nil
}

// Load serves from cache, falling back to the primary store
func (r *CachedSlipRepository) Load(ctx context.Context, sessionID string) (*models.SerializedSlip, error) {
	if v, ok := r.cache.Get(sessionID); ok {
		r.hits.Add(1)
		slip := v.(models.SerializedSlip)
		slip.Legs = models.CloneLegs(slip.Legs)
		return &slip, nil
	}
	r.misses.Add(1)

	slip, err := r.primary.Load(ctx, sessionID)
	if err != nil || slip == nil {
		return slip, err
	}
	cached := *slip
	cached.Legs = models.CloneLegs(slip.Legs)
	r.cache.SetDefault(sessionID, cached)
	return slip, nil
}

// Delete removes the slip from both layers
func (r *CachedSlipRepository) Delete(ctx context.Context, sessionID string) error {
	r.cache.Delete(sessionID)
	return r.primary.Delete(ctx, sessionID)
}

// Ping delegates to the primary when it supports it
func (r *CachedSlipRepository) Ping(ctx context.Context) error {
	if p, ok := r.primary.(Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

// Stats returns cache hits and misses
func (r *CachedSlipRepository) Stats() (hits, misses int64) {
	return r.hits.Load(), r.misses.Load()
}
