package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/parlay-slip/internal/models"
)

func slipWith(id string, legs int) *models.SerializedSlip {
	s := &models.SerializedSlip{ID: id, TotalStake: 10}
	for i := 0; i < legs; i++ {
		s.Legs = append(s.Legs, models.Leg{ID: string(rune('a' + i)), EventID: "e", MarketID: "m", Odds: 100})
	}
	return s
}

func TestPersisterNewestWriteWins(t *testing.T) {
	repo := newFlakyRepo()
	p := NewPersister(repo, PersisterConfig{QueueSize: 8}, nil, nil)
	p.Start(context.Background())
	defer p.Stop()
	ctx := context.Background()

	repo.failing.Store(true)
	p.Enqueue("s1", slipWith("slip-1", 1))
	p.Enqueue("s1", slipWith("slip-1", 2))
	require.NoError(t, p.Flush(ctx))
	assert.Equal(t, 1, p.Pending(), "one retry entry per session")

	unsaved, ok := p.Unsaved("s1")
	require.True(t, ok)
	assert.Len(t, unsaved.Legs, 2)

	repo.failing.Store(false)
	succeeded, remaining := p.RetryPending(ctx)
	assert.Equal(t, 1, succeeded)
	assert.Zero(t, remaining)

	saved, err := repo.Load(ctx, "s1")
	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.Len(t, saved.Legs, 2)

	_, ok = p.Unsaved("s1")
	assert.False(t, ok)
}

func TestPersisterSkipsStaleRetry(t *testing.T) {
	repo := newFlakyRepo()
	p := NewPersister(repo, PersisterConfig{QueueSize: 8}, nil, nil)
	p.Start(context.Background())
	defer p.Stop()
	ctx := context.Background()

	repo.failing.Store(true)
	p.Enqueue("s1", slipWith("slip-1", 1))
	require.NoError(t, p.Flush(ctx))
	require.Equal(t, 1, p.Pending())

	repo.failing.Store(false)
	p.Enqueue("s1", slipWith("slip-1", 3))
	require.NoError(t, p.Flush(ctx))
	assert.Zero(t, p.Pending(), "a newer stored write clears the older retry")

	before := repo.saves.Load()
	succeeded, remaining := p.RetryPending(ctx)
	assert.Zero(t, succeeded)
	assert.Zero(t, remaining)
	assert.Equal(t, before, repo.saves.Load())

	saved, err := repo.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Len(t, saved.Legs, 3)
}

func TestPersisterRetryLimitDropsNewSessions(t *testing.T) {
	repo := newFlakyRepo()
	p := NewPersister(repo, PersisterConfig{QueueSize: 8, RetryLimit: 2}, nil, nil)
	p.Start(context.Background())
	defer p.Stop()
	ctx := context.Background()

	repo.failing.Store(true)
	for _, s := range []string{"s1", "s2", "s3"} {
		p.Enqueue(s, slipWith("slip-"+s, 1))
	}
	require.NoError(t, p.Flush(ctx))
	assert.Equal(t, 2, p.Pending())

	// a session already waiting may still replace its entry
	p.Enqueue("s1", slipWith("slip-s1", 2))
	require.NoError(t, p.Flush(ctx))
	assert.Equal(t, 2, p.Pending())
}

func TestPersisterDeletes(t *testing.T) {
	repo := newFlakyRepo()
	p := NewPersister(repo, PersisterConfig{}, nil, nil)
	p.Start(context.Background())
	defer p.Stop()
	ctx := context.Background()

	p.Enqueue("s1", slipWith("slip-1", 1))
	p.Enqueue("s1", nil)
	require.NoError(t, p.Flush(ctx))

	saved, err := repo.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Nil(t, saved)
}

func TestPersisterStop(t *testing.T) {
	repo := newFlakyRepo()
	p := NewPersister(repo, PersisterConfig{}, nil, nil)
	p.Start(context.Background())

	p.Enqueue("s1", slipWith("slip-1", 1))
	p.Stop()
	p.Stop()

	saved, err := repo.Load(context.Background(), "s1")
	require.NoError(t, err)
	require.NotNil(t, saved, "queued writes drain on stop")

	p.Enqueue("s2", slipWith("slip-2", 1))
	assert.Equal(t, 1, p.Pending(), "writes after stop wait for a retry")
	assert.NoError(t, p.Flush(context.Background()))
}
