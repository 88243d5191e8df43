package service

import (
	"context"
	"fmt"

	"github.com/yourusername/parlay-slip/internal/models"
	"github.com/yourusername/parlay-slip/internal/parlay"
)

// RoundRobinResult is every combination of a slip's legs plus totals
type RoundRobinResult struct {
	Size         int                      `json:"size"`
	Combinations []parlay.Combination     `json:"combinations"`
	Summary      parlay.RoundRobinSummary `json:"summary"`
}

// RoundRobin enumerates size-leg parlays from the session's slip. With a
// nil stake each combination uses the smallest per-leg override among its
// legs, falling back to the slip's total stake. Pools larger than the
// configured maximum return ErrPoolTooLarge.
func (s *Service) RoundRobin(ctx context.Context, sessionID string, size int, stake *float64) (RoundRobinResult, error) {
	var (
		pool     []models.Leg
		fallback float64
	)
	err := s.withSession(ctx, sessionID, func(sess *session) error {
		st := sess.machine.Snapshot()
		if st.Slip == nil {
			return models.ErrEmptySlip
		}
		pool = st.Slip.Legs
		fallback = st.Slip.TotalStake
		return nil
	})
	if err != nil {
		return RoundRobinResult{}, err
	}

	if len(pool) > s.cfg.MaxPool {
		return RoundRobinResult{}, fmt.Errorf("%w: %d legs, limit %d", ErrPoolTooLarge, len(pool), s.cfg.MaxPool)
	}

	var combos []parlay.Combination
	if stake != nil {
		combos, err = parlay.RoundRobin(pool, size, *stake)
	} else {
		combos, err = parlay.RoundRobinWithOverrides(pool, size, fallback)
	}
	if err != nil {
		return RoundRobinResult{}, err
	}

	summary := parlay.Summarize(combos)
	s.metrics.RecordRoundRobin(len(combos))
	s.log.LogRoundRobin(sessionID, len(pool), size, len(combos), summary.TotalStake)

	return RoundRobinResult{Size: size, Combinations: combos, Summary: summary}, nil
}
