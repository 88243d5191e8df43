package betslip

import (
	"fmt"
	"math"

	"github.com/yourusername/parlay-slip/internal/models"
	"github.com/yourusername/parlay-slip/internal/parlay"
)

// Transition applies ev to st and returns the next state. It never modifies
// st. When ev is rejected or invalid the returned state is st itself and the
// error says why. Derived slip fields are recomputed from legs and stake on
// every change, so no reachable state carries stale odds or payout.
func Transition(cfg Config, st State, ev Event, env Env) (State, error) {
	switch e := ev.(type) {
	case AddLeg:
		return addLeg(cfg, st, e, env)
	case RemoveLeg:
		return removeLeg(st, e)
	case Clear:
		return State{}, nil
	case SetTotalStake:
		return setTotalStake(st, e)
	case SetLegStake:
		return setLegStake(st, e)
	case ReorderLegs:
		return reorderLegs(st, e)
	default:
		return st, fmt.Errorf("unknown bet slip event %T", ev)
	}
}

func addLeg(cfg Config, st State, e AddLeg, env Env) (State, error) {
	var existing []models.Leg
	if st.Slip != nil {
		existing = st.Slip.Legs
	}
	if err := cfg.Validator().Check(existing, e.Leg); err != nil {
		return st, err
	}

	var next *models.BetSlip
	if st.Slip == nil {
		next = &models.BetSlip{
			ID:         env.NewID(),
			TotalStake: cfg.DefaultStake,
			CreatedAt:  env.Now(),
		}
	} else {
		next = st.Slip.Clone()
	}
	next.Legs = append(next.Legs, e.Leg)

	if err := reprice(next); err != nil {
		return st, err
	}
	return State{Slip: next}, nil
}

func removeLeg(st State, e RemoveLeg) (State, error) {
	if st.Slip == nil || st.Slip.FindLeg(e.LegID) < 0 {
		return st, nil
	}

	remaining := make([]models.Leg, 0, len(st.Slip.Legs)-1)
	for _, leg := range st.Slip.Legs {
		if leg.ID != e.LegID {
			remaining = append(remaining, leg)
		}
	}
	if len(remaining) == 0 {
		return State{}, nil
	}

	next := *st.Slip
	next.Legs = remaining
	if err := reprice(&next); err != nil {
		return st, err
	}
	return State{Slip: &next}, nil
}

func setTotalStake(st State, e SetTotalStake) (State, error) {
	if err := checkStake(e.Amount); err != nil {
		return st, err
	}
	if st.Slip == nil {
		return st, nil
	}

	next := st.Slip.Clone()
	next.TotalStake = e.Amount
	next.PotentialPayout = next.TotalStake * next.TotalDecimal
	return State{Slip: next}, nil
}

func setLegStake(st State, e SetLegStake) (State, error) {
	if err := checkStake(e.Amount); err != nil {
		return st, err
	}
	if st.Slip == nil {
		return st, nil
	}
	if st.Slip.FindLeg(e.LegID) < 0 {
		return st, fmt.Errorf("%w: %q", models.ErrLegNotFound, e.LegID)
	}

	next := st.Slip.Clone()
	for i, leg := range next.Legs {
		if leg.ID == e.LegID {
			next.Legs[i] = leg.WithSelectedStake(e.Amount)
		}
	}
	return State{Slip: next}, nil
}

func reorderLegs(st State, e ReorderLegs) (State, error) {
	if st.Slip == nil {
		return st, nil
	}
	if len(e.LegIDs) != len(st.Slip.Legs) {
		return st, fmt.Errorf("%w: got %d ids for %d legs", models.ErrInvalidOrder, len(e.LegIDs), len(st.Slip.Legs))
	}

	byID := make(map[string][]models.Leg, len(st.Slip.Legs))
	for _, leg := range st.Slip.Legs {
		byID[leg.ID] = append(byID[leg.ID], leg)
	}
	ordered := make([]models.Leg, 0, len(e.LegIDs))
	for _, id := range e.LegIDs {
		queue := byID[id]
		if len(queue) == 0 {
			return st, fmt.Errorf("%w: unknown or repeated leg %q", models.ErrInvalidOrder, id)
		}
		ordered = append(ordered, queue[0])
		byID[id] = queue[1:]
	}

	next := *st.Slip
	next.Legs = ordered
	if err := reprice(&next); err != nil {
		return st, err
	}
	return State{Slip: &next}, nil
}

// reprice recomputes every derived field of slip from its legs and stake
func reprice(slip *models.BetSlip) error {
	american, err := parlay.CombinedOdds(slip.Legs)
	if err != nil {
		return err
	}
	dec, err := parlay.CombinedDecimal(slip.Legs)
	if err != nil {
		return err
	}

	slip.TotalOdds = american
	slip.TotalDecimal = dec
	slip.PotentialPayout = slip.TotalStake * dec
	return nil
}

func checkStake(amount float64) error {
	if math.IsNaN(amount) || math.IsInf(amount, 0) || amount < 0 {
		return fmt.Errorf("%w: stake must be >= 0, got %v", models.ErrInvalidStake, amount)
	}
	return nil
}
