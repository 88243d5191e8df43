package betslip

import "github.com/yourusername/parlay-slip/internal/models"

// Event is a slip mutation request. The set of events is closed; Transition
// handles every implementation in this file.
type Event interface {
	// Name is the event's wire name, used in logs and metrics.
	Name() string
	sealed()
}

// AddLeg appends a leg after validation
type AddLeg struct {
	Leg models.Leg
}

// RemoveLeg drops the leg with LegID; removing the last leg empties the slip
type RemoveLeg struct {
	LegID string
}

// Clear discards the slip
type Clear struct{}

// SetTotalStake changes the whole-slip stake
type SetTotalStake struct {
	Amount float64
}

// SetLegStake records a per-leg stake override used by round-robin pricing
type SetLegStake struct {
	LegID  string
	Amount float64
}

// ReorderLegs rearranges the slip's legs. LegIDs must be a permutation of
// the current leg ids.
type ReorderLegs struct {
	LegIDs []string
}

func (AddLeg) Name() string { return "ADD_LEG" }
func (RemoveLeg) Name() string { return "REMOVE_LEG" }
func (Clear) Name() string { return "CLEAR" }
func (SetTotalStake) Name() string { return "SET_TOTAL_STAKE" }
func (SetLegStake) Name() string { return "SET_LEG_STAKE" }
func (ReorderLegs) Name() string { return "REORDER_LEGS" }

func (AddLeg) sealed() {}
func (RemoveLeg) sealed() {}
func (Clear) sealed() {}
func (SetTotalStake) sealed() {}
func (SetLegStake) sealed() {}
func (ReorderLegs) sealed() {}
