package parlay

import (
	"fmt"

	"github.com/yourusername/parlay-slip/internal/models"
)

// DefaultMaxLegs is the slip capacity used when none is configured
const DefaultMaxLegs = 10

// Validator decides whether a candidate leg may join an existing leg list.
// The zero value has a capacity of 0 and rejects every leg.
type Validator struct {
	MaxLegs         int
	AllowCorrelated bool
}

// NewValidator creates a validator with the given capacity and correlation policy
func NewValidator(maxLegs int, allowCorrelated bool) Validator {
	return Validator{MaxLegs: maxLegs, AllowCorrelated: allowCorrelated}
}

// Rejection explains why a candidate leg was refused
type Rejection struct {
	Reason      error
	CandidateID string
	// ConflictID is the existing leg that caused the rejection, empty for capacity.
	ConflictID string
}

func (r *Rejection) Error() string {
	if r.ConflictID == "" {
		return fmt.Sprintf("leg %q rejected: %v", r.CandidateID, r.Reason)
	}
	return fmt.Sprintf("leg %q rejected: %v with leg %q", r.CandidateID, r.Reason, r.ConflictID)
}

func (r *Rejection) Unwrap() error {
	return r.Reason
}

// Check returns nil when candidate may be appended to existing. Checks run in
// order: leg shape, capacity, duplicate selection, then same-event
// correlation. A repeated leg id counts as a duplicate selection. The first
// failure wins. Check never modifies existing.
func (v Validator) Check(existing []models.Leg, candidate models.Leg) error {
	if err := candidate.Validate(); err != nil {
		return err
	}

	if len(existing) >= v.MaxLegs {
		return &Rejection{Reason: models.ErrMaxLegsExceeded, CandidateID: candidate.ID}
	}

	key := candidate.Key()
	for _, leg := range existing {
		if leg.ID == candidate.ID || leg.Key() == key {
			return &Rejection{Reason: models.ErrDuplicateSelection, CandidateID: candidate.ID, ConflictID: leg.ID}
		}
	}

	if !v.AllowCorrelated {
		for _, leg := range existing {
			if Correlated(leg, candidate) {
				return &Rejection{Reason: models.ErrCorrelatedSelection, CandidateID: candidate.ID, ConflictID: leg.ID}
			}
		}
	}

	return nil
}

// Correlated reports whether two legs are treated as statistically
// dependent. Only a shared event counts; cross-event relationships such as
// two props on the same player in different contests are not modeled.
func Correlated(a, b models.Leg) bool {
	return a.EventID == b.EventID
}
