package models

import (
	"time"
)

// BetSlip is a snapshot of the user's current parlay. TotalOdds,
// TotalDecimal and PotentialPayout are derived from Legs and TotalStake and
// are only ever set by the bet slip state machine.
type BetSlip struct {
	ID              string    `json:"id"`
	Legs            []Leg     `json:"legs"`
	TotalStake      float64   `json:"totalStake"`
	TotalOdds       int       `json:"totalOdds"`
	TotalDecimal    float64   `json:"totalDecimal"`
	PotentialPayout float64   `json:"potentialPayout"`
	CreatedAt       time.Time `json:"createdAt"`
}

// Clone returns a deep copy of the slip's leg list
func (s *BetSlip) Clone() *BetSlip {
	if s == nil {
		return nil
	}
	c := *s
	c.Legs = CloneLegs(s.Legs)
	return &c
}

// FindLeg returns the index of the leg with the given id, or -1
func (s *BetSlip) FindLeg(legID string) int {
	if s == nil {
		return -1
	}
	for i, leg := range s.Legs {
		if leg.ID == legID {
			return i
		}
	}
	return -1
}

// Serialize flattens the slip for storage
func (s *BetSlip) Serialize() SerializedSlip {
	return SerializedSlip{
		ID:              s.ID,
		Legs:            CloneLegs(s.Legs),
		TotalStake:      s.TotalStake,
		TotalOdds:       s.TotalOdds,
		PotentialPayout: s.PotentialPayout,
		CreatedAt:       s.CreatedAt.UTC(),
	}
}

// SerializedSlip is the storage shape of a BetSlip. Stores treat it as an
// opaque JSON document and never migrate older shapes.
type SerializedSlip struct {
	ID              string    `json:"id"`
	Legs            []Leg     `json:"legs"`
	TotalStake      float64   `json:"totalStake"`
	TotalOdds       int       `json:"totalOdds"`
	PotentialPayout float64   `json:"potentialPayout"`
	CreatedAt       time.Time `json:"createdAt"`
}
