package models

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Leg is one selectable outcome of a parlay. Legs are values: helpers that
// change a field return a new Leg and never edit the receiver.
type Leg struct {
	ID       string `json:"id" validate:"required"`
	EventID  string `json:"eventId" validate:"required"`
	// MarketID may be empty. The empty string is one market of the event.
	MarketID string `json:"marketId"`
	// Odds in American notation, never 0.
	Odds int `json:"odds"`

	Confidence    *float64 `json:"confidence,omitempty" validate:"omitempty,gte=0,lte=100"`
	SelectedStake *float64 `json:"selectedStake,omitempty" validate:"omitempty,gte=0"`

	Description string   `json:"description,omitempty"`
	Player      string   `json:"player,omitempty"`
	Sport       string   `json:"sport,omitempty"`
	Bookmaker   string   `json:"bookmaker,omitempty"`
	Line        *float64 `json:"line,omitempty"`
}

// SelectionKey identifies the market a leg selects. Two legs with the same
// key are the same selection even if their ids differ.
type SelectionKey struct {
	EventID  string
	MarketID string
}

// Key returns the leg's selection key
func (l Leg) Key() SelectionKey {
	return SelectionKey{EventID: l.EventID, MarketID: l.MarketID}
}

// Validate checks the leg's required identity and odds fields
func (l Leg) Validate() error {
	if l.Odds == 0 {
		return fmt.Errorf("leg %q: %w: odds cannot be 0", l.ID, ErrInvalidOdds)
	}
	if err := validate.Struct(l); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("leg %q: %w: field '%s' failed '%s'", l.ID, ErrInvalidLeg, verrs[0].Field(), verrs[0].Tag())
		}
		return fmt.Errorf("leg %q: %w: %v", l.ID, ErrInvalidLeg, err)
	}
	return nil
}

// WithSelectedStake returns a copy of the leg carrying a per-leg stake override
func (l Leg) WithSelectedStake(amount float64) Leg {
	l.SelectedStake = &amount
	return l
}

// Stake returns the per-leg override, or fallback when none is set
func (l Leg) Stake(fallback float64) float64 {
	if l.SelectedStake == nil {
		return fallback
	}
	return *l.SelectedStake
}

// CloneLegs returns a copy of legs that shares no backing array with the input
func CloneLegs(legs []Leg) []Leg {
	if legs == nil {
		return nil
	}
	out := make([]Leg, len(legs))
	copy(out, legs)
	return out
}
